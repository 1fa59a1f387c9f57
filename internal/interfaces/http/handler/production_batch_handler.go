package handler

import (
	appledger "github.com/genlab/backend/internal/application/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProductionBatchHandler serves production batches and their compensation
type ProductionBatchHandler struct {
	BaseHandler
	batches     *appledger.BatchService
	compensator *appledger.Compensator
}

// NewProductionBatchHandler creates a new ProductionBatchHandler
func NewProductionBatchHandler(batchService *appledger.BatchService, compensator *appledger.Compensator) *ProductionBatchHandler {
	return &ProductionBatchHandler{
		batches:     batchService,
		compensator: compensator,
	}
}

// Create godoc
// @ID           createProductionBatch
// @Summary      Open a production batch
// @Description  Outputs listed in output_ids are attached; an unknown id fails with 404.
// @Tags         production-batches
// @Accept       json
// @Produce      json
// @Param        request body CreateProductionBatchRequest true "Batch"
// @Success      201 {object} dto.Response{data=appledger.ProductionBatchResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /production-batches [post]
func (h *ProductionBatchHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateProductionBatchRequest
	if !h.bindJSON(c, &req) {
		return
	}
	appReq, err := req.toApp()
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	batch, err := h.batches.CreateProductionBatch(c.Request.Context(), appReq, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, batch)
}

// List godoc
// @ID           listProductionBatches
// @Summary      List production batches of a client
// @Description  Non-elevated callers always get their own batches.
// @Tags         production-batches
// @Produce      json
// @Param        client_id query string false "Client ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]appledger.ProductionBatchResponse}
// @Security     BearerAuth
// @Router       /production-batches [get]
func (h *ProductionBatchHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req BatchListRequest
	if !h.bindQuery(c, &req) {
		return
	}
	clientID := actor.UserID
	if req.ClientID != "" {
		clientID = uuid.MustParse(req.ClientID)
	}

	page, err := h.batches.ListProductionBatches(c.Request.Context(), clientID, req.ToFilter(), actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	paginated(c, page)
}

// GetByID godoc
// @ID           getProductionBatch
// @Summary      Get a production batch with its outputs and opus
// @Tags         production-batches
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} dto.Response{data=appledger.ProductionBatchResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /production-batches/{id} [get]
func (h *ProductionBatchHandler) GetByID(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	batch, err := h.batches.GetProductionBatch(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, batch)
}

// AttachOutputs godoc
// @ID           attachBatchOutputs
// @Summary      Attach outputs to a production batch
// @Tags         production-batches
// @Accept       json
// @Produce      json
// @Param        id      path string               true "Batch ID" format(uuid)
// @Param        request body AttachOutputsRequest true "Outputs"
// @Success      200 {object} dto.Response{data=appledger.ProductionBatchResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /production-batches/{id}/outputs [post]
func (h *ProductionBatchHandler) AttachOutputs(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req AttachOutputsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	batch, err := h.batches.AttachOutputs(c.Request.Context(), id, req.OutputIDs, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, batch)
}

// AddOpus godoc
// @ID           addBatchOpus
// @Summary      Record the result of one donor
// @Tags         production-batches
// @Accept       json
// @Produce      json
// @Param        id      path string         true "Batch ID" format(uuid)
// @Param        request body AddOpusRequest true "Opus"
// @Success      201 {object} dto.Response{data=appledger.OpusResponse}
// @Failure      400 {object} dto.Response
// @Security     BearerAuth
// @Router       /production-batches/{id}/opus [post]
func (h *ProductionBatchHandler) AddOpus(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req AddOpusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	opus, err := h.batches.AddOpus(c.Request.Context(), id, req.toApp(), actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, opus)
}

// Delete godoc
// @ID           deleteProductionBatch
// @Summary      Delete a production batch
// @Description  Deletes the batch with its outputs and opus and returns the material to the inputs. Deleting again answers 404.
// @Tags         production-batches
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} dto.Response{data=appledger.CompensationReport}
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response "Batch is being deleted elsewhere"
// @Security     BearerAuth
// @Router       /production-batches/{id} [delete]
func (h *ProductionBatchHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	report, err := h.compensator.DeleteProductionBatch(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, report)
}
