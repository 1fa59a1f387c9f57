package handler

import (
	appledger "github.com/genlab/backend/internal/application/ledger"
	"github.com/gin-gonic/gin"
)

// OutputHandler serves withdrawals
type OutputHandler struct {
	BaseHandler
	ledger *appledger.LedgerService
	query  *appledger.QueryService
}

// NewOutputHandler creates a new OutputHandler
func NewOutputHandler(ledgerService *appledger.LedgerService, queryService *appledger.QueryService) *OutputHandler {
	return &OutputHandler{
		ledger: ledgerService,
		query:  queryService,
	}
}

// Create godoc
// @ID           createOutput
// @Summary      Withdraw material from an input
// @Description  A replayed Idempotency-Key is rejected with 409.
// @Tags         outputs
// @Accept       json
// @Produce      json
// @Param        id              path   string              true  "Input ID" format(uuid)
// @Param        Idempotency-Key header string              false "Client retry key"
// @Param        request         body   CreateOutputRequest true  "Withdrawal"
// @Success      201 {object} dto.Response{data=appledger.OutputResponse}
// @Failure      400 {object} dto.Response "Validation or capacity exceeded"
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /inputs/{id}/outputs [post]
func (h *OutputHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	inputID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req CreateOutputRequest
	if !h.bindJSON(c, &req) {
		return
	}
	appReq, err := req.toApp()
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	output, err := h.ledger.CreateOutput(c.Request.Context(), inputID, appReq, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, output)
}

// Search godoc
// @ID           searchOutputs
// @Summary      Search withdrawals
// @Tags         outputs
// @Produce      json
// @Param        search    query string false "Matches remark, bull and client"
// @Param        input_id  query string false "Input ID" format(uuid)
// @Param        date_from query string false "YYYY-MM-DD"
// @Param        date_to   query string false "YYYY-MM-DD"
// @Success      200 {object} dto.Response{data=[]appledger.OutputResponse}
// @Security     BearerAuth
// @Router       /outputs [get]
func (h *OutputHandler) Search(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req OutputSearchRequest
	if !h.bindQuery(c, &req) {
		return
	}

	page, err := h.query.SearchOutputs(c.Request.Context(), req.toSearch(), actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	paginated(c, page)
}

// GetByID godoc
// @ID           getOutput
// @Summary      Get a withdrawal
// @Tags         outputs
// @Produce      json
// @Param        id path string true "Output ID" format(uuid)
// @Success      200 {object} dto.Response{data=appledger.OutputResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /outputs/{id} [get]
func (h *OutputHandler) GetByID(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	output, err := h.query.GetOutput(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, output)
}

// Update godoc
// @ID           updateOutput
// @Summary      Update a withdrawal
// @Tags         outputs
// @Accept       json
// @Produce      json
// @Param        id      path string              true "Output ID" format(uuid)
// @Param        request body UpdateOutputRequest true "Changes"
// @Success      200 {object} dto.Response{data=appledger.OutputResponse}
// @Failure      400 {object} dto.Response
// @Security     BearerAuth
// @Router       /outputs/{id} [put]
func (h *OutputHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req UpdateOutputRequest
	if !h.bindJSON(c, &req) {
		return
	}
	appReq, err := req.toApp()
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	output, err := h.ledger.UpdateOutput(c.Request.Context(), id, appReq, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, output)
}

// Delete godoc
// @ID           deleteOutput
// @Summary      Delete a withdrawal
// @Description  Returns the material to its input and detaches the output from any batch.
// @Tags         outputs
// @Param        id path string true "Output ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /outputs/{id} [delete]
func (h *OutputHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.ledger.DeleteOutput(c.Request.Context(), id, actor); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}
