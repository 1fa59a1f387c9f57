package handler

import (
	appledger "github.com/genlab/backend/internal/application/ledger"
	"github.com/genlab/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// InputHandler serves the input endpoints of the ledger
type InputHandler struct {
	BaseHandler
	ledger *appledger.LedgerService
	query  *appledger.QueryService
}

// NewInputHandler creates a new InputHandler
func NewInputHandler(ledgerService *appledger.LedgerService, queryService *appledger.QueryService) *InputHandler {
	return &InputHandler{
		ledger: ledgerService,
		query:  queryService,
	}
}

// Create godoc
// @ID           createInput
// @Summary      Register an input
// @Description  Registers material received for a bull. Elevated callers only.
// @Tags         inputs
// @Accept       json
// @Produce      json
// @Param        request body CreateInputRequest true "Input"
// @Success      201 {object} dto.Response{data=appledger.InputResponse}
// @Failure      400 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /inputs [post]
func (h *InputHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateInputRequest
	if !h.bindJSON(c, &req) {
		return
	}
	appReq, err := req.toApp()
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	input, err := h.ledger.CreateInput(c.Request.Context(), appReq, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, input)
}

// Search godoc
// @ID           searchInputs
// @Summary      Search inputs
// @Description  Lists inputs with bull and client context. Non-elevated callers see their own.
// @Tags         inputs
// @Produce      json
// @Param        search    query string false "Matches lot, escalarilla, bull and client"
// @Param        status    query string false "pending, processing, completed or cancelled"
// @Param        bull_id   query string false "Bull ID" format(uuid)
// @Param        date_from query string false "YYYY-MM-DD"
// @Param        date_to   query string false "YYYY-MM-DD"
// @Param        page      query int    false "Page"
// @Param        page_size query int    false "Page size"
// @Success      200 {object} dto.Response{data=[]appledger.InputResponse}
// @Security     BearerAuth
// @Router       /inputs [get]
func (h *InputHandler) Search(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req InputSearchRequest
	if !h.bindQuery(c, &req) {
		return
	}
	search, err := req.toSearch()
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	page, err := h.query.SearchInputs(c.Request.Context(), search, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	paginated(c, page)
}

// GetByID godoc
// @ID           getInput
// @Summary      Get an input
// @Tags         inputs
// @Produce      json
// @Param        id path string true "Input ID" format(uuid)
// @Success      200 {object} dto.Response{data=appledger.InputResponse}
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /inputs/{id} [get]
func (h *InputHandler) GetByID(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	input, err := h.query.GetInput(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, input)
}

// Update godoc
// @ID           updateInput
// @Summary      Update an input
// @Description  Lowering quantity_received below what was already taken fails with ERR_INVALID_REDUCTION.
// @Tags         inputs
// @Accept       json
// @Produce      json
// @Param        id      path string             true "Input ID" format(uuid)
// @Param        request body UpdateInputRequest true "Changes"
// @Success      200 {object} dto.Response{data=appledger.InputResponse}
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /inputs/{id} [put]
func (h *InputHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req UpdateInputRequest
	if !h.bindJSON(c, &req) {
		return
	}
	appReq, err := req.toApp()
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	input, err := h.ledger.UpdateInput(c.Request.Context(), id, appReq, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, input)
}

// Delete godoc
// @ID           deleteInput
// @Summary      Delete an input
// @Description  Removes an input with no withdrawals. The owning client or an elevated caller may delete it.
// @Tags         inputs
// @Param        id path string true "Input ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /inputs/{id} [delete]
func (h *InputHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.ledger.DeleteInput(c.Request.Context(), id, actor); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// ChangeStatus godoc
// @ID           changeInputStatus
// @Summary      Change the status of an input
// @Description  Only cancelled may be set explicitly; the other statuses are derived.
// @Tags         inputs
// @Accept       json
// @Produce      json
// @Param        id      path string                   true "Input ID" format(uuid)
// @Param        request body ChangeInputStatusRequest true "Status"
// @Success      200 {object} dto.Response{data=appledger.InputResponse}
// @Failure      400 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /inputs/{id}/status [patch]
func (h *InputHandler) ChangeStatus(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req ChangeInputStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	input, err := h.ledger.ChangeInputStatus(c.Request.Context(), id, req.Status, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, input)
}

// ListOutputs godoc
// @ID           listInputOutputs
// @Summary      List the withdrawals of an input
// @Tags         inputs
// @Produce      json
// @Param        id path string true "Input ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]appledger.OutputResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /inputs/{id}/outputs [get]
func (h *InputHandler) ListOutputs(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	outputs, err := h.query.ListOutputsByInput(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if outputs == nil {
		outputs = []appledger.OutputResponse{}
	}
	h.Success(c, outputs)
}

// Reconcile godoc
// @ID           reconcileInput
// @Summary      Recompute the derived fields of an input
// @Description  Elevated callers only. An overdrawn input is reported, not repaired.
// @Tags         inputs
// @Produce      json
// @Param        id path string true "Input ID" format(uuid)
// @Success      200 {object} dto.Response{data=appledger.ReconcileResult}
// @Failure      403 {object} dto.Response
// @Security     BearerAuth
// @Router       /inputs/{id}/reconcile [post]
func (h *InputHandler) Reconcile(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	result, err := h.ledger.ReconcileInput(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// ListByBull godoc
// @ID           listBullInputs
// @Summary      List the inputs of a bull
// @Tags         bulls
// @Produce      json
// @Param        id path string true "Bull ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]appledger.InputResponse}
// @Security     BearerAuth
// @Router       /bulls/{id}/inputs [get]
func (h *InputHandler) ListByBull(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	bullID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ListRequest
	if !h.bindQuery(c, &req) {
		return
	}

	page, err := h.query.ListInputsByBull(c.Request.Context(), bullID, req.ToFilter(), actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	paginated(c, page)
}
