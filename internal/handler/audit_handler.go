package handler

import (
	"context"
	"net/http"

	"qms/internal/middleware"
	"qms/internal/model"
	"qms/internal/service"
	"qms/pkg/pagination"
	"qms/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	audits := router.Group("/audits")
	{
		audits.GET("", middleware.RequirePermission("audits.read"), h.ListAudits)
		audits.GET("/:id", middleware.RequirePermission("audits.read"), h.GetAudit)
		audits.POST("", middleware.RequirePermission("audits.write"), h.CreateAudit)
		audits.PUT("/:id", middleware.RequirePermission("audits.write"), h.UpdateAudit)
		audits.DELETE("/:id", middleware.RequirePermission("audits.write"), h.DeleteAudit)

		audits.POST("/:id/checklist", middleware.RequirePermission("audits.write"), h.AddChecklistItems)
		audits.PUT("/:id/checklist/:itemId", middleware.RequirePermission("audits.write"), h.AnswerChecklistItem)

		audits.POST("/:id/start", middleware.RequirePermission("audits.write"), h.StartAudit)
		audits.POST("/:id/complete", middleware.RequirePermission("audits.write"), h.CompleteAudit)
		audits.POST("/:id/close", middleware.RequirePermission("audits.write"), h.CloseAudit)
	}
}

// ListAudits handles GET /audits
// @Summary      List audits
// @Tags         audits
// @Produce      json
// @Security     BearerAuth
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Items per page (default 10)"
// @Param        audit_type  query     string  false  "Filter by audit type"
// @Param        status      query     string  false  "Filter by status"
// @Param        supplier_id query     int     false  "Filter by supplier"
// @Success      200         {object}  response.Response{data=response.Paginated}
// @Router       /audits [get]
func (h *AuditHandler) ListAudits(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.AuditFilter{
		AuditType:  c.Query("audit_type"),
		Status:     c.Query("status"),
		SupplierID: uintQuery(c, "supplier_id"),
	}

	audits, total, err := h.auditService.ListAudits(c.Request.Context(), filter, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Data:  audits,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}))
}

// GetAudit handles GET /audits/:id
// @Summary      Get audit
// @Description  Fetch an audit with its ordered checklist
// @Tags         audits
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Audit ID"
// @Success      200  {object}  response.Response{data=model.Audit}
// @Failure      404  {object}  response.Response
// @Router       /audits/{id} [get]
func (h *AuditHandler) GetAudit(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid audit id"))
		return
	}

	audit, err := h.auditService.GetAudit(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, audit))
}

// CreateAudit handles POST /audits
// @Summary      Create audit
// @Tags         audits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateAuditRequest  true  "Create Audit Payload"
// @Success      201      {object}  response.Response{data=model.Audit}
// @Failure      400      {object}  response.Response
// @Router       /audits [post]
func (h *AuditHandler) CreateAudit(c *gin.Context) {
	var req service.CreateAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	audit, err := h.auditService.CreateAudit(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, audit))
}

// UpdateAudit handles PUT /audits/:id
func (h *AuditHandler) UpdateAudit(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid audit id"))
		return
	}

	var req service.UpdateAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	audit, err := h.auditService.UpdateAudit(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, audit))
}

// DeleteAudit handles DELETE /audits/:id
func (h *AuditHandler) DeleteAudit(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid audit id"))
		return
	}

	if err := h.auditService.DeleteAudit(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Audit deleted"))
}

// AddChecklistItems handles POST /audits/:id/checklist
// @Summary      Add checklist items
// @Description  Appends questions to a planned audit's checklist
// @Tags         audits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                             true  "Audit ID"
// @Param        payload  body      []service.ChecklistItemRequest  true  "Checklist Items"
// @Success      200      {object}  response.Response{data=model.Audit}
// @Failure      400      {object}  response.Response
// @Router       /audits/{id}/checklist [post]
func (h *AuditHandler) AddChecklistItems(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid audit id"))
		return
	}

	var items []service.ChecklistItemRequest
	if err := c.ShouldBindJSON(&items); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	audit, err := h.auditService.AddChecklistItems(c.Request.Context(), id, items)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, audit))
}

// AnswerChecklistItem handles PUT /audits/:id/checklist/:itemId
// @Summary      Answer checklist item
// @Description  Records a result for one checklist question while the audit is in progress. Nonconforming results may raise an NCR.
// @Tags         audits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                                 true  "Audit ID"
// @Param        itemId   path      int                                 true  "Checklist Item ID"
// @Param        payload  body      service.AnswerChecklistItemRequest  true  "Answer"
// @Success      200      {object}  response.Response{data=model.ChecklistItem}
// @Failure      400      {object}  response.Response
// @Router       /audits/{id}/checklist/{itemId} [put]
func (h *AuditHandler) AnswerChecklistItem(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid audit id"))
		return
	}
	itemID, ok := uintParam(c, "itemId")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid checklist item id"))
		return
	}

	var req service.AnswerChecklistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.auditService.AnswerChecklistItem(c.Request.Context(), id, itemID, req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// StartAudit handles POST /audits/:id/start
func (h *AuditHandler) StartAudit(c *gin.Context) {
	h.moveStatus(c, h.auditService.StartAudit)
}

// CompleteAudit handles POST /audits/:id/complete
// @Summary      Complete audit
// @Description  Completes an in-progress audit; every checklist item must be answered
// @Tags         audits
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Audit ID"
// @Success      200  {object}  response.Response{data=model.Audit}
// @Failure      400  {object}  response.Response
// @Router       /audits/{id}/complete [post]
func (h *AuditHandler) CompleteAudit(c *gin.Context) {
	h.moveStatus(c, h.auditService.CompleteAudit)
}

// CloseAudit handles POST /audits/:id/close
func (h *AuditHandler) CloseAudit(c *gin.Context) {
	h.moveStatus(c, h.auditService.CloseAudit)
}

func (h *AuditHandler) moveStatus(c *gin.Context, op func(ctx context.Context, id uint, actor *uuid.UUID) (*model.Audit, error)) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid audit id"))
		return
	}

	audit, err := op(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, audit))
}
