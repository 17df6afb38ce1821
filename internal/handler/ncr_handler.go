package handler

import (
	"net/http"

	"qms/internal/middleware"
	"qms/internal/service"
	"qms/pkg/pagination"
	"qms/pkg/response"

	"github.com/gin-gonic/gin"
)

type NCRHandler struct {
	ncrService service.NCRService
}

func NewNCRHandler(ncrService service.NCRService) *NCRHandler {
	return &NCRHandler{ncrService: ncrService}
}

func (h *NCRHandler) RegisterRoutes(router *gin.RouterGroup) {
	ncrs := router.Group("/ncrs")
	{
		ncrs.GET("", middleware.RequirePermission("ncrs.read"), h.ListNCRs)
		ncrs.GET("/:id", middleware.RequirePermission("ncrs.read"), h.GetNCR)
		ncrs.POST("", middleware.RequirePermission("ncrs.write"), h.CreateNCR)
		ncrs.PUT("/:id", middleware.RequirePermission("ncrs.write"), h.UpdateNCR)
		ncrs.PUT("/:id/status", middleware.RequirePermission("ncrs.write"), h.ChangeStatus)
		ncrs.PUT("/:id/disposition", middleware.RequirePermission("ncrs.write"), h.SetDisposition)
		ncrs.POST("/:id/capas", middleware.RequirePermission("capas.write"), h.SpawnCAPA)
	}
}

// ListNCRs handles GET /ncrs
// @Summary      List NCRs
// @Tags         ncrs
// @Produce      json
// @Security     BearerAuth
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Items per page (default 10)"
// @Param        status       query     string  false  "Filter by status"
// @Param        severity     query     string  false  "Filter by severity"
// @Param        source       query     string  false  "Filter by source"
// @Param        supplier_id  query     int     false  "Filter by supplier"
// @Param        audit_id     query     int     false  "Filter by originating audit"
// @Success      200          {object}  response.Response{data=response.Paginated}
// @Router       /ncrs [get]
func (h *NCRHandler) ListNCRs(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.NCRFilter{
		Status:     c.Query("status"),
		Severity:   c.Query("severity"),
		Source:     c.Query("source"),
		SupplierID: uintQuery(c, "supplier_id"),
		AuditID:    uintQuery(c, "audit_id"),
	}

	ncrs, total, err := h.ncrService.ListNCRs(c.Request.Context(), filter, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Data:  ncrs,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}))
}

// GetNCR handles GET /ncrs/:id
// @Summary      Get NCR
// @Tags         ncrs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "NCR ID"
// @Success      200  {object}  response.Response{data=model.NCR}
// @Failure      404  {object}  response.Response
// @Router       /ncrs/{id} [get]
func (h *NCRHandler) GetNCR(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid NCR id"))
		return
	}

	ncr, err := h.ncrService.GetNCR(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ncr))
}

// CreateNCR handles POST /ncrs
// @Summary      Create NCR
// @Tags         ncrs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateNCRRequest  true  "Create NCR Payload"
// @Success      201      {object}  response.Response{data=model.NCR}
// @Failure      400      {object}  response.Response
// @Router       /ncrs [post]
func (h *NCRHandler) CreateNCR(c *gin.Context) {
	var req service.CreateNCRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ncr, err := h.ncrService.CreateNCR(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ncr))
}

// UpdateNCR handles PUT /ncrs/:id
func (h *NCRHandler) UpdateNCR(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid NCR id"))
		return
	}

	var req service.UpdateNCRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ncr, err := h.ncrService.UpdateNCR(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ncr))
}

// ChangeStatus handles PUT /ncrs/:id/status
// @Summary      Change NCR status
// @Description  Moves the NCR along open/under_review/dispositioned/closed; closing requires a disposition
// @Tags         ncrs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int  true  "NCR ID"
// @Param        payload  body      object{status=string}  true  "Target Status"
// @Success      200      {object}  response.Response{data=model.NCR}
// @Failure      400      {object}  response.Response
// @Router       /ncrs/{id}/status [put]
func (h *NCRHandler) ChangeStatus(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid NCR id"))
		return
	}

	var req struct {
		Status string `json:"status" binding:"required,oneof=open under_review dispositioned closed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ncr, err := h.ncrService.ChangeStatus(c.Request.Context(), id, req.Status, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ncr))
}

// SetDisposition handles PUT /ncrs/:id/disposition
// @Summary      Set NCR disposition
// @Tags         ncrs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                         true  "NCR ID"
// @Param        payload  body      service.DispositionRequest  true  "Disposition"
// @Success      200      {object}  response.Response{data=model.NCR}
// @Failure      400      {object}  response.Response
// @Router       /ncrs/{id}/disposition [put]
func (h *NCRHandler) SetDisposition(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid NCR id"))
		return
	}

	var req service.DispositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ncr, err := h.ncrService.SetDisposition(c.Request.Context(), id, req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ncr))
}

// SpawnCAPA handles POST /ncrs/:id/capas
// @Summary      Create CAPA from NCR
// @Description  Creates a corrective or preventive action linked to the NCR
// @Tags         ncrs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                       true  "NCR ID"
// @Param        payload  body      service.SpawnCAPARequest  true  "CAPA Payload"
// @Success      201      {object}  response.Response{data=model.CAPA}
// @Failure      400      {object}  response.Response
// @Router       /ncrs/{id}/capas [post]
func (h *NCRHandler) SpawnCAPA(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid NCR id"))
		return
	}

	var req service.SpawnCAPARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	capa, err := h.ncrService.SpawnCAPA(c.Request.Context(), id, req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, capa))
}
