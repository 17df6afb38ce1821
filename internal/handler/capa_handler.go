package handler

import (
	"net/http"

	"qms/internal/middleware"
	"qms/internal/service"
	"qms/pkg/pagination"
	"qms/pkg/response"

	"github.com/gin-gonic/gin"
)

type CAPAHandler struct {
	capaService service.CAPAService
}

func NewCAPAHandler(capaService service.CAPAService) *CAPAHandler {
	return &CAPAHandler{capaService: capaService}
}

func (h *CAPAHandler) RegisterRoutes(router *gin.RouterGroup) {
	capas := router.Group("/capas")
	{
		capas.GET("", middleware.RequirePermission("capas.read"), h.ListCAPAs)
		capas.GET("/:id", middleware.RequirePermission("capas.read"), h.GetCAPA)
		capas.POST("", middleware.RequirePermission("capas.write"), h.CreateCAPA)
		capas.PUT("/:id", middleware.RequirePermission("capas.write"), h.UpdateCAPA)
		capas.PUT("/:id/status", middleware.RequirePermission("capas.write"), h.ChangeStatus)
		capas.POST("/:id/verify", middleware.RequirePermission("capas.write"), h.Verify)
		capas.POST("/notify-overdue", middleware.RequirePermission("capas.write"), h.NotifyOverdue)
	}
}

// ListCAPAs handles GET /capas
// @Summary      List CAPAs
// @Tags         capas
// @Produce      json
// @Security     BearerAuth
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 10)"
// @Param        status     query     string  false  "Filter by status"
// @Param        capa_type  query     string  false  "Filter by type"
// @Param        ncr_id     query     int     false  "Filter by linked NCR"
// @Param        overdue    query     bool    false  "Only CAPAs past their due date"
// @Success      200        {object}  response.Response{data=response.Paginated}
// @Router       /capas [get]
func (h *CAPAHandler) ListCAPAs(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.CAPAFilter{
		Status:   c.Query("status"),
		CAPAType: c.Query("capa_type"),
		NCRID:    uintQuery(c, "ncr_id"),
		Overdue:  c.Query("overdue") == "true",
	}

	capas, total, err := h.capaService.ListCAPAs(c.Request.Context(), filter, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Data:  capas,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}))
}

// GetCAPA handles GET /capas/:id
// @Summary      Get CAPA
// @Tags         capas
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "CAPA ID"
// @Success      200  {object}  response.Response{data=model.CAPA}
// @Failure      404  {object}  response.Response
// @Router       /capas/{id} [get]
func (h *CAPAHandler) GetCAPA(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid CAPA id"))
		return
	}

	capa, err := h.capaService.GetCAPA(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, capa))
}

// CreateCAPA handles POST /capas
// @Summary      Create CAPA
// @Tags         capas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateCAPARequest  true  "Create CAPA Payload"
// @Success      201      {object}  response.Response{data=model.CAPA}
// @Failure      400      {object}  response.Response
// @Router       /capas [post]
func (h *CAPAHandler) CreateCAPA(c *gin.Context) {
	var req service.CreateCAPARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	capa, err := h.capaService.CreateCAPA(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, capa))
}

// UpdateCAPA handles PUT /capas/:id
func (h *CAPAHandler) UpdateCAPA(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid CAPA id"))
		return
	}

	var req service.UpdateCAPARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	capa, err := h.capaService.UpdateCAPA(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, capa))
}

// ChangeStatus handles PUT /capas/:id/status
// @Summary      Change CAPA status
// @Description  Moves the CAPA through open/in_progress/completed/closed; closing requires prior verification
// @Tags         capas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                    true  "CAPA ID"
// @Param        payload  body      object{status=string}  true  "Target Status"
// @Success      200      {object}  response.Response{data=model.CAPA}
// @Failure      400      {object}  response.Response
// @Router       /capas/{id}/status [put]
func (h *CAPAHandler) ChangeStatus(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid CAPA id"))
		return
	}

	var req struct {
		Status string `json:"status" binding:"required,oneof=open in_progress completed verified closed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	capa, err := h.capaService.ChangeStatus(c.Request.Context(), id, req.Status, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, capa))
}

// Verify handles POST /capas/:id/verify
// @Summary      Verify CAPA effectiveness
// @Description  Records the effectiveness check on a completed CAPA
// @Tags         capas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                        true  "CAPA ID"
// @Param        payload  body      service.VerifyCAPARequest  true  "Effectiveness Notes"
// @Success      200      {object}  response.Response{data=model.CAPA}
// @Failure      400      {object}  response.Response
// @Router       /capas/{id}/verify [post]
func (h *CAPAHandler) Verify(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid CAPA id"))
		return
	}

	var req service.VerifyCAPARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	capa, err := h.capaService.Verify(c.Request.Context(), id, req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, capa))
}

// NotifyOverdue handles POST /capas/notify-overdue
func (h *CAPAHandler) NotifyOverdue(c *gin.Context) {
	count, err := h.capaService.NotifyOverdue(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{"overdue": count}))
}
