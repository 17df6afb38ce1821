package handler

import (
	"net/http"

	"qms/internal/middleware"
	"qms/internal/repository"
	"qms/pkg/pagination"
	"qms/pkg/response"

	"github.com/gin-gonic/gin"
)

// ActivityHandler exposes the append-only audit trail.
type ActivityHandler struct {
	auditLogRepo repository.AuditLogRepository
}

func NewActivityHandler(auditLogRepo repository.AuditLogRepository) *ActivityHandler {
	return &ActivityHandler{auditLogRepo: auditLogRepo}
}

func (h *ActivityHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/activity-logs", middleware.RequirePermission("audit_trail.read"), h.List)
}

// List handles GET /activity-logs
// @Summary      List activity logs
// @Description  Audit trail entries newest first, optionally filtered by action
// @Tags         activity
// @Produce      json
// @Security     BearerAuth
// @Param        action  query     string  false  "Action filter"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Paginated{data=[]model.AuditLog}
// @Router       /activity-logs [get]
func (h *ActivityHandler) List(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.auditLogRepo.List(c.Request.Context(), c.Query("action"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Data:  logs,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}))
}
