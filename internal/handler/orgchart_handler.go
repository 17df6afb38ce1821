package handler

import (
	"net/http"

	"qms/internal/middleware"
	"qms/internal/service"
	"qms/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrgChartHandler struct {
	orgService service.OrgChartService
}

func NewOrgChartHandler(orgService service.OrgChartService) *OrgChartHandler {
	return &OrgChartHandler{orgService: orgService}
}

func (h *OrgChartHandler) RegisterRoutes(router *gin.RouterGroup) {
	org := router.Group("/org-units")
	{
		org.GET("/tree", middleware.RequirePermission("orgchart.read"), h.GetTree)
		org.GET("/:id", middleware.RequirePermission("orgchart.read"), h.GetUnit)
		org.POST("", middleware.RequirePermission("orgchart.write"), h.CreateUnit)
		org.PUT("/:id", middleware.RequirePermission("orgchart.write"), h.UpdateUnit)
		org.DELETE("/:id", middleware.RequirePermission("orgchart.write"), h.DeleteUnit)

		org.GET("/:id/positions", middleware.RequirePermission("orgchart.read"), h.ListPositions)
		org.POST("/:id/positions", middleware.RequirePermission("orgchart.write"), h.CreatePosition)
	}

	positions := router.Group("/positions")
	{
		positions.PUT("/:id", middleware.RequirePermission("orgchart.write"), h.UpdatePosition)
		positions.DELETE("/:id", middleware.RequirePermission("orgchart.write"), h.DeletePosition)
	}
}

// GetTree handles GET /org-units/tree
// @Summary      Organization tree
// @Description  Full organizational forest with positions resolved per unit
// @Tags         orgchart
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.OrgUnitNode}
// @Router       /org-units/tree [get]
func (h *OrgChartHandler) GetTree(c *gin.Context) {
	tree, err := h.orgService.GetTree(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tree))
}

// GetUnit handles GET /org-units/:id
func (h *OrgChartHandler) GetUnit(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid org unit id"))
		return
	}

	unit, err := h.orgService.GetUnit(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, unit))
}

// CreateUnit handles POST /org-units
// @Summary      Create org unit
// @Tags         orgchart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.OrgUnitRequest  true  "Org Unit Payload"
// @Success      201      {object}  response.Response{data=model.OrgUnit}
// @Failure      400      {object}  response.Response
// @Router       /org-units [post]
func (h *OrgChartHandler) CreateUnit(c *gin.Context) {
	var req service.OrgUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	unit, err := h.orgService.CreateUnit(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, unit))
}

// UpdateUnit handles PUT /org-units/:id
// @Summary      Update org unit
// @Description  Renames or reparents the unit; moves creating a cycle are rejected
// @Tags         orgchart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                     true  "Org Unit ID"
// @Param        payload  body      service.OrgUnitRequest  true  "Org Unit Payload"
// @Success      200      {object}  response.Response{data=model.OrgUnit}
// @Failure      400      {object}  response.Response
// @Router       /org-units/{id} [put]
func (h *OrgChartHandler) UpdateUnit(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid org unit id"))
		return
	}

	var req service.OrgUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	unit, err := h.orgService.UpdateUnit(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, unit))
}

// DeleteUnit handles DELETE /org-units/:id
// @Summary      Delete org unit
// @Description  Deletes an empty unit; units with children or positions are rejected
// @Tags         orgchart
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Org Unit ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /org-units/{id} [delete]
func (h *OrgChartHandler) DeleteUnit(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid org unit id"))
		return
	}

	if err := h.orgService.DeleteUnit(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Org unit deleted"))
}

// ListPositions handles GET /org-units/:id/positions
func (h *OrgChartHandler) ListPositions(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid org unit id"))
		return
	}

	positions, err := h.orgService.ListPositions(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, positions))
}

// CreatePosition handles POST /org-units/:id/positions
func (h *OrgChartHandler) CreatePosition(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid org unit id"))
		return
	}

	var req service.PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	position, err := h.orgService.CreatePosition(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, position))
}

// UpdatePosition handles PUT /positions/:id
func (h *OrgChartHandler) UpdatePosition(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid position id"))
		return
	}

	var req service.PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	position, err := h.orgService.UpdatePosition(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, position))
}

// DeletePosition handles DELETE /positions/:id
func (h *OrgChartHandler) DeletePosition(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid position id"))
		return
	}

	if err := h.orgService.DeletePosition(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Position deleted"))
}
