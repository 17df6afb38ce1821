package handler

import (
	"net/http"
	"strconv"

	"qms/internal/middleware"
	"qms/internal/service"
	"qms/pkg/pagination"
	"qms/pkg/response"

	"github.com/gin-gonic/gin"
)

type EquipmentHandler struct {
	equipmentService service.EquipmentService
}

func NewEquipmentHandler(equipmentService service.EquipmentService) *EquipmentHandler {
	return &EquipmentHandler{equipmentService: equipmentService}
}

func (h *EquipmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	equipment := router.Group("/equipment")
	{
		equipment.GET("", middleware.RequirePermission("equipment.read"), h.ListEquipment)
		equipment.GET("/calibrations-due", middleware.RequirePermission("equipment.read"), h.CalibrationsDueSoon)
		equipment.GET("/:id", middleware.RequirePermission("equipment.read"), h.GetEquipment)
		equipment.POST("", middleware.RequirePermission("equipment.write"), h.CreateEquipment)
		equipment.PUT("/:id", middleware.RequirePermission("equipment.write"), h.UpdateEquipment)
		equipment.DELETE("/:id", middleware.RequirePermission("equipment.write"), h.DeleteEquipment)

		equipment.POST("/:id/calibrations", middleware.RequirePermission("equipment.write"), h.RecordCalibration)
		equipment.GET("/:id/maintenance", middleware.RequirePermission("equipment.read"), h.ListMaintenance)
		equipment.POST("/:id/maintenance", middleware.RequirePermission("equipment.write"), h.RecordMaintenance)
	}
}

// ListEquipment handles GET /equipment
// @Summary      List equipment
// @Tags         equipment
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 10)"
// @Param        status  query     string  false  "Filter by status"
// @Param        search  query     string  false  "Search asset number and name"
// @Success      200     {object}  response.Response{data=response.Paginated}
// @Router       /equipment [get]
func (h *EquipmentHandler) ListEquipment(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.EquipmentFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
	}

	items, total, err := h.equipmentService.ListEquipment(c.Request.Context(), filter, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Data:  items,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}))
}

// GetEquipment handles GET /equipment/:id
// @Summary      Get equipment
// @Description  Fetch an asset with its calibration history
// @Tags         equipment
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Equipment ID"
// @Success      200  {object}  response.Response{data=model.Equipment}
// @Failure      404  {object}  response.Response
// @Router       /equipment/{id} [get]
func (h *EquipmentHandler) GetEquipment(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid equipment id"))
		return
	}

	eq, err := h.equipmentService.GetEquipment(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, eq))
}

// CreateEquipment handles POST /equipment
// @Summary      Register equipment
// @Tags         equipment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateEquipmentRequest  true  "Create Equipment Payload"
// @Success      201      {object}  response.Response{data=model.Equipment}
// @Failure      400      {object}  response.Response
// @Router       /equipment [post]
func (h *EquipmentHandler) CreateEquipment(c *gin.Context) {
	var req service.CreateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	eq, err := h.equipmentService.CreateEquipment(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, eq))
}

// UpdateEquipment handles PUT /equipment/:id
func (h *EquipmentHandler) UpdateEquipment(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid equipment id"))
		return
	}

	var req service.UpdateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	eq, err := h.equipmentService.UpdateEquipment(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, eq))
}

// DeleteEquipment handles DELETE /equipment/:id
func (h *EquipmentHandler) DeleteEquipment(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid equipment id"))
		return
	}

	if err := h.equipmentService.DeleteEquipment(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Equipment deleted"))
}

// RecordCalibration handles POST /equipment/:id/calibrations
// @Summary      Record calibration
// @Description  Stores a calibration event; a failed result takes the asset out of service
// @Tags         equipment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                         true  "Equipment ID"
// @Param        payload  body      service.CalibrationRequest  true  "Calibration Payload"
// @Success      201      {object}  response.Response{data=model.CalibrationRecord}
// @Failure      400      {object}  response.Response
// @Router       /equipment/{id}/calibrations [post]
func (h *EquipmentHandler) RecordCalibration(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid equipment id"))
		return
	}

	var req service.CalibrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	record, err := h.equipmentService.RecordCalibration(c.Request.Context(), id, req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, record))
}

// RecordMaintenance handles POST /equipment/:id/maintenance
func (h *EquipmentHandler) RecordMaintenance(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid equipment id"))
		return
	}

	var req service.MaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	record, err := h.equipmentService.RecordMaintenance(c.Request.Context(), id, req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, record))
}

// ListMaintenance handles GET /equipment/:id/maintenance
func (h *EquipmentHandler) ListMaintenance(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid equipment id"))
		return
	}

	records, err := h.equipmentService.ListMaintenance(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, records))
}

// CalibrationsDueSoon handles GET /equipment/calibrations-due
// @Summary      Calibrations due soon
// @Description  Active assets whose next calibration falls within the window (default 30 days)
// @Tags         equipment
// @Produce      json
// @Security     BearerAuth
// @Param        within_days  query     int  false  "Window in days (default 30)"
// @Success      200          {object}  response.Response{data=[]service.CalibrationDueEntry}
// @Router       /equipment/calibrations-due [get]
func (h *EquipmentHandler) CalibrationsDueSoon(c *gin.Context) {
	withinDays, _ := strconv.Atoi(c.DefaultQuery("within_days", "30"))

	entries, err := h.equipmentService.CalibrationsDueSoon(c.Request.Context(), withinDays)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, entries))
}
