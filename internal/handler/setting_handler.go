package handler

import (
	"net/http"

	"qms/internal/middleware"
	"qms/internal/service"
	"qms/pkg/response"

	"github.com/gin-gonic/gin"
)

type SettingHandler struct {
	settingService service.SettingService
}

func NewSettingHandler(settingService service.SettingService) *SettingHandler {
	return &SettingHandler{settingService: settingService}
}

func (h *SettingHandler) RegisterRoutes(router *gin.RouterGroup) {
	settings := router.Group("/settings", middleware.RequirePermission("settings.manage"))
	{
		settings.GET("", h.List)
		settings.GET("/:key", h.Get)
		settings.PUT("/:key", h.Update)
	}
}

// List handles GET /settings
// @Summary      List system settings
// @Tags         settings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.SystemSetting}
// @Router       /settings [get]
func (h *SettingHandler) List(c *gin.Context) {
	settings, err := h.settingService.ListSettings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, settings))
}

// Get handles GET /settings/:key
func (h *SettingHandler) Get(c *gin.Context) {
	setting, err := h.settingService.GetSetting(c.Request.Context(), c.Param("key"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, setting))
}

// Update handles PUT /settings/:key
// @Summary      Update system setting
// @Description  Updates the value of a known setting key; unknown keys are rejected
// @Tags         settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        key      path      string                        true  "Setting Key"
// @Param        payload  body      service.UpdateSettingRequest  true  "Setting Payload"
// @Success      200      {object}  response.Response{data=model.SystemSetting}
// @Failure      400      {object}  response.Response
// @Router       /settings/{key} [put]
func (h *SettingHandler) Update(c *gin.Context) {
	var req service.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	setting, err := h.settingService.UpdateSetting(c.Request.Context(), c.Param("key"), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, setting))
}
