package handler

import (
	"net/http"

	"qms/internal/middleware"
	"qms/internal/model"
	"qms/internal/service"
	"qms/pkg/response"

	"github.com/gin-gonic/gin"
)

type AttachmentHandler struct {
	attachmentService service.AttachmentService
}

func NewAttachmentHandler(attachmentService service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

func (h *AttachmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	attachments := router.Group("/attachments")
	{
		attachments.POST("", middleware.RequirePermission("attachments.write"), h.Upload)
		attachments.GET("/:id", middleware.RequirePermission("documents.read"), h.GetAttachment)
		attachments.GET("/:id/download", middleware.RequirePermission("documents.read"), h.Download)
		attachments.GET("/entity/:type/:id", middleware.RequirePermission("documents.read"), h.ListForEntity)
		attachments.DELETE("/:id", middleware.RequirePermission("attachments.write"), h.Delete)
	}
}

// Upload handles POST /attachments
// @Summary      Upload attachment
// @Description  Uploads a file and links it to an owning entity (document, audit, ncr, capa, supplier, equipment)
// @Tags         attachments
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file         formData  file    true   "File to upload"
// @Param        entity_type  formData  string  true   "Owning entity type"
// @Param        entity_id    formData  int     true   "Owning entity ID"
// @Param        description  formData  string  false  "Description"
// @Param        category     formData  string  false  "Category"
// @Success      201          {object}  response.Response{data=model.Attachment}
// @Failure      400          {object}  response.Response
// @Router       /attachments [post]
func (h *AttachmentHandler) Upload(c *gin.Context) {
	var req service.UploadAttachmentRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Missing file upload"))
		return
	}

	attachment, err := h.attachmentService.Upload(c.Request.Context(), file, req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, attachment))
}

// GetAttachment handles GET /attachments/:id
// @Summary      Get attachment
// @Tags         attachments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Attachment ID"
// @Success      200  {object}  response.Response{data=model.Attachment}
// @Failure      404  {object}  response.Response
// @Router       /attachments/{id} [get]
func (h *AttachmentHandler) GetAttachment(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid attachment id"))
		return
	}

	attachment, err := h.attachmentService.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, attachment))
}

// Download handles GET /attachments/:id/download
// @Summary      Download attachment
// @Description  Streams the stored file under its original filename
// @Tags         attachments
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        id   path      int  true  "Attachment ID"
// @Success      200  {file}    binary
// @Failure      404  {object}  response.Response
// @Router       /attachments/{id}/download [get]
func (h *AttachmentHandler) Download(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid attachment id"))
		return
	}

	attachment, err := h.attachmentService.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.FileAttachment(attachment.FilePath, attachment.FileName)
}

// ListForEntity handles GET /attachments/entity/:type/:id
// @Summary      List entity attachments
// @Description  Lists active attachments belonging to one entity
// @Tags         attachments
// @Produce      json
// @Security     BearerAuth
// @Param        type  path      string  true  "Entity type"
// @Param        id    path      int     true  "Entity ID"
// @Success      200   {object}  response.Response{data=[]model.Attachment}
// @Failure      400   {object}  response.Response
// @Router       /attachments/entity/{type}/{id} [get]
func (h *AttachmentHandler) ListForEntity(c *gin.Context) {
	entityType := model.EntityType(c.Param("type"))
	if !entityType.Valid() {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Unknown entity type '"+c.Param("type")+"'"))
		return
	}

	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid entity id"))
		return
	}

	attachments, err := h.attachmentService.ListForEntity(c.Request.Context(), entityType, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, attachments))
}

// Delete handles DELETE /attachments/:id
// @Summary      Delete attachment
// @Description  Soft-deletes the attachment record; the stored file is kept for traceability
// @Tags         attachments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Attachment ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /attachments/{id} [delete]
func (h *AttachmentHandler) Delete(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid attachment id"))
		return
	}

	if err := h.attachmentService.Delete(c.Request.Context(), id, currentUserID(c)); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Attachment deleted"))
}
