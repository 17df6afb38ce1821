package handler

import (
	"context"
	"net/http"

	"qms/internal/middleware"
	"qms/internal/service"
	"qms/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TagHandler struct {
	tagService service.TagService
}

func NewTagHandler(tagService service.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

func (h *TagHandler) RegisterRoutes(router *gin.RouterGroup) {
	tags := router.Group("/tags")
	{
		tags.GET("", middleware.RequirePermission("documents.read"), h.ListTags)
		tags.GET("/:id", middleware.RequirePermission("documents.read"), h.GetTag)
		tags.POST("", middleware.RequirePermission("tags.write"), h.CreateTag)
		tags.PUT("/:id", middleware.RequirePermission("tags.write"), h.UpdateTag)
		tags.DELETE("/:id", middleware.RequirePermission("tags.write"), h.DeleteTag)
	}

	documents := router.Group("/documents")
	{
		documents.GET("/:id/tags", middleware.RequirePermission("documents.read"), h.TagsForDocument)
		documents.POST("/:id/tags", middleware.RequirePermission("tags.write"), h.AddDocumentTags)
		documents.DELETE("/:id/tags", middleware.RequirePermission("tags.write"), h.RemoveDocumentTags)
		documents.PUT("/:id/tags", middleware.RequirePermission("tags.write"), h.ReplaceDocumentTags)
	}
}

// ListTags handles GET /tags
// @Summary      List tags
// @Tags         tags
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Tag}
// @Router       /tags [get]
func (h *TagHandler) ListTags(c *gin.Context) {
	tags, err := h.tagService.ListTags(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tags))
}

// GetTag handles GET /tags/:id
// @Summary      Get tag
// @Tags         tags
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Tag ID"
// @Success      200  {object}  response.Response{data=model.Tag}
// @Failure      404  {object}  response.Response
// @Router       /tags/{id} [get]
func (h *TagHandler) GetTag(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid tag id"))
		return
	}

	tag, err := h.tagService.GetTag(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tag))
}

// CreateTag handles POST /tags
// @Summary      Create tag
// @Tags         tags
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateTagRequest  true  "Create Tag Payload"
// @Success      201      {object}  response.Response{data=model.Tag}
// @Failure      400      {object}  response.Response
// @Router       /tags [post]
func (h *TagHandler) CreateTag(c *gin.Context) {
	var req service.CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tag, err := h.tagService.CreateTag(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tag))
}

// UpdateTag handles PUT /tags/:id
// @Summary      Update tag
// @Tags         tags
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                       true  "Tag ID"
// @Param        payload  body      service.CreateTagRequest  true  "Update Tag Payload"
// @Success      200      {object}  response.Response{data=model.Tag}
// @Failure      400      {object}  response.Response
// @Router       /tags/{id} [put]
func (h *TagHandler) UpdateTag(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid tag id"))
		return
	}

	var req service.CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tag, err := h.tagService.UpdateTag(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tag))
}

// DeleteTag handles DELETE /tags/:id
// @Summary      Delete tag
// @Description  Hard-deletes the tag after clearing its document assignments
// @Tags         tags
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Tag ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /tags/{id} [delete]
func (h *TagHandler) DeleteTag(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid tag id"))
		return
	}

	if err := h.tagService.DeleteTag(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Tag deleted"))
}

// TagsForDocument handles GET /documents/:id/tags
// @Summary      List document tags
// @Tags         tags
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Document ID"
// @Success      200  {object}  response.Response{data=[]model.Tag}
// @Router       /documents/{id}/tags [get]
func (h *TagHandler) TagsForDocument(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid document id"))
		return
	}

	tags, err := h.tagService.TagsForDocument(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tags))
}

// AddDocumentTags handles POST /documents/:id/tags
// @Summary      Add document tags
// @Tags         tags
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                    true  "Document ID"
// @Param        payload  body      service.TagIDsRequest  true  "Tag IDs"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /documents/{id}/tags [post]
func (h *TagHandler) AddDocumentTags(c *gin.Context) {
	h.applyTags(c, h.tagService.AddDocumentTags)
}

// RemoveDocumentTags handles DELETE /documents/:id/tags
// @Summary      Remove document tags
// @Tags         tags
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                    true  "Document ID"
// @Param        payload  body      service.TagIDsRequest  true  "Tag IDs"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /documents/{id}/tags [delete]
func (h *TagHandler) RemoveDocumentTags(c *gin.Context) {
	h.applyTags(c, h.tagService.RemoveDocumentTags)
}

// ReplaceDocumentTags handles PUT /documents/:id/tags
// @Summary      Replace document tags
// @Description  Replaces the tag set with diffed batch writes
// @Tags         tags
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                    true  "Document ID"
// @Param        payload  body      service.TagIDsRequest  true  "Tag IDs"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /documents/{id}/tags [put]
func (h *TagHandler) ReplaceDocumentTags(c *gin.Context) {
	h.applyTags(c, h.tagService.ReplaceDocumentTags)
}

func (h *TagHandler) applyTags(c *gin.Context, op func(ctx context.Context, documentID uint, tagIDs []uint, actor *uuid.UUID) error) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid document id"))
		return
	}

	var req service.TagIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := op(c.Request.Context(), id, req.TagIDs, currentUserID(c)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Document tags updated"))
}
