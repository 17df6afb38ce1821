package handler

import (
	"net/http"

	"qms/internal/middleware"
	"qms/internal/service"
	"qms/pkg/pagination"
	"qms/pkg/response"

	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	documentService service.DocumentService
}

func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

func (h *DocumentHandler) RegisterRoutes(router *gin.RouterGroup) {
	documents := router.Group("/documents")
	{
		documents.GET("", middleware.RequirePermission("documents.read"), h.ListDocuments)
		documents.GET("/:id", middleware.RequirePermission("documents.read"), h.GetDocument)
		documents.POST("", middleware.RequirePermission("documents.write"), h.CreateDocument)
		documents.PUT("/:id", middleware.RequirePermission("documents.write"), h.UpdateDocument)
		documents.DELETE("/:id", middleware.RequirePermission("documents.write"), h.DeleteDocument)
		documents.PUT("/:id/status", middleware.RequirePermission("documents.approve"), h.ChangeStatus)
	}
}

// ListDocuments handles GET /documents
// @Summary      List documents
// @Description  Paginated, filterable list of controlled documents
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Items per page (default 10)"
// @Param        doc_type  query     string  false  "Filter by document type"
// @Param        status    query     string  false  "Filter by lifecycle status"
// @Param        search    query     string  false  "Search doc number and title"
// @Success      200       {object}  response.Response{data=response.Paginated}
// @Router       /documents [get]
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.DocumentFilter{
		DocType: c.Query("doc_type"),
		Status:  c.Query("status"),
		Search:  c.Query("search"),
	}

	docs, total, err := h.documentService.ListDocuments(c.Request.Context(), filter, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Data:  docs,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}))
}

// GetDocument handles GET /documents/:id
// @Summary      Get document
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Document ID"
// @Success      200  {object}  response.Response{data=model.Document}
// @Failure      404  {object}  response.Response
// @Router       /documents/{id} [get]
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid document id"))
		return
	}

	doc, err := h.documentService.GetDocument(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// CreateDocument handles POST /documents
// @Summary      Create document
// @Description  Registers a new controlled document in draft state
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateDocumentRequest  true  "Create Document Payload"
// @Success      201      {object}  response.Response{data=model.Document}
// @Failure      400      {object}  response.Response
// @Router       /documents [post]
func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	var req service.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	doc, err := h.documentService.CreateDocument(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// UpdateDocument handles PUT /documents/:id
// @Summary      Update document
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                            true  "Document ID"
// @Param        payload  body      service.UpdateDocumentRequest  true  "Update Document Payload"
// @Success      200      {object}  response.Response{data=model.Document}
// @Failure      400      {object}  response.Response
// @Router       /documents/{id} [put]
func (h *DocumentHandler) UpdateDocument(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid document id"))
		return
	}

	var req service.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	doc, err := h.documentService.UpdateDocument(c.Request.Context(), id, req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// ChangeStatus handles PUT /documents/:id/status
// @Summary      Change document status
// @Description  Moves the document along the draft/in_review/approved/obsolete lifecycle
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                            true  "Document ID"
// @Param        payload  body      service.DocumentStatusRequest  true  "Target Status"
// @Success      200      {object}  response.Response{data=model.Document}
// @Failure      400      {object}  response.Response
// @Router       /documents/{id}/status [put]
func (h *DocumentHandler) ChangeStatus(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid document id"))
		return
	}

	var req service.DocumentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	doc, err := h.documentService.ChangeStatus(c.Request.Context(), id, req.Status, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// DeleteDocument handles DELETE /documents/:id
// @Summary      Delete document
// @Description  Soft-deletes a draft or obsolete document
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Document ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /documents/{id} [delete]
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid document id"))
		return
	}

	if err := h.documentService.DeleteDocument(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Document deleted"))
}
