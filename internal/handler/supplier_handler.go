package handler

import (
	"net/http"

	"qms/internal/middleware"
	"qms/internal/service"
	"qms/pkg/pagination"
	"qms/pkg/response"

	"github.com/gin-gonic/gin"
)

type SupplierHandler struct {
	supplierService service.SupplierService
}

func NewSupplierHandler(supplierService service.SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: supplierService}
}

func (h *SupplierHandler) RegisterRoutes(router *gin.RouterGroup) {
	suppliers := router.Group("/suppliers")
	{
		suppliers.GET("", middleware.RequirePermission("suppliers.read"), h.ListSuppliers)
		suppliers.GET("/statistics", middleware.RequirePermission("suppliers.read"), h.GetStatistics)
		suppliers.GET("/:id", middleware.RequirePermission("suppliers.read"), h.GetSupplier)
		suppliers.POST("", middleware.RequirePermission("suppliers.write"), h.CreateSupplier)
		suppliers.PUT("/:id", middleware.RequirePermission("suppliers.write"), h.UpdateSupplier)
	}

	evaluations := router.Group("/supplier-evaluations")
	{
		evaluations.GET("", middleware.RequirePermission("suppliers.read"), h.ListEvaluations)
		evaluations.GET("/:id", middleware.RequirePermission("suppliers.read"), h.GetEvaluation)
		evaluations.POST("", middleware.RequirePermission("suppliers.write"), h.CreateEvaluation)
		evaluations.PUT("/:id/status", middleware.RequirePermission("suppliers.write"), h.UpdateEvaluationStatus)
	}
}

// ListSuppliers handles GET /suppliers
// @Summary      List suppliers
// @Tags         suppliers
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 10)"
// @Success      200    {object}  response.Response{data=response.Paginated}
// @Router       /suppliers [get]
func (h *SupplierHandler) ListSuppliers(c *gin.Context) {
	params := pagination.Parse(c)

	suppliers, total, err := h.supplierService.ListSuppliers(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Data:  suppliers,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}))
}

// GetSupplier handles GET /suppliers/:id
// @Summary      Get supplier
// @Tags         suppliers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Supplier ID"
// @Success      200  {object}  response.Response{data=model.Supplier}
// @Failure      404  {object}  response.Response
// @Router       /suppliers/{id} [get]
func (h *SupplierHandler) GetSupplier(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid supplier id"))
		return
	}

	supplier, err := h.supplierService.GetSupplier(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, supplier))
}

// CreateSupplier handles POST /suppliers
// @Summary      Create supplier
// @Tags         suppliers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateSupplierRequest  true  "Create Supplier Payload"
// @Success      201      {object}  response.Response{data=model.Supplier}
// @Failure      400      {object}  response.Response
// @Router       /suppliers [post]
func (h *SupplierHandler) CreateSupplier(c *gin.Context) {
	var req service.CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	supplier, err := h.supplierService.CreateSupplier(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, supplier))
}

// UpdateSupplier handles PUT /suppliers/:id
func (h *SupplierHandler) UpdateSupplier(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid supplier id"))
		return
	}

	var req service.CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	supplier, err := h.supplierService.UpdateSupplier(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, supplier))
}

// CreateEvaluation handles POST /supplier-evaluations
// @Summary      Create supplier evaluation
// @Description  Records a rating period; the weighted overall score and compliance status are computed server-side
// @Tags         suppliers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateEvaluationRequest  true  "Evaluation Payload"
// @Success      201      {object}  response.Response{data=model.SupplierEvaluation}
// @Failure      400      {object}  response.Response
// @Router       /supplier-evaluations [post]
func (h *SupplierHandler) CreateEvaluation(c *gin.Context) {
	var req service.CreateEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	eval, err := h.supplierService.CreateEvaluation(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, eval))
}

// GetEvaluation handles GET /supplier-evaluations/:id
func (h *SupplierHandler) GetEvaluation(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid evaluation id"))
		return
	}

	eval, err := h.supplierService.GetEvaluation(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, eval))
}

// ListEvaluations handles GET /supplier-evaluations
// @Summary      List supplier evaluations
// @Tags         suppliers
// @Produce      json
// @Security     BearerAuth
// @Param        page               query     int     false  "Page number (default 1)"
// @Param        limit              query     int     false  "Items per page (default 10)"
// @Param        supplier_id        query     int     false  "Filter by supplier"
// @Param        compliance_status  query     string  false  "Filter by compliance status"
// @Success      200                {object}  response.Response{data=response.Paginated}
// @Router       /supplier-evaluations [get]
func (h *SupplierHandler) ListEvaluations(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.EvaluationListFilter{
		ComplianceStatus: c.Query("compliance_status"),
		Page:             params.Page,
		Limit:            params.Limit,
	}
	if supplierID := uintQuery(c, "supplier_id"); supplierID != nil {
		filter.SupplierID = *supplierID
	}

	evals, total, err := h.supplierService.ListEvaluations(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Data:  evals,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}))
}

// UpdateEvaluationStatus handles PUT /supplier-evaluations/:id/status
// @Summary      Override evaluation compliance status
// @Tags         suppliers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                               true  "Evaluation ID"
// @Param        payload  body      object{compliance_status=string}  true  "Compliance Status"
// @Success      200      {object}  response.Response{data=model.SupplierEvaluation}
// @Failure      400      {object}  response.Response
// @Router       /supplier-evaluations/{id}/status [put]
func (h *SupplierHandler) UpdateEvaluationStatus(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid evaluation id"))
		return
	}

	var req struct {
		ComplianceStatus string `json:"compliance_status" binding:"required,oneof=Compliant NonCompliant Pending"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	eval, err := h.supplierService.UpdateEvaluationStatus(c.Request.Context(), id, req.ComplianceStatus)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, eval))
}

// GetStatistics handles GET /suppliers/statistics
// @Summary      Supplier performance statistics
// @Description  Aggregated evaluation counts and average scores per supplier
// @Tags         suppliers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.SupplierStatistics}
// @Router       /suppliers/statistics [get]
func (h *SupplierHandler) GetStatistics(c *gin.Context) {
	stats, err := h.supplierService.GetStatistics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
