package handler

import (
	"net/http"

	"qms/internal/middleware"
	"qms/internal/model"
	"qms/internal/service"
	"qms/pkg/pagination"
	"qms/pkg/response"

	"github.com/gin-gonic/gin"
)

// ExternalHandler serves the read-only surface consumed by external auditors.
// Every route is guarded by an auditor access token scoped to the resource it
// serves, and each request burns one use of the token.
type ExternalHandler struct {
	tokenService    service.AccessTokenService
	auditService    service.AuditService
	ncrService      service.NCRService
	capaService     service.CAPAService
	documentService service.DocumentService
	supplierService service.SupplierService
	attachService   service.AttachmentService
}

func NewExternalHandler(
	tokenService service.AccessTokenService,
	auditService service.AuditService,
	ncrService service.NCRService,
	capaService service.CAPAService,
	documentService service.DocumentService,
	supplierService service.SupplierService,
	attachService service.AttachmentService,
) *ExternalHandler {
	return &ExternalHandler{
		tokenService:    tokenService,
		auditService:    auditService,
		ncrService:      ncrService,
		capaService:     capaService,
		documentService: documentService,
		supplierService: supplierService,
		attachService:   attachService,
	}
}

func (h *ExternalHandler) RegisterRoutes(router *gin.RouterGroup) {
	audits := router.Group("/audits", middleware.RequireAuditorToken(h.tokenService, "audits"))
	{
		audits.GET("", h.ListAudits)
		audits.GET("/:id", h.GetAudit)
	}

	ncrs := router.Group("/ncrs", middleware.RequireAuditorToken(h.tokenService, "ncrs"))
	{
		ncrs.GET("", h.ListNCRs)
		ncrs.GET("/:id", h.GetNCR)
	}

	capas := router.Group("/capas", middleware.RequireAuditorToken(h.tokenService, "capas"))
	{
		capas.GET("", h.ListCAPAs)
		capas.GET("/:id", h.GetCAPA)
	}

	documents := router.Group("/documents", middleware.RequireAuditorToken(h.tokenService, "documents"))
	{
		documents.GET("", h.ListDocuments)
		documents.GET("/:id", h.GetDocument)
	}

	evaluations := router.Group("/supplier-evaluations", middleware.RequireAuditorToken(h.tokenService, "supplier_evaluations"))
	{
		evaluations.GET("", h.ListEvaluations)
		evaluations.GET("/:id", h.GetEvaluation)
	}

	attachments := router.Group("/attachments", middleware.RequireAuditorToken(h.tokenService, "attachments"))
	{
		attachments.GET("/entity/:type/:id", h.ListAttachments)
	}
}

// consumedToken returns the auditor token the middleware consumed for this
// request, or nil when the route was reached without one.
func consumedToken(c *gin.Context) *model.AuditorAccessToken {
	v, ok := c.Get(middleware.ContextAuditorToken)
	if !ok {
		return nil
	}
	token, _ := v.(*model.AuditorAccessToken)
	return token
}

func scopeEntity(token *model.AuditorAccessToken, scopeType string) (uint, bool) {
	if token == nil || token.ScopeType != scopeType {
		return 0, false
	}
	if token.ScopeEntityID == nil {
		// Creation validation rejects scoped tokens without an entity id.
		// Should one exist anyway, id 0 matches no row.
		return 0, true
	}
	return *token.ScopeEntityID, true
}

// auditVisible reports whether a consumed token may see the given audit.
func auditVisible(token *model.AuditorAccessToken, audit *model.Audit) bool {
	if id, ok := scopeEntity(token, model.ScopeAudit); ok {
		return audit.ID == id
	}
	if id, ok := scopeEntity(token, model.ScopeSupplier); ok {
		return audit.SupplierID != nil && *audit.SupplierID == id
	}
	return true
}

func ncrVisible(token *model.AuditorAccessToken, ncr *model.NCR) bool {
	if id, ok := scopeEntity(token, model.ScopeAudit); ok {
		return ncr.AuditID != nil && *ncr.AuditID == id
	}
	if id, ok := scopeEntity(token, model.ScopeSupplier); ok {
		return ncr.SupplierID != nil && *ncr.SupplierID == id
	}
	return true
}

func evaluationVisible(token *model.AuditorAccessToken, eval *model.SupplierEvaluation) bool {
	if id, ok := scopeEntity(token, model.ScopeSupplier); ok {
		return eval.SupplierID == id
	}
	return true
}

// attachmentTargetVisible limits scoped tokens to the attachments of the one
// entity they were issued for.
func attachmentTargetVisible(token *model.AuditorAccessToken, entityType model.EntityType, entityID uint) bool {
	if id, ok := scopeEntity(token, model.ScopeAudit); ok {
		return entityType == model.EntityAudit && entityID == id
	}
	if id, ok := scopeEntity(token, model.ScopeSupplier); ok {
		return entityType == model.EntitySupplier && entityID == id
	}
	return true
}

// ListAudits handles GET /external/audits
// @Summary      List audits (external)
// @Tags         external
// @Produce      json
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Param        status  query     string  false  "Status filter"
// @Success      200     {object}  response.Paginated{data=[]model.Audit}
// @Failure      401     {object}  response.Response
// @Router       /external/audits [get]
func (h *ExternalHandler) ListAudits(c *gin.Context) {
	params := pagination.Parse(c)
	token := consumedToken(c)

	if auditID, ok := scopeEntity(token, model.ScopeAudit); ok {
		audits := []model.Audit{}
		if audit, err := h.auditService.GetAudit(c.Request.Context(), auditID); err == nil {
			audits = append(audits, *audit)
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
			Data:  audits,
			Total: int64(len(audits)),
			Page:  1,
			Limit: params.Limit,
		}))
		return
	}

	filter := service.AuditFilter{
		AuditType: c.Query("audit_type"),
		Status:    c.Query("status"),
	}
	if supplierID, ok := scopeEntity(token, model.ScopeSupplier); ok {
		filter.SupplierID = &supplierID
	}

	audits, total, err := h.auditService.ListAudits(c.Request.Context(), filter, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Data:  audits,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}))
}

// GetAudit handles GET /external/audits/:id
func (h *ExternalHandler) GetAudit(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid audit id"))
		return
	}

	audit, err := h.auditService.GetAudit(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	if !auditVisible(consumedToken(c), audit) {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Audit not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, audit))
}

// ListNCRs handles GET /external/ncrs
func (h *ExternalHandler) ListNCRs(c *gin.Context) {
	params := pagination.Parse(c)
	token := consumedToken(c)
	filter := service.NCRFilter{
		Status:   c.Query("status"),
		Severity: c.Query("severity"),
	}
	if auditID, ok := scopeEntity(token, model.ScopeAudit); ok {
		filter.AuditID = &auditID
	}
	if supplierID, ok := scopeEntity(token, model.ScopeSupplier); ok {
		filter.SupplierID = &supplierID
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

// GetNCR handles GET /external/ncrs/:id
func (h *ExternalHandler) GetNCR(c *gin.Context) {
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
	if !ncrVisible(consumedToken(c), ncr) {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "NCR not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ncr))
}

// ListCAPAs handles GET /external/capas
func (h *ExternalHandler) ListCAPAs(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.CAPAFilter{
		Status:   c.Query("status"),
		CAPAType: c.Query("capa_type"),
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

// GetCAPA handles GET /external/capas/:id
func (h *ExternalHandler) GetCAPA(c *gin.Context) {
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

// ListDocuments handles GET /external/documents. Only approved documents are
// visible to external auditors regardless of the requested filter.
func (h *ExternalHandler) ListDocuments(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.DocumentFilter{
		DocType: c.Query("doc_type"),
		Status:  model.DocumentApproved,
		Search:  c.Query("search"),
	}

	documents, total, err := h.documentService.ListDocuments(c.Request.Context(), filter, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Data:  documents,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}))
}

// GetDocument handles GET /external/documents/:id
func (h *ExternalHandler) GetDocument(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid document id"))
		return
	}

	document, err := h.documentService.GetDocument(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	if document.Status != model.DocumentApproved {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Document not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, document))
}

// ListEvaluations handles GET /external/supplier-evaluations
func (h *ExternalHandler) ListEvaluations(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.EvaluationListFilter{
		ComplianceStatus: c.Query("compliance_status"),
		Page:             params.Page,
		Limit:            params.Limit,
	}
	if supplierID := uintQuery(c, "supplier_id"); supplierID != nil {
		filter.SupplierID = *supplierID
	}
	if supplierID, ok := scopeEntity(consumedToken(c), model.ScopeSupplier); ok {
		filter.SupplierID = supplierID
	}

	evaluations, total, err := h.supplierService.ListEvaluations(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Data:  evaluations,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}))
}

// GetEvaluation handles GET /external/supplier-evaluations/:id
func (h *ExternalHandler) GetEvaluation(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid evaluation id"))
		return
	}

	evaluation, err := h.supplierService.GetEvaluation(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	if !evaluationVisible(consumedToken(c), evaluation) {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Evaluation not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, evaluation))
}

// ListAttachments handles GET /external/attachments/entity/:type/:id
func (h *ExternalHandler) ListAttachments(c *gin.Context) {
	entityType := model.EntityType(c.Param("type"))
	if !entityType.Valid() {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Unknown entity type"))
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid entity id"))
		return
	}
	if !attachmentTargetVisible(consumedToken(c), entityType, id) {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Token is not scoped for this entity"))
		return
	}

	attachments, err := h.attachService.ListForEntity(c.Request.Context(), entityType, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, attachments))
}
