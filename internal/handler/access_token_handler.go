package handler

import (
	"net/http"

	"qms/internal/middleware"
	"qms/internal/service"
	"qms/pkg/pagination"
	"qms/pkg/response"

	"github.com/gin-gonic/gin"
)

type AccessTokenHandler struct {
	tokenService service.AccessTokenService
}

func NewAccessTokenHandler(tokenService service.AccessTokenService) *AccessTokenHandler {
	return &AccessTokenHandler{tokenService: tokenService}
}

func (h *AccessTokenHandler) RegisterRoutes(router *gin.RouterGroup) {
	tokens := router.Group("/auditor-access-tokens", middleware.RequirePermission("tokens.manage"))
	{
		tokens.GET("", h.ListTokens)
		tokens.GET("/options", h.Options)
		tokens.GET("/:id", h.GetToken)
		tokens.POST("", h.CreateToken)
		tokens.POST("/:id/revoke", h.RevokeToken)
		tokens.POST("/cleanup", h.Cleanup)
	}
}

// CreateToken handles POST /auditor-access-tokens
// @Summary      Issue auditor access token
// @Description  Issues a scoped, expiring, use-limited token. The plaintext value is returned exactly once.
// @Tags         auditor-tokens
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateTokenRequest  true  "Token Parameters"
// @Success      201      {object}  response.Response{data=service.TokenCreatedResponse}
// @Failure      400      {object}  response.Response
// @Router       /auditor-access-tokens [post]
func (h *AccessTokenHandler) CreateToken(c *gin.Context) {
	var req service.CreateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	token, err := h.tokenService.CreateToken(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, token))
}

// ListTokens handles GET /auditor-access-tokens
// @Summary      List auditor access tokens
// @Description  Lists issued tokens with previews and derived state; never exposes plaintext values
// @Tags         auditor-tokens
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 10)"
// @Success      200    {object}  response.Response{data=response.Paginated}
// @Router       /auditor-access-tokens [get]
func (h *AccessTokenHandler) ListTokens(c *gin.Context) {
	params := pagination.Parse(c)

	tokens, total, err := h.tokenService.ListTokens(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Data:  tokens,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}))
}

// GetToken handles GET /auditor-access-tokens/:id
// @Summary      Get auditor access token
// @Tags         auditor-tokens
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Token ID"
// @Success      200  {object}  response.Response{data=service.TokenResponse}
// @Failure      404  {object}  response.Response
// @Router       /auditor-access-tokens/{id} [get]
func (h *AccessTokenHandler) GetToken(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid token id"))
		return
	}

	token, err := h.tokenService.GetToken(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, token))
}

// RevokeToken handles POST /auditor-access-tokens/:id/revoke
// @Summary      Revoke auditor access token
// @Description  Revokes a token with a mandatory reason; revocation is permanent
// @Tags         auditor-tokens
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                         true  "Token ID"
// @Param        payload  body      service.RevokeTokenRequest  true  "Revocation Reason"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Router       /auditor-access-tokens/{id}/revoke [post]
func (h *AccessTokenHandler) RevokeToken(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid token id"))
		return
	}

	var req service.RevokeTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	token, err := h.tokenService.RevokeToken(c.Request.Context(), id, req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, token))
}

// Cleanup handles POST /auditor-access-tokens/cleanup
// @Summary      Deactivate expired tokens
// @Description  Sweeps tokens past their expiry and marks them inactive
// @Tags         auditor-tokens
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /auditor-access-tokens/cleanup [post]
func (h *AccessTokenHandler) Cleanup(c *gin.Context) {
	count, err := h.tokenService.Cleanup(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{"deactivated": count}))
}

// Options handles GET /auditor-access-tokens/options
// @Summary      Token issuance options
// @Description  Returns the allowed scope types and resource names for token creation forms
// @Tags         auditor-tokens
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.TokenOptionsResponse}
// @Router       /auditor-access-tokens/options [get]
func (h *AccessTokenHandler) Options(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.tokenService.Options()))
}
