package handler

import (
	"context"
	"net/http"

	"qms/internal/middleware"
	"qms/internal/service"
	"qms/pkg/pagination"
	"qms/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type GroupHandler struct {
	groupService service.GroupService
}

func NewGroupHandler(groupService service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

func (h *GroupHandler) RegisterRoutes(router *gin.RouterGroup) {
	groups := router.Group("/groups")
	{
		groups.GET("", middleware.RequirePermission("groups.read"), h.ListGroups)
		groups.GET("/:id", middleware.RequirePermission("groups.read"), h.GetGroup)
		groups.POST("", middleware.RequirePermission("groups.write"), h.CreateGroup)
		groups.PUT("/:id", middleware.RequirePermission("groups.write"), h.UpdateGroup)
		groups.DELETE("/:id", middleware.RequirePermission("groups.write"), h.DeactivateGroup)

		groups.GET("/:id/users", middleware.RequirePermission("groups.read"), h.ListMembers)
		groups.POST("/:id/users", middleware.RequirePermission("groups.write"), h.AddMembers)
		groups.DELETE("/:id/users", middleware.RequirePermission("groups.write"), h.RemoveMembers)
		groups.PUT("/:id/users", middleware.RequirePermission("groups.write"), h.ReplaceMembers)
	}

	documents := router.Group("/documents")
	{
		documents.GET("/:id/groups", middleware.RequirePermission("documents.read"), h.GroupsForDocument)
		documents.PUT("/:id/groups", middleware.RequirePermission("documents.write"), h.ReplaceDocumentGroups)
	}
}

// ListGroups handles GET /groups
// @Summary      List groups
// @Description  Paginated list of user groups; inactive groups are hidden unless include_inactive=true
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        page              query     int   false  "Page number (default 1)"
// @Param        limit             query     int   false  "Items per page (default 10)"
// @Param        include_inactive  query     bool  false  "Include deactivated groups"
// @Success      200               {object}  response.Response{data=response.Paginated}
// @Router       /groups [get]
func (h *GroupHandler) ListGroups(c *gin.Context) {
	params := pagination.Parse(c)
	includeInactive := c.Query("include_inactive") == "true"

	groups, total, err := h.groupService.ListGroups(c.Request.Context(), includeInactive, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Data:  groups,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}))
}

// GetGroup handles GET /groups/:id
// @Summary      Get group
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Group ID"
// @Success      200  {object}  response.Response{data=model.Group}
// @Failure      404  {object}  response.Response
// @Router       /groups/{id} [get]
func (h *GroupHandler) GetGroup(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid group id"))
		return
	}

	group, err := h.groupService.GetGroup(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, group))
}

// CreateGroup handles POST /groups
// @Summary      Create group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateGroupRequest  true  "Create Group Payload"
// @Success      201      {object}  response.Response{data=model.Group}
// @Failure      400      {object}  response.Response
// @Router       /groups [post]
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req service.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	group, err := h.groupService.CreateGroup(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, group))
}

// UpdateGroup handles PUT /groups/:id
// @Summary      Update group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                         true  "Group ID"
// @Param        payload  body      service.UpdateGroupRequest  true  "Update Group Payload"
// @Success      200      {object}  response.Response{data=model.Group}
// @Failure      400      {object}  response.Response
// @Router       /groups/{id} [put]
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid group id"))
		return
	}

	var req service.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	group, err := h.groupService.UpdateGroup(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, group))
}

// DeactivateGroup handles DELETE /groups/:id
// @Summary      Deactivate group
// @Description  Soft-deletes the group; membership rows are preserved
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Group ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /groups/{id} [delete]
func (h *GroupHandler) DeactivateGroup(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid group id"))
		return
	}

	if err := h.groupService.DeactivateGroup(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Group deactivated"))
}

// ListMembers handles GET /groups/:id/users
// @Summary      List group members
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Group ID"
// @Success      200  {object}  response.Response{data=[]service.GroupMemberResponse}
// @Router       /groups/{id}/users [get]
func (h *GroupHandler) ListMembers(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid group id"))
		return
	}

	members, err := h.groupService.ListMembers(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, members))
}

// AddMembers handles POST /groups/:id/users
// @Summary      Add group members
// @Description  Adds users to the group; users already present are skipped
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                       true  "Group ID"
// @Param        payload  body      service.MemberIDsRequest  true  "User IDs"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /groups/{id}/users [post]
func (h *GroupHandler) AddMembers(c *gin.Context) {
	h.applyMembers(c, h.groupService.AddMembers)
}

// RemoveMembers handles DELETE /groups/:id/users
// @Summary      Remove group members
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                       true  "Group ID"
// @Param        payload  body      service.MemberIDsRequest  true  "User IDs"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /groups/{id}/users [delete]
func (h *GroupHandler) RemoveMembers(c *gin.Context) {
	h.applyMembers(c, h.groupService.RemoveMembers)
}

// ReplaceMembers handles PUT /groups/:id/users
// @Summary      Replace group members
// @Description  Diffs the selection against current membership and applies batched adds and removals
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                       true  "Group ID"
// @Param        payload  body      service.MemberIDsRequest  true  "User IDs"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /groups/{id}/users [put]
func (h *GroupHandler) ReplaceMembers(c *gin.Context) {
	h.applyMembers(c, h.groupService.ReplaceMembers)
}

// GroupsForDocument handles GET /documents/:id/groups
// @Summary      List document groups
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Document ID"
// @Success      200  {object}  response.Response{data=[]model.Group}
// @Router       /documents/{id}/groups [get]
func (h *GroupHandler) GroupsForDocument(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid document id"))
		return
	}

	groups, err := h.groupService.GroupsForDocument(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, groups))
}

// ReplaceDocumentGroups handles PUT /documents/:id/groups
// @Summary      Replace document groups
// @Description  Replaces the set of groups assigned to a document using diffed batch writes
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                      true  "Document ID"
// @Param        payload  body      service.GroupIDsRequest  true  "Group IDs"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /documents/{id}/groups [put]
func (h *GroupHandler) ReplaceDocumentGroups(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid document id"))
		return
	}

	var req service.GroupIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.groupService.ReplaceDocumentGroups(c.Request.Context(), id, req.GroupIDs, currentUserID(c)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Document groups updated"))
}

// applyMembers binds the shared member payload and dispatches to the given op
func (h *GroupHandler) applyMembers(c *gin.Context, op func(ctx context.Context, groupID uint, userIDs []string, actor *uuid.UUID) error) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid group id"))
		return
	}

	var req service.MemberIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := op(c.Request.Context(), id, req.UserIDs, currentUserID(c)); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Group membership updated"))
}
