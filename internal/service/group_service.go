package service

import (
	"context"
	"encoding/json"
	"fmt"

	"qms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type MemberIDsRequest struct {
	UserIDs []string `json:"user_ids" binding:"required"`
}

type GroupIDsRequest struct {
	GroupIDs []uint `json:"group_ids" binding:"required"`
}

type DocumentIDsRequest struct {
	DocumentIDs []uint `json:"document_ids" binding:"required"`
}

type GroupMemberResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	AddedAt  string `json:"added_at"`
	AddedBy  string `json:"added_by,omitempty"`
}

// --- Interface ---

type GroupService interface {
	ListGroups(ctx context.Context, includeInactive bool, page, limit int) ([]model.Group, int64, error)
	GetGroup(ctx context.Context, id uint) (*model.Group, error)
	CreateGroup(ctx context.Context, req CreateGroupRequest, actor *uuid.UUID) (*model.Group, error)
	UpdateGroup(ctx context.Context, id uint, req UpdateGroupRequest) (*model.Group, error)
	DeactivateGroup(ctx context.Context, id uint) error

	ListMembers(ctx context.Context, groupID uint) ([]GroupMemberResponse, error)
	AddMembers(ctx context.Context, groupID uint, userIDs []string, actor *uuid.UUID) error
	RemoveMembers(ctx context.Context, groupID uint, userIDs []string, actor *uuid.UUID) error
	ReplaceMembers(ctx context.Context, groupID uint, userIDs []string, actor *uuid.UUID) error

	GroupsForDocument(ctx context.Context, documentID uint) ([]model.Group, error)
	ReplaceDocumentGroups(ctx context.Context, documentID uint, groupIDs []uint, actor *uuid.UUID) error
}

type groupService struct {
	db *gorm.DB
}

func NewGroupService(db *gorm.DB) GroupService {
	return &groupService{db: db}
}

// --- Implementation ---

func (s *groupService) ListGroups(ctx context.Context, includeInactive bool, page, limit int) ([]model.Group, int64, error) {
	var groups []model.Group
	var total int64

	db := s.db.WithContext(ctx).Model(&model.Group{})
	if !includeInactive {
		db = db.Where("active = ?", true)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}

	offset := (page - 1) * limit
	if err := db.Order("name ASC").Offset(offset).Limit(limit).Find(&groups).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch groups: %w", err)
	}
	return groups, total, nil
}

func (s *groupService) GetGroup(ctx context.Context, id uint) (*model.Group, error) {
	var group model.Group
	if err := s.db.WithContext(ctx).First(&group, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("group not found: %w", err)
	}
	return &group, nil
}

func (s *groupService) CreateGroup(ctx context.Context, req CreateGroupRequest, actor *uuid.UUID) (*model.Group, error) {
	group := model.Group{
		Name:        req.Name,
		Description: req.Description,
		Active:      true,
		CreatedBy:   actor,
	}
	if err := s.db.WithContext(ctx).Create(&group).Error; err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return &group, nil
}

func (s *groupService) UpdateGroup(ctx context.Context, id uint, req UpdateGroupRequest) (*model.Group, error) {
	group, err := s.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	group.Name = req.Name
	group.Description = req.Description
	if err := s.db.WithContext(ctx).Save(group).Error; err != nil {
		return nil, fmt.Errorf("failed to update group: %w", err)
	}
	return group, nil
}

// DeactivateGroup soft-deletes via active=false; membership rows stay intact
func (s *groupService) DeactivateGroup(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Model(&model.Group{}).Where("id = ?", id).Update("active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate group: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("group %d not found", id)
	}
	return nil
}

func (s *groupService) ListMembers(ctx context.Context, groupID uint) ([]GroupMemberResponse, error) {
	var members []model.GroupMember
	if err := s.db.WithContext(ctx).Preload("User").Where("group_id = ?", groupID).Order("added_at ASC").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch group members: %w", err)
	}

	res := make([]GroupMemberResponse, 0, len(members))
	for _, m := range members {
		entry := GroupMemberResponse{
			UserID:   m.UserID.String(),
			Username: m.User.Username,
			FullName: m.User.FullName,
			Email:    m.User.Email,
			AddedAt:  m.AddedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if m.AddedBy != nil {
			entry.AddedBy = m.AddedBy.String()
		}
		res = append(res, entry)
	}
	return res, nil
}

func (s *groupService) AddMembers(ctx context.Context, groupID uint, userIDs []string, actor *uuid.UUID) error {
	ids, err := parseUserIDs(userIDs)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Skip users already in the group so the insert stays a single batch
		var existing []uuid.UUID
		if err := tx.Model(&model.GroupMember{}).Where("group_id = ? AND user_id IN ?", groupID, ids).Pluck("user_id", &existing).Error; err != nil {
			return fmt.Errorf("failed to check existing members: %w", err)
		}
		toAdd, _ := DiffAssignments(existing, ids)
		if len(toAdd) == 0 {
			return nil
		}

		rows := make([]model.GroupMember, 0, len(toAdd))
		for _, id := range toAdd {
			rows = append(rows, model.GroupMember{GroupID: groupID, UserID: id, AddedBy: actor})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to add members: %w", err)
		}
		return s.logMembershipChange(tx, groupID, actor, toAdd, nil)
	})
}

func (s *groupService) RemoveMembers(ctx context.Context, groupID uint, userIDs []string, actor *uuid.UUID) error {
	ids, err := parseUserIDs(userIDs)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ? AND user_id IN ?", groupID, ids).Delete(&model.GroupMember{}).Error; err != nil {
			return fmt.Errorf("failed to remove members: %w", err)
		}
		return s.logMembershipChange(tx, groupID, actor, nil, ids)
	})
}

// ReplaceMembers diffs the selection against current membership and applies at
// most one batched insert and one batched delete.
func (s *groupService) ReplaceMembers(ctx context.Context, groupID uint, userIDs []string, actor *uuid.UUID) error {
	selection, err := parseUserIDs(userIDs)
	if err != nil {
		return err
	}

	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current []uuid.UUID
		if err := tx.Model(&model.GroupMember{}).Where("group_id = ?", groupID).Pluck("user_id", &current).Error; err != nil {
			return fmt.Errorf("failed to fetch current members: %w", err)
		}

		toAdd, toRemove := DiffAssignments(current, selection)

		if len(toAdd) > 0 {
			rows := make([]model.GroupMember, 0, len(toAdd))
			for _, id := range toAdd {
				rows = append(rows, model.GroupMember{GroupID: groupID, UserID: id, AddedBy: actor})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to add members: %w", err)
			}
		}
		if len(toRemove) > 0 {
			if err := tx.Where("group_id = ? AND user_id IN ?", groupID, toRemove).Delete(&model.GroupMember{}).Error; err != nil {
				return fmt.Errorf("failed to remove members: %w", err)
			}
		}
		if len(toAdd) == 0 && len(toRemove) == 0 {
			return nil
		}
		return s.logMembershipChange(tx, groupID, actor, toAdd, toRemove)
	})
}

func (s *groupService) GroupsForDocument(ctx context.Context, documentID uint) ([]model.Group, error) {
	var groups []model.Group
	err := s.db.WithContext(ctx).
		Joins("JOIN group_documents gd ON gd.group_id = groups.id").
		Where("gd.document_id = ? AND groups.active = ?", documentID, true).
		Order("groups.name ASC").
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document groups: %w", err)
	}
	return groups, nil
}

// ReplaceDocumentGroups applies the same diffed batch semantics to the
// document-group assignment.
func (s *groupService) ReplaceDocumentGroups(ctx context.Context, documentID uint, groupIDs []uint, actor *uuid.UUID) error {
	var doc model.Document
	if err := s.db.WithContext(ctx).First(&doc, "id = ?", documentID).Error; err != nil {
		return fmt.Errorf("document not found: %w", err)
	}

	selection := dedupe(groupIDs)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current []uint
		if err := tx.Model(&model.GroupDocument{}).Where("document_id = ?", documentID).Pluck("group_id", &current).Error; err != nil {
			return fmt.Errorf("failed to fetch current assignment: %w", err)
		}

		toAdd, toRemove := DiffAssignments(current, selection)

		if len(toAdd) > 0 {
			rows := make([]model.GroupDocument, 0, len(toAdd))
			for _, id := range toAdd {
				rows = append(rows, model.GroupDocument{GroupID: id, DocumentID: documentID, AssignedBy: actor})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to assign groups: %w", err)
			}
		}
		if len(toRemove) > 0 {
			if err := tx.Where("document_id = ? AND group_id IN ?", documentID, toRemove).Delete(&model.GroupDocument{}).Error; err != nil {
				return fmt.Errorf("failed to unassign groups: %w", err)
			}
		}
		if len(toAdd) == 0 && len(toRemove) == 0 {
			return nil
		}

		details, _ := json.Marshal(map[string]interface{}{
			"document_id": documentID,
			"added":       toAdd,
			"removed":     toRemove,
		})
		audit := model.AuditLog{
			UserID:   actor,
			Action:   model.ActionGroupDocuments,
			EntityID: fmt.Sprintf("%d", documentID),
			Details:  string(details),
		}
		return tx.Create(&audit).Error
	})
}

// --- Helpers ---

func parseUserIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("invalid user id '%s': %w", r, err)
		}
		ids = append(ids, id)
	}
	return dedupe(ids), nil
}

func (s *groupService) logMembershipChange(tx *gorm.DB, groupID uint, actor *uuid.UUID, added, removed []uuid.UUID) error {
	details, _ := json.Marshal(map[string]interface{}{
		"group_id": groupID,
		"added":    added,
		"removed":  removed,
	})
	audit := model.AuditLog{
		UserID:   actor,
		Action:   model.ActionGroupMembership,
		EntityID: fmt.Sprintf("%d", groupID),
		Details:  string(details),
	}
	return tx.Create(&audit).Error
}
