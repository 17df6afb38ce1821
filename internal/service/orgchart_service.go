package service

import (
	"context"
	"fmt"

	"qms/internal/model"

	"gorm.io/gorm"
)

// --- DTOs ---

type OrgUnitRequest struct {
	Name      string `json:"name" binding:"required"`
	ParentID  *uint  `json:"parent_id"`
	ManagerID string `json:"manager_id"`
}

type PositionRequest struct {
	Title  string `json:"title" binding:"required"`
	UserID string `json:"user_id"`
}

// OrgUnitNode is one tree node with its positions and children resolved.
type OrgUnitNode struct {
	model.OrgUnit
	Positions []model.Position `json:"positions"`
	Nodes     []*OrgUnitNode   `json:"nodes"`
}

// --- Interface ---

type OrgChartService interface {
	GetTree(ctx context.Context) ([]*OrgUnitNode, error)
	GetUnit(ctx context.Context, id uint) (*model.OrgUnit, error)
	CreateUnit(ctx context.Context, req OrgUnitRequest) (*model.OrgUnit, error)
	UpdateUnit(ctx context.Context, id uint, req OrgUnitRequest) (*model.OrgUnit, error)
	DeleteUnit(ctx context.Context, id uint) error

	ListPositions(ctx context.Context, unitID uint) ([]model.Position, error)
	CreatePosition(ctx context.Context, unitID uint, req PositionRequest) (*model.Position, error)
	UpdatePosition(ctx context.Context, positionID uint, req PositionRequest) (*model.Position, error)
	DeletePosition(ctx context.Context, positionID uint) error
}

type orgChartService struct {
	db *gorm.DB
}

func NewOrgChartService(db *gorm.DB) OrgChartService {
	return &orgChartService{db: db}
}

// --- Implementation ---

// GetTree loads all units and positions in two queries and assembles the
// forest in memory.
func (s *orgChartService) GetTree(ctx context.Context) ([]*OrgUnitNode, error) {
	var units []model.OrgUnit
	if err := s.db.WithContext(ctx).Preload("Manager").Order("name ASC").Find(&units).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch org units: %w", err)
	}

	var positions []model.Position
	if err := s.db.WithContext(ctx).Preload("User").Order("title ASC").Find(&positions).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch positions: %w", err)
	}

	nodes := make(map[uint]*OrgUnitNode, len(units))
	for _, unit := range units {
		unit.Children = nil
		nodes[unit.ID] = &OrgUnitNode{OrgUnit: unit, Positions: []model.Position{}, Nodes: []*OrgUnitNode{}}
	}
	for _, pos := range positions {
		if node, ok := nodes[pos.OrgUnitID]; ok {
			node.Positions = append(node.Positions, pos)
		}
	}

	roots := make([]*OrgUnitNode, 0)
	for _, node := range nodes {
		if node.ParentID != nil {
			if parent, ok := nodes[*node.ParentID]; ok {
				parent.Nodes = append(parent.Nodes, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots, nil
}

func (s *orgChartService) GetUnit(ctx context.Context, id uint) (*model.OrgUnit, error) {
	var unit model.OrgUnit
	if err := s.db.WithContext(ctx).Preload("Manager").Preload("Children").First(&unit, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("org unit not found: %w", err)
	}
	return &unit, nil
}

func (s *orgChartService) CreateUnit(ctx context.Context, req OrgUnitRequest) (*model.OrgUnit, error) {
	manager, err := parseOptionalUserID(req.ManagerID)
	if err != nil {
		return nil, err
	}
	if req.ParentID != nil {
		if _, err := s.GetUnit(ctx, *req.ParentID); err != nil {
			return nil, fmt.Errorf("parent unit not found")
		}
	}

	unit := model.OrgUnit{
		Name:      req.Name,
		ParentID:  req.ParentID,
		ManagerID: manager,
	}
	if err := s.db.WithContext(ctx).Create(&unit).Error; err != nil {
		return nil, fmt.Errorf("failed to create org unit: %w", err)
	}
	return &unit, nil
}

// UpdateUnit handles renames and reparenting. A unit may not become its own
// ancestor.
func (s *orgChartService) UpdateUnit(ctx context.Context, id uint, req OrgUnitRequest) (*model.OrgUnit, error) {
	unit, err := s.GetUnit(ctx, id)
	if err != nil {
		return nil, err
	}

	manager, err := parseOptionalUserID(req.ManagerID)
	if err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		if *req.ParentID == id {
			return nil, fmt.Errorf("org unit cannot be its own parent")
		}
		cyclic, err := s.isDescendant(ctx, id, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if cyclic {
			return nil, fmt.Errorf("cannot move org unit under its own descendant")
		}
	}

	unit.Name = req.Name
	unit.ParentID = req.ParentID
	unit.ManagerID = manager
	unit.Children = nil

	if err := s.db.WithContext(ctx).Save(unit).Error; err != nil {
		return nil, fmt.Errorf("failed to update org unit: %w", err)
	}
	return unit, nil
}

// DeleteUnit refuses to remove a unit that still has children or positions.
func (s *orgChartService) DeleteUnit(ctx context.Context, id uint) error {
	if _, err := s.GetUnit(ctx, id); err != nil {
		return err
	}

	var children int64
	if err := s.db.WithContext(ctx).Model(&model.OrgUnit{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
		return fmt.Errorf("failed to check children: %w", err)
	}
	if children > 0 {
		return fmt.Errorf("org unit has %d child unit(s); move or delete them first", children)
	}

	var positions int64
	if err := s.db.WithContext(ctx).Model(&model.Position{}).Where("org_unit_id = ?", id).Count(&positions).Error; err != nil {
		return fmt.Errorf("failed to check positions: %w", err)
	}
	if positions > 0 {
		return fmt.Errorf("org unit has %d position(s); remove them first", positions)
	}

	return s.db.WithContext(ctx).Delete(&model.OrgUnit{}, id).Error
}

func (s *orgChartService) ListPositions(ctx context.Context, unitID uint) ([]model.Position, error) {
	var positions []model.Position
	err := s.db.WithContext(ctx).Preload("User").Where("org_unit_id = ?", unitID).Order("title ASC").Find(&positions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch positions: %w", err)
	}
	return positions, nil
}

func (s *orgChartService) CreatePosition(ctx context.Context, unitID uint, req PositionRequest) (*model.Position, error) {
	if _, err := s.GetUnit(ctx, unitID); err != nil {
		return nil, err
	}

	user, err := parseOptionalUserID(req.UserID)
	if err != nil {
		return nil, err
	}

	position := model.Position{
		OrgUnitID: unitID,
		Title:     req.Title,
		UserID:    user,
	}
	if err := s.db.WithContext(ctx).Create(&position).Error; err != nil {
		return nil, fmt.Errorf("failed to create position: %w", err)
	}
	return &position, nil
}

func (s *orgChartService) UpdatePosition(ctx context.Context, positionID uint, req PositionRequest) (*model.Position, error) {
	var position model.Position
	if err := s.db.WithContext(ctx).First(&position, "id = ?", positionID).Error; err != nil {
		return nil, fmt.Errorf("position not found: %w", err)
	}

	user, err := parseOptionalUserID(req.UserID)
	if err != nil {
		return nil, err
	}

	position.Title = req.Title
	position.UserID = user
	if err := s.db.WithContext(ctx).Save(&position).Error; err != nil {
		return nil, fmt.Errorf("failed to update position: %w", err)
	}
	return &position, nil
}

func (s *orgChartService) DeletePosition(ctx context.Context, positionID uint) error {
	result := s.db.WithContext(ctx).Delete(&model.Position{}, positionID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete position: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("position %d not found", positionID)
	}
	return nil
}

// isDescendant reports whether candidate lies in the subtree rooted at unitID.
// Walks parent pointers upward from the candidate, bounded to catch corrupt data.
func (s *orgChartService) isDescendant(ctx context.Context, unitID, candidate uint) (bool, error) {
	current := candidate
	for depth := 0; depth < 100; depth++ {
		if current == unitID {
			return true, nil
		}
		var unit model.OrgUnit
		if err := s.db.WithContext(ctx).Select("id", "parent_id").First(&unit, "id = ?", current).Error; err != nil {
			return false, fmt.Errorf("org unit not found: %w", err)
		}
		if unit.ParentID == nil {
			return false, nil
		}
		current = *unit.ParentID
	}
	return false, fmt.Errorf("org chart parent chain too deep")
}
