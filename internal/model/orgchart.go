package model

import (
	"time"

	"github.com/google/uuid"
)

// OrgUnit is a node in the organizational tree (department, section, team)
type OrgUnit struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	ParentID  *uint      `gorm:"index" json:"parent_id"`
	ManagerID *uuid.UUID `gorm:"type:uuid" json:"manager_id"`
	Manager   *User      `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Children []OrgUnit `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}

// Position is a named seat inside an org unit, optionally filled by a user
type Position struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrgUnitID uint       `gorm:"not null;index" json:"org_unit_id"`
	Title     string     `gorm:"type:varchar(255);not null" json:"title"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
