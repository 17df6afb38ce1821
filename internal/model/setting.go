package model

import "time"

// SystemSetting is a typed key/value configuration row. Rows seeded with
// IsEditable=false are structural and reject updates through the API.
type SystemSetting struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Key         string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"key"`
	Value       string    `gorm:"type:text" json:"value"`
	ValueType   string    `gorm:"type:varchar(20);default:'string'" json:"value_type"` // string, int, bool
	Description string    `gorm:"type:text" json:"description"`
	IsEditable  bool      `gorm:"default:true" json:"is_editable"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
