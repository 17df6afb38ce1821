package model

import "time"

// Tag labels documents; colors are stored so the UI can render chips consistently
type Tag struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description     string    `gorm:"type:text" json:"description"`
	BackgroundColor string    `gorm:"type:varchar(7);default:'#e0e0e0'" json:"background_color"`
	FontColor       string    `gorm:"type:varchar(7);default:'#000000'" json:"font_color"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Documents []Document `gorm:"many2many:document_tags;" json:"documents,omitempty"`
}
