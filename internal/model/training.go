package model

import (
	"time"

	"github.com/google/uuid"
)

// Derived training record statuses
const (
	TrainingValid    = "valid"
	TrainingExpiring = "expiring" // within 30 days of expiry
	TrainingExpired  = "expired"
)

// TrainingCourse is a competency requirement users can complete
type TrainingCourse struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code           string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Title          string    `gorm:"type:varchar(255);not null" json:"title"`
	Description    string    `gorm:"type:text" json:"description"`
	ValidityMonths int       `gorm:"default:0" json:"validity_months"` // 0 = never expires
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TrainingRecord marks a user's completion of a course
type TrainingRecord struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_training_user_course" json:"user_id"`
	User        *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CourseID    uint           `gorm:"not null;index:idx_training_user_course" json:"course_id"`
	Course      *TrainingCourse `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	CompletedAt time.Time      `gorm:"not null" json:"completed_at"`
	ExpiresAt   *time.Time     `gorm:"index" json:"expires_at"` // nil when the course never expires
	Score       *int           `json:"score"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// Status derives the record's validity at the given instant
func (r *TrainingRecord) Status(now time.Time) string {
	if r.ExpiresAt == nil {
		return TrainingValid
	}
	switch {
	case now.After(*r.ExpiresAt):
		return TrainingExpired
	case now.Add(30 * 24 * time.Hour).After(*r.ExpiresAt):
		return TrainingExpiring
	default:
		return TrainingValid
	}
}
