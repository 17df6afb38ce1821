package service

import (
	"context"
	"fmt"
	"time"

	"qms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type TrainingCourseRequest struct {
	Code           string `json:"code" binding:"required"`
	Title          string `json:"title" binding:"required"`
	Description    string `json:"description"`
	ValidityMonths int    `json:"validity_months" binding:"min=0"`
}

type TrainingRecordRequest struct {
	UserID      string    `json:"user_id" binding:"required"`
	CompletedAt time.Time `json:"completed_at" binding:"required"`
	Score       *int      `json:"score" binding:"omitempty,min=0,max=100"`
}

// TrainingRecordResponse attaches the derived validity status to a record.
type TrainingRecordResponse struct {
	model.TrainingRecord
	Status string `json:"status"`
}

// CompetencyCell is one user/course pairing in the competency matrix.
type CompetencyCell struct {
	UserID    string     `json:"user_id"`
	Username  string     `json:"username"`
	CourseID  uint       `json:"course_id"`
	Code      string     `json:"code"`
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// --- Interface ---

type TrainingService interface {
	ListCourses(ctx context.Context, page, limit int) ([]model.TrainingCourse, int64, error)
	GetCourse(ctx context.Context, id uint) (*model.TrainingCourse, error)
	CreateCourse(ctx context.Context, req TrainingCourseRequest) (*model.TrainingCourse, error)
	UpdateCourse(ctx context.Context, id uint, req TrainingCourseRequest) (*model.TrainingCourse, error)
	DeleteCourse(ctx context.Context, id uint) error

	RecordCompletion(ctx context.Context, courseID uint, req TrainingRecordRequest) (*TrainingRecordResponse, error)
	RecordsForUser(ctx context.Context, userID string) ([]TrainingRecordResponse, error)
	CompetencyMatrix(ctx context.Context) ([]CompetencyCell, error)
}

type trainingService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTrainingService(db *gorm.DB) TrainingService {
	return &trainingService{db: db, now: time.Now}
}

// --- Implementation ---

func (s *trainingService) ListCourses(ctx context.Context, page, limit int) ([]model.TrainingCourse, int64, error) {
	var courses []model.TrainingCourse
	var total int64

	db := s.db.WithContext(ctx).Model(&model.TrainingCourse{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	offset := (page - 1) * limit
	if err := db.Order("code ASC").Offset(offset).Limit(limit).Find(&courses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch courses: %w", err)
	}
	return courses, total, nil
}

func (s *trainingService) GetCourse(ctx context.Context, id uint) (*model.TrainingCourse, error) {
	var course model.TrainingCourse
	if err := s.db.WithContext(ctx).First(&course, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("training course not found: %w", err)
	}
	return &course, nil
}

func (s *trainingService) CreateCourse(ctx context.Context, req TrainingCourseRequest) (*model.TrainingCourse, error) {
	course := model.TrainingCourse{
		Code:           req.Code,
		Title:          req.Title,
		Description:    req.Description,
		ValidityMonths: req.ValidityMonths,
	}
	if err := s.db.WithContext(ctx).Create(&course).Error; err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	return &course, nil
}

func (s *trainingService) UpdateCourse(ctx context.Context, id uint, req TrainingCourseRequest) (*model.TrainingCourse, error) {
	course, err := s.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	course.Code = req.Code
	course.Title = req.Title
	course.Description = req.Description
	course.ValidityMonths = req.ValidityMonths

	if err := s.db.WithContext(ctx).Save(course).Error; err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}
	return course, nil
}

func (s *trainingService) DeleteCourse(ctx context.Context, id uint) error {
	if _, err := s.GetCourse(ctx, id); err != nil {
		return err
	}

	var records int64
	if err := s.db.WithContext(ctx).Model(&model.TrainingRecord{}).Where("course_id = ?", id).Count(&records).Error; err != nil {
		return fmt.Errorf("failed to check training records: %w", err)
	}
	if records > 0 {
		return fmt.Errorf("course has %d completion record(s) and cannot be deleted", records)
	}
	return s.db.WithContext(ctx).Delete(&model.TrainingCourse{}, id).Error
}

// RecordCompletion stores a completion and derives the expiry from the
// course's validity window.
func (s *trainingService) RecordCompletion(ctx context.Context, courseID uint, req TrainingRecordRequest) (*TrainingRecordResponse, error) {
	course, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id '%s': %w", req.UserID, err)
	}
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	record := model.TrainingRecord{
		UserID:      userID,
		CourseID:    courseID,
		CompletedAt: req.CompletedAt,
		Score:       req.Score,
	}
	if course.ValidityMonths > 0 {
		expires := req.CompletedAt.AddDate(0, course.ValidityMonths, 0)
		record.ExpiresAt = &expires
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to record completion: %w", err)
	}
	return &TrainingRecordResponse{TrainingRecord: record, Status: record.Status(s.now())}, nil
}

func (s *trainingService) RecordsForUser(ctx context.Context, userID string) ([]TrainingRecordResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id '%s': %w", userID, err)
	}

	var records []model.TrainingRecord
	err = s.db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", id).
		Order("completed_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch training records: %w", err)
	}

	now := s.now()
	res := make([]TrainingRecordResponse, 0, len(records))
	for _, record := range records {
		res = append(res, TrainingRecordResponse{TrainingRecord: record, Status: record.Status(now)})
	}
	return res, nil
}

// CompetencyMatrix returns the latest completion per user/course pair with
// its derived validity.
func (s *trainingService) CompetencyMatrix(ctx context.Context) ([]CompetencyCell, error) {
	var records []model.TrainingRecord
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Course").
		Order("completed_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch training records: %w", err)
	}

	// Later completions overwrite earlier ones per user/course
	type key struct {
		user   uuid.UUID
		course uint
	}
	latest := make(map[key]model.TrainingRecord)
	order := make([]key, 0)
	for _, record := range records {
		k := key{user: record.UserID, course: record.CourseID}
		if _, seen := latest[k]; !seen {
			order = append(order, k)
		}
		latest[k] = record
	}

	now := s.now()
	cells := make([]CompetencyCell, 0, len(latest))
	for _, k := range order {
		record := latest[k]
		cell := CompetencyCell{
			UserID:    record.UserID.String(),
			CourseID:  record.CourseID,
			Status:    record.Status(now),
			ExpiresAt: record.ExpiresAt,
		}
		if record.User != nil {
			cell.Username = record.User.Username
		}
		if record.Course != nil {
			cell.Code = record.Course.Code
		}
		cells = append(cells, cell)
	}
	return cells, nil
}
