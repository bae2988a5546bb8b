package repository

import (
	"context"
	"fmt"
	"time"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/modules/feedback/dto"
	"gorm.io/gorm"
)

type FeedbackRepository interface {
	CreateStudentFeedback(ctx context.Context, feedback *entity.StudentFeedback) error
	CreateStaffFeedback(ctx context.Context, feedback *entity.StaffFeedback) error
	FindStudentFeedback(ctx context.Context, studentID uint, filter dto.FeedbackFilter) ([]entity.StudentFeedback, int64, error)
	FindStaffFeedback(ctx context.Context, staffID uint, filter dto.FeedbackFilter) ([]entity.StaffFeedback, int64, error)
	SetReply(ctx context.Context, kind entity.Kind, id uint, reply string, at time.Time) error
}

type feedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) CreateStudentFeedback(ctx context.Context, feedback *entity.StudentFeedback) error {
	return r.db.WithContext(ctx).Omit("Student").Create(feedback).Error
}

func (r *feedbackRepository) CreateStaffFeedback(ctx context.Context, feedback *entity.StaffFeedback) error {
	return r.db.WithContext(ctx).Omit("Staff").Create(feedback).Error
}

func (r *feedbackRepository) FindStudentFeedback(ctx context.Context, studentID uint, filter dto.FeedbackFilter) ([]entity.StudentFeedback, int64, error) {
	return findFeedback[entity.StudentFeedback](r.db.WithContext(ctx), "Student", "student_id", studentID, filter)
}

func (r *feedbackRepository) FindStaffFeedback(ctx context.Context, staffID uint, filter dto.FeedbackFilter) ([]entity.StaffFeedback, int64, error) {
	return findFeedback[entity.StaffFeedback](r.db.WithContext(ctx), "Staff", "staff_id", staffID, filter)
}

// SetReply returns gorm.ErrRecordNotFound when no feedback has id.
func (r *feedbackRepository) SetReply(ctx context.Context, kind entity.Kind, id uint, reply string, at time.Time) error {
	var model any
	switch kind {
	case entity.KindStudent:
		model = &entity.StudentFeedback{}
	case entity.KindStaff:
		model = &entity.StaffFeedback{}
	default:
		return fmt.Errorf("unknown feedback kind %q", kind)
	}

	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ?", id).
		Updates(map[string]any{"reply": reply, "replied_at": at})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func findFeedback[T any](db *gorm.DB, owner, ownerColumn string, ownerID uint, filter dto.FeedbackFilter) ([]T, int64, error) {
	query := db.Model(new(T))
	if ownerID != 0 {
		query = query.Where(ownerColumn+" = ?", ownerID)
	}
	if filter.Unanswered {
		query = query.Where("replied_at IS NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []T
	err := query.
		Preload(owner).
		Order("created_at DESC, id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
