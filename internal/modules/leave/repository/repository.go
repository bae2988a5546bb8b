package repository

import (
	"context"
	"fmt"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/modules/leave/dto"
	"gorm.io/gorm"
)

type LeaveRepository interface {
	CreateStudentLeave(ctx context.Context, leave *entity.StudentLeave) error
	CreateStaffLeave(ctx context.Context, leave *entity.StaffLeave) error
	FindStudentLeaves(ctx context.Context, studentID uint, filter dto.LeaveFilter) ([]entity.StudentLeave, int64, error)
	FindStaffLeaves(ctx context.Context, staffID uint, filter dto.LeaveFilter) ([]entity.StaffLeave, int64, error)
	Exists(ctx context.Context, kind entity.Kind, id uint) (bool, error)
	SetStatus(ctx context.Context, kind entity.Kind, id uint, from, to entity.LeaveStatus) (bool, error)
}

type leaveRepository struct {
	db *gorm.DB
}

func NewLeaveRepository(db *gorm.DB) LeaveRepository {
	return &leaveRepository{db: db}
}

func (r *leaveRepository) CreateStudentLeave(ctx context.Context, leave *entity.StudentLeave) error {
	return r.db.WithContext(ctx).Omit("Student").Create(leave).Error
}

func (r *leaveRepository) CreateStaffLeave(ctx context.Context, leave *entity.StaffLeave) error {
	return r.db.WithContext(ctx).Omit("Staff").Create(leave).Error
}

// FindStudentLeaves lists leaves of one student, or of all students when
// studentID is zero.
func (r *leaveRepository) FindStudentLeaves(ctx context.Context, studentID uint, filter dto.LeaveFilter) ([]entity.StudentLeave, int64, error) {
	return findLeaves[entity.StudentLeave](r.db.WithContext(ctx), "Student", "student_id", studentID, filter)
}

func (r *leaveRepository) FindStaffLeaves(ctx context.Context, staffID uint, filter dto.LeaveFilter) ([]entity.StaffLeave, int64, error) {
	return findLeaves[entity.StaffLeave](r.db.WithContext(ctx), "Staff", "staff_id", staffID, filter)
}

func (r *leaveRepository) Exists(ctx context.Context, kind entity.Kind, id uint) (bool, error) {
	model, err := modelOf(kind)
	if err != nil {
		return false, err
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetStatus moves a leave from one status to another in a single statement
// and reports whether a row was in the expected state.
func (r *leaveRepository) SetStatus(ctx context.Context, kind entity.Kind, id uint, from, to entity.LeaveStatus) (bool, error) {
	model, err := modelOf(kind)
	if err != nil {
		return false, err
	}
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func findLeaves[T any](db *gorm.DB, owner, ownerColumn string, ownerID uint, filter dto.LeaveFilter) ([]T, int64, error) {
	query := db.Model(new(T))
	if ownerID != 0 {
		query = query.Where(ownerColumn+" = ?", ownerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var leaves []T
	err := query.
		Preload(owner).
		Order("created_at DESC, id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&leaves).Error
	if err != nil {
		return nil, 0, err
	}
	return leaves, total, nil
}

func modelOf(kind entity.Kind) (any, error) {
	switch kind {
	case entity.KindStudent:
		return &entity.StudentLeave{}, nil
	case entity.KindStaff:
		return &entity.StaffLeave{}, nil
	}
	return nil, fmt.Errorf("unknown leave kind %q", kind)
}
