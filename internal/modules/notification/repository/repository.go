package repository

import (
	"context"
	"fmt"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/modules/notification/dto"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	AccountIDOf(ctx context.Context, owner entity.Owner) (uuid.UUID, error)
	CreateStudentNotification(ctx context.Context, notification *entity.StudentNotification) error
	CreateStaffNotification(ctx context.Context, notification *entity.StaffNotification) error
	FindStudentNotifications(ctx context.Context, studentID uint, filter dto.NotificationFilter) ([]entity.StudentNotification, int64, error)
	FindStaffNotifications(ctx context.Context, staffID uint, filter dto.NotificationFilter) ([]entity.StaffNotification, int64, error)
	MarkAsRead(ctx context.Context, owner entity.Owner, id uint) (bool, error)
	MarkAllAsRead(ctx context.Context, owner entity.Owner) error
	CountUnread(ctx context.Context, owner entity.Owner) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// AccountIDOf returns gorm.ErrRecordNotFound when the profile does not exist.
func (r *notificationRepository) AccountIDOf(ctx context.Context, owner entity.Owner) (uuid.UUID, error) {
	var profile any
	switch owner.Kind {
	case entity.KindStudent:
		profile = &entity.StudentProfile{}
	case entity.KindStaff:
		profile = &entity.StaffProfile{}
	default:
		return uuid.Nil, fmt.Errorf("unknown profile kind %q", owner.Kind)
	}

	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(profile).Where("id = ?", owner.ProfileID).Pluck("account_id", &ids).Error; err != nil {
		return uuid.Nil, err
	}
	if len(ids) == 0 {
		return uuid.Nil, gorm.ErrRecordNotFound
	}
	return ids[0], nil
}

func (r *notificationRepository) CreateStudentNotification(ctx context.Context, notification *entity.StudentNotification) error {
	return r.db.WithContext(ctx).Omit("Student").Create(notification).Error
}

func (r *notificationRepository) CreateStaffNotification(ctx context.Context, notification *entity.StaffNotification) error {
	return r.db.WithContext(ctx).Omit("Staff").Create(notification).Error
}

func (r *notificationRepository) FindStudentNotifications(ctx context.Context, studentID uint, filter dto.NotificationFilter) ([]entity.StudentNotification, int64, error) {
	return findNotifications[entity.StudentNotification](r.db.WithContext(ctx), "student_id", studentID, filter)
}

func (r *notificationRepository) FindStaffNotifications(ctx context.Context, staffID uint, filter dto.NotificationFilter) ([]entity.StaffNotification, int64, error) {
	return findNotifications[entity.StaffNotification](r.db.WithContext(ctx), "staff_id", staffID, filter)
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, owner entity.Owner, id uint) (bool, error) {
	query, err := r.owned(ctx, owner)
	if err != nil {
		return false, err
	}
	result := query.Where("id = ?", id).Update("is_read", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, owner entity.Owner) error {
	query, err := r.owned(ctx, owner)
	if err != nil {
		return err
	}
	return query.Where("is_read = ?", false).Update("is_read", true).Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, owner entity.Owner) (int64, error) {
	query, err := r.owned(ctx, owner)
	if err != nil {
		return 0, err
	}
	var count int64
	err = query.Where("is_read = ?", false).Count(&count).Error
	return count, err
}

// owned scopes a query to the notifications of owner.
func (r *notificationRepository) owned(ctx context.Context, owner entity.Owner) (*gorm.DB, error) {
	db := r.db.WithContext(ctx)
	switch owner.Kind {
	case entity.KindStudent:
		return db.Model(&entity.StudentNotification{}).Where("student_id = ?", owner.ProfileID), nil
	case entity.KindStaff:
		return db.Model(&entity.StaffNotification{}).Where("staff_id = ?", owner.ProfileID), nil
	}
	return nil, fmt.Errorf("unknown notification kind %q", owner.Kind)
}

func findNotifications[T any](db *gorm.DB, ownerColumn string, ownerID uint, filter dto.NotificationFilter) ([]T, int64, error) {
	query := db.Model(new(T)).Where(ownerColumn+" = ?", ownerID)
	if filter.Unread {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []T
	err := query.
		Order("created_at DESC, id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}
