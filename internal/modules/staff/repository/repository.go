package repository

import (
	"context"
	"strings"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/modules/staff/dto"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StaffRepository interface {
	Transaction(ctx context.Context, fn func(repo StaffRepository) error) error

	FindByID(ctx context.Context, id uint) (*entity.StaffProfile, error)
	FindByAccountID(ctx context.Context, accountID uuid.UUID) (*entity.StaffProfile, error)
	FindAll(ctx context.Context, filter dto.StaffFilter) ([]*entity.StaffProfile, int64, error)
	Update(ctx context.Context, profile *entity.StaffProfile) error
	FindSubjects(ctx context.Context, ids []uint) ([]entity.Subject, error)
	ReplaceSubjects(ctx context.Context, profile *entity.StaffProfile, subjects []entity.Subject) error
}

type staffRepository struct {
	db *gorm.DB
}

func NewStaffRepository(db *gorm.DB) StaffRepository {
	return &staffRepository{db: db}
}

func (r *staffRepository) Transaction(ctx context.Context, fn func(repo StaffRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&staffRepository{db: tx})
	})
}

func (r *staffRepository) FindByID(ctx context.Context, id uint) (*entity.StaffProfile, error) {
	var profile entity.StaffProfile
	if err := r.db.WithContext(ctx).
		Preload("Account").
		Preload("SubjectsTaught").
		First(&profile, id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *staffRepository) FindByAccountID(ctx context.Context, accountID uuid.UUID) (*entity.StaffProfile, error) {
	var profile entity.StaffProfile
	if err := r.db.WithContext(ctx).
		Preload("SubjectsTaught").
		Where("account_id = ?", accountID).
		First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *staffRepository) FindAll(ctx context.Context, filter dto.StaffFilter) ([]*entity.StaffProfile, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.StaffProfile{})

	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	var profiles []*entity.StaffProfile
	if err := query.
		Preload("SubjectsTaught").
		Order("last_name ASC, first_name ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&profiles).Error; err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

func (r *staffRepository) Update(ctx context.Context, profile *entity.StaffProfile) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(profile).Error
}

func (r *staffRepository) FindSubjects(ctx context.Context, ids []uint) ([]entity.Subject, error) {
	var subjects []entity.Subject
	if len(ids) == 0 {
		return subjects, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}

func (r *staffRepository) ReplaceSubjects(ctx context.Context, profile *entity.StaffProfile, subjects []entity.Subject) error {
	assoc := r.db.WithContext(ctx).Model(profile).Association("SubjectsTaught")
	if len(subjects) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(subjects)
}
