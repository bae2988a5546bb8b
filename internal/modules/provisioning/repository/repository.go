package repository

import (
	"context"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository persists the administrator and staff profiles and looks
// up the catalog rows a student profile needs.
type ProfileRepository interface {
	WithTx(tx *gorm.DB) ProfileRepository

	CreateAdmin(ctx context.Context, profile *entity.AdministratorProfile) error
	SaveAdmin(ctx context.Context, profile *entity.AdministratorProfile) error
	FindAdmin(ctx context.Context, accountID uuid.UUID) (*entity.AdministratorProfile, error)

	CreateStaff(ctx context.Context, profile *entity.StaffProfile) error
	SaveStaff(ctx context.Context, profile *entity.StaffProfile) error
	FindStaff(ctx context.Context, accountID uuid.UUID) (*entity.StaffProfile, error)

	FindCourse(ctx context.Context, id uint) (*entity.Course, error)
	FindSessionPeriod(ctx context.Context, id uint) (*entity.SessionPeriod, error)
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) WithTx(tx *gorm.DB) ProfileRepository {
	return &profileRepository{db: tx}
}

func (r *profileRepository) CreateAdmin(ctx context.Context, profile *entity.AdministratorProfile) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(profile).Error
	return database.Translate(err, "account_id")
}

func (r *profileRepository) SaveAdmin(ctx context.Context, profile *entity.AdministratorProfile) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(profile).Error
}

func (r *profileRepository) FindAdmin(ctx context.Context, accountID uuid.UUID) (*entity.AdministratorProfile, error) {
	var profile entity.AdministratorProfile
	if err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) CreateStaff(ctx context.Context, profile *entity.StaffProfile) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(profile).Error
	return database.Translate(err, "account_id")
}

func (r *profileRepository) SaveStaff(ctx context.Context, profile *entity.StaffProfile) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(profile).Error
}

func (r *profileRepository) FindStaff(ctx context.Context, accountID uuid.UUID) (*entity.StaffProfile, error) {
	var profile entity.StaffProfile
	if err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) FindCourse(ctx context.Context, id uint) (*entity.Course, error) {
	var course entity.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *profileRepository) FindSessionPeriod(ctx context.Context, id uint) (*entity.SessionPeriod, error) {
	var period entity.SessionPeriod
	if err := r.db.WithContext(ctx).First(&period, id).Error; err != nil {
		return nil, err
	}
	return &period, nil
}
