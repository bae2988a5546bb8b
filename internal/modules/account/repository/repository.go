package repository

import (
	"context"
	"strings"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/modules/account/dto"
	"anoa.com/studentms/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccountRepository interface {
	WithTx(tx *gorm.DB) AccountRepository
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error

	Create(ctx context.Context, account *entity.Account) error
	Save(ctx context.Context, account *entity.Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)
	UsernameTaken(ctx context.Context, username string, exceptID uuid.UUID) (bool, error)
	EmailTaken(ctx context.Context, email string, exceptID uuid.UUID) (bool, error)
	FindAll(ctx context.Context, filter dto.AccountFilter) ([]*entity.Account, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) WithTx(tx *gorm.DB) AccountRepository {
	return &accountRepository{db: tx}
}

func (r *accountRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *accountRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Account{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(account).Error
	return database.Translate(err, "username", "email")
}

func (r *accountRepository) Save(ctx context.Context, account *entity.Account) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Save(account).Error
	return database.Translate(err, "username", "email")
}

func (r *accountRepository) withProfiles(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Admin").
		Preload("Staff").
		Preload("Staff.SubjectsTaught").
		Preload("Student").
		Preload("Student.Course").
		Preload("Student.SessionPeriod")
}

func (r *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	var account entity.Account
	if err := r.withProfiles(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	var account entity.Account
	if err := r.withProfiles(ctx).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) UsernameTaken(ctx context.Context, username string, exceptID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.Account{}).
		Where("username = ? AND id <> ?", username, exceptID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *accountRepository) EmailTaken(ctx context.Context, email string, exceptID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.Account{}).
		Where("LOWER(email) = ? AND id <> ?", strings.ToLower(email), exceptID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *accountRepository) FindAll(ctx context.Context, filter dto.AccountFilter) ([]*entity.Account, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Account{})

	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	var accounts []*entity.Account
	if err := query.
		Preload("Staff").
		Preload("Student").
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&accounts).Error; err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

func (r *accountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&entity.Account{}, "id = ?", id)
	if result.Error != nil {
		return database.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
