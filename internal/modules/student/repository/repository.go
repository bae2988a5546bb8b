package repository

import (
	"context"
	"strings"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/modules/student/dto"
	"anoa.com/studentms/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Columns whose unique violations are reported back to the caller by name.
var uniqueFields = []string{"roll_number", "registration_number", "student_cnic", "account_id"}

type StudentRepository interface {
	// WithTx binds the repository to an open transaction.
	WithTx(tx *gorm.DB) StudentRepository
	Transaction(ctx context.Context, fn func(repo StudentRepository) error) error

	// LockCourse loads the course row FOR UPDATE. Enrollments into the same
	// course serialize on this lock until the surrounding transaction ends.
	LockCourse(ctx context.Context, courseID uint) (*entity.Course, error)
	MaxRollNumber(ctx context.Context, courseID uint) (int, error)
	FindSessionPeriod(ctx context.Context, id uint) (*entity.SessionPeriod, error)

	Create(ctx context.Context, profile *entity.StudentProfile) error
	Update(ctx context.Context, profile *entity.StudentProfile) error
	Renumber(ctx context.Context, profile *entity.StudentProfile) error
	FindByID(ctx context.Context, id uint) (*entity.StudentProfile, error)
	FindByAccountID(ctx context.Context, accountID uuid.UUID) (*entity.StudentProfile, error)
	FindAll(ctx context.Context, filter dto.StudentFilter) ([]*entity.StudentProfile, int64, error)
	CNICTaken(ctx context.Context, cnic string, exceptID uint) (bool, error)
	RegistrationTaken(ctx context.Context, number string) (bool, error)
	Delete(ctx context.Context, profile *entity.StudentProfile) error
}

type studentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) WithTx(tx *gorm.DB) StudentRepository {
	return &studentRepository{db: tx}
}

func (r *studentRepository) Transaction(ctx context.Context, fn func(repo StudentRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

func (r *studentRepository) LockCourse(ctx context.Context, courseID uint) (*entity.Course, error) {
	var course entity.Course
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&course, courseID).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *studentRepository) MaxRollNumber(ctx context.Context, courseID uint) (int, error) {
	var last int
	if err := r.db.WithContext(ctx).
		Model(&entity.StudentProfile{}).
		Where("course_id = ?", courseID).
		Select("COALESCE(MAX(roll_number), 0)").
		Scan(&last).Error; err != nil {
		return 0, err
	}
	return last, nil
}

func (r *studentRepository) FindSessionPeriod(ctx context.Context, id uint) (*entity.SessionPeriod, error) {
	var period entity.SessionPeriod
	if err := r.db.WithContext(ctx).First(&period, id).Error; err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *studentRepository) Create(ctx context.Context, profile *entity.StudentProfile) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(profile).Error
	return database.Translate(err, uniqueFields...)
}

// Update persists the editable columns. Roll and registration numbers are
// never written here.
func (r *studentRepository) Update(ctx context.Context, profile *entity.StudentProfile) error {
	err := r.db.WithContext(ctx).
		Omit(clause.Associations, "RollNumber", "RegistrationNumber").
		Save(profile).Error
	return database.Translate(err, uniqueFields...)
}

// Renumber moves the profile to its new course and roll number.
func (r *studentRepository) Renumber(ctx context.Context, profile *entity.StudentProfile) error {
	err := r.db.WithContext(ctx).
		Model(&entity.StudentProfile{}).
		Where("id = ?", profile.ID).
		Updates(map[string]interface{}{
			"course_id":   profile.CourseID,
			"roll_number": profile.RollNumber,
		}).Error
	return database.Translate(err, uniqueFields...)
}

func (r *studentRepository) FindByID(ctx context.Context, id uint) (*entity.StudentProfile, error) {
	var profile entity.StudentProfile
	if err := r.db.WithContext(ctx).
		Preload("Account").
		Preload("Course").
		Preload("SessionPeriod").
		First(&profile, id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *studentRepository) FindByAccountID(ctx context.Context, accountID uuid.UUID) (*entity.StudentProfile, error) {
	var profile entity.StudentProfile
	if err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("SessionPeriod").
		Where("account_id = ?", accountID).
		First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *studentRepository) FindAll(ctx context.Context, filter dto.StudentFilter) ([]*entity.StudentProfile, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.StudentProfile{})

	if filter.CourseID != 0 {
		query = query.Where("course_id = ?", filter.CourseID)
	}
	if filter.SessionPeriodID != 0 {
		query = query.Where("session_period_id = ?", filter.SessionPeriodID)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(registration_number) LIKE ?",
			like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	var profiles []*entity.StudentProfile
	if err := query.
		Preload("Course").
		Order("course_id ASC, roll_number ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&profiles).Error; err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

func (r *studentRepository) CNICTaken(ctx context.Context, cnic string, exceptID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.StudentProfile{}).
		Where("student_cnic = ? AND id <> ?", cnic, exceptID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *studentRepository) RegistrationTaken(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.StudentProfile{}).
		Where("registration_number = ?", number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes the owning account; the profile and everything hanging off
// it follow through ON DELETE CASCADE.
func (r *studentRepository) Delete(ctx context.Context, profile *entity.StudentProfile) error {
	return r.db.WithContext(ctx).Delete(&entity.Account{}, "id = ?", profile.AccountID).Error
}
