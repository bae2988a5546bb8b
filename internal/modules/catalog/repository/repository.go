package repository

import (
	"context"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CatalogRepository interface {
	CreateCourse(ctx context.Context, course *entity.Course) error
	SaveCourse(ctx context.Context, course *entity.Course) error
	FindCourse(ctx context.Context, id uint) (*entity.Course, error)
	FindCourses(ctx context.Context) ([]*entity.Course, error)
	DeleteCourse(ctx context.Context, id uint) error

	CreateSubject(ctx context.Context, subject *entity.Subject) error
	SaveSubject(ctx context.Context, subject *entity.Subject) error
	FindSubject(ctx context.Context, id uint) (*entity.Subject, error)
	FindSubjects(ctx context.Context, courseID uint) ([]*entity.Subject, error)
	DeleteSubject(ctx context.Context, id uint) error

	CreateSessionPeriod(ctx context.Context, period *entity.SessionPeriod) error
	SaveSessionPeriod(ctx context.Context, period *entity.SessionPeriod) error
	FindSessionPeriod(ctx context.Context, id uint) (*entity.SessionPeriod, error)
	FindSessionPeriods(ctx context.Context) ([]*entity.SessionPeriod, error)
	DeleteSessionPeriod(ctx context.Context, id uint) error
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) CreateCourse(ctx context.Context, course *entity.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *catalogRepository) SaveCourse(ctx context.Context, course *entity.Course) error {
	return r.db.WithContext(ctx).Save(course).Error
}

func (r *catalogRepository) FindCourse(ctx context.Context, id uint) (*entity.Course, error) {
	var course entity.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *catalogRepository) FindCourses(ctx context.Context) ([]*entity.Course, error) {
	var courses []*entity.Course
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

// DeleteCourse fails with a conflict while subjects or students reference
// the course.
func (r *catalogRepository) DeleteCourse(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &entity.Course{}, id)
}

func (r *catalogRepository) CreateSubject(ctx context.Context, subject *entity.Subject) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(subject).Error
}

func (r *catalogRepository) SaveSubject(ctx context.Context, subject *entity.Subject) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(subject).Error
}

func (r *catalogRepository) FindSubject(ctx context.Context, id uint) (*entity.Subject, error) {
	var subject entity.Subject
	if err := r.db.WithContext(ctx).Preload("Course").First(&subject, id).Error; err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *catalogRepository) FindSubjects(ctx context.Context, courseID uint) ([]*entity.Subject, error) {
	query := r.db.WithContext(ctx).Preload("Course")
	if courseID != 0 {
		query = query.Where("course_id = ?", courseID)
	}

	var subjects []*entity.Subject
	if err := query.Order("name ASC").Find(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}

func (r *catalogRepository) DeleteSubject(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &entity.Subject{}, id)
}

func (r *catalogRepository) CreateSessionPeriod(ctx context.Context, period *entity.SessionPeriod) error {
	return r.db.WithContext(ctx).Create(period).Error
}

func (r *catalogRepository) SaveSessionPeriod(ctx context.Context, period *entity.SessionPeriod) error {
	return r.db.WithContext(ctx).Save(period).Error
}

func (r *catalogRepository) FindSessionPeriod(ctx context.Context, id uint) (*entity.SessionPeriod, error) {
	var period entity.SessionPeriod
	if err := r.db.WithContext(ctx).First(&period, id).Error; err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *catalogRepository) FindSessionPeriods(ctx context.Context) ([]*entity.SessionPeriod, error) {
	var periods []*entity.SessionPeriod
	if err := r.db.WithContext(ctx).Order("start_date DESC").Find(&periods).Error; err != nil {
		return nil, err
	}
	return periods, nil
}

func (r *catalogRepository) DeleteSessionPeriod(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &entity.SessionPeriod{}, id)
}

func deleteByID(ctx context.Context, db *gorm.DB, model interface{}, id uint) error {
	result := db.WithContext(ctx).Delete(model, id)
	if result.Error != nil {
		return database.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
