package repository

import (
	"context"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResultRepository interface {
	FindStudent(ctx context.Context, id uint) (*entity.StudentProfile, error)
	FindSubject(ctx context.Context, id uint) (*entity.Subject, error)
	Teaches(ctx context.Context, staffID, subjectID uint) (bool, error)

	Upsert(ctx context.Context, result *entity.ExamResult) error
	FindByID(ctx context.Context, id uint) (*entity.ExamResult, error)
	FindByStudent(ctx context.Context, studentID uint) ([]*entity.ExamResult, error)
	FindBySubject(ctx context.Context, subjectID uint) ([]*entity.ExamResult, error)
	Delete(ctx context.Context, id uint) error
}

type resultRepository struct {
	db *gorm.DB
}

func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

func (r *resultRepository) FindStudent(ctx context.Context, id uint) (*entity.StudentProfile, error) {
	var student entity.StudentProfile
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *resultRepository) FindSubject(ctx context.Context, id uint) (*entity.Subject, error) {
	var subject entity.Subject
	if err := r.db.WithContext(ctx).First(&subject, id).Error; err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *resultRepository) Teaches(ctx context.Context, staffID, subjectID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Table("staff_subjects").
		Where("staff_profile_id = ? AND subject_id = ?", staffID, subjectID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Upsert keeps one result per student and subject, overwriting the marks.
func (r *resultRepository) Upsert(ctx context.Context, result *entity.ExamResult) error {
	err := r.db.WithContext(ctx).
		Omit("Student", "Subject").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "subject_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"exam_marks", "assignment_marks", "updated_at"}),
		}).
		Create(result).Error
	if err != nil {
		return database.Translate(err)
	}

	// On conflict the returned id is not reliable across drivers.
	var stored entity.ExamResult
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND subject_id = ?", result.StudentID, result.SubjectID).
		First(&stored).Error; err != nil {
		return err
	}
	*result = stored
	return nil
}

func (r *resultRepository) FindByID(ctx context.Context, id uint) (*entity.ExamResult, error) {
	var result entity.ExamResult
	if err := r.db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *resultRepository) FindByStudent(ctx context.Context, studentID uint) ([]*entity.ExamResult, error) {
	var results []*entity.ExamResult
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Where("student_id = ?", studentID).
		Order("subject_id ASC").
		Find(&results).Error
	return results, err
}

func (r *resultRepository) FindBySubject(ctx context.Context, subjectID uint) ([]*entity.ExamResult, error) {
	var results []*entity.ExamResult
	err := r.db.WithContext(ctx).
		Preload("Student").
		Joins("JOIN student_profiles ON student_profiles.id = exam_results.student_id").
		Where("exam_results.subject_id = ?", subjectID).
		Order("student_profiles.roll_number ASC").
		Find(&results).Error
	return results, err
}

func (r *resultRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entity.ExamResult{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
