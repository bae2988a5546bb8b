package service

import (
	"context"
	"errors"
	"net/http"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/modules/result/dto"
	"anoa.com/studentms/internal/modules/result/repository"
	"anoa.com/studentms/pkg/apperror"
	"anoa.com/studentms/pkg/database"
	"anoa.com/studentms/pkg/validator"
	"gorm.io/gorm"
)

var errNotTeaching = apperror.New(http.StatusForbidden, "subject is not assigned to you", apperror.ErrForbidden)

type ResultService interface {
	Upsert(ctx context.Context, staffID uint, input dto.UpsertResultInput) (*entity.ExamResult, error)
	ListByStudent(ctx context.Context, studentID uint) ([]*entity.ExamResult, error)
	ListBySubject(ctx context.Context, subjectID uint) ([]*entity.ExamResult, error)
	Delete(ctx context.Context, staffID, id uint) error
}

type resultService struct {
	repo repository.ResultRepository
}

func NewResultService(repo repository.ResultRepository) ResultService {
	return &resultService{repo: repo}
}

// Upsert records marks for a student in a subject of the student's course.
// A zero staffID skips the subject assignment check.
func (s *resultService) Upsert(ctx context.Context, staffID uint, input dto.UpsertResultInput) (*entity.ExamResult, error) {
	if err := validator.ValidateStruct(input); err != nil {
		return nil, err
	}

	student, err := s.repo.FindStudent(ctx, input.StudentID)
	if err != nil {
		return nil, reference(err, "student", input.StudentID)
	}
	subject, err := s.repo.FindSubject(ctx, input.SubjectID)
	if err != nil {
		return nil, reference(err, "subject", input.SubjectID)
	}
	if subject.CourseID != student.CourseID {
		return nil, apperror.Invalid("subject_id", "is not part of the student's course")
	}
	if err := s.checkTeaches(ctx, staffID, subject.ID); err != nil {
		return nil, err
	}

	result := &entity.ExamResult{
		StudentID:       student.ID,
		SubjectID:       subject.ID,
		ExamMarks:       *input.ExamMarks,
		AssignmentMarks: *input.AssignmentMarks,
	}
	if err := s.repo.Upsert(ctx, result); err != nil {
		return nil, err
	}
	result.Subject = subject
	return result, nil
}

func (s *resultService) ListByStudent(ctx context.Context, studentID uint) ([]*entity.ExamResult, error) {
	return s.repo.FindByStudent(ctx, studentID)
}

func (s *resultService) ListBySubject(ctx context.Context, subjectID uint) ([]*entity.ExamResult, error) {
	return s.repo.FindBySubject(ctx, subjectID)
}

func (s *resultService) Delete(ctx context.Context, staffID, id uint) error {
	result, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return database.NotFound(err, "result")
	}
	if err := s.checkTeaches(ctx, staffID, result.SubjectID); err != nil {
		return err
	}
	return database.NotFound(s.repo.Delete(ctx, id), "result")
}

func (s *resultService) checkTeaches(ctx context.Context, staffID, subjectID uint) error {
	if staffID == 0 {
		return nil
	}
	ok, err := s.repo.Teaches(ctx, staffID, subjectID)
	if err != nil {
		return err
	}
	if !ok {
		return errNotTeaching
	}
	return nil
}

func reference(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.MissingReference(entity, id)
	}
	return err
}
