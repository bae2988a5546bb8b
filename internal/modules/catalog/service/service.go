package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/modules/catalog/dto"
	"anoa.com/studentms/internal/modules/catalog/repository"
	"anoa.com/studentms/pkg/apperror"
	"anoa.com/studentms/pkg/database"
	"anoa.com/studentms/pkg/validator"
	"gorm.io/gorm"
)

// CatalogService manages the shared reference data: courses, their subjects
// and the session periods students enroll in.
type CatalogService interface {
	CreateCourse(ctx context.Context, input dto.CourseInput) (*entity.Course, error)
	UpdateCourse(ctx context.Context, id uint, input dto.CourseInput) (*entity.Course, error)
	GetCourse(ctx context.Context, id uint) (*entity.Course, error)
	ListCourses(ctx context.Context) ([]*entity.Course, error)
	DeleteCourse(ctx context.Context, id uint) error

	CreateSubject(ctx context.Context, input dto.SubjectInput) (*entity.Subject, error)
	UpdateSubject(ctx context.Context, id uint, input dto.SubjectInput) (*entity.Subject, error)
	GetSubject(ctx context.Context, id uint) (*entity.Subject, error)
	ListSubjects(ctx context.Context, filter dto.SubjectFilter) ([]*entity.Subject, error)
	DeleteSubject(ctx context.Context, id uint) error

	CreateSessionPeriod(ctx context.Context, input dto.SessionPeriodInput) (*entity.SessionPeriod, error)
	UpdateSessionPeriod(ctx context.Context, id uint, input dto.SessionPeriodInput) (*entity.SessionPeriod, error)
	GetSessionPeriod(ctx context.Context, id uint) (*entity.SessionPeriod, error)
	ListSessionPeriods(ctx context.Context) ([]*entity.SessionPeriod, error)
	DeleteSessionPeriod(ctx context.Context, id uint) error
}

type catalogService struct {
	repo repository.CatalogRepository
}

func NewCatalogService(repo repository.CatalogRepository) CatalogService {
	return &catalogService{repo: repo}
}

func (s *catalogService) CreateCourse(ctx context.Context, input dto.CourseInput) (*entity.Course, error) {
	if err := validator.ValidateStruct(input); err != nil {
		return nil, err
	}
	course := &entity.Course{Name: strings.TrimSpace(input.Name)}
	if err := s.repo.CreateCourse(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *catalogService) UpdateCourse(ctx context.Context, id uint, input dto.CourseInput) (*entity.Course, error) {
	if err := validator.ValidateStruct(input); err != nil {
		return nil, err
	}
	course, err := s.repo.FindCourse(ctx, id)
	if err != nil {
		return nil, database.NotFound(err, "course")
	}
	course.Name = strings.TrimSpace(input.Name)
	if err := s.repo.SaveCourse(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *catalogService) GetCourse(ctx context.Context, id uint) (*entity.Course, error) {
	course, err := s.repo.FindCourse(ctx, id)
	if err != nil {
		return nil, database.NotFound(err, "course")
	}
	return course, nil
}

func (s *catalogService) ListCourses(ctx context.Context) ([]*entity.Course, error) {
	return s.repo.FindCourses(ctx)
}

func (s *catalogService) DeleteCourse(ctx context.Context, id uint) error {
	return database.NotFound(s.repo.DeleteCourse(ctx, id), "course")
}

func (s *catalogService) CreateSubject(ctx context.Context, input dto.SubjectInput) (*entity.Subject, error) {
	if err := validator.ValidateStruct(input); err != nil {
		return nil, err
	}
	course, err := s.courseRef(ctx, input.CourseID)
	if err != nil {
		return nil, err
	}

	subject := &entity.Subject{Name: strings.TrimSpace(input.Name), CourseID: course.ID}
	if err := s.repo.CreateSubject(ctx, subject); err != nil {
		return nil, err
	}
	subject.Course = course
	return subject, nil
}

func (s *catalogService) UpdateSubject(ctx context.Context, id uint, input dto.SubjectInput) (*entity.Subject, error) {
	if err := validator.ValidateStruct(input); err != nil {
		return nil, err
	}
	subject, err := s.repo.FindSubject(ctx, id)
	if err != nil {
		return nil, database.NotFound(err, "subject")
	}
	course, err := s.courseRef(ctx, input.CourseID)
	if err != nil {
		return nil, err
	}

	subject.Name = strings.TrimSpace(input.Name)
	subject.CourseID = course.ID
	subject.Course = course
	if err := s.repo.SaveSubject(ctx, subject); err != nil {
		return nil, err
	}
	return subject, nil
}

func (s *catalogService) GetSubject(ctx context.Context, id uint) (*entity.Subject, error) {
	subject, err := s.repo.FindSubject(ctx, id)
	if err != nil {
		return nil, database.NotFound(err, "subject")
	}
	return subject, nil
}

func (s *catalogService) ListSubjects(ctx context.Context, filter dto.SubjectFilter) ([]*entity.Subject, error) {
	return s.repo.FindSubjects(ctx, filter.CourseID)
}

func (s *catalogService) DeleteSubject(ctx context.Context, id uint) error {
	return database.NotFound(s.repo.DeleteSubject(ctx, id), "subject")
}

func (s *catalogService) CreateSessionPeriod(ctx context.Context, input dto.SessionPeriodInput) (*entity.SessionPeriod, error) {
	start, end, err := parsePeriod(input)
	if err != nil {
		return nil, err
	}
	period := &entity.SessionPeriod{StartDate: start, EndDate: end}
	if err := s.repo.CreateSessionPeriod(ctx, period); err != nil {
		return nil, err
	}
	return period, nil
}

func (s *catalogService) UpdateSessionPeriod(ctx context.Context, id uint, input dto.SessionPeriodInput) (*entity.SessionPeriod, error) {
	start, end, err := parsePeriod(input)
	if err != nil {
		return nil, err
	}
	period, err := s.repo.FindSessionPeriod(ctx, id)
	if err != nil {
		return nil, database.NotFound(err, "session period")
	}
	period.StartDate = start
	period.EndDate = end
	if err := s.repo.SaveSessionPeriod(ctx, period); err != nil {
		return nil, err
	}
	return period, nil
}

func (s *catalogService) GetSessionPeriod(ctx context.Context, id uint) (*entity.SessionPeriod, error) {
	period, err := s.repo.FindSessionPeriod(ctx, id)
	if err != nil {
		return nil, database.NotFound(err, "session period")
	}
	return period, nil
}

func (s *catalogService) ListSessionPeriods(ctx context.Context) ([]*entity.SessionPeriod, error) {
	return s.repo.FindSessionPeriods(ctx)
}

func (s *catalogService) DeleteSessionPeriod(ctx context.Context, id uint) error {
	return database.NotFound(s.repo.DeleteSessionPeriod(ctx, id), "session period")
}

func (s *catalogService) courseRef(ctx context.Context, id uint) (*entity.Course, error) {
	course, err := s.repo.FindCourse(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.MissingReference("course", id)
		}
		return nil, err
	}
	return course, nil
}

func parsePeriod(input dto.SessionPeriodInput) (time.Time, time.Time, error) {
	if err := validator.ValidateStruct(input); err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, err := time.Parse(time.DateOnly, input.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, apperror.Invalid("start_date", "must be a date in the format %s", time.DateOnly)
	}
	end, err := time.Parse(time.DateOnly, input.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, apperror.Invalid("end_date", "must be a date in the format %s", time.DateOnly)
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, apperror.Invalid("end_date", "must be after start_date")
	}
	return start, end, nil
}
