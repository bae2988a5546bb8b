package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/modules/student/dto"
	"anoa.com/studentms/internal/modules/student/repository"
	"anoa.com/studentms/pkg/apperror"
	"anoa.com/studentms/pkg/database"
	commonDto "anoa.com/studentms/pkg/dto"
	"anoa.com/studentms/pkg/logger"
	"anoa.com/studentms/pkg/storage"
	"anoa.com/studentms/pkg/validator"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StudentService interface {
	GetStudent(ctx context.Context, id uint) (*entity.StudentProfile, error)
	GetByAccount(ctx context.Context, accountID uuid.UUID) (*entity.StudentProfile, error)
	ListStudents(ctx context.Context, filter dto.StudentFilter) (*commonDto.Paginated[*entity.StudentProfile], error)
	UpdateProfile(ctx context.Context, id uint, input dto.UpdateStudentInput, photo *commonDto.PhotoFile) (*entity.StudentProfile, error)
	DeleteStudent(ctx context.Context, id uint) error
}

type studentService struct {
	repo       repository.StudentRepository
	enrollment *Enrollment
	photos     storage.PhotoStorage
}

func NewStudentService(repo repository.StudentRepository, enrollment *Enrollment, photos storage.PhotoStorage) StudentService {
	return &studentService{
		repo:       repo,
		enrollment: enrollment,
		photos:     photos,
	}
}

func (s *studentService) GetStudent(ctx context.Context, id uint) (*entity.StudentProfile, error) {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, database.NotFound(err, "student")
	}
	return profile, nil
}

func (s *studentService) GetByAccount(ctx context.Context, accountID uuid.UUID) (*entity.StudentProfile, error) {
	profile, err := s.repo.FindByAccountID(ctx, accountID)
	if err != nil {
		return nil, database.NotFound(err, "student")
	}
	return profile, nil
}

func (s *studentService) ListStudents(ctx context.Context, filter dto.StudentFilter) (*commonDto.Paginated[*entity.StudentProfile], error) {
	filter.Page = filter.Page.Normalize()

	profiles, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &commonDto.Paginated[*entity.StudentProfile]{
		Data: profiles,
		Meta: filter.Page.Meta(total),
	}, nil
}

func (s *studentService) UpdateProfile(ctx context.Context, id uint, input dto.UpdateStudentInput, photo *commonDto.PhotoFile) (*entity.StudentProfile, error) {
	if err := validator.ValidateStruct(input); err != nil {
		return nil, err
	}

	var dob *time.Time
	if input.DateOfBirth != nil && *input.DateOfBirth != "" {
		parsed, err := time.Parse(time.DateOnly, *input.DateOfBirth)
		if err != nil {
			return nil, apperror.Invalid("date_of_birth", "must be a date in the format %s", time.DateOnly)
		}
		dob = &parsed
	}

	var photoURL string
	if photo != nil {
		if s.photos == nil {
			return nil, apperror.New(http.StatusServiceUnavailable, "photo storage is not configured", apperror.ErrInternal)
		}
		url, err := s.photos.UploadPhoto(ctx, photo.Reader, "students", photo.FileName)
		if err != nil {
			return nil, apperror.Invalid("photo", "%v", err)
		}
		photoURL = url
	}

	var (
		profile  *entity.StudentProfile
		oldPhoto string
	)
	err := RetryRollNumber(ctx, func() error {
		return s.repo.Transaction(ctx, func(repo repository.StudentRepository) error {
			current, err := repo.FindByID(ctx, id)
			if err != nil {
				return database.NotFound(err, "student")
			}

			if err := applyInput(current, input, dob); err != nil {
				return err
			}

			if input.StudentCNIC != nil {
				taken, err := repo.CNICTaken(ctx, *input.StudentCNIC, current.ID)
				if err != nil {
					return err
				}
				if taken {
					return apperror.Invalid("student_cnic", "already registered to another student")
				}
			}

			if input.SessionPeriodID != nil && *input.SessionPeriodID != current.SessionPeriodID {
				period, err := repo.FindSessionPeriod(ctx, *input.SessionPeriodID)
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return apperror.MissingReference("session period", *input.SessionPeriodID)
					}
					return err
				}
				current.SessionPeriodID = period.ID
				current.SessionPeriod = period
			}

			if input.CourseID != nil && *input.CourseID != current.CourseID {
				if err := s.enrollment.Transfer(ctx, repo, current, *input.CourseID); err != nil {
					return err
				}
			}

			oldPhoto = ""
			if photoURL != "" {
				if current.PhotoURL != nil {
					oldPhoto = *current.PhotoURL
				}
				current.PhotoURL = &photoURL
			}

			if err := s.enrollment.Refresh(ctx, repo, current); err != nil {
				return err
			}
			profile = current
			return nil
		})
	})
	if err != nil {
		if photoURL != "" {
			s.discardPhoto(ctx, photoURL)
		}
		return nil, err
	}

	if oldPhoto != "" {
		s.discardPhoto(ctx, oldPhoto)
	}
	return profile, nil
}

func (s *studentService) DeleteStudent(ctx context.Context, id uint) error {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return database.NotFound(err, "student")
	}

	if err := s.repo.Delete(ctx, profile); err != nil {
		return database.Translate(err)
	}

	if profile.PhotoURL != nil {
		s.discardPhoto(ctx, *profile.PhotoURL)
	}
	return nil
}

func (s *studentService) discardPhoto(ctx context.Context, url string) {
	if s.photos == nil {
		return
	}
	if err := s.photos.DeletePhoto(ctx, url); err != nil {
		logger.Warn().Err(err).Str("url", url).Msg("failed to delete student photo")
	}
}

func applyInput(p *entity.StudentProfile, input dto.UpdateStudentInput, dob *time.Time) error {
	if input.FirstName != nil {
		p.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.MiddleName != nil {
		p.MiddleName = blankToNil(input.MiddleName)
	}
	if input.LastName != nil {
		p.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.ContactNumber != nil {
		p.ContactNumber = *input.ContactNumber
	}
	if input.Gender != nil {
		p.Gender = entity.Gender(*input.Gender)
	}
	if input.Address != nil {
		p.Address = *input.Address
	}
	if input.FatherName != nil {
		p.FatherName = *input.FatherName
	}
	if input.StudentCNIC != nil {
		p.StudentCNIC = input.StudentCNIC
	}
	if input.FatherCNIC != nil {
		p.FatherCNIC = input.FatherCNIC
	}
	if dob != nil {
		p.DateOfBirth = dob
	}
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}
	if p.FirstName == "" || p.LastName == "" {
		return apperror.Invalid("first_name", "first and last name are required")
	}
	return nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
