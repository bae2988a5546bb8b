package service

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/modules/staff/dto"
	"anoa.com/studentms/internal/modules/staff/repository"
	"anoa.com/studentms/pkg/apperror"
	"anoa.com/studentms/pkg/database"
	commonDto "anoa.com/studentms/pkg/dto"
	"anoa.com/studentms/pkg/logger"
	"anoa.com/studentms/pkg/storage"
	"anoa.com/studentms/pkg/validator"
	"github.com/google/uuid"
)

type StaffService interface {
	GetStaff(ctx context.Context, id uint) (*entity.StaffProfile, error)
	GetByAccount(ctx context.Context, accountID uuid.UUID) (*entity.StaffProfile, error)
	ListStaff(ctx context.Context, filter dto.StaffFilter) (*commonDto.Paginated[*entity.StaffProfile], error)
	UpdateProfile(ctx context.Context, id uint, input dto.UpdateStaffInput, photo *commonDto.PhotoFile) (*entity.StaffProfile, error)
	AssignSubjects(ctx context.Context, id uint, input dto.AssignSubjectsInput) (*entity.StaffProfile, error)
}

type staffService struct {
	repo   repository.StaffRepository
	photos storage.PhotoStorage
	now    func() time.Time
}

func NewStaffService(repo repository.StaffRepository, photos storage.PhotoStorage, now func() time.Time) StaffService {
	if now == nil {
		now = time.Now
	}
	return &staffService{repo: repo, photos: photos, now: now}
}

func (s *staffService) GetStaff(ctx context.Context, id uint) (*entity.StaffProfile, error) {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, database.NotFound(err, "staff")
	}
	return profile, nil
}

func (s *staffService) GetByAccount(ctx context.Context, accountID uuid.UUID) (*entity.StaffProfile, error) {
	profile, err := s.repo.FindByAccountID(ctx, accountID)
	if err != nil {
		return nil, database.NotFound(err, "staff")
	}
	return profile, nil
}

func (s *staffService) ListStaff(ctx context.Context, filter dto.StaffFilter) (*commonDto.Paginated[*entity.StaffProfile], error) {
	filter.Page = filter.Page.Normalize()

	profiles, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &commonDto.Paginated[*entity.StaffProfile]{
		Data: profiles,
		Meta: filter.Page.Meta(total),
	}, nil
}

func (s *staffService) UpdateProfile(ctx context.Context, id uint, input dto.UpdateStaffInput, photo *commonDto.PhotoFile) (*entity.StaffProfile, error) {
	if err := validator.ValidateStruct(input); err != nil {
		return nil, err
	}
	dob, err := parseDate("date_of_birth", input.DateOfBirth)
	if err != nil {
		return nil, err
	}
	joined, err := parseDate("date_of_joining", input.DateOfJoining)
	if err != nil {
		return nil, err
	}

	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, database.NotFound(err, "staff")
	}

	if input.FirstName != nil && strings.TrimSpace(*input.FirstName) != "" {
		profile.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil && strings.TrimSpace(*input.LastName) != "" {
		profile.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Address != nil {
		profile.Address = input.Address
	}
	if input.PhoneNumber != nil {
		profile.PhoneNumber = *input.PhoneNumber
	}
	if input.Gender != nil {
		profile.Gender = entity.Gender(*input.Gender)
	}
	if dob != nil {
		profile.DateOfBirth = dob
	}
	if joined != nil {
		profile.DateOfJoining = joined
	}
	if input.Qualifications != nil {
		profile.Qualifications = input.Qualifications
	}
	if input.Bio != nil {
		profile.Bio = input.Bio
	}
	if input.IsActive != nil {
		profile.IsActive = *input.IsActive
	}

	var oldPhoto string
	if photo != nil {
		if s.photos == nil {
			return nil, apperror.New(http.StatusServiceUnavailable, "photo storage is not configured", apperror.ErrInternal)
		}
		url, err := s.photos.UploadPhoto(ctx, photo.Reader, "staff", photo.FileName)
		if err != nil {
			return nil, apperror.Invalid("photo", "%v", err)
		}
		if profile.PhotoURL != nil {
			oldPhoto = *profile.PhotoURL
		}
		profile.PhotoURL = &url
	}

	profile.Age = profile.AgeAt(s.now())
	if err := s.repo.Update(ctx, profile); err != nil {
		if photo != nil {
			s.discardPhoto(ctx, *profile.PhotoURL)
		}
		return nil, err
	}

	if oldPhoto != "" {
		s.discardPhoto(ctx, oldPhoto)
	}
	return profile, nil
}

// AssignSubjects replaces the set of subjects the staff member teaches.
func (s *staffService) AssignSubjects(ctx context.Context, id uint, input dto.AssignSubjectsInput) (*entity.StaffProfile, error) {
	ids := dedupe(input.SubjectIDs)

	var profile *entity.StaffProfile
	err := s.repo.Transaction(ctx, func(repo repository.StaffRepository) error {
		current, err := repo.FindByID(ctx, id)
		if err != nil {
			return database.NotFound(err, "staff")
		}

		subjects, err := repo.FindSubjects(ctx, ids)
		if err != nil {
			return err
		}
		if len(subjects) != len(ids) {
			return apperror.MissingReference("subject", missingID(ids, subjects))
		}

		if err := repo.ReplaceSubjects(ctx, current, subjects); err != nil {
			return err
		}
		current.SubjectsTaught = subjects
		profile = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *staffService) discardPhoto(ctx context.Context, url string) {
	if s.photos == nil {
		return
	}
	if err := s.photos.DeletePhoto(ctx, url); err != nil {
		logger.Warn().Err(err).Str("url", url).Msg("failed to delete staff photo")
	}
}

func parseDate(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.DateOnly, *value)
	if err != nil {
		return nil, apperror.Invalid(field, "must be a date in the format %s", time.DateOnly)
	}
	return &parsed, nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func missingID(ids []uint, found []entity.Subject) uint {
	present := make(map[uint]struct{}, len(found))
	for _, s := range found {
		present[s.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			return id
		}
	}
	return 0
}
