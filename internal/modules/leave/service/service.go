package service

import (
	"context"
	"fmt"
	"time"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/modules/leave/dto"
	"anoa.com/studentms/internal/modules/leave/repository"
	"anoa.com/studentms/pkg/apperror"
	commonDto "anoa.com/studentms/pkg/dto"
	"anoa.com/studentms/pkg/logger"
	"anoa.com/studentms/pkg/ratelimiter"
	"anoa.com/studentms/pkg/sanitize"
	"anoa.com/studentms/pkg/validator"
)

const rateLimitAction = "leave"

// Limiter guards how often one owner may submit.
type Limiter interface {
	Allow(ctx context.Context, subject, action string) (bool, error)
	Retry(ctx context.Context, subject, action string) (time.Duration, error)
	Clear(ctx context.Context, subject, action string) error
}

type LeaveService interface {
	Apply(ctx context.Context, owner entity.Owner, input dto.ApplyLeaveInput) (*dto.LeaveResponse, error)
	ListMine(ctx context.Context, owner entity.Owner, filter dto.LeaveFilter) (*commonDto.Paginated[dto.LeaveResponse], error)
	ListAll(ctx context.Context, kind entity.Kind, filter dto.LeaveFilter) (*commonDto.Paginated[dto.LeaveResponse], error)
	Decide(ctx context.Context, kind entity.Kind, id uint, input dto.DecideLeaveInput) error
}

type leaveService struct {
	repo    repository.LeaveRepository
	limiter Limiter
}

func NewLeaveService(repo repository.LeaveRepository, limiter Limiter) LeaveService {
	return &leaveService{repo: repo, limiter: limiter}
}

func (s *leaveService) Apply(ctx context.Context, owner entity.Owner, input dto.ApplyLeaveInput) (*dto.LeaveResponse, error) {
	if err := validator.ValidateStruct(input); err != nil {
		return nil, err
	}
	day, err := time.Parse(time.DateOnly, input.LeaveDate)
	if err != nil {
		return nil, apperror.Invalid("leave_date", "must be a date in the format %s", time.DateOnly)
	}
	message := sanitize.Text(input.Message)
	if message == "" {
		return nil, apperror.Invalid("message", "must not be empty")
	}

	subject := ownerKey(owner)
	if err := s.claim(ctx, subject); err != nil {
		return nil, err
	}

	request := entity.LeaveRequest{LeaveDate: day, Message: message, Status: entity.LeavePending}
	var res dto.LeaveResponse
	switch owner.Kind {
	case entity.KindStudent:
		leave := &entity.StudentLeave{StudentID: owner.ProfileID, LeaveRequest: request}
		err = s.repo.CreateStudentLeave(ctx, leave)
		res = fromStudent(*leave)
	case entity.KindStaff:
		leave := &entity.StaffLeave{StaffID: owner.ProfileID, LeaveRequest: request}
		err = s.repo.CreateStaffLeave(ctx, leave)
		res = fromStaff(*leave)
	default:
		err = apperror.Invalid("kind", "must be student or staff")
	}
	if err != nil {
		if clearErr := s.limiter.Clear(ctx, subject, rateLimitAction); clearErr != nil {
			logger.Warn().Err(clearErr).Str("subject", subject).Msg("failed to clear leave rate limit")
		}
		return nil, err
	}
	return &res, nil
}

func (s *leaveService) ListMine(ctx context.Context, owner entity.Owner, filter dto.LeaveFilter) (*commonDto.Paginated[dto.LeaveResponse], error) {
	if owner.ProfileID == 0 {
		return nil, apperror.ErrForbidden
	}
	return s.list(ctx, owner.Kind, owner.ProfileID, filter)
}

func (s *leaveService) ListAll(ctx context.Context, kind entity.Kind, filter dto.LeaveFilter) (*commonDto.Paginated[dto.LeaveResponse], error) {
	return s.list(ctx, kind, 0, filter)
}

// Decide approves or rejects a pending leave. Decided leaves are final.
func (s *leaveService) Decide(ctx context.Context, kind entity.Kind, id uint, input dto.DecideLeaveInput) error {
	if err := validator.ValidateStruct(input); err != nil {
		return err
	}
	if !kind.Valid() {
		return apperror.Invalid("kind", "must be student or staff")
	}

	changed, err := s.repo.SetStatus(ctx, kind, id, entity.LeavePending, entity.LeaveStatus(input.Status))
	if err != nil {
		return err
	}
	if changed {
		return nil
	}

	exists, err := s.repo.Exists(ctx, kind, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s leave: %w", kind, apperror.ErrNotFound)
	}
	return apperror.Invalid("status", "leave has already been decided")
}

func (s *leaveService) list(ctx context.Context, kind entity.Kind, ownerID uint, filter dto.LeaveFilter) (*commonDto.Paginated[dto.LeaveResponse], error) {
	filter.Page = filter.Page.Normalize()

	var (
		items []dto.LeaveResponse
		total int64
	)
	switch kind {
	case entity.KindStudent:
		leaves, count, err := s.repo.FindStudentLeaves(ctx, ownerID, filter)
		if err != nil {
			return nil, err
		}
		for _, l := range leaves {
			items = append(items, fromStudent(l))
		}
		total = count
	case entity.KindStaff:
		leaves, count, err := s.repo.FindStaffLeaves(ctx, ownerID, filter)
		if err != nil {
			return nil, err
		}
		for _, l := range leaves {
			items = append(items, fromStaff(l))
		}
		total = count
	default:
		return nil, apperror.Invalid("kind", "must be student or staff")
	}

	if items == nil {
		items = []dto.LeaveResponse{}
	}
	return &commonDto.Paginated[dto.LeaveResponse]{Data: items, Meta: filter.Page.Meta(total)}, nil
}

func (s *leaveService) claim(ctx context.Context, subject string) error {
	allowed, err := s.limiter.Allow(ctx, subject, rateLimitAction)
	if err != nil {
		return fmt.Errorf("failed to check rate limit: %w", err)
	}
	if allowed {
		return nil
	}

	ttl, _ := s.limiter.Retry(ctx, subject, rateLimitAction)
	return &ratelimiter.RateLimitError{
		Message:    fmt.Sprintf("a leave request was just submitted. Please wait %.0f seconds", ttl.Seconds()),
		RetryAfter: ttl,
	}
}

func ownerKey(owner entity.Owner) string {
	return fmt.Sprintf("%s:%d", owner.Kind, owner.ProfileID)
}

func fromStudent(l entity.StudentLeave) dto.LeaveResponse {
	res := dto.LeaveResponse{
		ID:        l.ID,
		Kind:      entity.KindStudent,
		ProfileID: l.StudentID,
		LeaveDate: l.LeaveDate,
		Message:   l.Message,
		Status:    l.Status,
		CreatedAt: l.CreatedAt,
	}
	if l.Student != nil {
		res.Name = l.Student.FullName()
	}
	return res
}

func fromStaff(l entity.StaffLeave) dto.LeaveResponse {
	res := dto.LeaveResponse{
		ID:        l.ID,
		Kind:      entity.KindStaff,
		ProfileID: l.StaffID,
		LeaveDate: l.LeaveDate,
		Message:   l.Message,
		Status:    l.Status,
		CreatedAt: l.CreatedAt,
	}
	if l.Staff != nil {
		res.Name = l.Staff.FirstName + " " + l.Staff.LastName
	}
	return res
}
