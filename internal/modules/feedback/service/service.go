package service

import (
	"context"
	"time"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/modules/feedback/dto"
	"anoa.com/studentms/internal/modules/feedback/repository"
	"anoa.com/studentms/pkg/apperror"
	"anoa.com/studentms/pkg/database"
	commonDto "anoa.com/studentms/pkg/dto"
	"anoa.com/studentms/pkg/sanitize"
	"anoa.com/studentms/pkg/validator"
)

type FeedbackService interface {
	Submit(ctx context.Context, owner entity.Owner, input dto.SubmitFeedbackInput) (*dto.FeedbackResponse, error)
	ListMine(ctx context.Context, owner entity.Owner, filter dto.FeedbackFilter) (*commonDto.Paginated[dto.FeedbackResponse], error)
	ListAll(ctx context.Context, kind entity.Kind, filter dto.FeedbackFilter) (*commonDto.Paginated[dto.FeedbackResponse], error)
	Reply(ctx context.Context, kind entity.Kind, id uint, input dto.ReplyFeedbackInput) error
}

type feedbackService struct {
	repo repository.FeedbackRepository
	now  func() time.Time
}

func NewFeedbackService(repo repository.FeedbackRepository, now func() time.Time) FeedbackService {
	if now == nil {
		now = time.Now
	}
	return &feedbackService{repo: repo, now: now}
}

func (s *feedbackService) Submit(ctx context.Context, owner entity.Owner, input dto.SubmitFeedbackInput) (*dto.FeedbackResponse, error) {
	if err := validator.ValidateStruct(input); err != nil {
		return nil, err
	}
	message := sanitize.Text(input.Message)
	if message == "" {
		return nil, apperror.Invalid("message", "must not be empty")
	}

	entry := entity.FeedbackEntry{Message: message}
	switch owner.Kind {
	case entity.KindStudent:
		feedback := &entity.StudentFeedback{StudentID: owner.ProfileID, FeedbackEntry: entry}
		if err := s.repo.CreateStudentFeedback(ctx, feedback); err != nil {
			return nil, err
		}
		res := fromStudent(*feedback)
		return &res, nil
	case entity.KindStaff:
		feedback := &entity.StaffFeedback{StaffID: owner.ProfileID, FeedbackEntry: entry}
		if err := s.repo.CreateStaffFeedback(ctx, feedback); err != nil {
			return nil, err
		}
		res := fromStaff(*feedback)
		return &res, nil
	}
	return nil, apperror.Invalid("kind", "must be student or staff")
}

func (s *feedbackService) ListMine(ctx context.Context, owner entity.Owner, filter dto.FeedbackFilter) (*commonDto.Paginated[dto.FeedbackResponse], error) {
	if owner.ProfileID == 0 {
		return nil, apperror.ErrForbidden
	}
	return s.list(ctx, owner.Kind, owner.ProfileID, filter)
}

func (s *feedbackService) ListAll(ctx context.Context, kind entity.Kind, filter dto.FeedbackFilter) (*commonDto.Paginated[dto.FeedbackResponse], error) {
	return s.list(ctx, kind, 0, filter)
}

// Reply answers a feedback entry, replacing any earlier reply.
func (s *feedbackService) Reply(ctx context.Context, kind entity.Kind, id uint, input dto.ReplyFeedbackInput) error {
	if err := validator.ValidateStruct(input); err != nil {
		return err
	}
	if !kind.Valid() {
		return apperror.Invalid("kind", "must be student or staff")
	}
	reply := sanitize.Text(input.Reply)
	if reply == "" {
		return apperror.Invalid("reply", "must not be empty")
	}

	if err := s.repo.SetReply(ctx, kind, id, reply, s.now()); err != nil {
		return database.NotFound(err, string(kind)+" feedback")
	}
	return nil
}

func (s *feedbackService) list(ctx context.Context, kind entity.Kind, ownerID uint, filter dto.FeedbackFilter) (*commonDto.Paginated[dto.FeedbackResponse], error) {
	filter.Page = filter.Page.Normalize()

	items := []dto.FeedbackResponse{}
	var total int64
	switch kind {
	case entity.KindStudent:
		entries, count, err := s.repo.FindStudentFeedback(ctx, ownerID, filter)
		if err != nil {
			return nil, err
		}
		for _, f := range entries {
			items = append(items, fromStudent(f))
		}
		total = count
	case entity.KindStaff:
		entries, count, err := s.repo.FindStaffFeedback(ctx, ownerID, filter)
		if err != nil {
			return nil, err
		}
		for _, f := range entries {
			items = append(items, fromStaff(f))
		}
		total = count
	default:
		return nil, apperror.Invalid("kind", "must be student or staff")
	}

	return &commonDto.Paginated[dto.FeedbackResponse]{Data: items, Meta: filter.Page.Meta(total)}, nil
}

func fromStudent(f entity.StudentFeedback) dto.FeedbackResponse {
	res := dto.FeedbackResponse{
		ID:        f.ID,
		Kind:      entity.KindStudent,
		ProfileID: f.StudentID,
		Message:   f.Message,
		Reply:     f.Reply,
		RepliedAt: f.RepliedAt,
		CreatedAt: f.CreatedAt,
	}
	if f.Student != nil {
		res.Name = f.Student.FullName()
	}
	return res
}

func fromStaff(f entity.StaffFeedback) dto.FeedbackResponse {
	res := dto.FeedbackResponse{
		ID:        f.ID,
		Kind:      entity.KindStaff,
		ProfileID: f.StaffID,
		Message:   f.Message,
		Reply:     f.Reply,
		RepliedAt: f.RepliedAt,
		CreatedAt: f.CreatedAt,
	}
	if f.Staff != nil {
		res.Name = f.Staff.FirstName + " " + f.Staff.LastName
	}
	return res
}
