package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/modules/notification/dto"
	"anoa.com/studentms/internal/modules/notification/repository"
	"anoa.com/studentms/pkg/apperror"
	commonDto "anoa.com/studentms/pkg/dto"
	"anoa.com/studentms/pkg/logger"
	"anoa.com/studentms/pkg/sanitize"
	"anoa.com/studentms/pkg/validator"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Channel is the pub/sub channel carrying live notifications for an account.
func Channel(accountID uuid.UUID) string {
	return fmt.Sprintf("account_notifications:%s", accountID)
}

// Publisher fans notifications out to connected clients.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type redisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher returns nil when rdb is nil so notifications are only
// stored.
func NewRedisPublisher(rdb *redis.Client) Publisher {
	if rdb == nil {
		return nil
	}
	return &redisPublisher{rdb: rdb}
}

func (p *redisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.rdb.Publish(ctx, channel, payload).Err()
}

type NotificationService interface {
	Send(ctx context.Context, owner entity.Owner, input dto.SendNotificationInput) (*dto.NotificationResponse, error)
	ListMine(ctx context.Context, owner entity.Owner, filter dto.NotificationFilter) (*commonDto.Paginated[dto.NotificationResponse], error)
	MarkAsRead(ctx context.Context, owner entity.Owner, id uint) error
	MarkAllAsRead(ctx context.Context, owner entity.Owner) error
	UnreadCount(ctx context.Context, owner entity.Owner) (int64, error)
}

type notificationService struct {
	repo      repository.NotificationRepository
	publisher Publisher
}

func NewNotificationService(repo repository.NotificationRepository, publisher Publisher) NotificationService {
	return &notificationService{
		repo:      repo,
		publisher: publisher,
	}
}

// Send stores a notification for owner and publishes it to the owner's
// account channel. Publishing is best effort.
func (s *notificationService) Send(ctx context.Context, owner entity.Owner, input dto.SendNotificationInput) (*dto.NotificationResponse, error) {
	if err := validator.ValidateStruct(input); err != nil {
		return nil, err
	}
	message := sanitize.Text(input.Message)
	if message == "" {
		return nil, apperror.Invalid("message", "must not be empty")
	}
	if !owner.Kind.Valid() {
		return nil, apperror.Invalid("kind", "must be student or staff")
	}

	accountID, err := s.repo.AccountIDOf(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.MissingReference(string(owner.Kind), owner.ProfileID)
		}
		return nil, err
	}

	var res dto.NotificationResponse
	switch owner.Kind {
	case entity.KindStudent:
		notification := &entity.StudentNotification{StudentID: owner.ProfileID, Message: message}
		if err := s.repo.CreateStudentNotification(ctx, notification); err != nil {
			return nil, err
		}
		res = fromStudent(*notification)
	case entity.KindStaff:
		notification := &entity.StaffNotification{StaffID: owner.ProfileID, Message: message}
		if err := s.repo.CreateStaffNotification(ctx, notification); err != nil {
			return nil, err
		}
		res = fromStaff(*notification)
	}

	if s.publisher != nil {
		payload, err := json.Marshal(res)
		if err == nil {
			err = s.publisher.Publish(ctx, Channel(accountID), payload)
		}
		if err != nil {
			logger.Warn().Err(err).Str("account_id", accountID.String()).Msg("failed to publish notification")
		}
	}

	return &res, nil
}

func (s *notificationService) ListMine(ctx context.Context, owner entity.Owner, filter dto.NotificationFilter) (*commonDto.Paginated[dto.NotificationResponse], error) {
	filter.Page = filter.Page.Normalize()

	items := []dto.NotificationResponse{}
	var total int64
	switch owner.Kind {
	case entity.KindStudent:
		notifications, count, err := s.repo.FindStudentNotifications(ctx, owner.ProfileID, filter)
		if err != nil {
			return nil, err
		}
		for _, n := range notifications {
			items = append(items, fromStudent(n))
		}
		total = count
	case entity.KindStaff:
		notifications, count, err := s.repo.FindStaffNotifications(ctx, owner.ProfileID, filter)
		if err != nil {
			return nil, err
		}
		for _, n := range notifications {
			items = append(items, fromStaff(n))
		}
		total = count
	default:
		return nil, apperror.ErrForbidden
	}

	return &commonDto.Paginated[dto.NotificationResponse]{Data: items, Meta: filter.Page.Meta(total)}, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, owner entity.Owner, id uint) error {
	ok, err := s.repo.MarkAsRead(ctx, owner, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("notification: %w", apperror.ErrNotFound)
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, owner entity.Owner) error {
	return s.repo.MarkAllAsRead(ctx, owner)
}

func (s *notificationService) UnreadCount(ctx context.Context, owner entity.Owner) (int64, error) {
	return s.repo.CountUnread(ctx, owner)
}

func fromStudent(n entity.StudentNotification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        n.ID,
		Kind:      entity.KindStudent,
		ProfileID: n.StudentID,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

func fromStaff(n entity.StaffNotification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        n.ID,
		Kind:      entity.KindStaff,
		ProfileID: n.StaffID,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}
