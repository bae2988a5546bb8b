package dto

import (
	"time"

	"anoa.com/studentms/internal/entity"
	commonDto "anoa.com/studentms/pkg/dto"
)

type SendNotificationInput struct {
	ProfileID uint   `json:"profile_id" binding:"required,min=1"`
	Message   string `json:"message" binding:"required,max=2000"`
}

type NotificationFilter struct {
	Unread bool `form:"unread"`
	commonDto.Page
}

type KindRequest struct {
	Kind string `uri:"kind" binding:"required,oneof=student staff"`
}

// NotificationResponse is also the payload published to subscribers.
type NotificationResponse struct {
	ID        uint        `json:"id"`
	Kind      entity.Kind `json:"kind"`
	ProfileID uint        `json:"profile_id"`
	Message   string      `json:"message"`
	IsRead    bool        `json:"is_read"`
	CreatedAt time.Time   `json:"created_at"`
}
