package dto

import (
	"time"

	"anoa.com/studentms/internal/entity"
	commonDto "anoa.com/studentms/pkg/dto"
)

type SubmitFeedbackInput struct {
	Message string `json:"message" binding:"required,max=2000"`
}

type ReplyFeedbackInput struct {
	Reply string `json:"reply" binding:"required,max=2000"`
}

type FeedbackFilter struct {
	Unanswered bool `form:"unanswered"`
	commonDto.Page
}

type KindRequest struct {
	Kind string `uri:"kind" binding:"required,oneof=student staff"`
}

type KindIDRequest struct {
	Kind string `uri:"kind" binding:"required,oneof=student staff"`
	ID   uint   `uri:"id" binding:"required,min=1"`
}

type FeedbackResponse struct {
	ID        uint        `json:"id"`
	Kind      entity.Kind `json:"kind"`
	ProfileID uint        `json:"profile_id"`
	Name      string      `json:"name,omitempty"`
	Message   string      `json:"message"`
	Reply     string      `json:"reply"`
	RepliedAt *time.Time  `json:"replied_at,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
