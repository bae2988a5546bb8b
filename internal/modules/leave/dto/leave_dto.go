package dto

import (
	"time"

	"anoa.com/studentms/internal/entity"
	commonDto "anoa.com/studentms/pkg/dto"
)

type ApplyLeaveInput struct {
	LeaveDate string `json:"leave_date" binding:"required,datetime=2006-01-02"`
	Message   string `json:"message" binding:"required,max=2000"`
}

type DecideLeaveInput struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
}

type LeaveFilter struct {
	Status string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	commonDto.Page
}

type KindRequest struct {
	Kind string `uri:"kind" binding:"required,oneof=student staff"`
}

type KindIDRequest struct {
	Kind string `uri:"kind" binding:"required,oneof=student staff"`
	ID   uint   `uri:"id" binding:"required,min=1"`
}

// LeaveResponse flattens both leave tables into one shape.
type LeaveResponse struct {
	ID        uint               `json:"id"`
	Kind      entity.Kind        `json:"kind"`
	ProfileID uint               `json:"profile_id"`
	Name      string             `json:"name,omitempty"`
	LeaveDate time.Time          `json:"leave_date"`
	Message   string             `json:"message"`
	Status    entity.LeaveStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}
