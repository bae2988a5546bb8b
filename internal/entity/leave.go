package entity

import "time"

type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

func (s LeaveStatus) Valid() bool {
	switch s {
	case LeavePending, LeaveApproved, LeaveRejected:
		return true
	}
	return false
}

// LeaveRequest holds the columns shared by both leave tables.
type LeaveRequest struct {
	LeaveDate time.Time   `gorm:"type:date;not null" json:"leave_date"`
	Message   string      `gorm:"type:text;not null" json:"message"`
	Status    LeaveStatus `gorm:"size:20;not null;index" json:"status"`
}

type StudentLeave struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	StudentID    uint            `gorm:"not null;index" json:"student_id"`
	Student      *StudentProfile `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	LeaveRequest `gorm:"embedded"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type StaffLeave struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	StaffID      uint          `gorm:"not null;index" json:"staff_id"`
	Staff        *StaffProfile `gorm:"foreignKey:StaffID;constraint:OnDelete:CASCADE" json:"staff,omitempty"`
	LeaveRequest `gorm:"embedded"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
