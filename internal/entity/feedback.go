package entity

import "time"

// FeedbackEntry holds the columns shared by both feedback tables. Reply stays
// empty until an administrator answers.
type FeedbackEntry struct {
	Message   string     `gorm:"type:text;not null" json:"message"`
	Reply     string     `gorm:"type:text;not null" json:"reply"`
	RepliedAt *time.Time `json:"replied_at,omitempty"`
}

type StudentFeedback struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	StudentID     uint            `gorm:"not null;index" json:"student_id"`
	Student       *StudentProfile `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	FeedbackEntry `gorm:"embedded"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type StaffFeedback struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	StaffID       uint          `gorm:"not null;index" json:"staff_id"`
	Staff         *StaffProfile `gorm:"foreignKey:StaffID;constraint:OnDelete:CASCADE" json:"staff,omitempty"`
	FeedbackEntry `gorm:"embedded"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
