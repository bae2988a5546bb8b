package entity

import "time"

// Attendance is one roll call: a subject on a date within a session period.
type Attendance struct {
	ID              uint               `gorm:"primaryKey" json:"id"`
	SubjectID       uint               `gorm:"not null;uniqueIndex:idx_attendance_subject_date_session,priority:1" json:"subject_id"`
	Subject         *Subject           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"subject,omitempty"`
	AttendanceDate  time.Time          `gorm:"type:date;not null;uniqueIndex:idx_attendance_subject_date_session,priority:2" json:"attendance_date"`
	SessionPeriodID uint               `gorm:"not null;uniqueIndex:idx_attendance_subject_date_session,priority:3" json:"session_period_id"`
	SessionPeriod   *SessionPeriod     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"session_period,omitempty"`
	Records         []AttendanceRecord `gorm:"foreignKey:AttendanceID;constraint:OnDelete:CASCADE" json:"records,omitempty"`
	CreatedAt       time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

type AttendanceRecord struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	AttendanceID uint            `gorm:"not null;uniqueIndex:idx_attendance_record_student,priority:1" json:"attendance_id"`
	StudentID    uint            `gorm:"not null;index;uniqueIndex:idx_attendance_record_student,priority:2" json:"student_id"`
	Student      *StudentProfile `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	Present      bool            `gorm:"not null" json:"present"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
