package entity

import "time"

type StudentNotification struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	StudentID uint            `gorm:"not null;index" json:"student_id"`
	Student   *StudentProfile `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Message   string          `gorm:"type:text;not null" json:"message"`
	IsRead    bool            `gorm:"not null" json:"is_read"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type StaffNotification struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	StaffID   uint          `gorm:"not null;index" json:"staff_id"`
	Staff     *StaffProfile `gorm:"foreignKey:StaffID;constraint:OnDelete:CASCADE" json:"-"`
	Message   string        `gorm:"type:text;not null" json:"message"`
	IsRead    bool          `gorm:"not null" json:"is_read"`
	CreatedAt time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}
