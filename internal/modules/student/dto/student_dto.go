package dto

import commonDto "anoa.com/studentms/pkg/dto"

type StudentFilter struct {
	CourseID        uint   `form:"course_id"`
	SessionPeriodID uint   `form:"session_period_id"`
	Search          string `form:"search"`
	commonDto.Page
}

// UpdateStudentInput carries the editable profile fields. Nil fields are left
// untouched.
type UpdateStudentInput struct {
	FirstName       *string `json:"first_name" form:"first_name" binding:"omitempty,min=1,max=50"`
	MiddleName      *string `json:"middle_name" form:"middle_name" binding:"omitempty,max=50"`
	LastName        *string `json:"last_name" form:"last_name" binding:"omitempty,min=1,max=50"`
	ContactNumber   *string `json:"contact_number" form:"contact_number" binding:"omitempty,max=15"`
	Gender          *string `json:"gender" form:"gender" binding:"omitempty,oneof=male female other"`
	Address         *string `json:"address" form:"address"`
	FatherName      *string `json:"father_name" form:"father_name" binding:"omitempty,max=255"`
	StudentCNIC     *string `json:"student_cnic" form:"student_cnic" binding:"omitempty,cnic"`
	FatherCNIC      *string `json:"father_cnic" form:"father_cnic" binding:"omitempty,cnic"`
	DateOfBirth     *string `json:"date_of_birth" form:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	CourseID        *uint   `json:"course_id" form:"course_id" binding:"omitempty,min=1"`
	SessionPeriodID *uint   `json:"session_period_id" form:"session_period_id" binding:"omitempty,min=1"`
	IsActive        *bool   `json:"is_active" form:"is_active"`
}
