package dto

import commonDto "anoa.com/studentms/pkg/dto"

type StaffFilter struct {
	Search string `form:"search"`
	commonDto.Page
}

type UpdateStaffInput struct {
	FirstName      *string `json:"first_name" form:"first_name" binding:"omitempty,min=1,max=50"`
	LastName       *string `json:"last_name" form:"last_name" binding:"omitempty,min=1,max=50"`
	Address        *string `json:"address" form:"address"`
	PhoneNumber    *string `json:"phone_number" form:"phone_number" binding:"omitempty,max=15"`
	DateOfBirth    *string `json:"date_of_birth" form:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Gender         *string `json:"gender" form:"gender" binding:"omitempty,oneof=male female other"`
	DateOfJoining  *string `json:"date_of_joining" form:"date_of_joining" binding:"omitempty,datetime=2006-01-02"`
	Qualifications *string `json:"qualifications" form:"qualifications"`
	Bio            *string `json:"bio" form:"bio"`
	IsActive       *bool   `json:"is_active" form:"is_active"`
}

type AssignSubjectsInput struct {
	SubjectIDs []uint `json:"subject_ids" binding:"omitempty,dive,min=1"`
}
