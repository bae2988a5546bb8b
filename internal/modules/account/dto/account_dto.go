package dto

import (
	"anoa.com/studentms/internal/entity"
	commonDto "anoa.com/studentms/pkg/dto"
)

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int64           `json:"expires_in"`
	Account     *entity.Account `json:"account"`
}

// CreateAccountInput is what an administrator fills in for a new account.
// The names seed the role profile created with it.
type CreateAccountInput struct {
	Username  string `json:"username" binding:"required,min=3,max=150"`
	Email     string `json:"email" binding:"required,email,max=254"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
	Role      string `json:"role" binding:"required,oneof=admin staff student"`
	FirstName string `json:"first_name" binding:"required,max=50"`
	LastName  string `json:"last_name" binding:"required,max=50"`
	Gender    string `json:"gender" binding:"omitempty,oneof=male female other"`
}

type UpdateAccountInput struct {
	Username  *string `json:"username" binding:"omitempty,min=3,max=150"`
	Email     *string `json:"email" binding:"omitempty,email,max=254"`
	Password  *string `json:"password" binding:"omitempty,min=8,max=72"`
	Role      *string `json:"role" binding:"omitempty,oneof=admin staff student"`
	FirstName *string `json:"first_name" binding:"omitempty,min=1,max=50"`
	LastName  *string `json:"last_name" binding:"omitempty,min=1,max=50"`
	IsActive  *bool   `json:"is_active"`
}

type AccountFilter struct {
	Role   string `form:"role" binding:"omitempty,oneof=admin staff student"`
	Search string `form:"search"`
	commonDto.Page
}

type AccountIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}
