package dto

import "io"

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
}

// Page is the common page/limit query pair.
type Page struct {
	Page  int `form:"page,default=1" binding:"min=1"`
	Limit int `form:"limit,default=20" binding:"min=1,max=100"`
}

// Normalize fills zero values left by callers that bypass request binding.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	return p
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

func (p Page) Meta(total int64) PaginationMeta {
	totalPages := int(total) / p.Limit
	if int(total)%p.Limit != 0 {
		totalPages++
	}
	return PaginationMeta{
		CurrentPage: p.Page,
		TotalPages:  totalPages,
		TotalItems:  total,
		Limit:       p.Limit,
	}
}

type Paginated[T any] struct {
	Data []T           `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

// PhotoFile is an uploaded profile photograph.
type PhotoFile struct {
	Reader   io.Reader
	FileName string
}

type IDRequest struct {
	ID uint `uri:"id" binding:"required,min=1"`
}
