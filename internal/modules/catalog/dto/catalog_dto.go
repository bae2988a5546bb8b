package dto

type CourseInput struct {
	Name string `json:"name" binding:"required,max=255"`
}

type SubjectInput struct {
	Name     string `json:"name" binding:"required,max=255"`
	CourseID uint   `json:"course_id" binding:"required,min=1"`
}

type SubjectFilter struct {
	CourseID uint `form:"course_id"`
}

// SessionPeriodInput takes dates as YYYY-MM-DD.
type SessionPeriodInput struct {
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" binding:"required,datetime=2006-01-02"`
}
