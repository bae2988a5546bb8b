package dto

type TakeAttendanceInput struct {
	SubjectID         uint   `json:"subject_id" binding:"required,min=1"`
	SessionPeriodID   uint   `json:"session_period_id" binding:"required,min=1"`
	AttendanceDate    string `json:"attendance_date" binding:"required,datetime=2006-01-02"`
	PresentStudentIDs []uint `json:"present_student_ids" binding:"omitempty,dive,min=1"`
}

type UpdateRecordsInput struct {
	PresentStudentIDs []uint `json:"present_student_ids" binding:"omitempty,dive,min=1"`
}

type AttendanceFilter struct {
	SubjectID       uint `form:"subject_id" binding:"required,min=1"`
	SessionPeriodID uint `form:"session_period_id"`
}

// SubjectSummary counts one student's attendance in one subject.
type SubjectSummary struct {
	SubjectID   uint   `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	Present     int64  `json:"present"`
	Total       int64  `json:"total"`
}
