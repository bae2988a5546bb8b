package dto

type UpsertResultInput struct {
	StudentID       uint     `json:"student_id" binding:"required,min=1"`
	SubjectID       uint     `json:"subject_id" binding:"required,min=1"`
	ExamMarks       *float64 `json:"exam_marks" binding:"required,gte=0"`
	AssignmentMarks *float64 `json:"assignment_marks" binding:"required,gte=0"`
}

type SubjectRequest struct {
	SubjectID uint `uri:"subject_id" binding:"required,min=1"`
}
