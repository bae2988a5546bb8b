package entity

import "time"

// ExamResult is one student's marks in one subject.
type ExamResult struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	StudentID       uint            `gorm:"not null;uniqueIndex:idx_exam_result_student_subject,priority:1" json:"student_id"`
	Student         *StudentProfile `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	SubjectID       uint            `gorm:"not null;index;uniqueIndex:idx_exam_result_student_subject,priority:2" json:"subject_id"`
	Subject         *Subject        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"subject,omitempty"`
	ExamMarks       float64         `gorm:"not null;default:0;check:chk_exam_results_exam_marks,exam_marks >= 0" json:"exam_marks"`
	AssignmentMarks float64         `gorm:"not null;default:0;check:chk_exam_results_assignment_marks,assignment_marks >= 0" json:"assignment_marks"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *ExamResult) Total() float64 {
	return r.ExamMarks + r.AssignmentMarks
}
