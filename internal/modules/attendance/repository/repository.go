package repository

import (
	"context"
	"time"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/modules/attendance/dto"
	"anoa.com/studentms/pkg/database"
	"gorm.io/gorm"
)

type AttendanceRepository interface {
	Transaction(ctx context.Context, fn func(repo AttendanceRepository) error) error

	FindSubject(ctx context.Context, id uint) (*entity.Subject, error)
	FindSessionPeriod(ctx context.Context, id uint) (*entity.SessionPeriod, error)
	Teaches(ctx context.Context, staffID, subjectID uint) (bool, error)
	EnrolledStudents(ctx context.Context, courseID, sessionPeriodID uint) ([]entity.StudentProfile, error)
	Exists(ctx context.Context, subjectID uint, date time.Time, sessionPeriodID uint) (bool, error)

	Create(ctx context.Context, attendance *entity.Attendance) error
	FindByID(ctx context.Context, id uint) (*entity.Attendance, error)
	FindBySubject(ctx context.Context, subjectID, sessionPeriodID uint) ([]*entity.Attendance, error)
	SaveRecord(ctx context.Context, record *entity.AttendanceRecord) error
	StudentSummary(ctx context.Context, studentID uint) ([]dto.SubjectSummary, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) Transaction(ctx context.Context, fn func(repo AttendanceRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&attendanceRepository{db: tx})
	})
}

func (r *attendanceRepository) FindSubject(ctx context.Context, id uint) (*entity.Subject, error) {
	var subject entity.Subject
	if err := r.db.WithContext(ctx).First(&subject, id).Error; err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *attendanceRepository) FindSessionPeriod(ctx context.Context, id uint) (*entity.SessionPeriod, error) {
	var period entity.SessionPeriod
	if err := r.db.WithContext(ctx).First(&period, id).Error; err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *attendanceRepository) Teaches(ctx context.Context, staffID, subjectID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Table("staff_subjects").
		Where("staff_profile_id = ? AND subject_id = ?", staffID, subjectID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *attendanceRepository) EnrolledStudents(ctx context.Context, courseID, sessionPeriodID uint) ([]entity.StudentProfile, error) {
	var students []entity.StudentProfile
	if err := r.db.WithContext(ctx).
		Where("course_id = ? AND session_period_id = ? AND is_active = ?", courseID, sessionPeriodID, true).
		Order("roll_number ASC").
		Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *attendanceRepository) Exists(ctx context.Context, subjectID uint, date time.Time, sessionPeriodID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.Attendance{}).
		Where("subject_id = ? AND attendance_date = ? AND session_period_id = ?", subjectID, date, sessionPeriodID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts the attendance together with its records.
func (r *attendanceRepository) Create(ctx context.Context, attendance *entity.Attendance) error {
	err := r.db.WithContext(ctx).Omit("Subject", "SessionPeriod", "Records.Student").Create(attendance).Error
	return database.Translate(err, "attendance_date")
}

func (r *attendanceRepository) FindByID(ctx context.Context, id uint) (*entity.Attendance, error) {
	var attendance entity.Attendance
	if err := r.db.WithContext(ctx).
		Preload("Subject").
		Preload("SessionPeriod").
		Preload("Records", func(db *gorm.DB) *gorm.DB {
			return db.Order("student_id ASC")
		}).
		Preload("Records.Student").
		First(&attendance, id).Error; err != nil {
		return nil, err
	}
	return &attendance, nil
}

func (r *attendanceRepository) FindBySubject(ctx context.Context, subjectID, sessionPeriodID uint) ([]*entity.Attendance, error) {
	query := r.db.WithContext(ctx).Where("subject_id = ?", subjectID)
	if sessionPeriodID != 0 {
		query = query.Where("session_period_id = ?", sessionPeriodID)
	}

	var attendances []*entity.Attendance
	if err := query.Order("attendance_date DESC").Find(&attendances).Error; err != nil {
		return nil, err
	}
	return attendances, nil
}

func (r *attendanceRepository) SaveRecord(ctx context.Context, record *entity.AttendanceRecord) error {
	return r.db.WithContext(ctx).
		Model(&entity.AttendanceRecord{}).
		Where("id = ?", record.ID).
		Update("present", record.Present).Error
}

func (r *attendanceRepository) StudentSummary(ctx context.Context, studentID uint) ([]dto.SubjectSummary, error) {
	var rows []dto.SubjectSummary
	err := r.db.WithContext(ctx).
		Table("attendance_records").
		Select(`attendances.subject_id AS subject_id,
			subjects.name AS subject_name,
			SUM(CASE WHEN attendance_records.present THEN 1 ELSE 0 END) AS present,
			COUNT(*) AS total`).
		Joins("JOIN attendances ON attendances.id = attendance_records.attendance_id").
		Joins("JOIN subjects ON subjects.id = attendances.subject_id").
		Where("attendance_records.student_id = ?", studentID).
		Group("attendances.subject_id, subjects.name").
		Order("subjects.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
