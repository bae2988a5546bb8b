package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/modules/attendance/dto"
	"anoa.com/studentms/internal/modules/attendance/repository"
	"anoa.com/studentms/pkg/apperror"
	"anoa.com/studentms/pkg/database"
	"anoa.com/studentms/pkg/logger"
	"anoa.com/studentms/pkg/metrics"
	"anoa.com/studentms/pkg/validator"
	"gorm.io/gorm"
)

var errNotTeaching = apperror.New(http.StatusForbidden, "subject is not assigned to you", apperror.ErrForbidden)

type AttendanceService interface {
	Take(ctx context.Context, staffID uint, input dto.TakeAttendanceInput) (*entity.Attendance, error)
	ListBySubject(ctx context.Context, filter dto.AttendanceFilter) ([]*entity.Attendance, error)
	Records(ctx context.Context, attendanceID uint) (*entity.Attendance, error)
	UpdateRecords(ctx context.Context, staffID, attendanceID uint, input dto.UpdateRecordsInput) (*entity.Attendance, error)
	StudentSummary(ctx context.Context, studentID uint) ([]dto.SubjectSummary, error)
}

type attendanceService struct {
	repo repository.AttendanceRepository
}

func NewAttendanceService(repo repository.AttendanceRepository) AttendanceService {
	return &attendanceService{repo: repo}
}

// Take records one roll call. Every student enrolled in the subject's course
// for the session gets a record; those listed in PresentStudentIDs are present.
func (s *attendanceService) Take(ctx context.Context, staffID uint, input dto.TakeAttendanceInput) (*entity.Attendance, error) {
	if err := validator.ValidateStruct(input); err != nil {
		return nil, err
	}
	day, err := time.Parse(time.DateOnly, input.AttendanceDate)
	if err != nil {
		return nil, apperror.Invalid("attendance_date", "must be a date in the format %s", time.DateOnly)
	}

	var attendance *entity.Attendance
	err = s.repo.Transaction(ctx, func(repo repository.AttendanceRepository) error {
		subject, err := repo.FindSubject(ctx, input.SubjectID)
		if err != nil {
			return reference(err, "subject", input.SubjectID)
		}
		period, err := repo.FindSessionPeriod(ctx, input.SessionPeriodID)
		if err != nil {
			return reference(err, "session period", input.SessionPeriodID)
		}
		if err := s.checkTeaches(ctx, repo, staffID, subject.ID); err != nil {
			return err
		}
		if day.Before(period.StartDate) || day.After(period.EndDate) {
			return apperror.Invalid("attendance_date", "must fall within the session period")
		}

		taken, err := repo.Exists(ctx, subject.ID, day, period.ID)
		if err != nil {
			return err
		}
		if taken {
			return apperror.Invalid("attendance_date", "attendance already taken for this subject and session")
		}

		students, err := repo.EnrolledStudents(ctx, subject.CourseID, period.ID)
		if err != nil {
			return err
		}
		present, err := presentSet(input.PresentStudentIDs, students)
		if err != nil {
			return err
		}

		attendance = &entity.Attendance{
			SubjectID:       subject.ID,
			AttendanceDate:  day,
			SessionPeriodID: period.ID,
			Records:         make([]entity.AttendanceRecord, 0, len(students)),
		}
		for _, student := range students {
			_, ok := present[student.ID]
			attendance.Records = append(attendance.Records, entity.AttendanceRecord{
				StudentID: student.ID,
				Present:   ok,
			})
		}

		if err := repo.Create(ctx, attendance); err != nil {
			return err
		}
		attendance.Subject = subject
		attendance.SessionPeriod = period
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.AttendanceTaken.Inc()
	logger.Info().
		Uint("subject_id", attendance.SubjectID).
		Str("date", input.AttendanceDate).
		Int("records", len(attendance.Records)).
		Msg("attendance taken")
	return attendance, nil
}

func (s *attendanceService) ListBySubject(ctx context.Context, filter dto.AttendanceFilter) ([]*entity.Attendance, error) {
	return s.repo.FindBySubject(ctx, filter.SubjectID, filter.SessionPeriodID)
}

func (s *attendanceService) Records(ctx context.Context, attendanceID uint) (*entity.Attendance, error) {
	attendance, err := s.repo.FindByID(ctx, attendanceID)
	if err != nil {
		return nil, database.NotFound(err, "attendance")
	}
	return attendance, nil
}

// UpdateRecords rewrites the present flags of an existing roll call. Students
// not listed are marked absent.
func (s *attendanceService) UpdateRecords(ctx context.Context, staffID, attendanceID uint, input dto.UpdateRecordsInput) (*entity.Attendance, error) {
	if err := validator.ValidateStruct(input); err != nil {
		return nil, err
	}

	var attendance *entity.Attendance
	err := s.repo.Transaction(ctx, func(repo repository.AttendanceRepository) error {
		current, err := repo.FindByID(ctx, attendanceID)
		if err != nil {
			return database.NotFound(err, "attendance")
		}
		if err := s.checkTeaches(ctx, repo, staffID, current.SubjectID); err != nil {
			return err
		}

		recorded := make(map[uint]struct{}, len(current.Records))
		for _, record := range current.Records {
			recorded[record.StudentID] = struct{}{}
		}
		present := make(map[uint]struct{}, len(input.PresentStudentIDs))
		for _, id := range input.PresentStudentIDs {
			if _, ok := recorded[id]; !ok {
				return apperror.Invalid("student_ids", "student %d has no record in this attendance", id)
			}
			present[id] = struct{}{}
		}

		for i := range current.Records {
			record := &current.Records[i]
			_, ok := present[record.StudentID]
			if record.Present == ok {
				continue
			}
			record.Present = ok
			if err := repo.SaveRecord(ctx, record); err != nil {
				return err
			}
		}
		attendance = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return attendance, nil
}

func (s *attendanceService) StudentSummary(ctx context.Context, studentID uint) ([]dto.SubjectSummary, error) {
	return s.repo.StudentSummary(ctx, studentID)
}

// checkTeaches lets a zero staffID through; administrators act without a
// staff profile.
func (s *attendanceService) checkTeaches(ctx context.Context, repo repository.AttendanceRepository, staffID, subjectID uint) error {
	if staffID == 0 {
		return nil
	}
	ok, err := repo.Teaches(ctx, staffID, subjectID)
	if err != nil {
		return err
	}
	if !ok {
		return errNotTeaching
	}
	return nil
}

func presentSet(ids []uint, enrolled []entity.StudentProfile) (map[uint]struct{}, error) {
	known := make(map[uint]struct{}, len(enrolled))
	for _, student := range enrolled {
		known[student.ID] = struct{}{}
	}

	present := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return nil, apperror.Invalid("student_ids", "student %d is not enrolled in this subject for the session", id)
		}
		present[id] = struct{}{}
	}
	return present, nil
}

func reference(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.MissingReference(entity, id)
	}
	return err
}
