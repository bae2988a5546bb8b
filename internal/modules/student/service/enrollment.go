package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/modules/student/repository"
	"anoa.com/studentms/pkg/apperror"
	"anoa.com/studentms/pkg/logger"
	"anoa.com/studentms/pkg/metrics"
	"gorm.io/gorm"
)

// ErrRollNumberRace means another transaction committed the roll number this
// one computed. The enclosing transaction must be rolled back and rerun.
var ErrRollNumberRace = errors.New("roll number taken by a concurrent enrollment")

// Enrollment assigns the derived fields of a student profile. All methods run
// against a repository bound to the caller's transaction.
type Enrollment struct {
	prefix string
	now    func() time.Time
}

func NewEnrollment(prefix string, now func() time.Time) *Enrollment {
	if now == nil {
		now = time.Now
	}
	return &Enrollment{prefix: prefix, now: now}
}

// Insert locks the course, fills the roll number, registration number and age
// when absent, and creates the profile.
func (e *Enrollment) Insert(ctx context.Context, repo repository.StudentRepository, profile *entity.StudentProfile) error {
	course, err := repo.LockCourse(ctx, profile.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.MissingReference("course", profile.CourseID)
		}
		return err
	}

	now := e.now()
	assignedRoll := profile.RollNumber == 0
	if assignedRoll {
		last, err := repo.MaxRollNumber(ctx, course.ID)
		if err != nil {
			return err
		}
		profile.RollNumber = last + 1
	}

	assignedRegistration := profile.RegistrationNumber == ""
	if assignedRegistration {
		if err := e.assignRegistration(ctx, repo, profile, now.Year(), assignedRoll); err != nil {
			return err
		}
	}

	profile.Age = AgeOn(profile.DateOfBirth, now)

	if err := repo.Create(ctx, profile); err != nil {
		if lostRace(err, assignedRoll, assignedRegistration) {
			profile.ID = 0
			if assignedRoll {
				profile.RollNumber = 0
			}
			if assignedRegistration {
				profile.RegistrationNumber = ""
			}
			return ErrRollNumberRace
		}
		return err
	}
	return nil
}

// assignRegistration derives the registration number from the roll number.
// Registration numbers are unique across courses while roll numbers are only
// unique within one, so an auto-assigned roll moves past numbers another
// course already holds. A fixed roll cannot move and fails on the field.
func (e *Enrollment) assignRegistration(ctx context.Context, repo repository.StudentRepository, profile *entity.StudentProfile, year int, movable bool) error {
	for {
		number := FormatRegistrationNumber(e.prefix, year, profile.RollNumber)
		taken, err := repo.RegistrationTaken(ctx, number)
		if err != nil {
			return err
		}
		if !taken {
			profile.RegistrationNumber = number
			return nil
		}
		if !movable {
			return apperror.Invalid("registration_number", "%s is already assigned", number)
		}
		profile.RollNumber++
	}
}

// Transfer moves a saved profile into another course and gives it the next
// roll number there. The registration number stays as first assigned.
func (e *Enrollment) Transfer(ctx context.Context, repo repository.StudentRepository, profile *entity.StudentProfile, courseID uint) error {
	course, err := repo.LockCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.MissingReference("course", courseID)
		}
		return err
	}

	last, err := repo.MaxRollNumber(ctx, course.ID)
	if err != nil {
		return err
	}

	previousCourse, previousRoll := profile.CourseID, profile.RollNumber
	profile.CourseID = course.ID
	profile.Course = course
	profile.RollNumber = last + 1

	if err := repo.Renumber(ctx, profile); err != nil {
		profile.CourseID, profile.RollNumber = previousCourse, previousRoll
		if field, ok := apperror.FieldOf(err); ok && field == "roll_number" {
			return ErrRollNumberRace
		}
		return err
	}
	return nil
}

// lostRace reports whether a failed insert collided with a concurrent
// enrollment. Derived numbers were free when checked under the course lock, so
// a collision on one of them means another transaction committed it since.
func lostRace(err error, assignedRoll, assignedRegistration bool) bool {
	field, ok := apperror.FieldOf(err)
	if !ok {
		return false
	}
	switch field {
	case "roll_number":
		return assignedRoll
	case "registration_number":
		return assignedRegistration
	}
	return false
}

// Refresh recomputes the age of an existing profile and persists it. Roll and
// registration numbers are kept exactly as stored.
func (e *Enrollment) Refresh(ctx context.Context, repo repository.StudentRepository, profile *entity.StudentProfile) error {
	profile.Age = AgeOn(profile.DateOfBirth, e.now())
	return repo.Update(ctx, profile)
}

// RetryRollNumber runs fn and, if it lost a roll number race, runs it once
// more. fn must open its own transaction so the retry starts fresh.
func RetryRollNumber(ctx context.Context, fn func() error) error {
	err := fn()
	if !errors.Is(err, ErrRollNumberRace) {
		return err
	}

	metrics.RollNumberRetries.Inc()
	logger.Warn().Msg("roll number collision, retrying enrollment")

	if ctx.Err() != nil {
		return ctx.Err()
	}

	err = fn()
	if errors.Is(err, ErrRollNumberRace) {
		return fmt.Errorf("%w: %v", apperror.ErrConflict, err)
	}
	return err
}
