package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/modules/account/dto"
	"anoa.com/studentms/pkg/logger"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Account{},
		&entity.Course{},
		&entity.Subject{},
		&entity.SessionPeriod{},
		&entity.AdministratorProfile{},
		&entity.StaffProfile{},
		&entity.StudentProfile{},
		&entity.Attendance{},
		&entity.AttendanceRecord{},
		&entity.StudentLeave{},
		&entity.StaffLeave{},
		&entity.StudentFeedback{},
		&entity.StaffFeedback{},
		&entity.StudentNotification{},
		&entity.StaffNotification{},
		&entity.ExamResult{},
	)
}

// Defaults are the catalog rows a freshly provisioned student is enrolled in.
type Defaults struct {
	CourseID        uint
	SessionPeriodID uint
}

// ResolveDefaults checks that the configured default course and session
// period exist. Student provisioning cannot succeed without them.
func ResolveDefaults(ctx context.Context, db *gorm.DB, d Defaults) error {
	var course entity.Course
	if err := db.WithContext(ctx).First(&course, d.CourseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("default course %d does not exist", d.CourseID)
		}
		return err
	}

	var period entity.SessionPeriod
	if err := db.WithContext(ctx).First(&period, d.SessionPeriodID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("default session period %d does not exist", d.SessionPeriodID)
		}
		return err
	}

	logger.Info().
		Uint("course_id", course.ID).
		Str("course", course.Name).
		Uint("session_period_id", period.ID).
		Msg("default enrollment resolved")
	return nil
}

// SeedDefaults creates the default course and session period under the
// configured ids when they are missing.
func SeedDefaults(ctx context.Context, db *gorm.DB, d Defaults, now time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entity.Course{}).Where("id = ?", d.CourseID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			course := entity.Course{ID: d.CourseID, Name: "General"}
			if err := tx.Create(&course).Error; err != nil {
				return err
			}
			logger.Info().Uint("course_id", course.ID).Msg("default course seeded")
		}

		if err := tx.Model(&entity.SessionPeriod{}).Where("id = ?", d.SessionPeriodID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
			period := entity.SessionPeriod{
				ID:        d.SessionPeriodID,
				StartDate: start,
				EndDate:   start.AddDate(1, 0, -1),
			}
			if err := tx.Create(&period).Error; err != nil {
				return err
			}
			logger.Info().Uint("session_period_id", period.ID).Msg("default session period seeded")
		}

		return nil
	})
}

type AccountCreator interface {
	CreateAccount(ctx context.Context, input dto.CreateAccountInput) (*entity.Account, error)
}

// SeedAdminAccount creates the first administrator through the regular
// account creation path so that its profile is provisioned.
func SeedAdminAccount(ctx context.Context, db *gorm.DB, accounts AccountCreator, email, password string) error {
	var count int64
	if err := db.WithContext(ctx).Model(&entity.Account{}).
		Where("role = ?", entity.RoleAdmin).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		logger.Info().Msg("admin account already exists, skipping seed")
		return nil
	}

	account, err := accounts.CreateAccount(ctx, dto.CreateAccountInput{
		Username:  "admin",
		Email:     email,
		Password:  password,
		Role:      string(entity.RoleAdmin),
		FirstName: "System",
		LastName:  "Administrator",
	})
	if err != nil {
		return err
	}

	logger.Info().Str("email", account.Email).Msg("admin account seeded")
	return nil
}
