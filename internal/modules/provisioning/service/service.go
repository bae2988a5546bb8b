package service

import (
	"context"
	"errors"
	"time"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/modules/provisioning/repository"
	studentRepo "anoa.com/studentms/internal/modules/student/repository"
	student "anoa.com/studentms/internal/modules/student/service"
	"anoa.com/studentms/pkg/apperror"
	"anoa.com/studentms/pkg/logger"
	"anoa.com/studentms/pkg/metrics"
	"gorm.io/gorm"
)

// Seed carries the names entered on the account form. Profiles start from
// it; everything else is filled in later through the profile endpoints.
type Seed struct {
	FirstName string
	LastName  string
	Gender    entity.Gender
}

// Defaults is where a new student is enrolled until an administrator moves
// them.
type Defaults struct {
	CourseID        uint
	SessionPeriodID uint
}

// Provisioner creates and keeps in step the role profile owned by an
// account. Both methods run inside the caller's transaction so a failure
// leaves no account without its profile.
type Provisioner interface {
	// Provision creates exactly one profile matching account.Role and
	// attaches it to account.
	Provision(ctx context.Context, tx *gorm.DB, account *entity.Account, seed Seed) error
	// Sync re-persists the account's profile after the account was saved.
	Sync(ctx context.Context, tx *gorm.DB, account *entity.Account) error
}

type provisioner struct {
	profiles   repository.ProfileRepository
	students   studentRepo.StudentRepository
	enrollment *student.Enrollment
	defaults   Defaults
	now        func() time.Time
}

func NewProvisioner(
	profiles repository.ProfileRepository,
	students studentRepo.StudentRepository,
	enrollment *student.Enrollment,
	defaults Defaults,
	now func() time.Time,
) Provisioner {
	if now == nil {
		now = time.Now
	}
	return &provisioner{
		profiles:   profiles,
		students:   students,
		enrollment: enrollment,
		defaults:   defaults,
		now:        now,
	}
}

func (p *provisioner) Provision(ctx context.Context, tx *gorm.DB, account *entity.Account, seed Seed) error {
	var err error
	switch account.Role {
	case entity.RoleAdmin:
		err = p.provisionAdmin(ctx, tx, account)
	case entity.RoleStaff:
		err = p.provisionStaff(ctx, tx, account, seed)
	case entity.RoleStudent:
		err = p.provisionStudent(ctx, tx, account, seed)
	default:
		err = apperror.Invalid("role", "unknown role %q", account.Role)
	}

	if err != nil {
		metrics.ProvisioningFailures.WithLabelValues(failureReason(err)).Inc()
		logger.Warn().
			Err(err).
			Str("account_id", account.ID.String()).
			Str("role", string(account.Role)).
			Msg("profile provisioning failed")
		return err
	}

	metrics.ProfilesProvisioned.WithLabelValues(string(account.Role)).Inc()
	return nil
}

func (p *provisioner) provisionAdmin(ctx context.Context, tx *gorm.DB, account *entity.Account) error {
	profile := &entity.AdministratorProfile{AccountID: account.ID}
	if err := p.profiles.WithTx(tx).CreateAdmin(ctx, profile); err != nil {
		return err
	}
	account.Admin = profile
	return nil
}

func (p *provisioner) provisionStaff(ctx context.Context, tx *gorm.DB, account *entity.Account, seed Seed) error {
	profile := &entity.StaffProfile{
		AccountID: account.ID,
		FirstName: seed.FirstName,
		LastName:  seed.LastName,
		Gender:    genderOrDefault(seed.Gender),
		IsActive:  true,
	}
	if err := p.profiles.WithTx(tx).CreateStaff(ctx, profile); err != nil {
		return err
	}
	account.Staff = profile
	return nil
}

func (p *provisioner) provisionStudent(ctx context.Context, tx *gorm.DB, account *entity.Account, seed Seed) error {
	profiles := p.profiles.WithTx(tx)

	course, err := profiles.FindCourse(ctx, p.defaults.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.MissingReference("course", p.defaults.CourseID)
		}
		return err
	}
	period, err := profiles.FindSessionPeriod(ctx, p.defaults.SessionPeriodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.MissingReference("session period", p.defaults.SessionPeriodID)
		}
		return err
	}

	profile := &entity.StudentProfile{
		AccountID:       account.ID,
		FirstName:       seed.FirstName,
		LastName:        seed.LastName,
		Gender:          genderOrDefault(seed.Gender),
		CourseID:        course.ID,
		SessionPeriodID: period.ID,
		IsActive:        true,
	}
	if err := p.enrollment.Insert(ctx, p.students.WithTx(tx), profile); err != nil {
		return err
	}
	profile.Course = course
	profile.SessionPeriod = period
	account.Student = profile
	return nil
}

func (p *provisioner) Sync(ctx context.Context, tx *gorm.DB, account *entity.Account) error {
	switch account.Role {
	case entity.RoleAdmin:
		profiles := p.profiles.WithTx(tx)
		if account.Admin == nil {
			profile, err := profiles.FindAdmin(ctx, account.ID)
			if err != nil {
				return missingProfile(err, account)
			}
			account.Admin = profile
		}
		return profiles.SaveAdmin(ctx, account.Admin)

	case entity.RoleStaff:
		profiles := p.profiles.WithTx(tx)
		if account.Staff == nil {
			profile, err := profiles.FindStaff(ctx, account.ID)
			if err != nil {
				return missingProfile(err, account)
			}
			account.Staff = profile
		}
		account.Staff.Age = account.Staff.AgeAt(p.now())
		return profiles.SaveStaff(ctx, account.Staff)

	case entity.RoleStudent:
		students := p.students.WithTx(tx)
		if account.Student == nil {
			profile, err := students.FindByAccountID(ctx, account.ID)
			if err != nil {
				return missingProfile(err, account)
			}
			account.Student = profile
		}
		return p.enrollment.Refresh(ctx, students, account.Student)
	}
	return apperror.Invalid("role", "unknown role %q", account.Role)
}

func missingProfile(err error, account *entity.Account) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.MissingReference(string(account.Role)+" profile", account.ID)
	}
	return err
}

func genderOrDefault(g entity.Gender) entity.Gender {
	switch g {
	case entity.GenderMale, entity.GenderFemale, entity.GenderOther:
		return g
	}
	return entity.GenderOther
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, apperror.ErrReferenceNotFound):
		return "missing_reference"
	case errors.Is(err, student.ErrRollNumberRace):
		return "roll_number_race"
	case errors.Is(err, apperror.ErrInvalidInput):
		return "validation"
	}
	return "error"
}
