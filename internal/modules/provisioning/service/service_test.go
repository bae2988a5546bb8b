package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/modules/provisioning/repository"
	studentRepo "anoa.com/studentms/internal/modules/student/repository"
	student "anoa.com/studentms/internal/modules/student/service"
	"anoa.com/studentms/internal/testdb"
	"anoa.com/studentms/pkg/apperror"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func setup(t *testing.T) (*gorm.DB, Provisioner, testdb.Catalog) {
	t.Helper()
	db := testdb.Open(t)
	catalog := testdb.SeedCatalog(t, db, "General")
	p := NewProvisioner(
		repository.NewProfileRepository(db),
		studentRepo.NewStudentRepository(db),
		student.NewEnrollment("STU", clock),
		Defaults{CourseID: catalog.Course.ID, SessionPeriodID: catalog.Session.ID},
		clock,
	)
	return db, p, catalog
}

func provision(t *testing.T, db *gorm.DB, p Provisioner, role entity.Role, seed Seed) (*entity.Account, error) {
	t.Helper()
	account := &entity.Account{
		Username:     string(role) + "_user",
		Email:        string(role) + "@school.test",
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(account).Error; err != nil {
			return err
		}
		return p.Provision(context.Background(), tx, account, seed)
	})
	return account, err
}

func TestProvisionStaffUsesSeed(t *testing.T) {
	db, p, _ := setup(t)

	account, err := provision(t, db, p, entity.RoleStaff, Seed{FirstName: "Sana", LastName: "Iqbal", Gender: entity.GenderFemale})
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if account.Staff == nil || account.Staff.ID == 0 {
		t.Fatal("staff profile not attached")
	}
	if account.Staff.FirstName != "Sana" || account.Staff.Gender != entity.GenderFemale || !account.Staff.IsActive {
		t.Fatalf("staff = %+v", account.Staff)
	}
}

func TestProvisionUnknownRole(t *testing.T) {
	db, p, _ := setup(t)

	account, err := provision(t, db, p, entity.Role("hod"), Seed{})
	if field, ok := apperror.FieldOf(err); !ok || field != "role" {
		t.Fatalf("err = %v, want role validation", err)
	}

	var count int64
	db.Model(&entity.Account{}).Where("id = ?", account.ID).Count(&count)
	if count != 0 {
		t.Fatal("account committed without a profile")
	}
}

func TestProvisionStudentDefaultsGender(t *testing.T) {
	db, p, catalog := setup(t)

	account, err := provision(t, db, p, entity.RoleStudent, Seed{FirstName: "Amna", LastName: "Khan"})
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	s := account.Student
	if s == nil || s.Gender != entity.GenderOther || s.CourseID != catalog.Course.ID || s.RollNumber != 1 {
		t.Fatalf("student = %+v", s)
	}
	if s.Course == nil || s.SessionPeriod == nil {
		t.Fatal("catalog rows not attached")
	}
}

func TestSyncLoadsAndPersistsProfile(t *testing.T) {
	db, p, _ := setup(t)
	ctx := context.Background()

	account, err := provision(t, db, p, entity.RoleStaff, Seed{FirstName: "Sana", LastName: "Iqbal"})
	if err != nil {
		t.Fatalf("provision: %v", err)
	}

	dob := time.Date(1990, time.March, 1, 0, 0, 0, 0, time.UTC)
	account.Staff.DateOfBirth = &dob
	account.Staff.LastName = "Ahmed"
	if err := db.Transaction(func(tx *gorm.DB) error { return p.Sync(ctx, tx, account) }); err != nil {
		t.Fatalf("sync: %v", err)
	}

	var stored entity.StaffProfile
	db.First(&stored, account.Staff.ID)
	if stored.LastName != "Ahmed" || stored.Age != 34 {
		t.Fatalf("stored = %q age %d", stored.LastName, stored.Age)
	}

	// A bare account picks its profile up from the store.
	bare := &entity.Account{ID: account.ID, Role: entity.RoleStaff}
	if err := db.Transaction(func(tx *gorm.DB) error { return p.Sync(ctx, tx, bare) }); err != nil {
		t.Fatalf("sync bare: %v", err)
	}
	if bare.Staff == nil || bare.Staff.ID != account.Staff.ID {
		t.Fatal("profile not loaded for bare account")
	}
}

func TestSyncWithoutProfile(t *testing.T) {
	db, p, _ := setup(t)

	account := &entity.Account{Username: "orphan", Email: "orphan@school.test", PasswordHash: "x", Role: entity.RoleStudent}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error { return p.Sync(context.Background(), tx, account) })
	var ref *apperror.ReferentialError
	if !errors.As(err, &ref) || ref.Entity != "student profile" {
		t.Fatalf("err = %v, want missing student profile", err)
	}
}
