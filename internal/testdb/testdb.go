// Package testdb opens throwaway sqlite databases with the full schema for
// package tests.
package testdb

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"anoa.com/studentms/internal/bootstrap"
	"anoa.com/studentms/internal/entity"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// Open returns a migrated in-memory database with foreign keys enforced. It
// holds a single connection, so transactions from concurrent goroutines run
// one after another.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared&_foreign_keys=on", seq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := bootstrap.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Catalog is a course with one subject and a session period.
type Catalog struct {
	Course  entity.Course
	Subject entity.Subject
	Session entity.SessionPeriod
}

// SeedCatalog inserts a course, a subject in it and a session period.
func SeedCatalog(t testing.TB, db *gorm.DB, courseName string) Catalog {
	t.Helper()

	c := Catalog{Course: entity.Course{Name: courseName}}
	if err := db.Create(&c.Course).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}

	c.Subject = entity.Subject{Name: courseName + " I", CourseID: c.Course.ID}
	if err := db.Create(&c.Subject).Error; err != nil {
		t.Fatalf("seed subject: %v", err)
	}

	c.Session = entity.SessionPeriod{
		StartDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
	if err := db.Create(&c.Session).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return c
}

func seedAccount(t testing.TB, db *gorm.DB, username string, role entity.Role) entity.Account {
	t.Helper()

	account := entity.Account{
		Username:     username,
		Email:        username + "@school.test",
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("seed account %s: %v", username, err)
	}
	return account
}

// SeedStudent inserts a student account and profile enrolled in c with the
// given roll number, bypassing enrollment numbering.
func SeedStudent(t testing.TB, db *gorm.DB, c Catalog, username string, roll int) entity.StudentProfile {
	t.Helper()

	account := seedAccount(t, db, username, entity.RoleStudent)
	profile := entity.StudentProfile{
		AccountID:          account.ID,
		FirstName:          username,
		LastName:           "Student",
		Gender:             entity.GenderOther,
		RollNumber:         roll,
		RegistrationNumber: fmt.Sprintf("T-%d-%02d", c.Course.ID, roll),
		CourseID:           c.Course.ID,
		SessionPeriodID:    c.Session.ID,
		IsActive:           true,
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("seed student %s: %v", username, err)
	}
	profile.Account = &account
	return profile
}

// SeedStaff inserts a staff account and profile.
func SeedStaff(t testing.TB, db *gorm.DB, username string) entity.StaffProfile {
	t.Helper()

	account := seedAccount(t, db, username, entity.RoleStaff)
	profile := entity.StaffProfile{
		AccountID: account.ID,
		FirstName: username,
		LastName:  "Staff",
		Gender:    entity.GenderOther,
		IsActive:  true,
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("seed staff %s: %v", username, err)
	}
	profile.Account = &account
	return profile
}
