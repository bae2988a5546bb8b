package database

import (
	"errors"
	"testing"

	"anoa.com/studentms/pkg/apperror"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestUniqueViolation(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		constraint string
		ok         bool
	}{
		{"postgres", &pgconn.PgError{Code: "23505", ConstraintName: "idx_student_course_roll_number"}, "idx_student_course_roll_number", true},
		{"postgres other code", &pgconn.PgError{Code: "23503"}, "", false},
		{"sqlite", errors.New("UNIQUE constraint failed: student_profiles.registration_number"), "student_profiles.registration_number", true},
		{"gorm translated", gorm.ErrDuplicatedKey, "", true},
		{"unrelated", errors.New("connection refused"), "", false},
		{"nil", nil, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			constraint, ok := UniqueViolation(tc.err)
			if ok != tc.ok || constraint != tc.constraint {
				t.Fatalf("UniqueViolation = (%q, %v), want (%q, %v)", constraint, ok, tc.constraint, tc.ok)
			}
		})
	}
}

func TestTranslate(t *testing.T) {
	err := Translate(errors.New("UNIQUE constraint failed: student_profiles.course_id, student_profiles.roll_number"), "roll_number", "registration_number")
	if field, ok := apperror.FieldOf(err); !ok || field != "roll_number" {
		t.Fatalf("field = %q, want roll_number (err %v)", field, err)
	}

	err = Translate(&pgconn.PgError{Code: "23505", ConstraintName: "idx_accounts_email"}, "roll_number")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("unlisted constraint should be a conflict, got %v", err)
	}

	err = Translate(&pgconn.PgError{Code: "23503"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("foreign key violation should be a conflict, got %v", err)
	}

	plain := errors.New("boom")
	if Translate(plain) != plain {
		t.Fatal("unrelated errors pass through")
	}
}
