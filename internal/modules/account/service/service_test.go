package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/modules/account/dto"
	"anoa.com/studentms/internal/modules/account/repository"
	provisioningRepo "anoa.com/studentms/internal/modules/provisioning/repository"
	provisioning "anoa.com/studentms/internal/modules/provisioning/service"
	studentRepo "anoa.com/studentms/internal/modules/student/repository"
	student "anoa.com/studentms/internal/modules/student/service"
	"anoa.com/studentms/internal/testdb"
	"anoa.com/studentms/pkg/apperror"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const secret = "test-secret"

var fixedNow = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type fixture struct {
	db      *gorm.DB
	svc     AccountService
	catalog testdb.Catalog
}

func setup(t *testing.T, defaults func(testdb.Catalog) provisioning.Defaults) fixture {
	t.Helper()
	db := testdb.Open(t)
	catalog := testdb.SeedCatalog(t, db, "General")

	if defaults == nil {
		defaults = func(c testdb.Catalog) provisioning.Defaults {
			return provisioning.Defaults{CourseID: c.Course.ID, SessionPeriodID: c.Session.ID}
		}
	}

	prov := provisioning.NewProvisioner(
		provisioningRepo.NewProfileRepository(db),
		studentRepo.NewStudentRepository(db),
		student.NewEnrollment("STU", clock),
		defaults(catalog),
		clock,
	)
	svc := NewAccountService(repository.NewAccountRepository(db), prov, nil, TokenConfig{Secret: secret, TTL: time.Hour})
	return fixture{db: db, svc: svc, catalog: catalog}
}

func input(username, role string) dto.CreateAccountInput {
	return dto.CreateAccountInput{
		Username:  username,
		Email:     username + "@school.test",
		Password:  "password123",
		Role:      role,
		FirstName: "First",
		LastName:  "Last",
	}
}

func countProfiles(t *testing.T, db *gorm.DB, account *entity.Account) (admins, staff, students int64) {
	t.Helper()
	db.Model(&entity.AdministratorProfile{}).Where("account_id = ?", account.ID).Count(&admins)
	db.Model(&entity.StaffProfile{}).Where("account_id = ?", account.ID).Count(&staff)
	db.Model(&entity.StudentProfile{}).Where("account_id = ?", account.ID).Count(&students)
	return
}

func TestCreateAccountProvisionsExactlyOneProfile(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	cases := []struct {
		role                    string
		admins, staff, students int64
	}{
		{"admin", 1, 0, 0},
		{"staff", 0, 1, 0},
		{"student", 0, 0, 1},
	}
	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			account, err := f.svc.CreateAccount(ctx, input("user_"+tc.role, tc.role))
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			admins, staff, students := countProfiles(t, f.db, account)
			if admins != tc.admins || staff != tc.staff || students != tc.students {
				t.Fatalf("profiles = %d/%d/%d, want %d/%d/%d", admins, staff, students, tc.admins, tc.staff, tc.students)
			}
		})
	}
}

func TestCreateStudentAccountUsesDefaults(t *testing.T) {
	f := setup(t, nil)

	account, err := f.svc.CreateAccount(context.Background(), input("amna", "student"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var profile entity.StudentProfile
	if err := f.db.Where("account_id = ?", account.ID).First(&profile).Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if profile.CourseID != f.catalog.Course.ID || profile.SessionPeriodID != f.catalog.Session.ID {
		t.Fatalf("enrolled in course %d session %d, want %d/%d", profile.CourseID, profile.SessionPeriodID, f.catalog.Course.ID, f.catalog.Session.ID)
	}
	if profile.RollNumber != 1 || profile.RegistrationNumber != "STU-24-01" {
		t.Fatalf("numbers = %d %q", profile.RollNumber, profile.RegistrationNumber)
	}
	if account.Student == nil || account.Student.ID != profile.ID {
		t.Fatal("returned account does not carry its profile")
	}
}

func TestCreateStudentAccountMissingDefaultsRollsBack(t *testing.T) {
	cases := []struct {
		name     string
		defaults func(testdb.Catalog) provisioning.Defaults
		entity   string
	}{
		{"course", func(c testdb.Catalog) provisioning.Defaults {
			return provisioning.Defaults{CourseID: 999, SessionPeriodID: c.Session.ID}
		}, "course"},
		{"session period", func(c testdb.Catalog) provisioning.Defaults {
			return provisioning.Defaults{CourseID: c.Course.ID, SessionPeriodID: 999}
		}, "session period"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := setup(t, tc.defaults)

			_, err := f.svc.CreateAccount(context.Background(), input("amna", "student"))
			var ref *apperror.ReferentialError
			if !errors.As(err, &ref) || ref.Entity != tc.entity {
				t.Fatalf("err = %v, want missing %s", err, tc.entity)
			}
			if apperror.MapErrorToStatus(err) != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d", apperror.MapErrorToStatus(err))
			}

			var accounts int64
			f.db.Model(&entity.Account{}).Count(&accounts)
			if accounts != 0 {
				t.Fatalf("account left behind after failed provisioning")
			}

			// Staff accounts do not depend on the defaults.
			if _, err := f.svc.CreateAccount(context.Background(), input("teacher", "staff")); err != nil {
				t.Fatalf("staff create: %v", err)
			}
		})
	}
}

func TestCreateAccountRejectsDuplicates(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	if _, err := f.svc.CreateAccount(ctx, input("amna", "student")); err != nil {
		t.Fatalf("create: %v", err)
	}

	dupUsername := input("amna", "staff")
	dupUsername.Email = "other@school.test"
	_, err := f.svc.CreateAccount(ctx, dupUsername)
	if field, ok := apperror.FieldOf(err); !ok || field != "username" {
		t.Fatalf("err = %v, want username", err)
	}

	dupEmail := input("bilal", "staff")
	dupEmail.Email = "AMNA@school.test"
	_, err = f.svc.CreateAccount(ctx, dupEmail)
	if field, ok := apperror.FieldOf(err); !ok || field != "email" {
		t.Fatalf("err = %v, want email", err)
	}

	bad := input("x", "janitor")
	_, err = f.svc.CreateAccount(ctx, bad)
	if !errors.Is(err, apperror.ErrInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}
}

func TestCreateStudentAccountsConcurrently(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	const n = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.CreateAccount(ctx, input(fmt.Sprintf("student%02d", i), "student"))
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	if len(errs) > 0 {
		t.Fatalf("create errors: %v", errs)
	}

	var rolls []int
	f.db.Model(&entity.StudentProfile{}).Where("course_id = ?", f.catalog.Course.ID).Pluck("roll_number", &rolls)
	sort.Ints(rolls)
	if len(rolls) != n {
		t.Fatalf("got %d profiles, want %d", len(rolls), n)
	}
	for i, roll := range rolls {
		if roll != i+1 {
			t.Fatalf("rolls = %v, want 1..%d", rolls, n)
		}
	}
}

func TestUpdateAccountSyncsProfile(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	created, err := f.svc.CreateAccount(ctx, input("amna", "student"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	dob := time.Date(2010, time.March, 2, 0, 0, 0, 0, time.UTC)
	if err := f.db.Model(&entity.StudentProfile{}).Where("account_id = ?", created.ID).
		Updates(map[string]interface{}{"date_of_birth": dob, "age": 99}).Error; err != nil {
		t.Fatalf("seed dob: %v", err)
	}

	first := "Amna"
	active := false
	updated, err := f.svc.UpdateAccount(ctx, created.ID, dto.UpdateAccountInput{FirstName: &first, IsActive: &active})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.IsActive {
		t.Fatal("is_active not applied")
	}

	var profile entity.StudentProfile
	f.db.Where("account_id = ?", created.ID).First(&profile)
	if profile.FirstName != "Amna" {
		t.Fatalf("profile first name = %q", profile.FirstName)
	}
	if profile.Age != 13 {
		t.Fatalf("age = %d, want 13", profile.Age)
	}
	if profile.RegistrationNumber != "STU-24-01" || profile.RollNumber != 1 {
		t.Fatalf("numbers changed: %q %d", profile.RegistrationNumber, profile.RollNumber)
	}
}

func TestUpdateAccountRejectsRoleChange(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	created, err := f.svc.CreateAccount(ctx, input("amna", "student"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	role := "staff"
	_, err = f.svc.UpdateAccount(ctx, created.ID, dto.UpdateAccountInput{Role: &role})
	if field, ok := apperror.FieldOf(err); !ok || field != "role" {
		t.Fatalf("err = %v, want role", err)
	}

	same := "student"
	if _, err := f.svc.UpdateAccount(ctx, created.ID, dto.UpdateAccountInput{Role: &same}); err != nil {
		t.Fatalf("unchanged role should pass: %v", err)
	}
}

func TestLogin(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	created, err := f.svc.CreateAccount(ctx, input("amna", "student"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := f.svc.Login(ctx, dto.LoginInput{Email: "amna@school.test", Password: "password123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(res.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}); err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != created.ID.String() {
		t.Fatalf("subject = %s, want %s", claims.Subject, created.ID)
	}
	if res.Account.PasswordHash == "" {
		t.Fatal("hash should stay on the struct; json hides it")
	}

	_, err = f.svc.Login(ctx, dto.LoginInput{Email: "amna@school.test", Password: "wrong-password"})
	if apperror.MapErrorToStatus(err) != http.StatusUnauthorized {
		t.Fatalf("wrong password err = %v", err)
	}
	_, err = f.svc.Login(ctx, dto.LoginInput{Email: "nobody@school.test", Password: "password123"})
	if apperror.MapErrorToStatus(err) != http.StatusUnauthorized {
		t.Fatalf("unknown email err = %v", err)
	}

	inactive := false
	if _, err := f.svc.UpdateAccount(ctx, created.ID, dto.UpdateAccountInput{IsActive: &inactive}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err = f.svc.Login(ctx, dto.LoginInput{Email: "amna@school.test", Password: "password123"})
	if apperror.MapErrorToStatus(err) != http.StatusForbidden {
		t.Fatalf("disabled account err = %v", err)
	}
}

func TestDeleteAccountRemovesProfile(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	created, err := f.svc.CreateAccount(ctx, input("teacher", "staff"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.svc.DeleteAccount(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, staff, _ := countProfiles(t, f.db, created)
	if staff != 0 {
		t.Fatal("staff profile survived its account")
	}
	if err := f.svc.DeleteAccount(ctx, created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("second delete = %v, want not found", err)
	}
}
