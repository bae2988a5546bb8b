package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/modules/student/repository"
	"anoa.com/studentms/internal/testdb"
	"anoa.com/studentms/pkg/apperror"
	"anoa.com/studentms/pkg/metrics"
	promdto "github.com/prometheus/client_model/go"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newAccount(t testing.TB, db *gorm.DB, username string) entity.Account {
	t.Helper()
	account := entity.Account{
		Username:     username,
		Email:        username + "@school.test",
		PasswordHash: "x",
		Role:         entity.RoleStudent,
		IsActive:     true,
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("create account: %v", err)
	}
	return account
}

func newProfile(account entity.Account, c testdb.Catalog) *entity.StudentProfile {
	return &entity.StudentProfile{
		AccountID:       account.ID,
		FirstName:       account.Username,
		LastName:        "Test",
		Gender:          entity.GenderOther,
		CourseID:        c.Course.ID,
		SessionPeriodID: c.Session.ID,
		IsActive:        true,
	}
}

func retries(t testing.TB) float64 {
	t.Helper()
	var m promdto.Metric
	if err := metrics.RollNumberRetries.Write(&m); err != nil {
		t.Fatalf("read retry counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func enroll(ctx context.Context, repo repository.StudentRepository, e *Enrollment, p *entity.StudentProfile) error {
	return RetryRollNumber(ctx, func() error {
		return repo.Transaction(ctx, func(tx repository.StudentRepository) error {
			return e.Insert(ctx, tx, p)
		})
	})
}

func TestFormatRegistrationNumber(t *testing.T) {
	cases := []struct {
		prefix string
		year   int
		roll   int
		want   string
	}{
		{"STU", 2024, 7, "STU-24-07"},
		{"STU", 2005, 123, "STU-05-123"},
		{"REG", 1999, 10, "REG-99-10"},
	}
	for _, tc := range cases {
		if got := FormatRegistrationNumber(tc.prefix, tc.year, tc.roll); got != tc.want {
			t.Errorf("FormatRegistrationNumber(%q, %d, %d) = %q, want %q", tc.prefix, tc.year, tc.roll, got, tc.want)
		}
	}
}

func TestInsertAssignsSequentialNumbers(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	catalog := testdb.SeedCatalog(t, db, "Science")
	repo := repository.NewStudentRepository(db)
	e := NewEnrollment("STU", clock)

	dob := time.Date(2010, time.March, 2, 0, 0, 0, 0, time.UTC)
	first := newProfile(newAccount(t, db, "amna"), catalog)
	first.DateOfBirth = &dob
	if err := enroll(ctx, repo, e, first); err != nil {
		t.Fatalf("enroll first: %v", err)
	}
	if first.RollNumber != 1 || first.RegistrationNumber != "STU-24-01" {
		t.Fatalf("first = roll %d reg %q, want 1 STU-24-01", first.RollNumber, first.RegistrationNumber)
	}
	if first.Age != 13 {
		t.Fatalf("age = %d, want 13", first.Age)
	}

	second := newProfile(newAccount(t, db, "bilal"), catalog)
	if err := enroll(ctx, repo, e, second); err != nil {
		t.Fatalf("enroll second: %v", err)
	}
	if second.RollNumber != 2 || second.RegistrationNumber != "STU-24-02" {
		t.Fatalf("second = roll %d reg %q, want 2 STU-24-02", second.RollNumber, second.RegistrationNumber)
	}

	other := testdb.SeedCatalog(t, db, "Arts")
	third := newProfile(newAccount(t, db, "danish"), other)
	third.RegistrationNumber = "STU-24-A01"
	if err := enroll(ctx, repo, e, third); err != nil {
		t.Fatalf("enroll into empty course: %v", err)
	}
	if third.RollNumber != 1 {
		t.Fatalf("empty course roll = %d, want 1", third.RollNumber)
	}
	if third.RegistrationNumber != "STU-24-A01" {
		t.Fatalf("explicit registration overwritten: %q", third.RegistrationNumber)
	}
}

func TestInsertAcrossCoursesInOneYear(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	science := testdb.SeedCatalog(t, db, "Science")
	arts := testdb.SeedCatalog(t, db, "Arts")
	repo := repository.NewStudentRepository(db)
	e := NewEnrollment("STU", clock)
	before := retries(t)

	var enrolled []*entity.StudentProfile
	for i, c := range []testdb.Catalog{science, arts, science, arts} {
		p := newProfile(newAccount(t, db, fmt.Sprintf("student%d", i)), c)
		if err := enroll(ctx, repo, e, p); err != nil {
			t.Fatalf("enroll %d: %v", i, err)
		}
		enrolled = append(enrolled, p)
	}

	want := []struct {
		roll int
		reg  string
	}{
		{1, "STU-24-01"},
		{2, "STU-24-02"},
		{3, "STU-24-03"},
		{4, "STU-24-04"},
	}
	for i, p := range enrolled {
		if p.RollNumber != want[i].roll || p.RegistrationNumber != want[i].reg {
			t.Errorf("student%d = roll %d reg %q, want %d %q", i, p.RollNumber, p.RegistrationNumber, want[i].roll, want[i].reg)
		}
	}
	assertNumbersUnique(t, db)
	if got := retries(t); got != before {
		t.Fatalf("retry counter moved from %v to %v", before, got)
	}
}

func TestInsertIntoCourseAfterTransferOut(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	science := testdb.SeedCatalog(t, db, "Science")
	arts := testdb.SeedCatalog(t, db, "Arts")
	repo := repository.NewStudentRepository(db)
	e := NewEnrollment("STU", clock)

	amna := newProfile(newAccount(t, db, "amna"), science)
	bilal := newProfile(newAccount(t, db, "bilal"), science)
	for _, p := range []*entity.StudentProfile{amna, bilal} {
		if err := enroll(ctx, repo, e, p); err != nil {
			t.Fatalf("enroll %s: %v", p.FirstName, err)
		}
	}

	err := repo.Transaction(ctx, func(tx repository.StudentRepository) error {
		return e.Transfer(ctx, tx, bilal, arts.Course.ID)
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if bilal.RegistrationNumber != "STU-24-02" {
		t.Fatalf("registration changed on transfer: %q", bilal.RegistrationNumber)
	}

	before := retries(t)
	cyra := newProfile(newAccount(t, db, "cyra"), science)
	if err := enroll(ctx, repo, e, cyra); err != nil {
		t.Fatalf("enroll after transfer out: %v", err)
	}
	if cyra.RollNumber != 3 || cyra.RegistrationNumber != "STU-24-03" {
		t.Fatalf("cyra = roll %d reg %q, want 3 STU-24-03", cyra.RollNumber, cyra.RegistrationNumber)
	}
	assertNumbersUnique(t, db)
	if got := retries(t); got != before {
		t.Fatalf("retry counter moved from %v to %v", before, got)
	}
}

func TestInsertFixedRollWithTakenRegistration(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	science := testdb.SeedCatalog(t, db, "Science")
	arts := testdb.SeedCatalog(t, db, "Arts")
	repo := repository.NewStudentRepository(db)
	e := NewEnrollment("STU", clock)

	if err := enroll(ctx, repo, e, newProfile(newAccount(t, db, "amna"), science)); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	before := retries(t)
	fixed := newProfile(newAccount(t, db, "bilal"), arts)
	fixed.RollNumber = 1
	err := enroll(ctx, repo, e, fixed)
	if field, ok := apperror.FieldOf(err); !ok || field != "registration_number" {
		t.Fatalf("err = %v, want validation failure on registration_number", err)
	}
	if errors.Is(err, apperror.ErrConflict) {
		t.Fatal("a taken registration number is not a race")
	}
	if got := retries(t); got != before {
		t.Fatalf("retry counter moved from %v to %v", before, got)
	}
}

func assertNumbersUnique(t *testing.T, db *gorm.DB) {
	t.Helper()
	var profiles []entity.StudentProfile
	if err := db.Find(&profiles).Error; err != nil {
		t.Fatalf("load profiles: %v", err)
	}
	type courseRoll struct {
		course uint
		roll   int
	}
	rolls := map[courseRoll]bool{}
	regs := map[string]bool{}
	for _, p := range profiles {
		key := courseRoll{p.CourseID, p.RollNumber}
		if rolls[key] {
			t.Fatalf("duplicate roll %d in course %d", p.RollNumber, p.CourseID)
		}
		if regs[p.RegistrationNumber] {
			t.Fatalf("duplicate registration number %s", p.RegistrationNumber)
		}
		rolls[key], regs[p.RegistrationNumber] = true, true
	}
}

func TestInsertConcurrentEnrollmentsAreCollisionFree(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	catalog := testdb.SeedCatalog(t, db, "Science")
	repo := repository.NewStudentRepository(db)
	e := NewEnrollment("STU", clock)

	const n = 20
	accounts := make([]entity.Account, n)
	for i := range accounts {
		accounts[i] = newAccount(t, db, fmt.Sprintf("student%02d", i))
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		rolls []int
		errs  []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(account entity.Account) {
			defer wg.Done()
			p := newProfile(account, catalog)
			err := enroll(ctx, repo, e, p)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			rolls = append(rolls, p.RollNumber)
		}(accounts[i])
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("enrollment errors: %v", errs)
	}
	sort.Ints(rolls)
	for i, roll := range rolls {
		if roll != i+1 {
			t.Fatalf("rolls = %v, want 1..%d", rolls, n)
		}
	}
}

func TestInsertDuplicateRollNumberLeavesOriginal(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	catalog := testdb.SeedCatalog(t, db, "Science")
	repo := repository.NewStudentRepository(db)
	e := NewEnrollment("STU", clock)

	original := newProfile(newAccount(t, db, "amna"), catalog)
	if err := enroll(ctx, repo, e, original); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	dup := newProfile(newAccount(t, db, "bilal"), catalog)
	dup.RollNumber = original.RollNumber
	dup.RegistrationNumber = "STU-24-99"
	err := enroll(ctx, repo, e, dup)
	if err == nil {
		t.Fatal("expected duplicate roll number to fail")
	}
	if field, ok := apperror.FieldOf(err); !ok || field != "roll_number" {
		t.Fatalf("err = %v, want validation failure on roll_number", err)
	}
	if errors.Is(err, apperror.ErrConflict) {
		t.Fatal("an explicit roll number is not retried as a race")
	}

	stored, err := repo.FindByID(ctx, original.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.AccountID != original.AccountID || stored.RollNumber != 1 || stored.RegistrationNumber != "STU-24-01" {
		t.Fatalf("original changed: %+v", stored)
	}

	var count int64
	db.Model(&entity.StudentProfile{}).Where("course_id = ?", catalog.Course.ID).Count(&count)
	if count != 1 {
		t.Fatalf("profiles in course = %d, want 1", count)
	}
}

func TestInsertDuplicateRegistrationNumber(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	science := testdb.SeedCatalog(t, db, "Science")
	arts := testdb.SeedCatalog(t, db, "Arts")
	repo := repository.NewStudentRepository(db)
	e := NewEnrollment("STU", clock)

	if err := enroll(ctx, repo, e, newProfile(newAccount(t, db, "amna"), science)); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	clash := newProfile(newAccount(t, db, "bilal"), arts)
	clash.RegistrationNumber = "STU-24-01"
	err := enroll(ctx, repo, e, clash)
	if field, ok := apperror.FieldOf(err); !ok || field != "registration_number" {
		t.Fatalf("err = %v, want validation failure on registration_number", err)
	}
}

func TestInsertMissingCourse(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	catalog := testdb.SeedCatalog(t, db, "Science")
	repo := repository.NewStudentRepository(db)
	e := NewEnrollment("STU", clock)

	p := newProfile(newAccount(t, db, "amna"), catalog)
	p.CourseID = 4242
	err := enroll(ctx, repo, e, p)

	var ref *apperror.ReferentialError
	if !errors.As(err, &ref) || ref.Entity != "course" {
		t.Fatalf("err = %v, want missing course reference", err)
	}
}

// staleRepo reports an outdated maximum and hides the numbers committed after
// it, as a transaction that read before a concurrent commit would.
type staleRepo struct {
	repository.StudentRepository
	stale  *int
	hiding bool
}

func (r *staleRepo) MaxRollNumber(ctx context.Context, courseID uint) (int, error) {
	if *r.stale > 0 {
		*r.stale--
		r.hiding = true
		return 0, nil
	}
	return r.StudentRepository.MaxRollNumber(ctx, courseID)
}

func (r *staleRepo) RegistrationTaken(ctx context.Context, number string) (bool, error) {
	if r.hiding {
		return false, nil
	}
	return r.StudentRepository.RegistrationTaken(ctx, number)
}

func TestRollNumberRaceIsRetriedOnce(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	catalog := testdb.SeedCatalog(t, db, "Science")
	repo := repository.NewStudentRepository(db)
	e := NewEnrollment("STU", clock)

	if err := enroll(ctx, repo, e, newProfile(newAccount(t, db, "amna"), catalog)); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	run := func(p *entity.StudentProfile, stale *int) error {
		return RetryRollNumber(ctx, func() error {
			return repo.Transaction(ctx, func(tx repository.StudentRepository) error {
				return e.Insert(ctx, &staleRepo{StudentRepository: tx, stale: stale}, p)
			})
		})
	}

	once := 1
	p := newProfile(newAccount(t, db, "bilal"), catalog)
	if err := run(p, &once); err != nil {
		t.Fatalf("retry should recover: %v", err)
	}
	if p.RollNumber != 2 || p.RegistrationNumber != "STU-24-02" {
		t.Fatalf("after retry = roll %d reg %q, want 2 STU-24-02", p.RollNumber, p.RegistrationNumber)
	}

	twice := 2
	q := newProfile(newAccount(t, db, "danish"), catalog)
	err := run(q, &twice)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("err = %v, want conflict after the second collision", err)
	}
	if q.ID != 0 || q.RollNumber != 0 || q.RegistrationNumber != "" {
		t.Fatalf("failed profile keeps assigned numbers: %+v", q)
	}
}

func TestRetryRollNumberPassesThroughOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := RetryRollNumber(context.Background(), func() error {
		calls++
		return boom
	})
	if err != boom || calls != 1 {
		t.Fatalf("err = %v after %d calls, want boom after 1", err, calls)
	}
}

func TestRefreshKeepsNumbersAndRecomputesAge(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	catalog := testdb.SeedCatalog(t, db, "Science")
	repo := repository.NewStudentRepository(db)
	e := NewEnrollment("STU", clock)

	p := newProfile(newAccount(t, db, "amna"), catalog)
	if err := enroll(ctx, repo, e, p); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	dob := time.Date(2008, time.February, 29, 0, 0, 0, 0, time.UTC)
	p.DateOfBirth = &dob
	p.Age = 99
	p.RegistrationNumber = "STU-99-99"
	p.RollNumber = 42
	if err := e.Refresh(ctx, repo, p); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	stored, err := repo.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.RegistrationNumber != "STU-24-01" || stored.RollNumber != 1 {
		t.Fatalf("numbers changed: reg %q roll %d", stored.RegistrationNumber, stored.RollNumber)
	}
	if stored.Age != 16 {
		t.Fatalf("age = %d, want 16", stored.Age)
	}
}
