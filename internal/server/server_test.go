package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/studentms/internal/config"
	"anoa.com/studentms/internal/entity"
	accountDto "anoa.com/studentms/internal/modules/account/dto"
	"anoa.com/studentms/internal/testdb"
	"anoa.com/studentms/pkg/validator"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := validator.RegisterGin(); err != nil {
		panic(err)
	}
}

type harness struct {
	t       *testing.T
	handler http.Handler
	catalog testdb.Catalog
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testdb.Open(t)
	catalog := testdb.SeedCatalog(t, db, "General")

	cfg := &config.Config{
		AllowedOrigins:         "http://localhost:3000",
		JWTSecret:              "test-secret",
		JWTTTL:                 time.Hour,
		DefaultCourseID:        catalog.Course.ID,
		DefaultSessionPeriodID: catalog.Session.ID,
		RegistrationPrefix:     "STU",
	}
	srv := NewServer(cfg, db, nil, nil)

	_, err := srv.Accounts().CreateAccount(context.Background(), accountDto.CreateAccountInput{
		Username: "admin", Email: "admin@school.test", Password: "admin12345",
		Role: string(entity.RoleAdmin), FirstName: "System", LastName: "Administrator",
	})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	return &harness{t: t, handler: srv.Handler(), catalog: catalog}
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			h.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func (h *harness) expect(w *httptest.ResponseRecorder, status int, out any) {
	h.t.Helper()
	if w.Code != status {
		h.t.Fatalf("status = %d, want %d, body %s", w.Code, status, w.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			h.t.Fatalf("decode %s: %v", w.Body.String(), err)
		}
	}
}

func (h *harness) login(email, password string) string {
	h.t.Helper()
	var res accountDto.AuthResponse
	h.expect(h.do(http.MethodPost, "/api/auth/login", "", accountDto.LoginInput{Email: email, Password: password}), http.StatusOK, &res)
	return res.AccessToken
}

func (h *harness) createAccount(admin, username string, role entity.Role) entity.Account {
	h.t.Helper()
	var account entity.Account
	h.expect(h.do(http.MethodPost, "/api/admin/accounts", admin, accountDto.CreateAccountInput{
		Username: username, Email: username + "@school.test", Password: "password123",
		Role: string(role), FirstName: username, LastName: "Test",
	}), http.StatusCreated, &account)
	return account
}

func TestHealthAndSecurityHeaders(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/healthz", "", nil)
	var body map[string]any
	h.expect(w, http.StatusOK, &body)
	if body["db"] != true {
		t.Fatalf("healthz = %v", body)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q", got)
	}

	if w := h.do(http.MethodGet, "/metrics", "", nil); w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
}

func TestRoleGuards(t *testing.T) {
	h := newHarness(t)
	admin := h.login("admin@school.test", "admin12345")
	h.createAccount(admin, "amna", entity.RoleStudent)
	h.createAccount(admin, "sana", entity.RoleStaff)
	student := h.login("amna@school.test", "password123")
	staff := h.login("sana@school.test", "password123")

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"anonymous me", http.MethodGet, "/api/me", "", http.StatusUnauthorized},
		{"student lists courses", http.MethodGet, "/api/courses", student, http.StatusOK},
		{"student on admin route", http.MethodGet, "/api/admin/students", student, http.StatusForbidden},
		{"staff on admin route", http.MethodGet, "/api/admin/accounts", staff, http.StatusForbidden},
		{"student takes attendance", http.MethodPost, "/api/attendance", student, http.StatusForbidden},
		{"staff reads student summary", http.MethodGet, "/api/attendance/me", staff, http.StatusForbidden},
		{"admin applies leave", http.MethodPost, "/api/leaves", admin, http.StatusForbidden},
		{"admin lists staff", http.MethodGet, "/api/admin/staff", admin, http.StatusOK},
		{"unknown leave kind", http.MethodGet, "/api/admin/leaves/parent", admin, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := h.do(tc.method, tc.path, tc.token, nil); w.Code != tc.want {
				t.Fatalf("status = %d, want %d, body %s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestSchoolDayFlow(t *testing.T) {
	h := newHarness(t)
	admin := h.login("admin@school.test", "admin12345")

	studentAccount := h.createAccount(admin, "amna", entity.RoleStudent)
	staffAccount := h.createAccount(admin, "sana", entity.RoleStaff)
	if studentAccount.Student == nil || studentAccount.Student.RollNumber != 1 {
		t.Fatalf("student profile = %+v", studentAccount.Student)
	}
	studentID := studentAccount.Student.ID
	staffID := staffAccount.Staff.ID
	subjectID := h.catalog.Subject.ID

	h.expect(h.do(http.MethodPut, fmt.Sprintf("/api/admin/staff/%d/subjects", staffID), admin,
		map[string]any{"subject_ids": []uint{subjectID}}), http.StatusOK, nil)

	staff := h.login("sana@school.test", "password123")
	student := h.login("amna@school.test", "password123")

	var taken entity.Attendance
	h.expect(h.do(http.MethodPost, "/api/attendance", staff, map[string]any{
		"subject_id":          subjectID,
		"session_period_id":   h.catalog.Session.ID,
		"attendance_date":     "2024-03-04",
		"present_student_ids": []uint{studentID},
	}), http.StatusCreated, &taken)
	if len(taken.Records) != 1 || !taken.Records[0].Present {
		t.Fatalf("attendance = %+v", taken)
	}

	h.expect(h.do(http.MethodPost, "/api/attendance", staff, map[string]any{
		"subject_id":        subjectID,
		"session_period_id": h.catalog.Session.ID,
		"attendance_date":   "2024-03-04",
	}), http.StatusBadRequest, nil)

	var summary struct {
		Data []struct {
			Present int64 `json:"present"`
			Total   int64 `json:"total"`
		} `json:"data"`
	}
	h.expect(h.do(http.MethodGet, "/api/attendance/me", student, nil), http.StatusOK, &summary)
	if len(summary.Data) != 1 || summary.Data[0].Present != 1 || summary.Data[0].Total != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	h.expect(h.do(http.MethodPut, "/api/results", staff, map[string]any{
		"student_id": studentID, "subject_id": subjectID, "exam_marks": 62, "assignment_marks": 15,
	}), http.StatusOK, nil)
	var results struct {
		Data []entity.ExamResult `json:"data"`
	}
	h.expect(h.do(http.MethodGet, "/api/results/me", student, nil), http.StatusOK, &results)
	if len(results.Data) != 1 || results.Data[0].ExamMarks != 62 {
		t.Fatalf("results = %+v", results)
	}

	var leave struct {
		ID uint `json:"id"`
	}
	h.expect(h.do(http.MethodPost, "/api/leaves", student, map[string]any{
		"leave_date": "2024-03-08", "message": "Family wedding",
	}), http.StatusCreated, &leave)
	h.expect(h.do(http.MethodPut, fmt.Sprintf("/api/admin/leaves/student/%d/status", leave.ID), admin,
		map[string]any{"status": "approved"}), http.StatusOK, nil)
	h.expect(h.do(http.MethodPut, fmt.Sprintf("/api/admin/leaves/student/%d/status", leave.ID), admin,
		map[string]any{"status": "rejected"}), http.StatusBadRequest, nil)

	h.expect(h.do(http.MethodPost, "/api/admin/notifications/student", admin, map[string]any{
		"profile_id": studentID, "message": "Leave approved",
	}), http.StatusCreated, nil)
	var unread struct {
		Count int64 `json:"count"`
	}
	h.expect(h.do(http.MethodGet, "/api/notifications/unread-count", student, nil), http.StatusOK, &unread)
	if unread.Count != 1 {
		t.Fatalf("unread = %d, want 1", unread.Count)
	}

	// Live notifications need redis.
	h.expect(h.do(http.MethodGet, "/api/notifications/ws", student, nil), http.StatusServiceUnavailable, nil)
}
