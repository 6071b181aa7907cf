package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"schoolhub/internal/auth"
	"schoolhub/internal/cache"
	"schoolhub/internal/config"
	"schoolhub/internal/model"
	"schoolhub/internal/repository"
	"schoolhub/internal/service"
)

type testApp struct {
	app     *httptest.Server
	authSvc *service.Auth
}

func newTestApp(t *testing.T, cfg config.Config) *testApp {
	t.Helper()

	users := repository.NewMemoryUsers()
	schools := repository.NewMemorySchools()
	classrooms := repository.NewMemoryClassrooms()
	students := repository.NewMemoryStudents()
	store := cache.NewMemoryStore()
	c := cache.New(store, zap.NewNop())
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	authSvc := service.NewAuth(users, tokens, c, zap.NewNop())
	schoolSvc := service.NewSchools(schools, classrooms, students, c, cfg.ListCacheTTL, cfg.DetailCacheTTL)
	classroomSvc := service.NewClassrooms(classrooms, schools, students, c, cfg.ListCacheTTL, cfg.DetailCacheTTL)
	studentSvc := service.NewStudents(students, schools, classrooms, c, cfg.ListCacheTTL, cfg.DetailCacheTTL)

	server := NewServer(cfg, tokens, authSvc, schoolSvc, classroomSvc, studentSvc, store, zap.NewNop())
	app := httptest.NewServer(server.Router())
	t.Cleanup(app.Close)

	return &testApp{app: app, authSvc: authSvc}
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:            "test-secret",
		JWTIssuer:            "test-issuer",
		AccessTokenTTL:       time.Hour,
		RefreshTokenTTL:      7 * 24 * time.Hour,
		ListCacheTTL:         5 * time.Minute,
		DetailCacheTTL:       10 * time.Minute,
		RateLimitMax:         1000,
		RateLimitWindow:      time.Minute,
		LoginRateLimitMax:    1000,
		LoginRateLimitWindow: 15 * time.Minute,
	}
}

func (a *testApp) registerUser(t *testing.T, username, role string, schoolID *string) {
	t.Helper()
	_, err := a.authSvc.Register(context.Background(), service.RegisterInput{
		Username: username,
		Password: "Str0ng!pass",
		Role:     role,
		SchoolID: schoolID,
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
}

func (a *testApp) login(t *testing.T, username string) string {
	t.Helper()
	resp := doReq(t, http.MethodPost, a.app.URL+"/api/v1/auth/login", "", map[string]interface{}{
		"username": username,
		"password": "Str0ng!pass",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d", username, resp.StatusCode)
	}
	var body struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &body)
	return body.Token
}

func doReq(t *testing.T, method, url, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error struct {
			Code    int      `json:"code"`
			Message string   `json:"message"`
			Details []string `json:"details"`
		} `json:"error"`
	}
	decodeBody(t, resp, &body)
	if body.Error.Code != resp.StatusCode {
		t.Fatalf("error code %d does not mirror status %d", body.Error.Code, resp.StatusCode)
	}
	return body.Error.Message
}

func TestHealth(t *testing.T) {
	a := newTestApp(t, testConfig())

	resp := doReq(t, http.MethodGet, a.app.URL+"/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestGuardRejections(t *testing.T) {
	a := newTestApp(t, testConfig())
	a.registerUser(t, "root", model.RoleSuperAdmin, nil)

	// Missing token.
	resp := doReq(t, http.MethodGet, a.app.URL+"/api/v1/schools", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if msg := errorMessage(t, resp); msg != "No token" {
		t.Fatalf("unexpected message: %s", msg)
	}

	// Garbage token.
	resp = doReq(t, http.MethodGet, a.app.URL+"/api/v1/schools", "not-a-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if msg := errorMessage(t, resp); msg != "Invalid token" {
		t.Fatalf("unexpected message: %s", msg)
	}
}

func TestSchoolRoutesAreSuperadminOnly(t *testing.T) {
	a := newTestApp(t, testConfig())
	a.registerUser(t, "root", model.RoleSuperAdmin, nil)
	rootToken := a.login(t, "root")

	resp := doReq(t, http.MethodPost, a.app.URL+"/api/v1/schools", rootToken, map[string]interface{}{"name": "Alpha School"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var school model.School
	decodeBody(t, resp, &school)

	a.registerUser(t, "principal", model.RoleSchoolAdmin, &school.ID)
	adminToken := a.login(t, "principal")

	resp = doReq(t, http.MethodGet, a.app.URL+"/api/v1/schools", adminToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSchoolCRUDAndConflict(t *testing.T) {
	a := newTestApp(t, testConfig())
	a.registerUser(t, "root", model.RoleSuperAdmin, nil)
	token := a.login(t, "root")

	resp := doReq(t, http.MethodPost, a.app.URL+"/api/v1/schools", token, map[string]interface{}{"name": "Alpha School"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var school model.School
	decodeBody(t, resp, &school)

	resp = doReq(t, http.MethodGet, a.app.URL+"/api/v1/schools/"+school.ID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doReq(t, http.MethodPost, a.app.URL+"/api/v1/classrooms", token, map[string]interface{}{
		"schoolId": school.ID,
		"name":     "Room A",
		"capacity": 10,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var classroom model.Classroom
	decodeBody(t, resp, &classroom)

	// School with a classroom cannot be deleted.
	resp = doReq(t, http.MethodDelete, a.app.URL+"/api/v1/schools/"+school.ID, token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if msg := errorMessage(t, resp); msg != "Cannot delete school with associated resources" {
		t.Fatalf("unexpected message: %s", msg)
	}

	resp = doReq(t, http.MethodDelete, a.app.URL+"/api/v1/classrooms/"+classroom.ID, token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doReq(t, http.MethodDelete, a.app.URL+"/api/v1/schools/"+school.ID, token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSchoolAdminScoping(t *testing.T) {
	a := newTestApp(t, testConfig())
	a.registerUser(t, "root", model.RoleSuperAdmin, nil)
	rootToken := a.login(t, "root")

	var s1, s2 model.School
	resp := doReq(t, http.MethodPost, a.app.URL+"/api/v1/schools", rootToken, map[string]interface{}{"name": "Alpha School"})
	decodeBody(t, resp, &s1)
	resp = doReq(t, http.MethodPost, a.app.URL+"/api/v1/schools", rootToken, map[string]interface{}{"name": "Beta School"})
	decodeBody(t, resp, &s2)

	resp = doReq(t, http.MethodPost, a.app.URL+"/api/v1/classrooms", rootToken, map[string]interface{}{
		"schoolId": s2.ID, "name": "Foreign Room", "capacity": 10,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	a.registerUser(t, "principal", model.RoleSchoolAdmin, &s1.ID)
	adminToken := a.login(t, "principal")

	// The schoolId query names the other school; the caller's own school wins.
	resp = doReq(t, http.MethodGet, a.app.URL+"/api/v1/classrooms?schoolId="+s2.ID, adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var list struct {
		Items []model.Classroom `json:"items"`
		Total int               `json:"total"`
	}
	decodeBody(t, resp, &list)
	if list.Total != 0 || len(list.Items) != 0 {
		t.Fatalf("expected empty scoped list, got %+v", list)
	}

	// Writing into the other school is forbidden.
	resp = doReq(t, http.MethodPost, a.app.URL+"/api/v1/classrooms", adminToken, map[string]interface{}{
		"schoolId": s2.ID, "name": "Intruder Room", "capacity": 10,
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if msg := errorMessage(t, resp); msg != "Forbidden: School mismatch" {
		t.Fatalf("unexpected message: %s", msg)
	}

	// Superadmin list without schoolId is rejected.
	resp = doReq(t, http.MethodGet, a.app.URL+"/api/v1/classrooms", rootToken, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if msg := errorMessage(t, resp); msg != "schoolId required" {
		t.Fatalf("unexpected message: %s", msg)
	}
}

func TestEnrollmentFlow(t *testing.T) {
	a := newTestApp(t, testConfig())
	a.registerUser(t, "root", model.RoleSuperAdmin, nil)
	token := a.login(t, "root")

	var school model.School
	resp := doReq(t, http.MethodPost, a.app.URL+"/api/v1/schools", token, map[string]interface{}{"name": "Alpha School"})
	decodeBody(t, resp, &school)

	var classroom model.Classroom
	resp = doReq(t, http.MethodPost, a.app.URL+"/api/v1/classrooms", token, map[string]interface{}{
		"schoolId": school.ID, "name": "Room A", "capacity": 1,
	})
	decodeBody(t, resp, &classroom)

	var ana, ben model.Student
	resp = doReq(t, http.MethodPost, a.app.URL+"/api/v1/students", token, map[string]interface{}{
		"schoolId": school.ID, "name": "Ana",
	})
	decodeBody(t, resp, &ana)
	resp = doReq(t, http.MethodPost, a.app.URL+"/api/v1/students", token, map[string]interface{}{
		"schoolId": school.ID, "name": "Ben",
	})
	decodeBody(t, resp, &ben)

	resp = doReq(t, http.MethodPut, a.app.URL+"/api/v1/students/"+ana.ID+"/enroll", token, map[string]interface{}{
		"classroomId": classroom.ID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var enrolled model.Student
	decodeBody(t, resp, &enrolled)
	if enrolled.ClassroomID == nil || *enrolled.ClassroomID != classroom.ID {
		t.Fatalf("expected classroom assignment, got %+v", enrolled)
	}
	if enrolled.EnrollmentDate == nil {
		t.Fatalf("expected enrollment date to be stamped")
	}

	resp = doReq(t, http.MethodPut, a.app.URL+"/api/v1/students/"+ben.ID+"/enroll", token, map[string]interface{}{
		"classroomId": classroom.ID,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if msg := errorMessage(t, resp); msg != "Classroom at full capacity" {
		t.Fatalf("unexpected message: %s", msg)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	a := newTestApp(t, testConfig())
	a.registerUser(t, "root", model.RoleSuperAdmin, nil)
	token := a.login(t, "root")

	resp := doReq(t, http.MethodPost, a.app.URL+"/api/v1/auth/logout", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["message"] != "Logged out" {
		t.Fatalf("unexpected body: %v", body)
	}

	resp = doReq(t, http.MethodGet, a.app.URL+"/api/v1/schools", token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if msg := errorMessage(t, resp); msg != "Token revoked" {
		t.Fatalf("unexpected message: %s", msg)
	}
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	a := newTestApp(t, testConfig())
	a.registerUser(t, "root", model.RoleSuperAdmin, nil)

	resp := doReq(t, http.MethodPost, a.app.URL+"/api/v1/auth/login", "", map[string]interface{}{
		"username": "root", "password": "Str0ng!pass",
	})
	var login struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}
	decodeBody(t, resp, &login)

	resp = doReq(t, http.MethodPost, a.app.URL+"/api/v1/auth/refresh", "", map[string]interface{}{
		"refreshToken": login.RefreshToken,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var refreshed map[string]string
	decodeBody(t, resp, &refreshed)
	if refreshed["token"] == "" {
		t.Fatalf("expected a token in response")
	}

	resp = doReq(t, http.MethodPost, a.app.URL+"/api/v1/auth/refresh", "", map[string]interface{}{
		"refreshToken": "bogus",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLoginRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.LoginRateLimitMax = 3
	a := newTestApp(t, cfg)
	a.registerUser(t, "root", model.RoleSuperAdmin, nil)

	for i := 0; i < 3; i++ {
		resp := doReq(t, http.MethodPost, a.app.URL+"/api/v1/auth/login", "", map[string]interface{}{
			"username": "root", "password": "WrongPass1!",
		})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i, resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp := doReq(t, http.MethodPost, a.app.URL+"/api/v1/auth/login", "", map[string]interface{}{
		"username": "root", "password": "WrongPass1!",
	})
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
	if msg := errorMessage(t, resp); msg != "Too many login attempts" {
		t.Fatalf("unexpected message: %s", msg)
	}
}

func TestRegisterValidation(t *testing.T) {
	a := newTestApp(t, testConfig())
	a.registerUser(t, "root", model.RoleSuperAdmin, nil)
	token := a.login(t, "root")

	resp := doReq(t, http.MethodPost, a.app.URL+"/api/v1/auth/register", token, map[string]interface{}{
		"username": "ab",
		"password": "weak",
		"role":     "schooladmin",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var body struct {
		Error struct {
			Message string   `json:"message"`
			Details []string `json:"details"`
		} `json:"error"`
	}
	decodeBody(t, resp, &body)
	if body.Error.Message != "Validation failed" || len(body.Error.Details) == 0 {
		t.Fatalf("unexpected error body: %+v", body.Error)
	}
}

func TestUnmatchedRouteNamesPath(t *testing.T) {
	a := newTestApp(t, testConfig())

	resp := doReq(t, http.MethodGet, a.app.URL+"/api/v1/nowhere", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	msg := errorMessage(t, resp)
	if !strings.Contains(msg, "/api/v1/nowhere") {
		t.Fatalf("expected path in message, got: %s", msg)
	}
}
