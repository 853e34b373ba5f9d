package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-portal/internal/middleware"
	"github.com/noah-isme/lms-portal/internal/models"
	"github.com/noah-isme/lms-portal/internal/remote"
	"github.com/noah-isme/lms-portal/internal/service"
)

// fakeLMS is an httptest upstream serving a fixed catalog.
type fakeLMS struct {
	mu       sync.Mutex
	calls    map[string]int
	enrolled map[string]bool
	banned   map[string]bool
}

var lmsUsers = map[string]string{
	"tok-admin":   `{"id":"admin-1","username":"ada","firstName":"Ada","role":"admin","isActive":true}`,
	"tok-lect":    `{"id":"lect-1","username":"alice","firstName":"Alice","lastName":"Smith","role":"lecturer","departmentId":"d1","isActive":true}`,
	"tok-stud":    `{"id":"stud-1","username":"charlie","firstName":"Charlie","lastName":"Brown","email":"charlie@example.edu","role":"student","departmentId":"d1","isActive":true}`,
	"tok-pending": `{"id":"lect-2","username":"bob","firstName":"Bob","role":"lecturer","departmentId":"d1","isActive":false}`,
}

func (f *fakeLMS) hit(key string) {
	f.mu.Lock()
	f.calls[key]++
	f.mu.Unlock()
}

func (f *fakeLMS) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeLMS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.hit(r.Method + " " + r.URL.Path)
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	write := func(body string) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}

	switch r.Method + " " + r.URL.Path {
	case "POST /auth/register":
		w.WriteHeader(http.StatusCreated)
		return
	case "GET /auth/getuser":
		user, ok := lmsUsers[token]
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			write(`{"message":"invalid token"}`)
			return
		}
		f.mu.Lock()
		banned := f.banned[token]
		f.mu.Unlock()
		if banned {
			user = strings.Replace(user, `"isActive":true`, `"isActive":false`, 1)
		}
		write(user)
	case "PATCH /auth/control":
		var req struct {
			ID      string `json:"id"`
			Control string `json:"control"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		for tok, body := range lmsUsers {
			if strings.Contains(body, `"id":"`+req.ID+`"`) {
				f.banned[tok] = req.Control == "BAN"
			}
		}
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	case "GET /api/department/all":
		write(`[{"id":"d1","name":"Computer Science","code":"CS"}]`)
	case "GET /api/lecturer/all", "GET /api/lecturer/departmentId/d1":
		write("[" + lmsUsers["tok-lect"] + "," + lmsUsers["tok-pending"] + "]")
	case "GET /api/student/departmentId/d1", "GET /api/student/moduleId/m1":
		f.mu.Lock()
		enrolled := f.enrolled["stud-1"]
		f.mu.Unlock()
		if r.URL.Path == "/api/student/moduleId/m1" && !enrolled {
			write(`[]`)
			return
		}
		write("[" + lmsUsers["tok-stud"] + "]")
	case "GET /api/module/departmentId/d1", "GET /api/module/lecturerId/lect-1":
		f.mu.Lock()
		count := 0
		if f.enrolled["stud-1"] {
			count = 1
		}
		f.mu.Unlock()
		write(`[{"id":"m1","code":"CS101","name":"Intro","departmentId":"d1","lecturerId":"lect-1","limit":2,"enrolledCount":` + itoa(count) + `}]`)
	case "GET /api/module/studentId/stud-1":
		f.mu.Lock()
		enrolled := f.enrolled["stud-1"]
		f.mu.Unlock()
		if !enrolled {
			write(`[]`)
			return
		}
		write(`[{"id":"m1","code":"CS101","name":"Intro","departmentId":"d1","lecturerId":"lect-1","limit":2,"enrolledCount":1}]`)
	case "POST /api/enrollment/enroll":
		f.mu.Lock()
		f.enrolled["stud-1"] = true
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotFound)
		write(`{"message":"not found"}`)
	}
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
	Meta map[string]interface{} `json:"meta"`
}

func newTestRouter(t *testing.T) (*gin.Engine, *fakeLMS) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	lms := &fakeLMS{calls: map[string]int{}, enrolled: map[string]bool{}, banned: map[string]bool{}}
	upstream := httptest.NewServer(lms)
	t.Cleanup(upstream.Close)

	metrics := service.NewMetricsService()
	client := remote.New(upstream.URL, 2*time.Second, remote.WithRecorder(metrics))
	sessions := service.NewSessionService(func(token string) service.LMSAPI { return client.As(token) },
		service.SessionConfig{TTL: time.Hour, MaxSessions: 16, RequireLecturer: true}, metrics, nil)
	syncer := service.NewSyncService(nil, nil)
	views := service.NewDashboardService(true)
	audit := service.NewAuditService(nil, nil, nil)
	intents := service.NewIntentService(service.NewMemoryInFlight(), syncer, audit, metrics, nil, nil, service.WithSessionRevoker(sessions))

	r := gin.New()
	RegisterRoutes(r, "/api/v1", middleware.Session(sessions), Handlers{
		Session:  NewSessionHandler(sessions),
		Auth:     NewAuthHandler(service.NewRegistrationService(client, audit, metrics, nil, nil)),
		Admin:    NewAdminHandler(syncer, views, intents, audit),
		Lecturer: NewLecturerHandler(syncer, views, service.NewExportService()),
		Student:  NewStudentHandler(syncer, views, intents),
		Metrics:  NewMetricsHandler(metrics, client),
	})
	return r, lms
}

func call(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestRoutesRequireBearerToken(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := call(r, http.MethodGet, "/api/v1/student/dashboard", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(r, http.MethodGet, "/api/v1/session", "tok-unknown", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPendingLecturerIsTurnedAway(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := call(r, http.MethodGet, "/api/v1/lecturer/dashboard", "tok-pending", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "ACCOUNT_INACTIVE", decode(t, rec).Error.Code)
}

func TestRoleGroupsAreGated(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := call(r, http.MethodGet, "/api/v1/admin/dashboard", "tok-stud", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = call(r, http.MethodPost, "/api/v1/student/modules/m1/enrollment", "tok-lect", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStudentEnrollFlow(t *testing.T) {
	r, lms := newTestRouter(t)

	rec := call(r, http.MethodGet, "/api/v1/student/dashboard", "tok-stud", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var dash struct {
		Available []struct {
			ID         string `json:"id"`
			Enrollable bool   `json:"enrollable"`
		} `json:"available"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &dash))
	require.Len(t, dash.Available, 1)
	assert.True(t, dash.Available[0].Enrollable)

	rec = call(r, http.MethodPost, "/api/v1/student/modules/m1/enrollment", "tok-stud", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, lms.count("POST /api/enrollment/enroll"))

	rec = call(r, http.MethodPost, "/api/v1/student/modules/m1/enrollment", "tok-stud", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_ENROLLED", decode(t, rec).Error.Code)
	assert.Equal(t, 1, lms.count("POST /api/enrollment/enroll"))
	assert.Equal(t, 1, lms.count("GET /auth/getuser"))
}

func TestLecturerRosterExport(t *testing.T) {
	r, lms := newTestRouter(t)
	lms.enrolled["stud-1"] = true

	rec := call(r, http.MethodGet, "/api/v1/lecturer/modules/m1/roster", "tok-lect", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(r, http.MethodGet, "/api/v1/lecturer/dashboard", "tok-lect", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(r, http.MethodGet, "/api/v1/lecturer/modules/m1/roster/export?format=csv", "tok-lect", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "roster_CS101_")
	assert.Contains(t, rec.Body.String(), "charlie,Charlie Brown,charlie@example.edu")
}

func TestAdminDashboardAndAuditDisabled(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := call(r, http.MethodGet, "/api/v1/admin/dashboard?departmentId=d1", "tok-admin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "d1", env.Meta["department_id"])
	var dash struct {
		PendingLecturers []struct {
			ID string `json:"id"`
		} `json:"pendingLecturers"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	require.Len(t, dash.PendingLecturers, 1)
	assert.Equal(t, "lect-2", dash.PendingLecturers[0].ID)

	rec = call(r, http.MethodGet, "/api/v1/admin/audit", "tok-admin", "")
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
}

func TestAdminCreateDepartmentRejectsBadPayload(t *testing.T) {
	r, lms := newTestRouter(t)

	rec := call(r, http.MethodPost, "/api/v1/admin/departments", "tok-admin", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, lms.count("POST /api/department/create"))
}

func TestRegisterIsPublic(t *testing.T) {
	r, lms := newTestRouter(t)

	body := `{"username":"bob","password":"secret1","firstName":"Bob","lastName":"Jones","email":"bob@example.edu","role":"LECTURER","departmentId":"d1"}`
	rec := call(r, http.MethodPost, "/api/v1/auth/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	var result service.RegistrationResult
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &result))
	assert.True(t, result.PendingApproval)
	assert.Equal(t, models.RoleLecturer, result.Role)
	assert.Equal(t, 1, lms.count("POST /auth/register"))
}

func TestRegisterRefusesAdminRole(t *testing.T) {
	r, lms := newTestRouter(t)

	body := `{"username":"mallory","password":"secret1","firstName":"Mal","lastName":"Lory","email":"mal@example.edu","role":"ADMIN"}`
	rec := call(r, http.MethodPost, "/api/v1/auth/register", "", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Zero(t, lms.count("POST /auth/register"))
}

func TestSessionEndpoints(t *testing.T) {
	r, lms := newTestRouter(t)

	rec := call(r, http.MethodGet, "/api/v1/session", "tok-stud", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = call(r, http.MethodDelete, "/api/v1/session", "tok-stud", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = call(r, http.MethodGet, "/api/v1/session", "tok-stud", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, lms.count("GET /auth/getuser"))
}

func TestBanEndsTargetSessions(t *testing.T) {
	r, lms := newTestRouter(t)

	require.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/v1/session", "tok-stud", "").Code)
	require.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/v1/admin/dashboard?departmentId=d1", "tok-admin", "").Code)

	rec := call(r, http.MethodPatch, "/api/v1/admin/users/stud-1/control", "tok-admin", `{"control":"BAN"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, lms.count("PATCH /auth/control"))

	rec = call(r, http.MethodGet, "/api/v1/session", "tok-stud", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 3, lms.count("GET /auth/getuser"))
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/ready", "", "").Code)
	rec := call(r, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sessions_active")
}
