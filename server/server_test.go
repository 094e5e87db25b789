package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"JNChoral/cache"
	"JNChoral/config"
	"JNChoral/db/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler *Handler
	router  http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:        "server-test-secret-0123",
		SessionTTL:       time.Hour,
		OrgName:          "JUDE NNAM CHORAL",
		SiteURL:          "jnc.example",
		AuditionFetchCap: 300,
		ContentFetchCap:  200,
		GalleryFetchCap:  300,
		MaxUploadBytes:   10 << 20,
		MaxAudioBytes:    25 << 20,
	}
	h, err := Build(cfg, dbtest.Open(t), cache.NewContentCache(nil, 0), nil)
	require.NoError(t, err)
	return &testServer{handler: h, router: h.Router()}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Field   string          `json:"field"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

// login registers email (unless it exists) and returns a session token.
func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	s.do(t, http.MethodPost, "/api/auth/register", map[string]interface{}{
		"name": "Test User", "email": email, "password": password,
	}, "")
	rec := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &session))
	require.NotEmpty(t, session.Token)
	return session.Token
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	_, err := s.handler.accounts.EnsureAdmin(context.Background(), "admin@example.com", "admin-pass", "Admin")
	require.NoError(t, err)
	return s.login(t, "admin@example.com", "admin-pass")
}

func (s *testServer) submit(t *testing.T, payload map[string]interface{}) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auditions", payload, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var data struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	return data.ID
}

func adaPayload() map[string]interface{} {
	return map[string]interface{}{
		"fullName":  "Ada Obi",
		"phone":     "08012345678",
		"email":     "ada@example.com",
		"category":  "SINGER",
		"voicePart": "SOPRANO",
	}
}

func TestAcceptedApplicantJourney(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)

	id := s.submit(t, adaPayload())

	rec := s.do(t, http.MethodPut, "/api/admin/auditions/"+id+"/status", map[string]string{"status": "ACCEPTED"}, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// registering afterwards with the same email grants visibility
	ada := s.login(t, "Ada@Example.com", "secret1")

	rec = s.do(t, http.MethodGet, "/api/auditions/mine", nil, ada)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "ACCEPTED", mine[0].Status)

	req := httptest.NewRequest(http.MethodGet, "/auditions/status", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: ada})
	page := httptest.NewRecorder()
	s.router.ServeHTTP(page, req)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, page.Body.String(), "Ada Obi")
	assert.Contains(t, page.Body.String(), "badge-accepted")
	assert.Contains(t, page.Body.String(), "/auditions/status/"+id+"/download")

	rec = s.do(t, http.MethodGet, "/auditions/status/"+id+"/download", nil, ada)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="audition-status-`+id+`.pdf"`, rec.Header().Get("Content-Disposition"))
	for _, want := range []string{"Ada Obi", "SINGER", "ACCEPTED"} {
		assert.Contains(t, rec.Body.String(), want)
	}
}

func TestSubmitValidation(t *testing.T) {
	s := newTestServer(t)

	payload := adaPayload()
	delete(payload, "voicePart")
	rec := s.do(t, http.MethodPost, "/api/auditions", payload, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "Select your voice part", env.Message)

	req := httptest.NewRequest(http.MethodPost, "/api/auditions", strings.NewReader("{not json"))
	bad := httptest.NewRecorder()
	s.router.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Equal(t, "Invalid form data", decode(t, bad).Message)
}

func TestAdminRoutesRejectNonAdmins(t *testing.T) {
	s := newTestServer(t)
	id := s.submit(t, adaPayload())
	user := s.login(t, "someone@example.com", "secret1")

	for _, token := range []string{"", user, "not-a-token"} {
		rec := s.do(t, http.MethodPut, "/api/admin/auditions/"+id+"/status", map[string]string{"status": "ACCEPTED"}, token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"Unauthorized"}`, rec.Body.String())

		rec = s.do(t, http.MethodGet, "/api/admin/auditions/export", nil, token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	admin := s.adminToken(t)
	rec := s.do(t, http.MethodGet, "/api/admin/auditions?status=ALL", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	var apps []struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &apps))
	require.Len(t, apps, 1)
	assert.Equal(t, "PENDING", apps[0].Status, "rejected updates do not mutate")
}

func TestUpdateStatusErrors(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)
	id := s.submit(t, adaPayload())

	rec := s.do(t, http.MethodPut, "/api/admin/auditions/"+id+"/status", map[string]string{"status": "MAYBE"}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid input", decode(t, rec).Message)

	rec = s.do(t, http.MethodPut, "/api/admin/auditions/unknown/status", map[string]string{"status": "ACCEPTED"}, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/admin/auditions/"+id+"/status", map[string]string{"status": "SHORTLISTED"}, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/admin/auditions/"+id+"/history", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []struct {
		ToStatus string `json:"toStatus"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "SHORTLISTED", history[0].ToStatus)
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)
	for i := 0; i < 3; i++ {
		s.submit(t, adaPayload())
	}

	rec := s.do(t, http.MethodGet, "/api/admin/auditions/export", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Equal(t, `attachment; filename="auditions.csv"`, rec.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimSuffix(rec.Body.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "id,fullName,phone,email,city,category,voicePart,instrument,instrumentLevel,canSightRead,productionRole,portfolioLink,notes,status,createdAt", lines[0])
}

func TestApplicantPagesRequireSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/auditions/status", nil, "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login?callbackUrl=/auditions/status", rec.Header().Get("Location"))

	rec = s.do(t, http.MethodGet, "/api/auditions/mine", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDownloadNotFound(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)
	id := s.submit(t, adaPayload())
	ada := s.login(t, "ada@example.com", "secret1")
	other := s.login(t, "other@example.com", "secret1")

	rec := s.do(t, http.MethodGet, "/auditions/status/"+id+"/download", nil, ada)
	assert.Equal(t, http.StatusNotFound, rec.Code, "pending applications have no document")
	assert.Equal(t, "Not found\n", rec.Body.String())

	rec = s.do(t, http.MethodPut, "/api/admin/auditions/"+id+"/status", map[string]string{"status": "ACCEPTED"}, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/auditions/status/"+id+"/download", nil, other)
	assert.Equal(t, http.StatusNotFound, rec.Code, "foreign applications look missing")
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/auth/register", map[string]string{"name": "Ada", "email": "ada@example.com", "password": "secret1"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	rec = s.do(t, http.MethodPost, "/api/auth/register", map[string]string{"name": "Ada", "email": "ADA@example.com", "password": "secret1"}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email already exists", decode(t, rec).Message)

	rec = s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ada@example.com", "password": "wrong!"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", decode(t, rec).Message)

	rec = s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ada@example.com", "password": "secret1"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	rec = s.do(t, http.MethodGet, "/api/auth/me", nil, cookies[0].Value)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ada@example.com")

	rec = s.do(t, http.MethodPost, "/api/auth/forgot", map[string]string{"email": "ghost@example.com"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode(t, rec).Success)
}

func TestPublicNewsHidesDrafts(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)

	rec := s.do(t, http.MethodPost, "/api/admin/announcements", map[string]interface{}{"title": "Draft", "body": "Not yet public"}, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var post struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &post))

	rec = s.do(t, http.MethodGet, "/api/news/"+post.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/admin/announcements/"+post.ID+"/publish", map[string]bool{"published": true}, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/news", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not yet public")
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
