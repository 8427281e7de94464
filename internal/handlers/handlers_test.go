package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/docauthor/internal/export"
	"github.com/localnerve/docauthor/internal/handlers"
	"github.com/localnerve/docauthor/internal/llm"
	"github.com/localnerve/docauthor/internal/services"
	"github.com/localnerve/docauthor/internal/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testApp struct {
	app     *fiber.App
	db      *gorm.DB
	gateway *testsupport.FakeGateway
	issuer  *services.TokenIssuer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := testsupport.SQLiteConfig()
	cfg.SecretKey = "handler-secret"
	cfg.TokenIssuer = "docauthor"
	cfg.AccessTokenExpireMinutes = 30
	cfg.CORSOrigins = []string{"https://ai-document-authoring.vercel.app"}

	db := testsupport.NewSQLiteDB(t)
	gw := &testsupport.FakeGateway{Outline: []string{"Intro", "Body", "Conclusion"}}
	issuer := services.NewTokenIssuer(cfg)

	app := handlers.NewApp(handlers.Dependencies{
		Config:   cfg,
		DB:       db,
		Issuer:   issuer,
		Workflow: &services.Workflow{DB: db, Gateway: gw},
		Exports:  &services.ExportService{DB: db, Exporter: export.NewExporter(export.NewNativeRenderer())},
	})
	return &testApp{app: app, db: db, gateway: gw, issuer: issuer}
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// login registers email and returns a bearer token for it
func (a *testApp) login(t *testing.T, email string) string {
	t.Helper()
	resp := a.do(t, "POST", "/api/v1/auth/register", "", map[string]string{"email": email, "password": "password"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	form := url.Values{"username": {email}, "password": {"password"}}
	req := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var token handlers.TokenResponse
	testsupport.ParseJSON(t, resp, &token)
	assert.Equal(t, "bearer", token.TokenType)
	return token.AccessToken
}

func createProject(t *testing.T, a *testApp, token string, body map[string]interface{}) uint64 {
	t.Helper()
	resp := a.do(t, "POST", "/api/v1/projects", token, body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var view map[string]interface{}
	testsupport.ParseJSON(t, resp, &view)
	return uint64(view["id"].(float64))
}

func TestWelcomeAndNotFound(t *testing.T) {
	a := newTestApp(t)

	resp := a.do(t, "GET", "/", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	testsupport.ParseJSON(t, resp, &body)
	assert.Equal(t, "Welcome to the AI Document Authoring Platform!", body["message"])

	resp = a.do(t, "GET", "/nowhere", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	testsupport.ParseJSON(t, resp, &body)
	assert.Equal(t, false, body["ok"])
}

func TestAuthFlow(t *testing.T) {
	a := newTestApp(t)
	token := a.login(t, "writer@example.com")

	resp := a.do(t, "GET", "/api/v1/auth/me", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var me handlers.UserResponse
	testsupport.ParseJSON(t, resp, &me)
	assert.Equal(t, "writer@example.com", me.Email)

	t.Run("duplicate email", func(t *testing.T) {
		resp := a.do(t, "POST", "/api/v1/auth/register", "", map[string]string{"email": "Writer@example.com", "password": "x"})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		var body map[string]interface{}
		testsupport.ParseJSON(t, resp, &body)
		assert.Equal(t, "Email already registered", body["message"])
	})

	t.Run("invalid email", func(t *testing.T) {
		resp := a.do(t, "POST", "/api/v1/auth/register", "", map[string]string{"email": "nope", "password": "x"})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		var body map[string]interface{}
		testsupport.ParseJSON(t, resp, &body)
		assert.Equal(t, "data.validation.input", body["type"])
	})

	t.Run("json login with bad password", func(t *testing.T) {
		resp := a.do(t, "POST", "/api/v1/auth/login", "", map[string]string{"email": "writer@example.com", "password": "wrong"})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
		var body map[string]interface{}
		testsupport.ParseJSON(t, resp, &body)
		assert.Equal(t, "Incorrect email or password", body["message"])
	})

	t.Run("me without token", func(t *testing.T) {
		resp := a.do(t, "GET", "/api/v1/auth/me", "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestProjectLifecycle(t *testing.T) {
	a := newTestApp(t)
	token := a.login(t, "writer@example.com")

	id := createProject(t, a, token, map[string]interface{}{
		"title":         "Market Study",
		"document_type": "docx",
		"sections":      []string{"Old Intro", " ", "Old Body"},
	})

	resp := a.do(t, "GET", fmt.Sprintf("/api/v1/projects/%d", id), token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var view map[string]interface{}
	testsupport.ParseJSON(t, resp, &view)
	assert.Equal(t, []interface{}{"Old Intro", "Old Body"}, view["sections"])

	resp = a.do(t, "POST", fmt.Sprintf("/api/v1/projects/%d/suggest-outline", id), token, map[string]string{"main_topic": "EV chargers"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var outline []string
	testsupport.ParseJSON(t, resp, &outline)
	assert.Equal(t, []string{"Intro", "Body", "Conclusion"}, outline)

	a.gateway.Failing = map[string]bool{"Body": true}
	resp = a.do(t, "POST", fmt.Sprintf("/api/v1/projects/%d/generate", id), token, map[string]interface{}{
		"main_topic":     "EV chargers",
		"section_titles": outline,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var sections []map[string]interface{}
	testsupport.ParseJSON(t, resp, &sections)
	require.Len(t, sections, 3)
	for i, s := range sections {
		assert.Equal(t, float64(i), s["section_order"])
		assert.Equal(t, outline[i], s["title"])
	}
	assert.Equal(t, llm.GenerateSentinel, sections[1]["content"])

	resp = a.do(t, "GET", fmt.Sprintf("/api/v1/projects/%d", id), token, nil)
	testsupport.ParseJSON(t, resp, &view)
	structured := view["sections"].([]interface{})
	require.Len(t, structured, 3)
	assert.Equal(t, "Intro", structured[0].(map[string]interface{})["title"])

	resp = a.do(t, "GET", fmt.Sprintf("/api/v1/projects/%d/export", id), token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, export.MimeTypes[export.FormatDOCX], resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="Market_Study.docx"`)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "PK", string(data[:2]))

	resp = a.do(t, "GET", "/api/v1/projects", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list []map[string]interface{}
	testsupport.ParseJSON(t, resp, &list)
	require.Len(t, list, 1)

	resp = a.do(t, "DELETE", fmt.Sprintf("/api/v1/projects/%d", id), token, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = a.do(t, "GET", fmt.Sprintf("/api/v1/projects/%d", id), token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestProjectValidation(t *testing.T) {
	a := newTestApp(t)
	token := a.login(t, "writer@example.com")

	tests := []struct {
		name string
		path string
		body map[string]interface{}
		code int
	}{
		{"bad document type", "/api/v1/projects", map[string]interface{}{"title": "T", "document_type": "pdf"}, fiber.StatusBadRequest},
		{"missing title", "/api/v1/projects", map[string]interface{}{"document_type": "docx"}, fiber.StatusBadRequest},
		{"bad id", "/api/v1/projects/abc/generate", map[string]interface{}{"main_topic": "x", "section_titles": []string{"a"}}, fiber.StatusBadRequest},
		{"missing titles", "/api/v1/projects/1/generate", map[string]interface{}{"main_topic": "x"}, fiber.StatusBadRequest},
		{"blank title", "/api/v1/projects/1/generate", map[string]interface{}{"main_topic": "x", "section_titles": []string{"a", ""}}, fiber.StatusBadRequest},
		{"unknown project", "/api/v1/projects/999/generate", map[string]interface{}{"main_topic": "x", "section_titles": []string{"a"}}, fiber.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := a.do(t, "POST", tt.path, token, tt.body)
			defer resp.Body.Close()
			assert.Equal(t, tt.code, resp.StatusCode)
		})
	}
}

func TestGenerateRejectsLongTitleKeepsSections(t *testing.T) {
	a := newTestApp(t)
	token := a.login(t, "writer@example.com")
	id := createProject(t, a, token, map[string]interface{}{"title": "Report", "document_type": "docx"})
	path := fmt.Sprintf("/api/v1/projects/%d/generate", id)

	resp := a.do(t, "POST", path, token, map[string]interface{}{"main_topic": "Topic", "section_titles": []string{"A", "B"}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp.Body.Close()
	calls := a.gateway.Calls()

	resp = a.do(t, "POST", path, token, map[string]interface{}{
		"main_topic":     "Other topic",
		"section_titles": []string{"Intro", strings.Repeat("x", 600)},
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var errResp map[string]interface{}
	testsupport.ParseJSON(t, resp, &errResp)
	assert.Equal(t, "data.validation.input", errResp["type"])
	assert.Contains(t, errResp["message"], "at most 512")
	assert.Equal(t, calls, a.gateway.Calls())

	resp = a.do(t, "GET", fmt.Sprintf("/api/v1/projects/%d", id), token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var view map[string]interface{}
	testsupport.ParseJSON(t, resp, &view)
	assert.Equal(t, "Topic", view["main_topic"])
	sections := view["sections"].([]interface{})
	require.Len(t, sections, 2)
	assert.Equal(t, "A", sections[0].(map[string]interface{})["title"])
	assert.Equal(t, "B", sections[1].(map[string]interface{})["title"])
}

func TestGenerateEmptyTitlesClearsSections(t *testing.T) {
	a := newTestApp(t)
	token := a.login(t, "writer@example.com")
	id := createProject(t, a, token, map[string]interface{}{"title": "Report", "document_type": "docx"})
	path := fmt.Sprintf("/api/v1/projects/%d/generate", id)

	resp := a.do(t, "POST", path, token, map[string]interface{}{"main_topic": "Topic", "section_titles": []string{"A"}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = a.do(t, "POST", path, token, map[string]interface{}{"main_topic": "Topic", "section_titles": []string{}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var sections []map[string]interface{}
	testsupport.ParseJSON(t, resp, &sections)
	assert.Empty(t, sections)
}

func TestExportErrors(t *testing.T) {
	a := newTestApp(t)
	token := a.login(t, "writer@example.com")

	id := createProject(t, a, token, map[string]interface{}{"title": "Empty", "document_type": "pptx"})
	resp := a.do(t, "GET", fmt.Sprintf("/api/v1/projects/%d/export", id), token, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var body map[string]interface{}
	testsupport.ParseJSON(t, resp, &body)
	assert.Equal(t, "No valid content to export.", body["message"])
}

func TestSectionRoutes(t *testing.T) {
	a := newTestApp(t)
	token := a.login(t, "writer@example.com")
	id := createProject(t, a, token, map[string]interface{}{"title": "Deck", "document_type": "pptx"})

	resp := a.do(t, "POST", fmt.Sprintf("/api/v1/projects/%d/generate", id), token, map[string]interface{}{
		"main_topic":     "Oceans",
		"section_titles": "Tides",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var sections []map[string]interface{}
	testsupport.ParseJSON(t, resp, &sections)
	require.Len(t, sections, 1)
	sectionID := uint64(sections[0]["id"].(float64))
	original := sections[0]["content"].(string)

	resp = a.do(t, "POST", fmt.Sprintf("/api/v1/sections/%d/refine", sectionID), token, map[string]string{"prompt": "shorter"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var refined map[string]interface{}
	testsupport.ParseJSON(t, resp, &refined)
	assert.Equal(t, original+" [shorter]", refined["content"])

	resp = a.do(t, "PATCH", fmt.Sprintf("/api/v1/sections/%d", sectionID), token, map[string]string{"user_notes": "check figures", "feedback": "like"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var patched map[string]interface{}
	testsupport.ParseJSON(t, resp, &patched)
	assert.Equal(t, "check figures", patched["comment"])
	assert.Equal(t, "like", patched["feedback"])

	resp = a.do(t, "PATCH", fmt.Sprintf("/api/v1/sections/%d", sectionID), token, map[string]string{"feedback": "meh"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = a.do(t, "GET", fmt.Sprintf("/api/v1/sections/%d/history", sectionID), token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var history []map[string]interface{}
	testsupport.ParseJSON(t, resp, &history)
	require.Len(t, history, 1)
	assert.Equal(t, "shorter", history[0]["prompt"])
	assert.Equal(t, original, history[0]["previous_content"])
	assert.Contains(t, history[0], "created_at")
	assert.NotContains(t, history[0], "section_id")
}

func TestOwnershipIsEnforced(t *testing.T) {
	a := newTestApp(t)
	owner := a.login(t, "owner@example.com")
	other := a.login(t, "other@example.com")

	id := createProject(t, a, owner, map[string]interface{}{"title": "Private", "document_type": "docx"})
	resp := a.do(t, "POST", fmt.Sprintf("/api/v1/projects/%d/generate", id), owner, map[string]interface{}{
		"main_topic":     "Secrets",
		"section_titles": []string{"One"},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var sections []map[string]interface{}
	testsupport.ParseJSON(t, resp, &sections)
	sectionID := uint64(sections[0]["id"].(float64))

	paths := []struct{ method, path string }{
		{"GET", fmt.Sprintf("/api/v1/projects/%d", id)},
		{"GET", fmt.Sprintf("/api/v1/projects/%d/export", id)},
		{"DELETE", fmt.Sprintf("/api/v1/projects/%d", id)},
		{"GET", fmt.Sprintf("/api/v1/sections/%d/history", sectionID)},
	}
	for _, p := range paths {
		resp := a.do(t, p.method, p.path, other, nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, "%s %s", p.method, p.path)
		resp.Body.Close()
	}

	resp = a.do(t, "POST", fmt.Sprintf("/api/v1/sections/%d/refine", sectionID), other, map[string]string{"prompt": "steal"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = a.do(t, "GET", "/api/v1/projects", other, nil)
	var list []map[string]interface{}
	testsupport.ParseJSON(t, resp, &list)
	assert.Empty(t, list)
}

func TestHealth(t *testing.T) {
	llmServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer llmServer.Close()

	cfg := testsupport.SQLiteConfig()
	cfg.LLMProvider = "gemini"
	db := testsupport.NewSQLiteDB(t)

	app := fiber.New()
	h := &handlers.HealthHandler{Config: cfg, DB: db, LLMEndpoint: llmServer.URL}
	app.Get("/health", h.Health)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var result services.HealthCheckResult
	testsupport.ParseJSON(t, resp, &result)
	assert.Equal(t, "healthy", result.Status)
	assert.Equal(t, "ok", result.Database)

	llmServer.Close()
	resp, err = app.Test(httptest.NewRequest("GET", "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}
