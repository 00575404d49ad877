package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"portfolio-site/internal/api"
	"portfolio-site/internal/auth"
	"portfolio-site/internal/cache"
	"portfolio-site/internal/constants"
	"portfolio-site/internal/content"
	"portfolio-site/internal/controllers"
	"portfolio-site/internal/database"
	"portfolio-site/internal/editor"
	"portfolio-site/internal/environment"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/media"
	"portfolio-site/internal/models"
	"portfolio-site/internal/routes"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type noUploads struct{}

func (noUploads) Upload(context.Context, media.File, string) (string, error) {
	return "", media.ErrUpload
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard, TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err = models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	repo := &database.GormRepository{DB: db}
	store, err := cache.New(100, time.Minute, repo)
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	t.Cleanup(store.Close)

	env := environment.Environment(repo, nil)

	authService := &auth.AuthService{
		Env:      env,
		Tokens:   auth.TokenIssuer{SigningKey: []byte("test-signing-key"), Lifetime: time.Hour},
		DenyList: store,
	}
	hash, err := models.Hash("pw")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if err = authService.EnsureAdmin(context.Background(), "admin", string(hash)); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}

	workspace := editor.NewWorkspace(env, noUploads{}, store)
	registry := map[int]any{
		constants.Auth: &auth.Controller{Env: env, AuthService: authService, Sessions: workspace},
		constants.Content: &content.Controller{
			Env:            env,
			ContentService: &content.ContentService{Env: env, Images: media.NewImageResolver(nil, "")},
			Cache:          store,
		},
		constants.Editor: &editor.Controller{Env: env, Workspace: workspace, Tags: editor.NewTagService(env, store)},
		constants.Status: &controllers.StatusController{Started: time.Now(), Sessions: workspace},
	}

	r := gin.New()
	routes.InitRouter(r, registry, "https://portfolio.example.com", &logging.NullLogger{})
	return r
}

func call(t *testing.T, r *gin.Engine, method, path, token string, data any) (*httptest.ResponseRecorder, api.RestJsonResponse) {
	t.Helper()
	var body bytes.Buffer
	if data != nil {
		if err := json.NewEncoder(&body).Encode(gin.H{"data": data}); err != nil {
			t.Fatalf("encoding request: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &body)
	if len(token) > 0 {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var response api.RestJsonResponse
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("decoding response %q: %v", w.Body.String(), err)
		}
	}
	return w, response
}

func itemCount(t *testing.T, response api.RestJsonResponse) int {
	t.Helper()
	data, ok := response.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected list data %#v", response.Data)
	}
	return len(data["items"].([]any))
}

func TestRouter_EditorFlow(t *testing.T) {
	r := newRouter(t)

	w, response := call(t, r, http.MethodGet, "/api/blog-posts/", "", nil)
	if w.Code != http.StatusOK || response.Message != api.NoResults || itemCount(t, response) != 0 {
		t.Fatalf("initial list: %d %+v", w.Code, response)
	}

	if w, _ = call(t, r, http.MethodGet, "/api/admin/editor", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("editor without token: got %d, want 401", w.Code)
	}

	if w, _ = call(t, r, http.MethodPost, "/api/admin/session", "", gin.H{"username": "admin", "password": "nope"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: got %d, want 401", w.Code)
	}

	w, response = call(t, r, http.MethodPost, "/api/admin/session", "", gin.H{"username": "admin", "password": "pw"})
	if w.Code != http.StatusOK {
		t.Fatalf("sign in: %d %+v", w.Code, response)
	}
	token := response.Data.(map[string]any)["token"].(string)

	if w, response = call(t, r, http.MethodPatch, "/api/admin/editor/draft", token, gin.H{
		"title": "ELK SIEM", "slug": "elk-siem", "content": "<p>pipelines</p>",
	}); w.Code != http.StatusOK {
		t.Fatalf("edit: %d %+v", w.Code, response)
	}
	if w, response = call(t, r, http.MethodPost, "/api/admin/editor/save", token, nil); w.Code != http.StatusOK {
		t.Fatalf("save: %d %+v", w.Code, response)
	}

	w, response = call(t, r, http.MethodGet, "/api/blog-posts/", "", nil)
	if w.Code != http.StatusOK || itemCount(t, response) != 1 {
		t.Errorf("list after save served stale data: %d %+v", w.Code, response)
	}

	if w, _ = call(t, r, http.MethodGet, "/status", "", nil); w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}

	if w, _ = call(t, r, http.MethodDelete, "/api/admin/session", token, nil); w.Code != http.StatusOK {
		t.Fatalf("sign out: got %d", w.Code)
	}
	if w, _ = call(t, r, http.MethodGet, "/api/admin/editor", token, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("editor after sign out: got %d, want 401", w.Code)
	}
}

func TestRouter_UtilityRoutes(t *testing.T) {
	r := newRouter(t)

	for _, path := range []string{"/heartbeat", "/metrics"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: got %d", path, w.Code)
		}
		if w.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s: response carries no request id", path)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/admin/editor", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight: got %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://portfolio.example.com" {
		t.Errorf("got allowed origin %q", got)
	}
}
