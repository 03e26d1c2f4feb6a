package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kleverson/cartas/internal/config"
)

const testToken = "test-admin-token"

// getTestConfig returns a config with test-appropriate ports
func getTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.APIPort = 18080 // non-standard port for testing
	cfg.DatabasePath = filepath.Join(t.TempDir(), "test.duckdb")
	cfg.AdminToken = testToken
	cfg.Timezone = "UTC"
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	server, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	})
	return server
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewServer(t *testing.T) {
	cfg := getTestConfig(t)
	server := newTestServer(t, cfg)

	if server.storage == nil {
		t.Error("Server storage is nil")
	}
	if server.backups == nil {
		t.Error("Server backups is nil")
	}
	if server.wsHub == nil {
		t.Error("Server wsHub is nil")
	}
	if _, err := os.Stat(cfg.DatabasePath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestRoutes_Public(t *testing.T) {
	server := newTestServer(t, getTestConfig(t))
	h := server.Handler()

	tests := []struct {
		method string
		path   string
		body   any
		want   int
	}{
		{http.MethodGet, "/health", nil, http.StatusOK},
		{http.MethodGet, "/sitemap.xml", nil, http.StatusOK},
		{http.MethodGet, "/api/posts", nil, http.StatusOK},
		{http.MethodGet, "/api/posts/missing", nil, http.StatusNotFound},
		{http.MethodGet, "/api/posts/missing/related", nil, http.StatusNotFound},
		{http.MethodGet, "/api/categories", nil, http.StatusOK},
		{http.MethodPost, "/api/leads", map[string]string{"name": "Ana", "whatsapp": "+5511999990000"}, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := doRequest(t, h, tt.method, tt.path, "", tt.body)
			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRoutes_AdminRequiresToken(t *testing.T) {
	server := newTestServer(t, getTestConfig(t))
	h := server.Handler()

	for _, path := range []string{"/api/admin/posts", "/api/admin/leads", "/api/admin/backups"} {
		rec := doRequest(t, h, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s without token: expected 401, got %d", path, rec.Code)
		}

		rec = doRequest(t, h, http.MethodGet, path, "wrong", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s with wrong token: expected 401, got %d", path, rec.Code)
		}

		rec = doRequest(t, h, http.MethodGet, path, testToken, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s with token: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestRoutes_AdminDisabledWithoutToken(t *testing.T) {
	cfg := getTestConfig(t)
	cfg.AdminToken = ""
	server := newTestServer(t, cfg)

	rec := doRequest(t, server.Handler(), http.MethodPost, "/api/admin/backups", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 when admin is disabled, got %d", rec.Code)
	}
}

func TestRoutes_PostLifecycleAndBackup(t *testing.T) {
	server := newTestServer(t, getTestConfig(t))
	h := server.Handler()

	rec := doRequest(t, h, http.MethodPost, "/api/admin/posts", testToken, map[string]any{
		"slug": "primeira-carta", "title": "Primeira carta", "category": "Cartas", "status": "published",
		"body": "<p>Olá, mundo</p>",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodGet, "/api/posts/primeira-carta", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get post: expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, h, http.MethodGet, "/sitemap.xml", "", nil)
	if !strings.Contains(rec.Body.String(), "/artigo/primeira-carta") {
		t.Error("published post missing from sitemap")
	}

	rec = doRequest(t, h, http.MethodPost, "/api/admin/backups", testToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("backup: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Backup-Posts") != "1" {
		t.Errorf("X-Backup-Posts = %q, want 1", rec.Header().Get("X-Backup-Posts"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK\x03\x04")) {
		t.Error("backup response is not a zip archive")
	}
}

func TestRoutes_GzipBody(t *testing.T) {
	server := newTestServer(t, getTestConfig(t))

	req := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader("not gzip"))
	req.Header.Set("Content-Encoding", "gzip")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for corrupt gzip body, got %d", rec.Code)
	}
}

func TestServerStartAndShutdown(t *testing.T) {
	cfg := getTestConfig(t)

	server, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	time.Sleep(100 * time.Millisecond)

	select {
	case err := <-serverErr:
		if err != nil {
			t.Fatalf("Server failed to start: %v", err)
		}
	default:
	}

	resp, err := http.Get("http://localhost:18080/health")
	if err != nil {
		t.Errorf("Failed to reach health endpoint: %v", err)
	} else {
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected status 200, got %d", resp.StatusCode)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown returned error: %v", err)
	}
}

func TestServerShutdownBeforeStart(t *testing.T) {
	server, err := New(context.Background(), getTestConfig(t))
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown before start returned error: %v", err)
	}
}
