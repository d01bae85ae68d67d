package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"neohub_controller/internal/service"
)

func TestPublicRoutes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>NeoHub</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := newTestRouter(&service.Service{}, Options{StaticDir: dir})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), statusOK) {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/static/index.html" {
		t.Fatalf("root redirect: %d %q", w.Code, w.Header().Get("Location"))
	}

	w = httptest.NewRecorder()
	// the file server canonicalises index.html to its directory
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "NeoHub") {
		t.Fatalf("static: %d %s", w.Code, w.Body.String())
	}
}
