package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tferro/esmcat/internal/storage"
)

func newTestRouter(t *testing.T) (*State, http.Handler, string) {
	t.Helper()
	state := &State{}
	store := storage.NewFS()
	return state, NewRouter(state, store, nil), t.TempDir()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestLiveAlwaysOK(t *testing.T) {
	_, router, _ := newTestRouter(t)
	if w := get(t, router, "/health/live"); w.Code != http.StatusOK {
		t.Errorf("live = %d, want 200", w.Code)
	}
}

func TestReadyReflectsState(t *testing.T) {
	state, router, _ := newTestRouter(t)

	if w := get(t, router, "/health/ready"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready before first build = %d, want 503", w.Code)
	}

	state.Set(Snapshot{Rows: 1, BuiltAt: time.Now()})
	if w := get(t, router, "/health/ready"); w.Code != http.StatusOK {
		t.Errorf("ready after build = %d, want 200", w.Code)
	}
}

func TestCatalogArtifactsServed(t *testing.T) {
	state, router, dir := newTestRouter(t)
	store := storage.NewFS()

	csvPath := filepath.Join(dir, "cat.csv")
	jsonPath := filepath.Join(dir, "cat.json")
	if err := store.WriteFile(csvPath, []byte("path,variable\n/d/a.nc,tas\n")); err != nil {
		t.Fatal(err)
	}
	if err := store.WriteFile(jsonPath, []byte(`{"esmcat_version":"0.0.1"}`)); err != nil {
		t.Fatal(err)
	}

	if w := get(t, router, "/catalog.csv"); w.Code != http.StatusNotFound {
		t.Errorf("csv before first build = %d, want 404", w.Code)
	}

	state.Set(Snapshot{CSVPath: csvPath, JSONPath: jsonPath, Rows: 1, BuiltAt: time.Now()})

	w := get(t, router, "/catalog.csv")
	if w.Code != http.StatusOK {
		t.Fatalf("csv = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("csv content-type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "/d/a.nc") {
		t.Errorf("csv body = %q", w.Body.String())
	}

	w = get(t, router, "/catalog.json")
	if w.Code != http.StatusOK {
		t.Fatalf("json = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "esmcat_version") {
		t.Errorf("json body = %q", w.Body.String())
	}
}

func TestStatusSummary(t *testing.T) {
	state, router, _ := newTestRouter(t)

	if w := get(t, router, "/api/status"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status before first build = %d, want 503", w.Code)
	}

	state.Set(Snapshot{Rows: 7, Invalid: 2, BuiltAt: time.Now()})
	w := get(t, router, "/api/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"rows":7`) || !strings.Contains(body, `"invalid":2`) {
		t.Errorf("status body = %q", body)
	}
}

func TestMissingArtifactIsInternalError(t *testing.T) {
	state, router, dir := newTestRouter(t)
	state.Set(Snapshot{
		CSVPath:  filepath.Join(dir, "gone.csv"),
		JSONPath: filepath.Join(dir, "gone.json"),
	})
	if w := get(t, router, "/catalog.csv"); w.Code != http.StatusInternalServerError {
		t.Errorf("missing artifact = %d, want 500", w.Code)
	}
}
