package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bigkaa/minimovies/internal/api/middleware"
	"github.com/bigkaa/minimovies/internal/config"
)

// stubHandler — минимальная реализация routes.ServerInterface.
type stubHandler struct {
	lastID int64
}

func (s *stubHandler) ok(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *stubHandler) HealthLive(w http.ResponseWriter, _ *http.Request)     { s.ok(w) }
func (s *stubHandler) HealthReady(w http.ResponseWriter, _ *http.Request)    { s.ok(w) }
func (s *stubHandler) GetMetrics(w http.ResponseWriter, _ *http.Request)     { s.ok(w) }
func (s *stubHandler) GetOpenAPISpec(w http.ResponseWriter, _ *http.Request) { s.ok(w) }
func (s *stubHandler) ListCatalog(w http.ResponseWriter, _ *http.Request)    { s.ok(w) }
func (s *stubHandler) CreateCatalogEntry(w http.ResponseWriter, _ *http.Request) {
	s.ok(w)
}

func (s *stubHandler) StreamVideo(w http.ResponseWriter, _ *http.Request, id int64) {
	s.lastID = id
	s.ok(w)
}

func (s *stubHandler) DeleteCatalogEntry(w http.ResponseWriter, _ *http.Request, id int64) {
	s.lastID = id
	s.ok(w)
}

func (s *stubHandler) RegisterView(w http.ResponseWriter, _ *http.Request, id int64) {
	s.lastID = id
	s.ok(w)
}

func errorCode(t *testing.T, body io.Reader) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		t.Fatalf("ошибка декодирования ответа: %v", err)
	}
	return resp.Error.Code
}

func TestRouter_EntryIDBinding(t *testing.T) {
	stub := &stubHandler{}
	router := NewRouter("", stub)

	req := httptest.NewRequest(http.MethodGet, "/video/1712345678901", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200", w.Code)
	}
	if stub.lastID != 1712345678901 {
		t.Errorf("id = %d, ожидается 1712345678901", stub.lastID)
	}
}

func TestRouter_InvalidID(t *testing.T) {
	router := NewRouter("", &stubHandler{})

	req := httptest.NewRequest(http.MethodPost, "/catalog/abc/view", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("статус = %d, ожидается 400", w.Code)
	}
	if code := errorCode(t, w.Body); code != "VALIDATION_ERROR" {
		t.Errorf("code = %q, ожидается VALIDATION_ERROR", code)
	}
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	router := NewRouter("", &stubHandler{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/unknown", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("статус = %d, ожидается 404", w.Code)
	}
	if code := errorCode(t, w.Body); code != "NOT_FOUND" {
		t.Errorf("code = %q, ожидается NOT_FOUND", code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/catalog", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("статус = %d, ожидается 405", w.Code)
	}
	if code := errorCode(t, w.Body); code != "METHOD_NOT_ALLOWED" {
		t.Errorf("code = %q, ожидается METHOD_NOT_ALLOWED", code)
	}
}

func TestRouter_StaticSite(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Mini Movies</h1>"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	router := NewRouter(dir, &stubHandler{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200", w.Code)
	}
	if body := w.Body.String(); body != "<h1>Mini Movies</h1>" {
		t.Errorf("тело = %q", body)
	}

	// API-маршруты имеют приоритет над статикой
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/catalog", nil))
	if w.Body.String() != "ok" {
		t.Errorf("GET /catalog обслужен статикой: %q", w.Body.String())
	}
}

func TestNew_Middlewares(t *testing.T) {
	cfg := &config.Config{Port: 5000}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv := New(cfg, logger, &stubHandler{},
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
	)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200", w.Code)
	}
	if got := w.Header().Get(middleware.RequestIDHeader); got != "req-42" {
		t.Errorf("X-Request-ID = %q, ожидается req-42", got)
	}
	if srv.httpServer.Addr != ":5000" {
		t.Errorf("Addr = %q, ожидается :5000", srv.httpServer.Addr)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := NewRouter("", &stubHandler{})

	req := httptest.NewRequest(http.MethodOptions, "/video/1712345678901", nil)
	req.Header.Set("Origin", "https://player.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Range")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code < 200 || w.Code > 299 {
		t.Fatalf("статус preflight = %d, ожидается 2xx", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("Access-Control-Allow-Origin отсутствует в ответе на preflight")
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodGet) {
		t.Errorf("Access-Control-Allow-Methods = %q, ожидается GET", got)
	}
	if got := strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")); !strings.Contains(got, "range") {
		t.Errorf("Access-Control-Allow-Headers = %q, ожидается Range", got)
	}
}

func TestRouter_CORSStreamHeaders(t *testing.T) {
	stub := &stubHandler{}
	router := NewRouter("", stub)

	req := httptest.NewRequest(http.MethodGet, "/video/1712345678901", nil)
	req.Header.Set("Origin", "https://player.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200", w.Code)
	}
	if stub.lastID != 1712345678901 {
		t.Errorf("id = %d, запрос не дошёл до обработчика", stub.lastID)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" && got != "https://player.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	exposed := strings.ToLower(w.Header().Get("Access-Control-Expose-Headers"))
	for _, h := range []string{"content-range", "content-length", "accept-ranges"} {
		if !strings.Contains(exposed, h) {
			t.Errorf("Access-Control-Expose-Headers = %q, ожидается %s", exposed, h)
		}
	}
}
