package routes

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

// recordingServer — ServerInterface, запоминающий вызванную операцию и id.
type recordingServer struct {
	op string
	id EntryId
}

func (s *recordingServer) HealthLive(http.ResponseWriter, *http.Request)     { s.op = "HealthLive" }
func (s *recordingServer) HealthReady(http.ResponseWriter, *http.Request)    { s.op = "HealthReady" }
func (s *recordingServer) GetMetrics(http.ResponseWriter, *http.Request)     { s.op = "GetMetrics" }
func (s *recordingServer) GetOpenAPISpec(http.ResponseWriter, *http.Request) { s.op = "GetOpenAPISpec" }
func (s *recordingServer) ListCatalog(http.ResponseWriter, *http.Request)    { s.op = "ListCatalog" }
func (s *recordingServer) CreateCatalogEntry(http.ResponseWriter, *http.Request) {
	s.op = "CreateCatalogEntry"
}

func (s *recordingServer) StreamVideo(_ http.ResponseWriter, _ *http.Request, id EntryId) {
	s.op, s.id = "StreamVideo", id
}

func (s *recordingServer) DeleteCatalogEntry(_ http.ResponseWriter, _ *http.Request, id EntryId) {
	s.op, s.id = "DeleteCatalogEntry", id
}

func (s *recordingServer) RegisterView(_ http.ResponseWriter, _ *http.Request, id EntryId) {
	s.op, s.id = "RegisterView", id
}

func TestHandlerFromMux_Routing(t *testing.T) {
	tests := []struct {
		method, path string
		wantOp       string
		wantID       EntryId
	}{
		{http.MethodGet, "/health/live", "HealthLive", 0},
		{http.MethodGet, "/health/ready", "HealthReady", 0},
		{http.MethodGet, "/metrics", "GetMetrics", 0},
		{http.MethodGet, "/openapi.yaml", "GetOpenAPISpec", 0},
		{http.MethodGet, "/video/1700000000000", "StreamVideo", 1700000000000},
		{http.MethodGet, "/catalog", "ListCatalog", 0},
		{http.MethodPost, "/catalog", "CreateCatalogEntry", 0},
		{http.MethodDelete, "/catalog/42", "DeleteCatalogEntry", 42},
		{http.MethodPost, "/catalog/7/view", "RegisterView", 7},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			srv := &recordingServer{}
			router := chi.NewRouter()
			HandlerFromMux(srv, router)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if srv.op != tt.wantOp {
				t.Errorf("операция = %q, ожидалась %q", srv.op, tt.wantOp)
			}
			if srv.id != tt.wantID {
				t.Errorf("id = %d, ожидался %d", srv.id, tt.wantID)
			}
		})
	}
}

func TestHandlerWithOptions_InvalidID(t *testing.T) {
	for _, path := range []string{"/video/abc", "/video/1.5", "/catalog/x1/view"} {
		t.Run(path, func(t *testing.T) {
			srv := &recordingServer{}
			var gotErr error
			handler := HandlerWithOptions(srv, ChiServerOptions{
				ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
					gotErr = err
					w.WriteHeader(http.StatusBadRequest)
				},
			})

			method := http.MethodGet
			if path == "/catalog/x1/view" {
				method = http.MethodPost
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(method, path, nil))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("StatusCode = %d, ожидался 400", rec.Code)
			}
			if srv.op != "" {
				t.Errorf("обработчик %q вызван с некорректным id", srv.op)
			}
			var paramErr *InvalidParamFormatError
			if !errors.As(gotErr, &paramErr) || paramErr.ParamName != "id" {
				t.Errorf("ошибка = %v, ожидалась InvalidParamFormatError для id", gotErr)
			}
		})
	}
}

func TestHandlerWithOptions_Middlewares(t *testing.T) {
	srv := &recordingServer{}
	called := false
	handler := HandlerWithOptions(srv, ChiServerOptions{
		Middlewares: []MiddlewareFunc{func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				next.ServeHTTP(w, r)
			})
		}},
	})

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/video/5", nil))

	if !called {
		t.Error("middleware операции не вызван")
	}
	if srv.op != "StreamVideo" || srv.id != 5 {
		t.Errorf("операция = %q id = %d", srv.op, srv.id)
	}
}
