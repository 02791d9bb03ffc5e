// handler.go — основной обработчик API, реализующий routes.ServerInterface.
// Объединяет health, потоковую выдачу и операции каталога.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bigkaa/minimovies/internal/api/openapi"
	"github.com/bigkaa/minimovies/internal/service"
)

// APIHandler — основной обработчик API Mini Movies.
// Реализует routes.ServerInterface, делегируя запросы в сервисный слой.
type APIHandler struct {
	health        *HealthHandler
	stream        *service.StreamService
	catalog       *service.CatalogService
	spec          *openapi.Document
	publicBaseURL string
	logger        *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
// publicBaseURL — префикс streamURL в публичном списке; пустой — вычисляется из запроса.
func NewAPIHandler(
	health *HealthHandler,
	stream *service.StreamService,
	catalog *service.CatalogService,
	spec *openapi.Document,
	publicBaseURL string,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:        health,
		stream:        stream,
		catalog:       catalog,
		spec:          spec,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger.With(slog.String("component", "api_handler")),
	}
}

// --- Health endpoints (делегируются в HealthHandler) ---

// HealthLive — liveness probe.
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe.
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики.
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// GetOpenAPISpec — OpenAPI контракт.
func (h *APIHandler) GetOpenAPISpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.spec.Raw())
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// baseURL возвращает публичный адрес сервиса: из конфигурации или из запроса
// (X-Forwarded-Proto/X-Forwarded-Host учитываются за reverse proxy).
func (h *APIHandler) baseURL(r *http.Request) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme, _, _ = strings.Cut(proto, ",")
		scheme = strings.TrimSpace(scheme)
	}

	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host, _, _ = strings.Cut(fwd, ",")
		host = strings.TrimSpace(host)
	}

	return scheme + "://" + host
}
