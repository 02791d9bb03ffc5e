// health.go — обработчики health endpoints Mini Movies.
// /health/live — liveness probe (процесс жив)
// /health/ready — readiness probe (каталог + доступность Telegram Bot API)
// /metrics — Prometheus метрики
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/minimovies/internal/config"
	"github.com/bigkaa/minimovies/internal/service"
)

// serviceName — имя сервиса в ответах health.
const serviceName = "minimovies"

// DependencyChecker — состояние зависимостей из мониторинга (DephealthService).
type DependencyChecker interface {
	DependencyHealthy(name string) (healthy, found bool)
}

// EntryCounter — источник количества записей каталога.
type EntryCounter interface {
	Count() int
}

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	deps        DependencyChecker
	catalog     EntryCounter
	promHandler http.Handler
}

// NewHealthHandler создаёт обработчик health endpoints.
// deps — мониторинг Telegram (nil, если бот не настроен — readiness вернёт "degraded").
func NewHealthHandler(deps DependencyChecker, catalog EntryCounter) *HealthHandler {
	return &HealthHandler{
		deps:        deps,
		catalog:     catalog,
		promHandler: promhttp.Handler(),
	}
}

// healthCheckResult — результат проверки одной зависимости.
type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthLiveResponse — ответ liveness probe.
type healthLiveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
}

// healthReadyResponse — ответ readiness probe.
type healthReadyResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
	Checks    struct {
		Catalog  healthCheckResult `json:"catalog"`
		Telegram healthCheckResult `json:"telegram"`
	} `json:"checks"`
}

// HealthLive — liveness probe. Возвращает 200 если процесс жив.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	resp := healthLiveResponse{
		Status:    statusOK,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthReady — readiness probe. Проверяет каталог и Telegram Bot API.
// Возвращает 200 (ok/degraded) или 503 (fail).
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	resp := healthReadyResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	}

	if h.catalog != nil {
		resp.Checks.Catalog = healthCheckResult{
			Status:  statusOK,
			Message: fmt.Sprintf("записей: %d", h.catalog.Count()),
		}
	} else {
		resp.Checks.Catalog = healthCheckResult{Status: statusFail, Message: "не инициализирован"}
	}

	resp.Checks.Telegram = h.telegramStatus()

	resp.Status = overallStatus(resp.Checks.Catalog.Status, resp.Checks.Telegram.Status)

	status := http.StatusOK
	if resp.Status == statusFail {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// telegramStatus — состояние Telegram Bot API по данным мониторинга.
func (h *HealthHandler) telegramStatus() healthCheckResult {
	if h.deps == nil {
		return healthCheckResult{Status: statusDegraded, Message: "токен бота не задан, потоковая выдача недоступна"}
	}

	healthy, found := h.deps.DependencyHealthy(service.TelegramDependency)
	switch {
	case !found:
		return healthCheckResult{Status: statusDegraded, Message: "проверка ещё не выполнялась"}
	case healthy:
		return healthCheckResult{Status: statusOK}
	default:
		return healthCheckResult{Status: statusFail, Message: "Bot API недоступен"}
	}
}

// GetMetrics — Prometheus метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

// Константы статусов health check.
const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusFail     = "fail"
)

// overallStatus определяет итоговый статус из статусов зависимостей.
// Если хотя бы одна зависимость fail — итог fail.
// Если хотя бы одна degraded — итог degraded.
// Иначе — ok.
func overallStatus(statuses ...string) string {
	hasDegraded := false
	for _, s := range statuses {
		if s == statusFail {
			return statusFail
		}
		if s == statusDegraded {
			hasDegraded = true
		}
	}
	if hasDegraded {
		return statusDegraded
	}
	return statusOK
}
