// video.go — обработчик GET /video/{id}: потоковая выдача с поддержкой Range.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/minimovies/internal/api/errors"
	"github.com/bigkaa/minimovies/internal/service"
)

// StreamVideo — реализация GET /video/{id}.
// Ошибки до начала передачи сопоставляются со статусами: 404, 416, 500.
// Причина ошибок Telegram логируется, клиенту отдаётся общее сообщение.
func (h *APIHandler) StreamVideo(w http.ResponseWriter, r *http.Request, id int64) {
	err := h.stream.Stream(r.Context(), w, id, r.Header.Get("Range"))
	if err == nil {
		return
	}

	if service.IsClientError(err) {
		h.logger.Debug("Запрос видео отклонён",
			slog.Int64("id", id),
			slog.String("range", r.Header.Get("Range")),
			slog.String("error", err.Error()),
		)
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, "Видео не найдено")
	case errors.Is(err, service.ErrUnsatisfiableRange):
		// Content-Range: bytes */N выставлен сервисом
		apierrors.InvalidRange(w, "Запрошенный диапазон не может быть удовлетворён")
	case errors.Is(err, service.ErrResolution), errors.Is(err, service.ErrUpstreamFetch):
		h.logger.Error("Ошибка потоковой выдачи",
			slog.Int64("id", id),
			slog.String("range", r.Header.Get("Range")),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Не удалось получить видео")
	default:
		h.logger.Error("Неожиданная ошибка потоковой выдачи",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка")
	}
}
