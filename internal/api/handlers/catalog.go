// catalog.go — обработчики каталога:
// GET /catalog, POST /catalog, DELETE /catalog/{id}, POST /catalog/{id}/view.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/minimovies/internal/api/errors"
	"github.com/bigkaa/minimovies/internal/api/openapi"
	"github.com/bigkaa/minimovies/internal/domain/model"
	"github.com/bigkaa/minimovies/internal/service"
)

// maxCreateBodySize — максимальный размер тела POST /catalog.
const maxCreateBodySize = 1 << 20

// createEntryRequest — тело POST /catalog (схема CreateEntryRequest).
type createEntryRequest struct {
	Title         string `json:"title"`
	FileReference string `json:"fileReference"`
	TotalSize     int64  `json:"totalSize"`
	ThumbnailURL  string `json:"thumbnailURL"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	AddedBy       string `json:"addedBy"`
}

type catalogListResponse struct {
	Entries []model.PublicEntry `json:"entries"`
}

type createEntryResponse struct {
	Success bool         `json:"success"`
	Entry   *model.Entry `json:"entry"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type viewResponse struct {
	Success bool  `json:"success"`
	Views   int64 `json:"views"`
}

// ListCatalog — реализация GET /catalog.
// Ссылки на файлы и размеры в ответ не попадают.
func (h *APIHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalogListResponse{
		Entries: h.catalog.ListPublic(h.baseURL(r)),
	})
}

// CreateCatalogEntry — реализация POST /catalog.
// Тело валидируется по OpenAPI схеме, затем сервисом (значения по умолчанию).
func (h *APIHandler) CreateCatalogEntry(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCreateBodySize))
	if err != nil {
		apierrors.ValidationError(w, "Не удалось прочитать тело запроса")
		return
	}

	if err := h.spec.ValidateBody(openapi.SchemaCreateEntryRequest, body); err != nil {
		var ve *openapi.ValidationError
		if errors.As(err, &ve) {
			apierrors.ValidationError(w, ve.Error())
			return
		}
		h.logger.Error("Ошибка валидации по OpenAPI схеме", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка")
		return
	}

	var req createEntryRequest
	if err := json.Unmarshal(body, &req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON")
		return
	}

	entry, err := h.catalog.Create(service.CreateInput{
		Title:         req.Title,
		FileReference: req.FileReference,
		TotalSize:     req.TotalSize,
		ThumbnailURL:  req.ThumbnailURL,
		Description:   req.Description,
		Category:      req.Category,
		AddedBy:       req.AddedBy,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			apierrors.ValidationError(w, err.Error())
			return
		}
		h.logger.Error("Ошибка добавления записи", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка")
		return
	}

	writeJSON(w, http.StatusCreated, createEntryResponse{Success: true, Entry: entry})
}

// DeleteCatalogEntry — реализация DELETE /catalog/{id}.
// Идемпотентно: отсутствующая запись — тоже успех.
func (h *APIHandler) DeleteCatalogEntry(w http.ResponseWriter, _ *http.Request, id int64) {
	h.catalog.Delete(id)
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// RegisterView — реализация POST /catalog/{id}/view.
func (h *APIHandler) RegisterView(w http.ResponseWriter, _ *http.Request, id int64) {
	views, err := h.catalog.RegisterView(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Видео не найдено")
			return
		}
		h.logger.Error("Ошибка регистрации просмотра",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка")
		return
	}

	writeJSON(w, http.StatusOK, viewResponse{Success: true, Views: views})
}
