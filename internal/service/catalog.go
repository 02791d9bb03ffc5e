package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"

	"github.com/bigkaa/minimovies/internal/catalog"
	"github.com/bigkaa/minimovies/internal/domain/model"
)

var (
	catalogEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mm_catalog_entries",
		Help: "Текущее количество записей каталога.",
	})

	catalogViewsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mm_catalog_views_total",
		Help: "Общее количество зарегистрированных просмотров.",
	})
)

// CreateInput — данные для создания записи каталога.
type CreateInput struct {
	Title         string
	FileReference string
	TotalSize     int64
	ThumbnailURL  string
	Description   string
	Category      string
	AddedBy       string
}

// CatalogService — операции каталога поверх catalog.Store:
// значения по умолчанию, валидация, публичная проекция, статистика.
type CatalogService struct {
	store  *catalog.Store
	logger *slog.Logger
}

// NewCatalogService создаёт сервис каталога.
func NewCatalogService(store *catalog.Store, logger *slog.Logger) *CatalogService {
	catalogEntries.Set(float64(store.Count()))
	return &CatalogService{
		store:  store,
		logger: logger.With(slog.String("component", "catalog_service")),
	}
}

// Create валидирует вход, подставляет значения по умолчанию и добавляет запись.
// Title и FileReference обязательны, TotalSize не может быть отрицательным.
func (cs *CatalogService) Create(input CreateInput) (*model.Entry, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title обязателен", ErrInvalidInput)
	}
	ref := strings.TrimSpace(input.FileReference)
	if ref == "" {
		return nil, fmt.Errorf("%w: fileReference обязателен", ErrInvalidInput)
	}
	if input.TotalSize < 0 {
		return nil, fmt.Errorf("%w: totalSize не может быть отрицательным", ErrInvalidInput)
	}

	entry := &model.Entry{
		Title:         title,
		FileReference: ref,
		TotalSize:     input.TotalSize,
		ThumbnailURL:  lo.CoalesceOrEmpty(strings.TrimSpace(input.ThumbnailURL), model.DefaultThumbnailURL),
		Description:   input.Description,
		Category:      lo.CoalesceOrEmpty(strings.TrimSpace(input.Category), model.DefaultCategory),
		AddedBy:       lo.CoalesceOrEmpty(strings.TrimSpace(input.AddedBy), model.AddedByAPI),
	}

	id := cs.store.Insert(entry)
	catalogEntries.Set(float64(cs.store.Count()))

	created, _ := cs.store.Get(id)

	cs.logger.Info("Запись добавлена",
		slog.Int64("id", id),
		slog.String("title", created.Title),
		slog.Int64("total_size", created.TotalSize),
		slog.String("added_by", created.AddedBy),
	)

	return created, nil
}

// Get возвращает запись по ID.
func (cs *CatalogService) Get(id int64) (*model.Entry, bool) {
	return cs.store.Get(id)
}

// List возвращает все записи в порядке добавления.
func (cs *CatalogService) List() []*model.Entry {
	return cs.store.List()
}

// ListPublic возвращает публичное представление каталога.
// baseURL — префикс для streamURL (без завершающего "/").
func (cs *CatalogService) ListPublic(baseURL string) []model.PublicEntry {
	baseURL = strings.TrimRight(baseURL, "/")
	return lo.Map(cs.store.List(), func(e *model.Entry, _ int) model.PublicEntry {
		return e.Public(StreamURL(baseURL, e.ID))
	})
}

// Delete удаляет запись. Удаление отсутствующей записи — не ошибка.
// Возвращает true, если запись существовала.
func (cs *CatalogService) Delete(id int64) bool {
	removed := cs.store.Delete(id)
	if removed {
		catalogEntries.Set(float64(cs.store.Count()))
		cs.logger.Info("Запись удалена", slog.Int64("id", id))
	}
	return removed
}

// RegisterView увеличивает счётчик просмотров записи.
func (cs *CatalogService) RegisterView(id int64) (int64, error) {
	views, err := cs.store.IncrementView(id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	catalogViewsTotal.Inc()
	return views, nil
}

// Stats возвращает сводную статистику каталога.
func (cs *CatalogService) Stats() model.Stats {
	return cs.store.Stats()
}

// Count возвращает количество записей.
func (cs *CatalogService) Count() int {
	return cs.store.Count()
}

// StreamURL формирует URL потокового endpoint записи.
func StreamURL(baseURL string, id int64) string {
	return strings.TrimRight(baseURL, "/") + "/video/" + strconv.FormatInt(id, 10)
}
