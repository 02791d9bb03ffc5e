// Пакет catalog — потокобезопасное in-memory хранилище записей каталога.
//
// Хранилище не персистентное: при рестарте содержимое теряется
// (кроме записей из seed-файла, который читается при старте).
// Порядок List — порядок вставки.
package catalog

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/bigkaa/minimovies/internal/domain/model"
)

// ErrNotFound — запись с указанным ID отсутствует.
var ErrNotFound = errors.New("запись каталога не найдена")

// Store — потокобезопасное хранилище каталога.
// sync.RWMutex: все мутации (Insert, Delete, IncrementView) эксклюзивны,
// чтения выполняются параллельно.
type Store struct {
	mu      sync.RWMutex
	entries map[int64]*model.Entry // id → запись
	order   []int64                // id в порядке вставки
	lastID  int64
	now     func() time.Time
	logger  *slog.Logger
}

// New создаёт пустое хранилище.
func New(logger *slog.Logger) *Store {
	return &Store{
		entries: make(map[int64]*model.Entry),
		now:     time.Now,
		logger:  logger.With(slog.String("component", "catalog")),
	}
}

// Insert добавляет запись и возвращает присвоенный ID.
// ID берётся из счётчика, инициализированного текущим временем в миллисекундах:
// next = max(now_ms, last+1). Так ID строго возрастают и не повторяются
// даже при вставках в одну миллисекунду.
// Если CreatedAt не задан, он выставляется в текущее время.
func (s *Store) Insert(entry *model.Entry) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := max(now.UnixMilli(), s.lastID+1)
	s.lastID = id

	copied := *entry
	copied.ID = id
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = now.UTC()
	}
	if copied.TotalSize < 0 {
		copied.TotalSize = 0
	}

	s.entries[id] = &copied
	s.order = append(s.order, id)

	s.logger.Debug("Запись добавлена в каталог",
		slog.Int64("id", id),
		slog.String("title", copied.Title),
		slog.String("added_by", copied.AddedBy),
	)

	return id
}

// Delete удаляет запись по ID.
// Возвращает true, если запись была найдена и удалена.
func (s *Store) Delete(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return false
	}
	delete(s.entries, id)

	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Get возвращает копию записи по ID.
func (s *Store) Get(id int64) (*model.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	copied := *entry
	return &copied, true
}

// List возвращает копии всех записей в порядке вставки.
func (s *Store) List() []*model.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.Entry, 0, len(s.order))
	for _, id := range s.order {
		copied := *s.entries[id]
		result = append(result, &copied)
	}
	return result
}

// IncrementView увеличивает счётчик просмотров и возвращает новое значение.
func (s *Store) IncrementView(id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return 0, ErrNotFound
	}
	entry.ViewCount++
	return entry.ViewCount, nil
}

// Count возвращает количество записей.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats возвращает сводку: количество записей, сумму просмотров
// и самую просматриваемую запись (первую из равных).
func (s *Store) Stats() model.Stats {
	entries := s.List()

	stats := model.Stats{
		Entries: len(entries),
		TotalViews: lo.SumBy(entries, func(e *model.Entry) int64 {
			return e.ViewCount
		}),
	}
	if len(entries) > 0 {
		stats.MostViewed = lo.MaxBy(entries, func(a, b *model.Entry) bool {
			return a.ViewCount > b.ViewCount
		})
	}
	return stats
}
