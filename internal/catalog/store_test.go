package catalog

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bigkaa/minimovies/internal/domain/model"
)

// testLogger возвращает логгер для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// fixedClock возвращает функцию времени, всегда возвращающую t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// TestInsertGet_RoundTrip проверяет, что вставленная запись читается без изменений.
func TestInsertGet_RoundTrip(t *testing.T) {
	store := New(testLogger())

	id := store.Insert(&model.Entry{
		Title:         "T",
		FileReference: "ref1",
		TotalSize:     1000,
	})

	got, ok := store.Get(id)
	if !ok {
		t.Fatal("запись не найдена после Insert")
	}
	if got.ID != id {
		t.Errorf("ID = %d, ожидался %d", got.ID, id)
	}
	if got.Title != "T" || got.FileReference != "ref1" || got.TotalSize != 1000 {
		t.Errorf("запись = %+v, ожидались Title=T FileReference=ref1 TotalSize=1000", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt не выставлен")
	}

	list := store.List()
	if len(list) != 1 || list[0].FileReference != "ref1" {
		t.Errorf("List() = %+v, ожидалась одна запись ref1", list)
	}
}

// TestInsert_IDsUnique проверяет уникальность ID при вставках в одну миллисекунду.
func TestInsert_IDsUnique(t *testing.T) {
	store := New(testLogger())
	now := time.UnixMilli(1_700_000_000_000)
	store.now = fixedClock(now)

	seen := make(map[int64]bool)
	var prev int64
	for i := 0; i < 100; i++ {
		id := store.Insert(&model.Entry{Title: "x"})
		if seen[id] {
			t.Fatalf("повторный ID %d", id)
		}
		if id <= prev {
			t.Fatalf("ID %d не больше предыдущего %d", id, prev)
		}
		seen[id] = true
		prev = id
	}

	if first := store.List()[0].ID; first != now.UnixMilli() {
		t.Errorf("первый ID = %d, ожидался %d", first, now.UnixMilli())
	}
}

// TestInsert_NegativeSizeClamped проверяет инвариант TotalSize >= 0.
func TestInsert_NegativeSizeClamped(t *testing.T) {
	store := New(testLogger())
	id := store.Insert(&model.Entry{Title: "neg", TotalSize: -5})

	got, _ := store.Get(id)
	if got.TotalSize != 0 {
		t.Errorf("TotalSize = %d, ожидался 0", got.TotalSize)
	}
}

// TestGet_ReturnsCopy проверяет, что изменение результата Get не влияет на хранилище.
func TestGet_ReturnsCopy(t *testing.T) {
	store := New(testLogger())
	id := store.Insert(&model.Entry{Title: "orig"})

	got, _ := store.Get(id)
	got.Title = "changed"

	again, _ := store.Get(id)
	if again.Title != "orig" {
		t.Errorf("Title = %q, ожидался orig", again.Title)
	}
}

// TestList_InsertionOrder проверяет порядок List после удаления из середины.
func TestList_InsertionOrder(t *testing.T) {
	store := New(testLogger())
	a := store.Insert(&model.Entry{Title: "a"})
	b := store.Insert(&model.Entry{Title: "b"})
	c := store.Insert(&model.Entry{Title: "c"})

	if !store.Delete(b) {
		t.Fatal("Delete(b) вернул false")
	}

	list := store.List()
	if len(list) != 2 {
		t.Fatalf("len(List) = %d, ожидалось 2", len(list))
	}
	if list[0].ID != a || list[1].ID != c {
		t.Errorf("порядок = [%d %d], ожидался [%d %d]", list[0].ID, list[1].ID, a, c)
	}
}

// TestDelete_Missing проверяет, что удаление несуществующей записи не меняет хранилище.
func TestDelete_Missing(t *testing.T) {
	store := New(testLogger())
	store.Insert(&model.Entry{Title: "a"})

	if store.Delete(42) {
		t.Error("Delete несуществующего ID вернул true")
	}
	if store.Count() != 1 {
		t.Errorf("Count = %d, ожидался 1", store.Count())
	}
}

// TestIncrementView_NotFound проверяет ErrNotFound для неизвестного ID.
func TestIncrementView_NotFound(t *testing.T) {
	store := New(testLogger())

	_, err := store.IncrementView(7)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ошибка = %v, ожидалась ErrNotFound", err)
	}
}

// TestIncrementView_Concurrent проверяет отсутствие потерянных инкрементов.
func TestIncrementView_Concurrent(t *testing.T) {
	store := New(testLogger())
	id := store.Insert(&model.Entry{Title: "popular", ViewCount: 10})

	const n = 500
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := store.IncrementView(id); err != nil {
				t.Errorf("IncrementView: %v", err)
			}
			// Параллельные чтения не должны мешать записи
			_ = store.List()
		}()
	}
	wg.Wait()

	got, _ := store.Get(id)
	if got.ViewCount != 10+n {
		t.Errorf("ViewCount = %d, ожидался %d", got.ViewCount, 10+n)
	}
}

// TestStats проверяет сводную статистику.
func TestStats(t *testing.T) {
	store := New(testLogger())

	empty := store.Stats()
	if empty.Entries != 0 || empty.TotalViews != 0 || empty.MostViewed != nil {
		t.Errorf("Stats пустого каталога = %+v", empty)
	}

	store.Insert(&model.Entry{Title: "a", ViewCount: 150})
	store.Insert(&model.Entry{Title: "b", ViewCount: 89})
	store.Insert(&model.Entry{Title: "c", ViewCount: 150})

	stats := store.Stats()
	if stats.Entries != 3 {
		t.Errorf("Entries = %d, ожидалось 3", stats.Entries)
	}
	if stats.TotalViews != 389 {
		t.Errorf("TotalViews = %d, ожидалось 389", stats.TotalViews)
	}
	if stats.MostViewed == nil || stats.MostViewed.Title != "a" {
		t.Errorf("MostViewed = %+v, ожидалась запись a (первая из равных)", stats.MostViewed)
	}
}

// TestLoadSeed проверяет загрузку YAML seed-файла.
func TestLoadSeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	content := `entries:
  - title: Private Video Demo 1
    file_reference: BAAC-demo-1
    total_size: 50000000
    view_count: 150
    category: movie
  - title: Private Video Demo 2
    file_reference: BAAC-demo-2
    total_size: 25000000
    added_by: editor
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("запись seed-файла: %v", err)
	}

	store := New(testLogger())
	n, err := store.LoadSeed(path)
	if err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}
	if n != 2 {
		t.Fatalf("загружено %d записей, ожидалось 2", n)
	}

	list := store.List()
	if list[0].FileReference != "BAAC-demo-1" || list[0].TotalSize != 50000000 || list[0].ViewCount != 150 {
		t.Errorf("первая запись = %+v", list[0])
	}
	if list[0].AddedBy != model.AddedBySystem {
		t.Errorf("AddedBy = %q, ожидался System", list[0].AddedBy)
	}
	if list[1].AddedBy != "editor" {
		t.Errorf("AddedBy = %q, ожидался editor", list[1].AddedBy)
	}
	if list[1].Category != model.DefaultCategory {
		t.Errorf("Category = %q, ожидалась %q", list[1].Category, model.DefaultCategory)
	}
}

// TestLoadSeed_Invalid проверяет ошибки seed-файла.
func TestLoadSeed_Invalid(t *testing.T) {
	store := New(testLogger())

	if _, err := store.LoadSeed(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("ожидалась ошибка для отсутствующего файла")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("entries:\n  - file_reference: x\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := store.LoadSeed(path); err == nil {
		t.Error("ожидалась ошибка для записи без title")
	}
}
