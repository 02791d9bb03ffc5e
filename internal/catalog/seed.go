package catalog

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bigkaa/minimovies/internal/domain/model"
)

// seedFile — формат seed-файла каталога.
//
//	entries:
//	  - title: Private Video Demo 1
//	    file_reference: BAACAgIAAxkDAAI...
//	    total_size: 50000000
//	    category: movie
type seedFile struct {
	Entries []model.Entry `yaml:"entries"`
}

// LoadSeed читает YAML seed-файл и добавляет записи в хранилище.
// ID из файла игнорируются, назначаются заново. Возвращает количество добавленных записей.
func (s *Store) LoadSeed(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("чтение seed-файла %s: %w", path, err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("разбор seed-файла %s: %w", path, err)
	}

	for i := range seed.Entries {
		entry := seed.Entries[i]
		if entry.Title == "" {
			return i, fmt.Errorf("seed-файл %s: запись #%d без title", path, i+1)
		}
		if entry.TotalSize < 0 {
			return i, fmt.Errorf("seed-файл %s: запись #%d: отрицательный total_size", path, i+1)
		}
		if entry.AddedBy == "" {
			entry.AddedBy = model.AddedBySystem
		}
		if entry.Category == "" {
			entry.Category = model.DefaultCategory
		}
		s.Insert(&entry)
	}

	s.logger.Info("Seed каталога загружен",
		slog.String("path", path),
		slog.Int("entries", len(seed.Entries)),
	)
	return len(seed.Entries), nil
}
