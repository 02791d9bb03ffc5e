// Пакет model — доменные модели каталога Mini Movies.
// Entry — запись каталога: метаданные одного видео без его содержимого.
package model

import "time"

// Значения AddedBy для записей, созданных не администратором в чате.
const (
	AddedBySystem = "System"
	AddedByAPI    = "API"
)

// DefaultCategory — категория записи, если она не указана при создании.
const DefaultCategory = "movie"

// DefaultThumbnailURL — превью по умолчанию для записей из HTTP API.
const DefaultThumbnailURL = "/assets/default-thumb.jpg"

// Entry — запись каталога.
// Байты видео хранятся на стороне Telegram, здесь только ссылка на файл.
type Entry struct {
	// ID — уникальный идентификатор записи в пределах жизни процесса
	ID int64 `json:"id" yaml:"id"`
	// Title — заголовок видео
	Title string `json:"title" yaml:"title"`
	// FileReference — Telegram file_id. Даёт доступ к файлу, наружу не отдаётся
	FileReference string `json:"fileReference" yaml:"file_reference"`
	// TotalSize — размер файла в байтах (нужен для Content-Range и Content-Length)
	TotalSize int64 `json:"totalSize" yaml:"total_size"`
	// ThumbnailURL — URL превью
	ThumbnailURL string `json:"thumbnailURL" yaml:"thumbnail_url"`
	// Description — описание
	Description string `json:"description" yaml:"description"`
	// Category — категория (movie, drama, ...)
	Category string `json:"category" yaml:"category"`
	// ViewCount — счётчик просмотров, только растёт
	ViewCount int64 `json:"viewCount" yaml:"view_count"`
	// CreatedAt — время создания записи
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
	// AddedBy — кто добавил: System, API или chat id администратора
	AddedBy string `json:"addedBy" yaml:"added_by"`
}

// Streamable возвращает true, если у записи есть ссылка на файл.
func (e *Entry) Streamable() bool {
	return e.FileReference != ""
}

// PublicEntry — представление записи для публичного списка.
// Без FileReference и TotalSize, с URL потокового endpoint.
type PublicEntry struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	ThumbnailURL string    `json:"thumbnailURL"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	ViewCount    int64     `json:"viewCount"`
	CreatedAt    time.Time `json:"createdAt"`
	AddedBy      string    `json:"addedBy"`
	StreamURL    string    `json:"streamURL"`
}

// Public строит публичное представление записи.
// streamURL — полный URL endpoint /video/{id}.
func (e *Entry) Public(streamURL string) PublicEntry {
	return PublicEntry{
		ID:           e.ID,
		Title:        e.Title,
		ThumbnailURL: e.ThumbnailURL,
		Description:  e.Description,
		Category:     e.Category,
		ViewCount:    e.ViewCount,
		CreatedAt:    e.CreatedAt,
		AddedBy:      e.AddedBy,
		StreamURL:    streamURL,
	}
}

// Stats — сводная статистика каталога.
type Stats struct {
	// Entries — количество записей
	Entries int
	// TotalViews — сумма просмотров по всем записям
	TotalViews int64
	// MostViewed — самая просматриваемая запись (nil для пустого каталога)
	MostViewed *Entry
}
