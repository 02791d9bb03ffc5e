// Пакет service — бизнес-логика Mini Movies: потоковая выдача видео через
// Telegram, операции каталога со значениями по умолчанию, мониторинг зависимостей.
package service

import "errors"

// Ошибки сервисного слоя. HTTP-слой сопоставляет их со статусами:
// ErrNotFound → 404, ErrUnsatisfiableRange → 416, ErrInvalidInput → 400,
// ErrResolution и ErrUpstreamFetch → 500.
var (
	// ErrNotFound — запись не найдена, не имеет ссылки на файл,
	// либо резолвер Telegram не настроен.
	ErrNotFound = errors.New("видео не найдено")

	// ErrResolution — не удалось получить временный URL файла у Telegram.
	ErrResolution = errors.New("не удалось получить ссылку на файл")

	// ErrUpstreamFetch — сетевая ошибка или неуспешный статус при скачивании файла.
	ErrUpstreamFetch = errors.New("ошибка скачивания файла из Telegram")

	// ErrUnsatisfiableRange — запрошенный диапазон лежит за пределами файла.
	ErrUnsatisfiableRange = errors.New("диапазон не может быть удовлетворён")

	// ErrInvalidInput — некорректные данные для создания записи.
	ErrInvalidInput = errors.New("некорректные данные")
)
