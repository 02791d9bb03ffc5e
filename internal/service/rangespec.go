// rangespec.go — разбор заголовка Range и выбор стратегии ответа.
//
// Правила:
//   - нет Range → полный ответ (200, Content-Length = размер файла);
//   - bytes=start-end → частичный ответ, end по умолчанию size-1, end за границей
//     файла обрезается до size-1;
//   - bytes=-N → последние N байт (если размер известен);
//   - синтаксически некорректный Range → полный ответ, без ошибки;
//   - start за пределами известного размера → ErrUnsatisfiableRange (416).
package service

import (
	"fmt"
	"strconv"
	"strings"
)

// RangeIntent — результат согласования Range для одного запроса.
type RangeIntent struct {
	// Partial — true для частичного ответа (206)
	Partial bool
	// Start — первый байт диапазона (включительно)
	Start int64
	// End — последний байт диапазона (включительно); -1, если размер неизвестен
	// и конец не указан клиентом
	End int64
	// TotalSize — полный размер файла из каталога (0 — неизвестен)
	TotalSize int64
}

// ChunkSize возвращает размер диапазона в байтах.
// Для полного ответа — размер файла. -1, если размер не определить.
func (ri RangeIntent) ChunkSize() int64 {
	if !ri.Partial {
		return ri.TotalSize
	}
	if ri.End < 0 {
		return -1
	}
	return ri.End - ri.Start + 1
}

// UpstreamRange возвращает значение Range для запроса к origin.
// Пустая строка — запрашивать весь файл.
func (ri RangeIntent) UpstreamRange() string {
	if !ri.Partial {
		return ""
	}
	if ri.End < 0 {
		return fmt.Sprintf("bytes=%d-", ri.Start)
	}
	return fmt.Sprintf("bytes=%d-%d", ri.Start, ri.End)
}

// ContentRange возвращает значение Content-Range для ответа 206.
// Пустая строка, если диапазон нельзя описать (неизвестен конец).
func (ri RangeIntent) ContentRange() string {
	if !ri.Partial || ri.End < 0 {
		return ""
	}
	total := "*"
	if ri.TotalSize > 0 {
		total = strconv.FormatInt(ri.TotalSize, 10)
	}
	return fmt.Sprintf("bytes %d-%d/%s", ri.Start, ri.End, total)
}

// Negotiate разбирает заголовок Range относительно размера файла.
// totalSize = 0 означает «размер неизвестен»: открытый конец диапазона
// тогда передаётся origin как есть (bytes=start-).
// Возвращает ErrUnsatisfiableRange, если start лежит за концом известного файла.
func Negotiate(totalSize int64, rangeHeader string) (RangeIntent, error) {
	full := RangeIntent{TotalSize: totalSize, End: totalSize - 1}

	spec, ok := parseByteRange(rangeHeader)
	if !ok {
		return full, nil
	}

	// Суффиксный диапазон: последние N байт
	if spec.suffix {
		if totalSize <= 0 || spec.end == 0 {
			return full, nil
		}
		start := max(totalSize-spec.end, 0)
		return RangeIntent{Partial: true, Start: start, End: totalSize - 1, TotalSize: totalSize}, nil
	}

	if totalSize <= 0 {
		// Размер неизвестен: доверяем границам клиента, проверит origin
		return RangeIntent{Partial: true, Start: spec.start, End: spec.end, TotalSize: 0}, nil
	}

	if spec.start >= totalSize {
		return full, fmt.Errorf("%w: начало %d за пределами файла размером %d",
			ErrUnsatisfiableRange, spec.start, totalSize)
	}

	end := spec.end
	if end < 0 || end >= totalSize {
		end = totalSize - 1
	}

	return RangeIntent{Partial: true, Start: spec.start, End: end, TotalSize: totalSize}, nil
}

// byteRange — разобранный byte-range-spec.
type byteRange struct {
	start  int64
	end    int64 // -1, если не указан
	suffix bool  // форма bytes=-N, длина суффикса в end
}

// parseByteRange разбирает одиночный диапазон вида bytes=start-end,
// bytes=start- или bytes=-N. Несколько диапазонов через запятую
// не поддерживаются и считаются некорректными.
func parseByteRange(header string) (byteRange, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return byteRange{}, false
	}

	unit, spec, found := strings.Cut(header, "=")
	if !found || !strings.EqualFold(strings.TrimSpace(unit), "bytes") {
		return byteRange{}, false
	}
	spec = strings.TrimSpace(spec)
	if strings.Contains(spec, ",") {
		return byteRange{}, false
	}

	first, last, found := strings.Cut(spec, "-")
	if !found {
		return byteRange{}, false
	}
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)

	if first == "" {
		n, ok := parseNonNegative(last)
		if !ok {
			return byteRange{}, false
		}
		return byteRange{end: n, suffix: true}, true
	}

	start, ok := parseNonNegative(first)
	if !ok {
		return byteRange{}, false
	}

	if last == "" {
		return byteRange{start: start, end: -1}, true
	}

	end, ok := parseNonNegative(last)
	if !ok || end < start {
		return byteRange{}, false
	}
	return byteRange{start: start, end: end}, true
}

// parseNonNegative разбирает неотрицательное десятичное число без знака.
func parseNonNegative(s string) (int64, bool) {
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
