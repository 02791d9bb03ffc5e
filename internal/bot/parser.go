package bot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Поля формы добавления видео.
const (
	FieldTitle    = "Title"
	FieldFileID   = "File ID"
	FieldSize     = "Size"
	FieldThumb    = "Thumb"
	FieldCategory = "Category"
	FieldDesc     = "Desc"
)

// formFields — однострочные поля формы. Desc обрабатывается отдельно:
// занимает всё до конца сообщения.
var formFields = []string{FieldTitle, FieldFileID, FieldSize, FieldThumb, FieldCategory}

// AddForm — разобранная форма добавления видео.
type AddForm struct {
	Title       string
	FileID      string
	Size        int64
	Thumb       string
	Category    string
	Description string
}

// ParseError — ошибка разбора формы или размера.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// IsAddForm возвращает true, если сообщение похоже на форму добавления
// (первая непустая строка начинается с "Title:").
func IsAddForm(text string) bool {
	first, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	_, ok := cutField(first, FieldTitle)
	return ok
}

// ParseAddForm разбирает форму добавления видео:
//
//	Title: <text>
//	File ID: <text>
//	Size: <number>[MB|KB|GB|bytes]
//	Thumb: <url>        (необязательно)
//	Category: <text>    (необязательно)
//	Desc: <text...>     (необязательно, до конца сообщения)
//
// Имена полей регистронезависимы, порядок однострочных полей произвольный.
func ParseAddForm(text string) (AddForm, error) {
	var form AddForm
	seen := make(map[string]bool, len(formFields))

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if value, ok := cutField(line, FieldDesc); ok {
			rest := append([]string{value}, lines[i+1:]...)
			form.Description = strings.TrimSpace(strings.Join(rest, "\n"))
			break
		}

		field, value, ok := matchField(line)
		if !ok {
			return AddForm{}, &ParseError{Reason: fmt.Sprintf("строка %d: неизвестное поле %q", i+1, line)}
		}
		if seen[field] {
			return AddForm{}, &ParseError{Field: field, Reason: "поле указано повторно"}
		}
		seen[field] = true

		switch field {
		case FieldTitle:
			form.Title = value
		case FieldFileID:
			form.FileID = value
		case FieldSize:
			size, err := ParseSize(value)
			if err != nil {
				return AddForm{}, err
			}
			form.Size = size
		case FieldThumb:
			form.Thumb = value
		case FieldCategory:
			form.Category = value
		}
	}

	for _, required := range []string{FieldTitle, FieldFileID, FieldSize} {
		if !seen[required] {
			return AddForm{}, &ParseError{Field: required, Reason: "обязательное поле отсутствует"}
		}
	}
	if form.Title == "" {
		return AddForm{}, &ParseError{Field: FieldTitle, Reason: "пустое значение"}
	}
	if form.FileID == "" {
		return AddForm{}, &ParseError{Field: FieldFileID, Reason: "пустое значение"}
	}

	return form, nil
}

// matchField ищет однострочное поле формы в начале строки.
func matchField(line string) (field, value string, ok bool) {
	for _, f := range formFields {
		if v, ok := cutField(line, f); ok {
			return f, v, true
		}
	}
	return "", "", false
}

// cutField отрезает префикс "<field>:" (без учёта регистра) и возвращает значение.
func cutField(line, field string) (string, bool) {
	prefix := field + ":"
	if len(line) < len(prefix) || !strings.EqualFold(line[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(line[len(prefix):]), true
}

// Единицы размера и множители.
var sizeUnits = []struct {
	suffix     string
	multiplier float64
}{
	{"bytes", 1},
	{"gb", 1024 * 1024 * 1024},
	{"mb", 1024 * 1024},
	{"kb", 1024},
}

// ParseSize переводит размер в байты.
// "50MB" → 52428800 (round(v*1024*1024)), "87120150" → 87120150, "200bytes" → 200.
// Поддерживаются KB, MB, GB (дробные значения), bytes и число без единицы.
func ParseSize(input string) (int64, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return 0, &ParseError{Field: FieldSize, Reason: "пустое значение"}
	}

	for _, unit := range sizeUnits {
		number, ok := strings.CutSuffix(s, unit.suffix)
		if !ok {
			continue
		}
		number = strings.TrimSpace(number)

		if unit.multiplier == 1 {
			return parseByteCount(number, input)
		}

		v, err := strconv.ParseFloat(number, 64)
		if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, &ParseError{Field: FieldSize, Reason: fmt.Sprintf("некорректное число %q", input)}
		}
		bytes := math.Round(v * unit.multiplier)
		// float64(math.MaxInt64) == 2^63, само значение уже не помещается в int64
		if bytes >= math.MaxInt64 {
			return 0, &ParseError{Field: FieldSize, Reason: fmt.Sprintf("слишком большой размер %q", input)}
		}
		return int64(bytes), nil
	}

	return parseByteCount(s, input)
}

func parseByteCount(number, input string) (int64, error) {
	n, err := strconv.ParseInt(number, 10, 64)
	if err != nil || n < 0 {
		return 0, &ParseError{Field: FieldSize, Reason: fmt.Sprintf("некорректный размер %q (ожидается, например, 50MB или 87120150)", input)}
	}
	return n, nil
}

// FormatMB форматирует размер в мегабайтах с двумя знаками после запятой.
func FormatMB(size int64) string {
	return strconv.FormatFloat(float64(size)/1024/1024, 'f', 2, 64)
}
