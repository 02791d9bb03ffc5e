package service

import (
	"errors"
	"strconv"
	"testing"
)

func TestNegotiate(t *testing.T) {
	tests := []struct {
		name        string
		total       int64
		header      string
		wantPartial bool
		wantStart   int64
		wantEnd     int64
		wantChunk   int64
		wantUp      string
		wantCR      string
	}{
		{
			name: "без Range", total: 1000, header: "",
			wantPartial: false, wantStart: 0, wantEnd: 999, wantChunk: 1000,
		},
		{
			name: "полный диапазон", total: 1000, header: "bytes=500-699",
			wantPartial: true, wantStart: 500, wantEnd: 699, wantChunk: 200,
			wantUp: "bytes=500-699", wantCR: "bytes 500-699/1000",
		},
		{
			name: "открытый конец", total: 1000, header: "bytes=100-",
			wantPartial: true, wantStart: 100, wantEnd: 999, wantChunk: 900,
			wantUp: "bytes=100-999", wantCR: "bytes 100-999/1000",
		},
		{
			name: "первый байт", total: 1000, header: "bytes=0-0",
			wantPartial: true, wantStart: 0, wantEnd: 0, wantChunk: 1,
			wantUp: "bytes=0-0", wantCR: "bytes 0-0/1000",
		},
		{
			name: "конец за границей файла обрезается", total: 1000, header: "bytes=900-5000",
			wantPartial: true, wantStart: 900, wantEnd: 999, wantChunk: 100,
			wantUp: "bytes=900-999", wantCR: "bytes 900-999/1000",
		},
		{
			name: "суффикс", total: 1000, header: "bytes=-300",
			wantPartial: true, wantStart: 700, wantEnd: 999, wantChunk: 300,
			wantUp: "bytes=700-999", wantCR: "bytes 700-999/1000",
		},
		{
			name: "суффикс больше файла", total: 1000, header: "bytes=-5000",
			wantPartial: true, wantStart: 0, wantEnd: 999, wantChunk: 1000,
			wantUp: "bytes=0-999", wantCR: "bytes 0-999/1000",
		},
		{
			name: "пробелы и регистр", total: 1000, header: " Bytes = 10 - 19 ",
			wantPartial: true, wantStart: 10, wantEnd: 19, wantChunk: 10,
			wantUp: "bytes=10-19", wantCR: "bytes 10-19/1000",
		},
		{
			name: "неизвестный размер, открытый конец", total: 0, header: "bytes=100-",
			wantPartial: true, wantStart: 100, wantEnd: -1, wantChunk: -1,
			wantUp: "bytes=100-", wantCR: "",
		},
		{
			name: "неизвестный размер, закрытый диапазон", total: 0, header: "bytes=0-99",
			wantPartial: true, wantStart: 0, wantEnd: 99, wantChunk: 100,
			wantUp: "bytes=0-99", wantCR: "bytes 0-99/*",
		},
		// Некорректный синтаксис → полный ответ
		{name: "другая единица", total: 1000, header: "items=0-10", wantEnd: 999, wantChunk: 1000},
		{name: "без дефиса", total: 1000, header: "bytes=100", wantEnd: 999, wantChunk: 1000},
		{name: "не число", total: 1000, header: "bytes=abc-def", wantEnd: 999, wantChunk: 1000},
		{name: "start > end", total: 1000, header: "bytes=500-100", wantEnd: 999, wantChunk: 1000},
		{name: "несколько диапазонов", total: 1000, header: "bytes=0-10,20-30", wantEnd: 999, wantChunk: 1000},
		{name: "знак плюс", total: 1000, header: "bytes=+5-10", wantEnd: 999, wantChunk: 1000},
		{name: "пустой суффикс", total: 1000, header: "bytes=-", wantEnd: 999, wantChunk: 1000},
		{name: "нулевой суффикс", total: 1000, header: "bytes=-0", wantEnd: 999, wantChunk: 1000},
		{name: "суффикс без размера", total: 0, header: "bytes=-100", wantEnd: -1, wantChunk: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Negotiate(tt.total, tt.header)
			if err != nil {
				t.Fatalf("Negotiate(%d, %q) ошибка: %v", tt.total, tt.header, err)
			}
			if got.Partial != tt.wantPartial {
				t.Errorf("Partial = %v, ожидалось %v", got.Partial, tt.wantPartial)
			}
			if got.Start != tt.wantStart || got.End != tt.wantEnd {
				t.Errorf("диапазон = [%d, %d], ожидался [%d, %d]", got.Start, got.End, tt.wantStart, tt.wantEnd)
			}
			if got.ChunkSize() != tt.wantChunk {
				t.Errorf("ChunkSize = %d, ожидался %d", got.ChunkSize(), tt.wantChunk)
			}
			if got.UpstreamRange() != tt.wantUp {
				t.Errorf("UpstreamRange = %q, ожидался %q", got.UpstreamRange(), tt.wantUp)
			}
			if got.ContentRange() != tt.wantCR {
				t.Errorf("ContentRange = %q, ожидался %q", got.ContentRange(), tt.wantCR)
			}
		})
	}
}

func TestNegotiate_Unsatisfiable(t *testing.T) {
	for _, header := range []string{"bytes=1000-", "bytes=1000-1500", "bytes=5000-6000"} {
		_, err := Negotiate(1000, header)
		if !errors.Is(err, ErrUnsatisfiableRange) {
			t.Errorf("Negotiate(1000, %q) ошибка = %v, ожидалась ErrUnsatisfiableRange", header, err)
		}
	}
}

// TestNegotiate_AllValidRanges проверяет размер чанка для всех корректных диапазонов
// небольшого файла.
func TestNegotiate_AllValidRanges(t *testing.T) {
	const total = 17
	for start := int64(0); start < total; start++ {
		for end := start; end < total; end++ {
			header := "bytes=" + itoa(start) + "-" + itoa(end)
			got, err := Negotiate(total, header)
			if err != nil {
				t.Fatalf("Negotiate(%q): %v", header, err)
			}
			if !got.Partial || got.ChunkSize() != end-start+1 {
				t.Fatalf("Negotiate(%q) = %+v, ожидался чанк %d", header, got, end-start+1)
			}
			wantCR := "bytes " + itoa(start) + "-" + itoa(end) + "/17"
			if got.ContentRange() != wantCR {
				t.Fatalf("ContentRange = %q, ожидался %q", got.ContentRange(), wantCR)
			}
		}
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
