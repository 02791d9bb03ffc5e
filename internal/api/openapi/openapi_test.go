package openapi

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func loadDoc(t *testing.T) *Document {
	t.Helper()
	doc, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return doc
}

func TestLoad(t *testing.T) {
	doc := loadDoc(t)

	if doc.Version() == "" {
		t.Error("пустая версия API")
	}
	if !bytes.Contains(doc.Raw(), []byte("/video/{id}")) {
		t.Error("документ не содержит /video/{id}")
	}
}

func TestValidateBody_Valid(t *testing.T) {
	doc := loadDoc(t)

	bodies := []string{
		`{"title":"T","fileReference":"ref"}`,
		`{"title":"T","fileReference":"ref","totalSize":87120150,"thumbnailURL":"https://x/t.jpg","description":"d","category":"drama","addedBy":"bot"}`,
		`{"title":"T","fileReference":"ref","totalSize":0}`,
	}
	for _, body := range bodies {
		if err := doc.ValidateBody(SchemaCreateEntryRequest, []byte(body)); err != nil {
			t.Errorf("ValidateBody(%s): %v", body, err)
		}
	}
}

func TestValidateBody_Invalid(t *testing.T) {
	doc := loadDoc(t)

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{name: "не JSON", body: `{title`, wantField: ""},
		{name: "массив", body: `[]`, wantField: ""},
		{name: "нет title", body: `{"fileReference":"ref"}`, wantField: ""},
		{name: "пустой title", body: `{"title":"","fileReference":"ref"}`, wantField: "title"},
		{name: "отрицательный размер", body: `{"title":"T","fileReference":"ref","totalSize":-1}`, wantField: "totalSize"},
		{name: "дробный размер", body: `{"title":"T","fileReference":"ref","totalSize":1.5}`, wantField: "totalSize"},
		{name: "размер строкой", body: `{"title":"T","fileReference":"ref","totalSize":"50MB"}`, wantField: "totalSize"},
		{name: "лишнее поле", body: `{"title":"T","fileReference":"ref","views":100}`, wantField: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := doc.ValidateBody(SchemaCreateEntryRequest, []byte(tt.body))
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("ошибка = %v, ожидалась *ValidationError", err)
			}
			if tt.wantField != "" && ve.Field != tt.wantField {
				t.Errorf("Field = %q, ожидалось %q (%v)", ve.Field, tt.wantField, ve)
			}
		})
	}
}

func TestValidateBody_UnknownSchema(t *testing.T) {
	doc := loadDoc(t)

	err := doc.ValidateBody("Missing", []byte(`{}`))
	if err == nil {
		t.Fatal("ожидалась ошибка для неизвестной схемы")
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		t.Error("неизвестная схема не должна быть ошибкой валидации клиента")
	}
}
