// Пакет openapi — встроенный OpenAPI контракт Mini Movies (kin-openapi).
// Документ отдаётся на /openapi.yaml и используется для валидации тел запросов.
package openapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Имена схем тел запросов.
const (
	SchemaCreateEntryRequest = "CreateEntryRequest"
)

//go:embed openapi.yaml
var specYAML []byte

// ValidationError — тело запроса не соответствует схеме.
type ValidationError struct {
	// Field — путь к полю (через точку), пустой для ошибок всего тела
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("поле %s: %s", e.Field, e.Reason)
}

// Document — загруженный и провалидированный OpenAPI документ.
type Document struct {
	doc *openapi3.T
}

// Load разбирает встроенный документ и проверяет его корректность.
func Load(ctx context.Context) (*Document, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(specYAML)
	if err != nil {
		return nil, fmt.Errorf("разбор OpenAPI документа: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("валидация OpenAPI документа: %w", err)
	}
	return &Document{doc: doc}, nil
}

// Raw возвращает исходный YAML документа.
func (d *Document) Raw() []byte {
	return specYAML
}

// Version возвращает версию API из info.version.
func (d *Document) Version() string {
	return d.doc.Info.Version
}

// ValidateBody проверяет JSON-тело по схеме components.schemas[schemaName].
// Ошибки несоответствия возвращаются как *ValidationError.
func (d *Document) ValidateBody(schemaName string, body []byte) error {
	ref, ok := d.doc.Components.Schemas[schemaName]
	if !ok || ref.Value == nil {
		return fmt.Errorf("схема %q отсутствует в OpenAPI документе", schemaName)
	}

	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return &ValidationError{Reason: "некорректный JSON: " + err.Error()}
	}

	if err := ref.Value.VisitJSON(value); err != nil {
		var schemaErr *openapi3.SchemaError
		if errors.As(err, &schemaErr) {
			return &ValidationError{
				Field:  strings.Join(schemaErr.JSONPointer(), "."),
				Reason: schemaErr.Reason,
			}
		}
		return &ValidationError{Reason: err.Error()}
	}
	return nil
}
