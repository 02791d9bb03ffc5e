// Пакет routes — контракт HTTP API Mini Movies (api/openapi.yaml) для chi:
// ServerInterface, обёртки с биндингом path-параметров через oapi-codegen
// runtime и регистрация маршрутов (HandlerFromMux).
// Структура повторяет вывод oapi-codegen chi-server; при изменении контракта
// openapi.yaml и этот файл обновляются вместе.
package routes

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// EntryId — идентификатор записи каталога (path-параметр {id}).
type EntryId = int64 //nolint:revive // имя как в openapi.yaml

// ServerInterface — обработчики всех операций API.
type ServerInterface interface {
	// GET /health/live
	HealthLive(w http.ResponseWriter, r *http.Request)
	// GET /health/ready
	HealthReady(w http.ResponseWriter, r *http.Request)
	// GET /metrics
	GetMetrics(w http.ResponseWriter, r *http.Request)
	// GET /openapi.yaml
	GetOpenAPISpec(w http.ResponseWriter, r *http.Request)
	// GET /video/{id}
	StreamVideo(w http.ResponseWriter, r *http.Request, id EntryId)
	// GET /catalog
	ListCatalog(w http.ResponseWriter, r *http.Request)
	// POST /catalog
	CreateCatalogEntry(w http.ResponseWriter, r *http.Request)
	// DELETE /catalog/{id}
	DeleteCatalogEntry(w http.ResponseWriter, r *http.Request, id EntryId)
	// POST /catalog/{id}/view
	RegisterView(w http.ResponseWriter, r *http.Request, id EntryId)
}

// MiddlewareFunc — middleware отдельной операции.
type MiddlewareFunc func(http.Handler) http.Handler

// ServerInterfaceWrapper переводит http.HandlerFunc в вызовы ServerInterface.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

// InvalidParamFormatError — path-параметр не соответствует схеме.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("некорректный формат параметра %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// bindEntryID извлекает и валидирует {id}.
func bindEntryID(r *http.Request) (EntryId, error) {
	var id EntryId
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return 0, &InvalidParamFormatError{ParamName: "id", Err: err}
	}
	return id, nil
}

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, fn http.HandlerFunc) {
	handler := http.Handler(fn)
	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}
	handler.ServeHTTP(w, r)
}

// HealthLive operation middleware
func (siw *ServerInterfaceWrapper) HealthLive(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.HealthLive)
}

// HealthReady operation middleware
func (siw *ServerInterfaceWrapper) HealthReady(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.HealthReady)
}

// GetMetrics operation middleware
func (siw *ServerInterfaceWrapper) GetMetrics(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.GetMetrics)
}

// GetOpenAPISpec operation middleware
func (siw *ServerInterfaceWrapper) GetOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.GetOpenAPISpec)
}

// StreamVideo operation middleware
func (siw *ServerInterfaceWrapper) StreamVideo(w http.ResponseWriter, r *http.Request) {
	id, err := bindEntryID(r)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, err)
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.StreamVideo(w, r, id)
	})
}

// ListCatalog operation middleware
func (siw *ServerInterfaceWrapper) ListCatalog(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.ListCatalog)
}

// CreateCatalogEntry operation middleware
func (siw *ServerInterfaceWrapper) CreateCatalogEntry(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.CreateCatalogEntry)
}

// DeleteCatalogEntry operation middleware
func (siw *ServerInterfaceWrapper) DeleteCatalogEntry(w http.ResponseWriter, r *http.Request) {
	id, err := bindEntryID(r)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, err)
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.DeleteCatalogEntry(w, r, id)
	})
}

// RegisterView operation middleware
func (siw *ServerInterfaceWrapper) RegisterView(w http.ResponseWriter, r *http.Request) {
	id, err := bindEntryID(r)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, err)
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.RegisterView(w, r, id)
	})
}

// ChiServerOptions — параметры регистрации маршрутов.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerFromMux регистрирует маршруты API на существующем chi.Router.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{BaseRouter: r})
}

// HandlerWithOptions регистрирует маршруты API с дополнительными параметрами.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}

	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/health/live", wrapper.HealthLive)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/health/ready", wrapper.HealthReady)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/metrics", wrapper.GetMetrics)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/openapi.yaml", wrapper.GetOpenAPISpec)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/video/{id}", wrapper.StreamVideo)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/catalog", wrapper.ListCatalog)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/catalog", wrapper.CreateCatalogEntry)
	})
	r.Group(func(r chi.Router) {
		r.Delete(options.BaseURL+"/catalog/{id}", wrapper.DeleteCatalogEntry)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/catalog/{id}/view", wrapper.RegisterView)
	})

	return r
}
