// stream.go — потоковая выдача видео из Telegram с поддержкой Range.
// Pipeline: запись каталога → Range intent → временный URL (getFile) →
// запрос файла с Range → проброс статуса и заголовков → streaming copy.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/minimovies/internal/domain/model"
)

// Prometheus-метрики потоковой выдачи.
var (
	streamsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mm_streams_total",
		Help: "Общее количество запросов потоковой выдачи (по результату).",
	}, []string{"result"})

	streamDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mm_stream_duration_seconds",
		Help:    "Длительность потоковой выдачи (от запроса до завершения копирования).",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 900},
	})

	streamBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mm_stream_bytes_total",
		Help: "Общее количество байт, переданных клиентам.",
	})

	activeStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mm_active_streams",
		Help: "Количество активных потоков.",
	})
)

// Заголовки ответа, которые всегда задаются прокси.
const (
	streamContentType        = "video/mp4"
	streamContentDisposition = "inline"
)

// copyBufferSize — размер буфера копирования тела ответа.
const copyBufferSize = 32 * 1024

var copyBufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, copyBufferSize)
		return &buf
	},
}

// EntryLookup — источник записей каталога.
type EntryLookup interface {
	Get(id int64) (*model.Entry, bool)
}

// FileSource — origin видеофайлов: резолвер file_id → URL и HTTP-загрузка.
// Реализуется tgclient.Client.
type FileSource interface {
	ResolveFileURL(ctx context.Context, fileReference string) (string, error)
	OpenFile(ctx context.Context, fileURL, rangeHeader string) (*http.Response, error)
}

// StreamService — потоковая выдача видео из Telegram.
type StreamService struct {
	catalog EntryLookup
	source  FileSource
	logger  *slog.Logger
}

// NewStreamService создаёт сервис потоковой выдачи.
// source может быть nil (бот не настроен) — тогда любой запрос видео вернёт ErrNotFound.
func NewStreamService(catalog EntryLookup, source FileSource, logger *slog.Logger) *StreamService {
	return &StreamService{
		catalog: catalog,
		source:  source,
		logger:  logger.With(slog.String("component", "stream_service")),
	}
}

// Stream выполняет полный pipeline потоковой выдачи записи id в w.
//
// Стратегия заголовков одна: статус и Content-Length, Content-Range,
// Accept-Ranges origin пробрасываются как есть, Content-Type и
// Content-Disposition задаются всегда. Значения, вычисленные из RangeIntent,
// используются только для заголовков, которых нет в ответе origin.
//
// Ошибки до записи заголовков возвращаются вызывающему коду
// (ErrNotFound, ErrUnsatisfiableRange, ErrResolution, ErrUpstreamFetch).
// Ошибки после начала передачи только логируются: статус уже отправлен.
func (ss *StreamService) Stream(ctx context.Context, w http.ResponseWriter, id int64, rangeHeader string) error {
	start := time.Now()
	activeStreams.Inc()
	defer activeStreams.Dec()

	// 1. Запись каталога. Без ссылки или без резолвера — сразу 404, без сетевых вызовов
	entry, ok := ss.catalog.Get(id)
	if !ok || !entry.Streamable() || ss.source == nil {
		streamsTotal.WithLabelValues("not_found").Inc()
		return ErrNotFound
	}

	// 2. Согласование Range
	intent, err := Negotiate(entry.TotalSize, rangeHeader)
	if err != nil {
		streamsTotal.WithLabelValues("range_not_satisfiable").Inc()
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", entry.TotalSize))
		return err
	}

	// 3. Временный URL файла
	fileURL, err := ss.source.ResolveFileURL(ctx, entry.FileReference)
	if err != nil {
		streamsTotal.WithLabelValues("resolve_error").Inc()
		return fmt.Errorf("%w: запись %d: %w", ErrResolution, id, err)
	}

	// 4. Запрос файла у origin (streaming), привязан к контексту клиента
	resp, err := ss.source.OpenFile(ctx, fileURL, intent.UpstreamRange())
	if err != nil {
		streamsTotal.WithLabelValues("upstream_error").Inc()
		return fmt.Errorf("%w: запись %d: %w", ErrUpstreamFetch, id, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable:
		streamsTotal.WithLabelValues("range_not_satisfiable").Inc()
		contentRange := resp.Header.Get("Content-Range")
		if contentRange == "" {
			contentRange = fmt.Sprintf("bytes */%d", entry.TotalSize)
		}
		w.Header().Set("Content-Range", contentRange)
		return fmt.Errorf("%w: origin вернул 416 для %q", ErrUnsatisfiableRange, intent.UpstreamRange())

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		streamsTotal.WithLabelValues("upstream_error").Inc()
		// Тело ошибки origin клиенту не отдаём, дочитываем для переиспользования соединения
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return fmt.Errorf("%w: origin вернул статус %d для записи %d", ErrUpstreamFetch, resp.StatusCode, id)
	}

	// 5. Проброс заголовков и streaming copy
	ss.writeHeaders(w, resp, intent)
	w.WriteHeader(resp.StatusCode)

	bufPtr := copyBufPool.Get().(*[]byte)
	defer copyBufPool.Put(bufPtr)

	written, err := io.CopyBuffer(w, resp.Body, *bufPtr)
	streamBytesTotal.Add(float64(written))
	if err != nil {
		if ctx.Err() != nil {
			// Клиент отключился (перемотка, закрытие вкладки): upstream-запрос
			// отменён вместе с контекстом
			streamsTotal.WithLabelValues("client_gone").Inc()
			ss.logger.Debug("Клиент прервал поток",
				slog.Int64("id", id),
				slog.Int64("bytes_written", written),
			)
			return nil
		}
		ss.logger.Error("Ошибка потоковой передачи",
			slog.Int64("id", id),
			slog.Int64("bytes_written", written),
			slog.String("error", err.Error()),
		)
		streamsTotal.WithLabelValues("stream_error").Inc()
		return nil // заголовки уже отправлены, не можем вернуть ошибку клиенту
	}

	duration := time.Since(start)
	streamsTotal.WithLabelValues("success").Inc()
	streamDuration.Observe(duration.Seconds())

	ss.logger.Debug("Поток завершён",
		slog.Int64("id", id),
		slog.Int("status", resp.StatusCode),
		slog.String("range", intent.UpstreamRange()),
		slog.Int64("bytes", written),
		slog.Duration("duration", duration),
	)

	return nil
}

// writeHeaders выставляет заголовки ответа клиенту.
// Content-Length, Content-Range и Accept-Ranges берутся у origin; если origin
// их не прислал — вычисляются из intent.
func (ss *StreamService) writeHeaders(w http.ResponseWriter, resp *http.Response, intent RangeIntent) {
	h := w.Header()
	h.Set("Content-Type", streamContentType)
	h.Set("Content-Disposition", streamContentDisposition)

	acceptRanges := resp.Header.Get("Accept-Ranges")
	if acceptRanges == "" {
		acceptRanges = "bytes"
	}
	h.Set("Accept-Ranges", acceptRanges)

	partial := resp.StatusCode == http.StatusPartialContent

	if contentRange := resp.Header.Get("Content-Range"); contentRange != "" {
		h.Set("Content-Range", contentRange)
	} else if partial {
		if local := intent.ContentRange(); local != "" {
			h.Set("Content-Range", local)
		}
	}

	if contentLength := resp.Header.Get("Content-Length"); contentLength != "" {
		h.Set("Content-Length", contentLength)
		return
	}

	var local int64 = -1
	switch {
	case partial && intent.Partial:
		local = intent.ChunkSize()
	case !partial && intent.TotalSize > 0:
		local = intent.TotalSize
	}
	if local >= 0 {
		h.Set("Content-Length", strconv.FormatInt(local, 10))
	}
}

// IsClientError возвращает true для ошибок, вызванных запросом клиента
// (не требуют логирования на уровне ERROR).
func IsClientError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnsatisfiableRange)
}
