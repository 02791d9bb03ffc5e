// Пакет tgclient — HTTP-клиент Telegram Bot API.
// Превращает file_id во временный URL (getFile), открывает файл по этому URL
// с пробросом Range header, а также обслуживает long polling и отправку
// сообщений для чат-бота администратора.
package tgclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultAPIURL — базовый URL Bot API.
const DefaultAPIURL = "https://api.telegram.org"

// ErrNoToken — токен бота не задан, клиент создать нельзя.
var ErrNoToken = errors.New("токен Telegram-бота не задан")

// Options — параметры клиента.
type Options struct {
	// APIURL — базовый URL Bot API (по умолчанию DefaultAPIURL)
	APIURL string
	// Token — токен бота
	Token string
	// Timeout — таймаут одного вызова метода Bot API
	Timeout time.Duration
	// HeaderTimeout — таймаут ожидания заголовков ответа при скачивании файла.
	// На тело ответа таймаут не распространяется: поток может идти долго.
	HeaderTimeout time.Duration
	// RateLimit — допустимое число вызовов методов Bot API в секунду (0 — без ограничения)
	RateLimit float64
}

// Client — клиент Telegram Bot API.
type Client struct {
	apiClient  *http.Client
	fileClient *http.Client
	apiURL     string
	token      string //nolint:gosec // G101: поле структуры, секрет из конфигурации
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// New создаёт клиент Bot API.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	if opts.Token == "" {
		return nil, ErrNoToken
	}
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), max(1, int(opts.RateLimit)))
	}

	fileTransport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConnsPerHost:   10,
		ResponseHeaderTimeout: opts.HeaderTimeout,
		IdleConnTimeout:       90 * time.Second,
		// Иначе net/http запросит gzip для запросов без Range и удалит Content-Length
		DisableCompression: true,
	}

	return &Client{
		// Таймауты вызовов задаются через context, чтобы long polling
		// мог ждать дольше обычного вызова.
		apiClient:  &http.Client{},
		fileClient: &http.Client{Transport: fileTransport},
		apiURL:     strings.TrimRight(opts.APIURL, "/"),
		token:      opts.Token,
		timeout:    opts.Timeout,
		limiter:    limiter,
		logger:     logger.With(slog.String("component", "telegram_client")),
	}, nil
}

// APIURL возвращает базовый URL Bot API (для мониторинга доступности).
func (c *Client) APIURL() string {
	return c.apiURL
}

// GetFile вызывает метод getFile и возвращает описание файла.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	var file File
	params := url.Values{"file_id": {fileID}}
	if err := c.call(ctx, "getFile", params, c.timeout, &file); err != nil {
		return nil, err
	}
	if file.FilePath == "" {
		return nil, fmt.Errorf("getFile: пустой file_path для файла")
	}
	return &file, nil
}

// ResolveFileURL возвращает временный URL для скачивания файла по file_id.
// Формат: {apiURL}/file/bot{token}/{file_path}. URL содержит токен и живёт
// ограниченное время, поэтому не кэшируется и не логируется.
func (c *Client) ResolveFileURL(ctx context.Context, fileID string) (string, error) {
	file, err := c.GetFile(ctx, fileID)
	if err != nil {
		return "", err
	}
	c.logger.Debug("Временный URL файла получен",
		slog.String("file_unique_id", file.FileUniqueID),
		slog.Int64("file_size", file.FileSize),
	)
	return fmt.Sprintf("%s/file/bot%s/%s", c.apiURL, c.token, strings.TrimLeft(file.FilePath, "/")), nil
}

// OpenFile выполняет streaming-запрос файла по временному URL.
// Возвращает *http.Response — вызывающий код ОБЯЗАН закрыть resp.Body.
//
// rangeHeader — значение заголовка Range для origin (пустая строка — весь файл).
// Запрос привязан к ctx: отмена контекста (отключение клиента) обрывает скачивание.
func (c *Client) OpenFile(ctx context.Context, fileURL, rangeHeader string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("создание запроса файла: %w", c.redact(err))
	}

	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := c.fileClient.Do(req) //nolint:gosec // G704: URL получен от Bot API
	if err != nil {
		return nil, fmt.Errorf("запрос файла: %w", c.redact(err))
	}

	// Не закрываем resp.Body — вызывающий код отвечает за это (streaming)
	return resp, nil
}

// GetUpdates выполняет long polling входящих обновлений.
// offset — ID первого ещё не обработанного обновления.
// pollTimeout — сколько Bot API держит запрос открытым при отсутствии обновлений.
func (c *Client) GetUpdates(ctx context.Context, offset int64, pollTimeout time.Duration) ([]Update, error) {
	params := url.Values{
		"offset":          {strconv.FormatInt(offset, 10)},
		"timeout":         {strconv.Itoa(int(pollTimeout.Seconds()))},
		"allowed_updates": {`["message"]`},
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", params, c.timeout+pollTimeout, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage отправляет текстовое сообщение в чат.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"text":    {text},
	}
	return c.call(ctx, "sendMessage", params, c.timeout, nil)
}

// call вызывает метод Bot API (POST form) и декодирует result в out.
func (c *Client) call(ctx context.Context, method string, params url.Values, timeout time.Duration, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("ожидание лимита Bot API: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s/bot%s/%s", c.apiURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("создание запроса %s: %w", method, c.redact(err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.apiClient.Do(req) //nolint:gosec // G704: URL из конфигурации
	if err != nil {
		return fmt.Errorf("запрос %s к Bot API: %w", method, c.redact(err))
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&envelope); err != nil {
		return fmt.Errorf("декодирование ответа %s (статус %d): %w", method, resp.StatusCode, err)
	}

	if !envelope.OK {
		return &APIError{Method: method, Code: envelope.ErrorCode, Description: envelope.Description}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("декодирование result %s: %w", method, err)
	}
	return nil
}

// redact убирает токен бота из URL в ошибках net/http.
func (c *Client) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, c.token, "<token>")
	}
	return err
}
