// Пакет bot — чат-бот администратора Mini Movies поверх Telegram Bot API.
//
// Bot получает обновления через long polling (getUpdates) в одной фоновой
// горутине и обрабатывает команды:
//   - /start, /help, /website — доступны всем
//   - /addvideo, форма добавления, /listvideo, /removevideo <id>, /stats,
//     /addlast <title> и приём видео — только чатам из allow-list
//
// Prometheus-метрики:
//   - mm_bot_commands_total — обработанные команды (по команде и результату)
//   - mm_bot_poll_errors_total — ошибки getUpdates
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/minimovies/internal/domain/model"
	"github.com/bigkaa/minimovies/internal/service"
	"github.com/bigkaa/minimovies/internal/tgclient"
)

var (
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mm_bot_commands_total",
		Help: "Количество обработанных команд бота (по команде и результату).",
	}, []string{"command", "result"}) // result: ok, denied, invalid, error

	pollErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mm_bot_poll_errors_total",
		Help: "Количество ошибок long polling getUpdates.",
	})
)

// Команды бота.
const (
	cmdStart       = "/start"
	cmdHelp        = "/help"
	cmdWebsite     = "/website"
	cmdAddVideo    = "/addvideo"
	cmdListVideo   = "/listvideo"
	cmdRemoveVideo = "/removevideo"
	cmdStats       = "/stats"
	cmdAddLast     = "/addlast"
)

// Псевдокоманды для метрик.
const (
	metricAddForm = "add_form"
	metricVideo   = "video"
)

// pollRetryDelay — пауза после ошибки getUpdates.
const pollRetryDelay = 3 * time.Second

// TelegramAPI — методы Bot API, нужные боту. Реализуется tgclient.Client.
type TelegramAPI interface {
	GetUpdates(ctx context.Context, offset int64, pollTimeout time.Duration) ([]tgclient.Update, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Catalog — операции каталога, доступные боту. Реализуется service.CatalogService.
type Catalog interface {
	Create(input service.CreateInput) (*model.Entry, error)
	List() []*model.Entry
	Delete(id int64) bool
	Stats() model.Stats
}

// Options — параметры бота.
type Options struct {
	// AdminChatIDs — allow-list чатов администраторов
	AdminChatIDs []int64
	// WebsiteURL — публичный адрес сайта (для /website, /help и ссылок на поток)
	WebsiteURL string
	// PollTimeout — таймаут long polling
	PollTimeout time.Duration
	// DraftTTL — время жизни черновика видео для /addlast
	DraftTTL time.Duration
	// DraftMaxChats — максимальное количество хранимых черновиков
	DraftMaxChats int
}

// Bot — чат-бот администратора.
type Bot struct {
	api     TelegramAPI
	catalog Catalog
	drafts  *DraftStore
	opts    Options
	logger  *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// New создаёт бота.
func New(api TelegramAPI, catalog Catalog, opts Options, logger *slog.Logger) *Bot {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 30 * time.Second
	}
	if opts.DraftTTL <= 0 {
		opts.DraftTTL = 10 * time.Minute
	}
	if opts.DraftMaxChats <= 0 {
		opts.DraftMaxChats = 100
	}
	opts.WebsiteURL = strings.TrimRight(opts.WebsiteURL, "/")

	return &Bot{
		api:     api,
		catalog: catalog,
		drafts:  NewDraftStore(opts.DraftMaxChats, opts.DraftTTL),
		opts:    opts,
		logger:  logger.With(slog.String("component", "bot")),
	}
}

// Start запускает фоновую горутину long polling.
// Вызывается один раз при старте приложения.
func (b *Bot) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	b.done = make(chan struct{})

	go func() {
		defer close(b.done)

		b.logger.Info("Бот запущен",
			slog.Int("admins", len(b.opts.AdminChatIDs)),
			slog.String("poll_timeout", b.opts.PollTimeout.String()),
		)

		var offset int64
		for {
			updates, err := b.api.GetUpdates(ctx, offset, b.opts.PollTimeout)
			if err != nil {
				if ctx.Err() != nil {
					b.logger.Info("Бот остановлен")
					return
				}
				pollErrorsTotal.Inc()
				b.logger.Warn("Ошибка получения обновлений", slog.String("error", err.Error()))

				select {
				case <-ctx.Done():
					b.logger.Info("Бот остановлен")
					return
				case <-time.After(pollRetryDelay):
				}
				continue
			}

			for _, update := range updates {
				offset = max(offset, update.UpdateID+1)
				if update.Message != nil {
					b.handleMessage(ctx, update.Message)
				}
			}
		}
	}()
}

// Stop останавливает long polling и ждёт завершения горутины.
func (b *Bot) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	if b.done != nil {
		<-b.done
	}
}

// isAdmin проверяет chat id по allow-list.
func (b *Bot) isAdmin(chatID int64) bool {
	return slices.Contains(b.opts.AdminChatIDs, chatID)
}

// handleMessage маршрутизирует входящее сообщение.
func (b *Bot) handleMessage(ctx context.Context, msg *tgclient.Message) {
	chatID := msg.Chat.ID

	if msg.Video != nil {
		b.handleVideo(ctx, chatID, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if IsAddForm(text) {
		b.handleAddForm(ctx, chatID, text)
		return
	}

	if !strings.HasPrefix(text, "/") {
		return
	}

	command, args := splitCommand(text)
	switch command {
	case cmdStart:
		b.reply(ctx, chatID, command, "ok", b.welcomeText())
	case cmdHelp:
		b.reply(ctx, chatID, command, "ok", b.helpText())
	case cmdWebsite:
		b.reply(ctx, chatID, command, "ok", "🌐 Mini Movies: "+b.opts.WebsiteURL)
	case cmdAddVideo:
		b.adminOnly(ctx, chatID, command, func() (string, string) { return "ok", addVideoText })
	case cmdListVideo:
		b.adminOnly(ctx, chatID, command, b.listVideos)
	case cmdRemoveVideo:
		b.adminOnly(ctx, chatID, command, func() (string, string) { return b.removeVideo(args) })
	case cmdStats:
		b.adminOnly(ctx, chatID, command, b.stats)
	case cmdAddLast:
		b.adminOnly(ctx, chatID, command, func() (string, string) { return b.addLast(chatID, args) })
	default:
		b.logger.Debug("Неизвестная команда", slog.String("command", command), slog.Int64("chat_id", chatID))
	}
}

// splitCommand отделяет команду от аргументов и убирает суффикс @botname.
func splitCommand(text string) (command, args string) {
	command, args, _ = strings.Cut(text, " ")
	if first, _, ok := strings.Cut(command, "\n"); ok {
		command = first
		args = strings.TrimSpace(strings.TrimPrefix(text, first))
	}
	command, _, _ = strings.Cut(command, "@")
	return strings.ToLower(command), strings.TrimSpace(args)
}

// adminOnly выполняет обработчик только для администраторов.
func (b *Bot) adminOnly(ctx context.Context, chatID int64, command string, handler func() (result, text string)) {
	if !b.isAdmin(chatID) {
		b.logger.Warn("Команда администратора из неразрешённого чата",
			slog.String("command", command),
			slog.Int64("chat_id", chatID),
		)
		b.reply(ctx, chatID, command, "denied", deniedText)
		return
	}
	result, text := handler()
	b.reply(ctx, chatID, command, result, text)
}

// reply отправляет ответ и учитывает команду в метриках.
func (b *Bot) reply(ctx context.Context, chatID int64, command, result, text string) {
	commandsTotal.WithLabelValues(command, result).Inc()
	if err := b.api.SendMessage(ctx, chatID, text); err != nil {
		b.logger.Error("Ошибка отправки сообщения",
			slog.String("command", command),
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}

// handleAddForm создаёт запись из формы. Формы от не-администраторов игнорируются.
func (b *Bot) handleAddForm(ctx context.Context, chatID int64, text string) {
	if !b.isAdmin(chatID) {
		commandsTotal.WithLabelValues(metricAddForm, "denied").Inc()
		return
	}

	form, err := ParseAddForm(text)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			b.reply(ctx, chatID, metricAddForm, "invalid", "❌ Ошибка в форме: "+pe.Error()+"\n\nФормат: /addvideo")
			return
		}
		b.reply(ctx, chatID, metricAddForm, "error", "❌ Не удалось разобрать форму.")
		return
	}

	b.logger.Info("Администратор добавляет видео", slog.Int64("chat_id", chatID))

	result, reply := b.createEntry(chatID, service.CreateInput{
		Title:         form.Title,
		FileReference: form.FileID,
		TotalSize:     form.Size,
		ThumbnailURL:  form.Thumb,
		Description:   form.Description,
		Category:      form.Category,
	})
	b.reply(ctx, chatID, metricAddForm, result, reply)
}

// handleVideo сообщает администратору file id и размер присланного видео
// и запоминает его как черновик для /addlast.
func (b *Bot) handleVideo(ctx context.Context, chatID int64, msg *tgclient.Message) {
	if !b.isAdmin(chatID) {
		commandsTotal.WithLabelValues(metricVideo, "denied").Inc()
		return
	}

	video := msg.Video
	b.drafts.Set(chatID, VideoDraft{
		FileID:   video.FileID,
		FileSize: video.FileSize,
		FileName: video.FileName,
		Caption:  strings.TrimSpace(msg.Caption),
	})

	b.logger.Info("Получено видео от администратора",
		slog.Int64("chat_id", chatID),
		slog.String("file_unique_id", video.FileUniqueID),
		slog.Int64("file_size", video.FileSize),
	)

	text := fmt.Sprintf("📹 Данные видео:\n\nFile ID:\n%s\nSize: %d bytes (~%s MB)\n\n"+
		"➡️ Используйте эти данные в форме /addvideo или отправьте /addlast <название>.",
		video.FileID, video.FileSize, FormatMB(video.FileSize))
	b.reply(ctx, chatID, metricVideo, "ok", text)
}

// addLast создаёт запись из последнего видео чата.
func (b *Bot) addLast(chatID int64, title string) (string, string) {
	draft, ok := b.drafts.Get(chatID)
	if !ok {
		return "invalid", "❌ Нет недавно присланного видео. Сначала отправьте видео в этот чат."
	}

	if title == "" {
		title = draft.Caption
	}
	if title == "" {
		return "invalid", "Использование: /addlast <название>"
	}

	result, text := b.createEntry(chatID, service.CreateInput{
		Title:         title,
		FileReference: draft.FileID,
		TotalSize:     draft.FileSize,
	})
	if result == "ok" {
		b.drafts.Delete(chatID)
	}
	return result, text
}

// createEntry добавляет запись от имени администратора chatID.
func (b *Bot) createEntry(chatID int64, input service.CreateInput) (string, string) {
	input.AddedBy = strconv.FormatInt(chatID, 10)

	entry, err := b.catalog.Create(input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return "invalid", "❌ " + err.Error()
		}
		b.logger.Error("Ошибка добавления видео", slog.String("error", err.Error()))
		return "error", "❌ Не удалось добавить видео."
	}

	return "ok", fmt.Sprintf("✅ Видео добавлено!\n\n🎬 Title: %s\n🆔 ID: %d\n👤 Added By: %s\n📐 Size: %s MB (%d bytes)\n🔗 %s",
		entry.Title, entry.ID, entry.AddedBy, FormatMB(entry.TotalSize), entry.TotalSize,
		service.StreamURL(b.opts.WebsiteURL, entry.ID))
}

// listVideos формирует список всех записей каталога.
func (b *Bot) listVideos() (string, string) {
	entries := b.catalog.List()
	if len(entries) == 0 {
		return "ok", "📭 Видео нет."
	}

	var sb strings.Builder
	sb.WriteString("📹 Все видео:\n\n")
	for i, e := range entries {
		fmt.Fprintf(&sb, "%d. %s\n   ID: %d\n   Views: %d\n   Added By: %s\n   Size: %s MB\n\n",
			i+1, e.Title, e.ID, e.ViewCount, e.AddedBy, FormatMB(e.TotalSize))
	}
	return "ok", strings.TrimRight(sb.String(), "\n")
}

// removeVideo удаляет запись по ID из аргумента команды.
func (b *Bot) removeVideo(args string) (string, string) {
	if args == "" {
		return "invalid", "Использование: /removevideo <id>"
	}
	id, err := strconv.ParseInt(strings.Fields(args)[0], 10, 64)
	if err != nil {
		return "invalid", "❌ Некорректный ID: " + args
	}

	var title string
	for _, e := range b.catalog.List() {
		if e.ID == id {
			title = e.Title
			break
		}
	}

	if !b.catalog.Delete(id) {
		return "invalid", "❌ Видео не найдено."
	}
	return "ok", "✅ Видео удалено: " + title
}

// stats формирует сводную статистику.
func (b *Bot) stats() (string, string) {
	s := b.catalog.Stats()

	var sb strings.Builder
	sb.WriteString("📊 Статистика:\n\n")
	fmt.Fprintf(&sb, "📹 Всего видео: %d\n", s.Entries)
	fmt.Fprintf(&sb, "👀 Всего просмотров: %d", s.TotalViews)
	if s.MostViewed != nil {
		fmt.Fprintf(&sb, "\n🔥 Самое популярное: %s (%d views)", s.MostViewed.Title, s.MostViewed.ViewCount)
	}
	return "ok", sb.String()
}

const deniedText = "❌ Эта команда доступна только администраторам."

const addVideoText = `📹 Чтобы добавить видео, отправьте сообщение в формате:

Title: название видео
File ID: Telegram file id (отправьте видео в этот чат, чтобы получить id и размер)
Size: размер файла в MB или байтах (нужен для перемотки, например 50MB или 87120150)
Thumb: URL превью (необязательно)
Category: категория (необязательно, по умолчанию movie)
Desc: описание (необязательно, может занимать несколько строк)

Пример:
Title: Amazing Private Movie
File ID: BAACAgIAAxkDAAI...
Size: 50MB
Desc: This is an amazing movie`

func (b *Bot) welcomeText() string {
	return `🎬 Добро пожаловать в Mini Movies Bot!

Команды администратора:
/addvideo - добавить видео
/addlast <название> - добавить последнее присланное видео
/removevideo <id> - удалить видео
/listvideo - список видео
/stats - статистика

Общие команды:
/help - помощь
/website - ссылка на сайт`
}

func (b *Bot) helpText() string {
	return "🆘 Помощь:\n\nЭтот бот управляет каталогом Mini Movies.\n\n" +
		"Администраторы могут добавлять и удалять видео и смотреть статистику.\n\n" +
		"Сайт: " + b.opts.WebsiteURL
}
