package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"lunch-menu/internal/app"
	"lunch-menu/internal/config"
	"lunch-menu/internal/metrics"
	"lunch-menu/internal/notify"
	"lunch-menu/internal/pages"
	"lunch-menu/internal/render"
	"lunch-menu/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// BotAPI is the part of *tgbotapi.BotAPI the bot uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

// UsageStore reports recorded backend calls. *metrics.Store satisfies it.
type UsageStore interface {
	GetDailyUsage(days int) ([]metrics.DailyUsage, error)
	GetEndpointUsage(days int) ([]metrics.EndpointUsage, error)
}

// sessionIdleTTL is how long an idle chat keeps its session.
const sessionIdleTTL = 2 * time.Hour

// Callback data of the inline keyboard buttons.
const (
	callbackCalendar = "calendar"
	callbackPDF      = "pdf"
	callbackNew      = "new"
)

// Bot wraps the Telegram API and one app session per chat.
type Bot struct {
	api          BotAPI
	app          *app.App
	metricsStore UsageStore
	cfg          *config.Config
	log          logrus.FieldLogger

	mu       sync.Mutex
	sessions map[int64]*chatSession
	now      func() time.Time
}

// chatSession is a chat's app session plus the id of its loading message.
type chatSession struct {
	*app.Session
	lastSeen time.Time // guarded by Bot.mu

	mu             sync.Mutex
	loadingMessage int
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, a *app.App, metricsStore UsageStore) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log := logrus.WithField("component", "telegram")
	log.WithField("account", api.Self.UserName).Info("authorized on telegram")

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.WithField("response", resp.Description).Info("webhook set")

	return newBot(api, cfg, a, metricsStore), nil
}

func newBot(api BotAPI, cfg *config.Config, a *app.App, metricsStore UsageStore) *Bot {
	return &Bot{
		api:          api,
		app:          a,
		metricsStore: metricsStore,
		cfg:          cfg,
		log:          logrus.WithField("component", "telegram"),
		sessions:     make(map[int64]*chatSession),
		now:          time.Now,
	}
}

// Handler returns the webhook and health endpoints.
func (b *Bot) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		b.log.WithError(err).Warn("error parsing update")
		return
	}

	if update.CallbackQuery != nil {
		if !b.isAllowed(update.CallbackQuery.From) {
			return
		}
		go b.handleCallbackQuery(update.CallbackQuery)
		return
	}

	if update.Message == nil || !b.isAllowed(update.Message.From) {
		return
	}

	go b.processMessage(update.Message)
}

// isAllowed checks the sender against the allow list. An empty list lets
// everyone in.
func (b *Bot) isAllowed(from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	if len(b.cfg.TelegramAllowedUserIDs) == 0 {
		return true
	}
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if from.ID == id {
			return true
		}
	}
	b.log.WithFields(logrus.Fields{"user_id": from.ID, "username": from.UserName}).Warn("unauthorized access attempt")
	return false
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx := context.Background()
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		b.sendMarkdown(chatID, helpText)
	case "today":
		b.handleToday(ctx, chatID, args)
	case "week":
		b.handleWeek(ctx, chatID, args)
	case "calendar":
		b.handleCalendar(ctx, chatID)
	case "pdf":
		b.handlePDF(ctx, chatID)
	case "email":
		b.handleEmail(ctx, chatID, args)
	case "new":
		b.handleNewMenu(chatID)
	case "about", "privacy":
		b.handlePage(chatID, msg.Command())
	case "metrics":
		b.handleMetricsRequest(msg)
	case "":
		// A bare link is a shortcut for /today.
		text := strings.TrimSpace(msg.Text)
		if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
			b.handleToday(ctx, chatID, text)
			return
		}
		b.sendMarkdown(chatID, helpText)
	default:
		b.sendText(chatID, fmt.Sprintf("Unknown command /%s. Send /help for the list.", msg.Command()))
	}
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	// Answer callback to remove spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.log.WithError(err).Debug("failed to answer callback")
	}
	if query.Message == nil {
		return
	}

	ctx := context.Background()
	chatID := query.Message.Chat.ID
	switch query.Data {
	case callbackCalendar:
		b.handleCalendar(ctx, chatID)
	case callbackPDF:
		b.handlePDF(ctx, chatID)
	case callbackNew:
		b.handleNewMenu(chatID)
	default:
		b.log.WithField("data", query.Data).Warn("unknown callback")
	}
}

func (b *Bot) handleToday(ctx context.Context, chatID int64, menuURL string) {
	sess := b.sessionFor(chatID)
	item, err := sess.Finder.FindTodayMenu(ctx, menuURL)
	if err != nil {
		return
	}
	b.sendMarkdown(chatID, render.Markdown(render.MenuCard(item)))
}

func (b *Bot) handleWeek(ctx context.Context, chatID int64, args string) {
	sess := b.sessionFor(chatID)

	fields := strings.Fields(args)
	menuURL, offset := "", 0
	if len(fields) > 0 {
		menuURL = fields[0]
	}
	if len(fields) > 1 {
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			sess.Presenter.Notify("Week offset must be a number, e.g. /week <url> 1", notify.Error)
			return
		}
		offset = n
	}

	if err := sess.Generator.ScrapeMenu(ctx, menuURL, offset); err != nil {
		return
	}

	state := sess.Generator.View().Snapshot()
	msg := tgbotapi.NewMessage(chatID, render.WeekMarkdown(state.WeekLabel, render.WeekCards(state.MenuData)))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗓 Generate Calendar", callbackCalendar),
			tgbotapi.NewInlineKeyboardButtonData("🆕 New Menu", callbackNew),
		),
	)
	b.send(msg)
}

func (b *Bot) handleCalendar(ctx context.Context, chatID int64) {
	sess := b.sessionFor(chatID)
	if err := sess.Generator.GenerateCalendar(ctx); err != nil {
		return
	}

	state := sess.Generator.View().Snapshot()
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📄 Export PDF", callbackPDF),
			tgbotapi.NewInlineKeyboardButtonData("🆕 New Menu", callbackNew),
		),
	)

	calendarURL := b.absoluteURL(state.CalendarURL)
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(calendarURL))
	photo.Caption = "🗓 " + state.WeekLabel
	photo.ReplyMarkup = keyboard
	if _, err := b.api.Send(photo); err != nil {
		b.log.WithError(err).Warn("failed to send calendar photo, falling back to a link")
		msg := tgbotapi.NewMessage(chatID, "🗓 Calendar: "+calendarURL)
		msg.ReplyMarkup = keyboard
		b.send(msg)
	}
}

func (b *Bot) handlePDF(ctx context.Context, chatID int64) {
	sess := b.sessionFor(chatID)
	pdfURL, err := sess.Generator.ExportPDF(ctx)
	if err != nil {
		return
	}

	pdfURL = b.absoluteURL(pdfURL)
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileURL(pdfURL))
	if _, err := b.api.Send(doc); err != nil {
		b.log.WithError(err).Warn("failed to send pdf document, falling back to a link")
		b.sendText(chatID, "📄 PDF: "+pdfURL)
	}
}

func (b *Bot) handleEmail(ctx context.Context, chatID int64, recipient string) {
	sess := b.sessionFor(chatID)
	_ = sess.Generator.SendEmail(ctx, recipient)
}

func (b *Bot) handleNewMenu(chatID int64) {
	sess := b.sessionFor(chatID)
	wasInitial := sess.Generator.View().Step() == session.Initial
	sess.Generator.NewMenu()
	if wasInitial {
		b.sendStepHeader(chatID, session.Initial)
	}
}

func (b *Bot) handlePage(chatID int64, slug string) {
	src, err := pages.Markdown(slug)
	if err != nil {
		b.log.WithError(err).Error("missing page")
		return
	}
	b.sendMarkdown(chatID, pageMarkdown(src))
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.ID != b.cfg.AdminTelegramID {
		b.sendText(msg.Chat.ID, "⛔ Access Denied: Admin only.")
		return
	}
	b.handleMetricsCommand(msg.Chat.ID)
}

func (b *Bot) handleMetricsCommand(chatID int64) {
	daily, err := b.metricsStore.GetDailyUsage(7)
	if err != nil {
		b.log.WithError(err).Error("failed to fetch daily usage")
		b.sendText(chatID, "❌ Error fetching metrics.")
		return
	}
	endpoints, err := b.metricsStore.GetEndpointUsage(7)
	if err != nil {
		b.log.WithError(err).Error("failed to fetch endpoint usage")
		b.sendText(chatID, "❌ Error fetching metrics.")
		return
	}

	health := metrics.GetSysHealth(filepath.Dir(b.cfg.DatabasePath))
	b.sendMarkdown(chatID, formatUsageReport(daily, endpoints, health))
}

// sessionFor returns the chat's session, creating it on first use. The
// presenter's notifications and loading overlay become chat messages.
func (b *Bot) sessionFor(chatID int64) *chatSession {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if cs, ok := b.sessions[chatID]; ok {
		cs.lastSeen = now
		return cs
	}

	b.sweepLocked(now)
	cs := &chatSession{lastSeen: now}
	cs.Session = b.app.NewSession(
		strconv.FormatInt(chatID, 10),
		func(_, to session.Step) { b.sendStepHeader(chatID, to) },
		notify.WithNotifyHook(func(n notify.Notification) { b.sendNotification(chatID, n) }),
		notify.WithLoadingHook(func(l notify.Loading) { b.updateLoading(chatID, cs, l) }),
	)
	b.sessions[chatID] = cs
	return cs
}

// sweepLocked drops the sessions of chats idle for longer than
// sessionIdleTTL.
func (b *Bot) sweepLocked(now time.Time) {
	cutoff := now.Add(-sessionIdleTTL)
	for id, cs := range b.sessions {
		if cs.lastSeen.Before(cutoff) {
			delete(b.sessions, id)
			b.log.WithField("chat_id", id).Debug("dropping idle chat session")
		}
	}
}

func (b *Bot) sendNotification(chatID int64, n notify.Notification) {
	b.sendText(chatID, severityIcon(n.Severity)+" "+n.Message)
}

// updateLoading shows the overlay as a status message and deletes it again
// when the overlay is hidden.
func (b *Bot) updateLoading(chatID int64, cs *chatSession, l notify.Loading) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.loadingMessage != 0 {
		if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, cs.loadingMessage)); err != nil {
			b.log.WithError(err).Debug("failed to delete loading message")
		}
		cs.loadingMessage = 0
	}
	if !l.Visible {
		return
	}

	sent, err := b.api.Send(tgbotapi.NewMessage(chatID, "⏳ "+l.Text))
	if err != nil {
		b.log.WithError(err).Warn("failed to send loading message")
		return
	}
	cs.loadingMessage = sent.MessageID
}

func (b *Bot) sendStepHeader(chatID int64, step session.Step) {
	if text := stepHeader(step); text != "" {
		b.sendMarkdown(chatID, text)
	}
}

// absoluteURL resolves a backend-relative URL such as /static/cal.png.
func (b *Bot) absoluteURL(raw string) string {
	u, err := url.Parse(raw)
	if err == nil && u.IsAbs() {
		return raw
	}
	return b.cfg.BackendURL + "/" + strings.TrimLeft(raw, "/")
}

func (b *Bot) sendText(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	b.send(msg)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		var tgErr *tgbotapi.Error
		if errors.As(err, &tgErr) {
			b.log.WithField("code", tgErr.Code).WithError(err).Warn("telegram rejected message")
			return
		}
		b.log.WithError(err).Warn("failed to send message")
	}
}
