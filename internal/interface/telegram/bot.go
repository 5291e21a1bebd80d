package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/qazinvest/faq-assist/internal/domain/qa"
	"github.com/qazinvest/faq-assist/internal/infra/videostore"
	apperrors "github.com/qazinvest/faq-assist/pkg/errors"
)

const (
	maxMessageLen = 4000
	pollTimeout   = 30

	callbackPrefix = "faq:"
)

// Bot is the Telegram transport over the question answering service. It
// long-polls for updates; no public webhook endpoint is exposed.
type Bot struct {
	api    *tgbotapi.BotAPI
	svc    qa.Service
	videos videostore.Store
	logger *slog.Logger
}

// NewBot connects to the Telegram API.
func NewBot(token string, svc qa.Service, videos videostore.Store, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUpstreamUnavailable, "telegram bot init failed", err)
	}
	return &Bot{
		api:    api,
		svc:    svc,
		videos: videos,
		logger: logger.With("component", "telegram.bot"),
	}, nil
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("telegram bot connected", "username", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message == nil || update.Message.Chat == nil {
		return
	}

	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)
	if text == "" {
		return
	}

	if update.Message.IsCommand() {
		b.handleCommand(ctx, chatID, update.Message)
		return
	}

	typing := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	_, _ = b.api.Request(typing)

	result, err := b.svc.ProcessQuery(ctx, qa.Query{
		Text:     text,
		Language: qa.LanguageAuto,
		Options:  qa.Options{UseCache: true},
	})
	if err != nil {
		b.logger.Error("query processing failed", "chat", chatID, "error", err)
		b.send(chatID, fallbackText(qa.DetectLanguage(text)))
		return
	}

	b.deliver(ctx, chatID, result)
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		result, err := b.svc.ProcessQuery(ctx, qa.Query{
			Text:     "Привет",
			Language: qa.LanguageAuto,
			Options:  qa.Options{UseCache: false},
		})
		if err != nil {
			b.send(chatID, fallbackText(qa.LanguageRussian))
			return
		}
		b.send(chatID, result.Answer)
	default:
		b.send(chatID, "Неизвестная команда. Просто задайте вопрос текстом.")
	}
}

// deliver renders a pipeline decision into Telegram messages.
func (b *Bot) deliver(ctx context.Context, chatID int64, result qa.DecisionResult) {
	switch result.Action {
	case qa.ActionDirectAnswer:
		b.send(chatID, result.Answer)
		if result.Best != nil && result.Best.VideoReference != "" {
			b.sendVideo(ctx, chatID, result.Best.VideoReference, result.Best.Question)
		}
	case qa.ActionClarify:
		b.sendClarify(chatID, result)
	case qa.ActionShowSimilar:
		b.sendSimilar(chatID, result)
	default:
		b.send(chatID, noMatchText(result.Language))
	}
}

func (b *Bot) sendClarify(chatID int64, result qa.DecisionResult) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, option := range result.Supporting {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				truncateLabel(option.Question),
				callbackPrefix+strconv.FormatInt(option.FAQID, 10),
			),
		))
	}

	msg := tgbotapi.NewMessage(chatID, clarifyText(result.Language))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("clarify send failed", "chat", chatID, "error", err)
	}
}

func (b *Bot) sendSimilar(chatID int64, result qa.DecisionResult) {
	var sb strings.Builder
	sb.WriteString(similarText(result.Language))
	for i, option := range result.Supporting {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, option.Question)
	}
	b.send(chatID, sb.String())
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	_, _ = b.api.Request(tgbotapi.NewCallback(cq.ID, ""))

	if cq.Message == nil || cq.Message.Chat == nil || !strings.HasPrefix(cq.Data, callbackPrefix) {
		return
	}
	chatID := cq.Message.Chat.ID

	id, err := strconv.ParseInt(strings.TrimPrefix(cq.Data, callbackPrefix), 10, 64)
	if err != nil {
		return
	}

	entry, err := b.svc.FAQByID(ctx, id)
	if err != nil {
		b.logger.Warn("callback lookup failed", "chat", chatID, "faqId", id, "error", err)
		b.send(chatID, fallbackText(qa.LanguageRussian))
		return
	}

	answer := entry.Answer
	if entry.FooterDisclaimer != "" {
		answer += "\n\n" + entry.FooterDisclaimer
	}
	b.send(chatID, answer)
	if entry.VideoReference != "" {
		b.sendVideo(ctx, chatID, entry.VideoReference, entry.Question)
	}
}

// sendVideo streams the referenced object into the chat. A missing or
// unreachable video degrades to the text answer already sent.
func (b *Bot) sendVideo(ctx context.Context, chatID int64, reference, caption string) {
	reader, _, err := b.videos.Fetch(ctx, reference)
	if err != nil {
		if !apperrors.IsCode(err, apperrors.CodeNotFound) {
			b.logger.Warn("video fetch failed", "chat", chatID, "reference", reference, "error", err)
		}
		return
	}
	defer reader.Close()

	video := tgbotapi.NewVideo(chatID, tgbotapi.FileReader{
		Name:   reference,
		Reader: reader,
	})
	video.Caption = truncateLabel(caption)

	if _, err := b.api.Send(video); err != nil {
		b.logger.Warn("video send failed", "chat", chatID, "reference", reference, "error", err)
	}
}

func (b *Bot) send(chatID int64, text string) {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		if _, err := b.api.Send(tgbotapi.NewMessage(chatID, chunk)); err != nil {
			b.logger.Warn("message send failed", "chat", chatID, "error", err)
			return
		}
	}
}

// splitMessage cuts text into chunks of at most limit runes. Answers are
// mostly Cyrillic, so the cut must happen on rune boundaries, not byte
// offsets; a newline in the back half of a chunk is preferred over a hard
// cut.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	var chunks []string
	for len(runes) > 0 {
		if len(runes) <= limit {
			chunks = append(chunks, string(runes))
			break
		}
		cut := limit
		if idx := lastNewline(runes[:limit]); idx >= limit/2 {
			cut = idx
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	return chunks
}

func lastNewline(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == '\n' {
			return i
		}
	}
	return -1
}

// Telegram caps button labels and captions at 64 bytes effective display.
func truncateLabel(s string) string {
	runes := []rune(s)
	if len(runes) <= 60 {
		return s
	}
	return string(runes[:57]) + "..."
}

func clarifyText(language string) string {
	if language == qa.LanguageKazakh {
		return "Сұрағыңызды нақтылаңыз. Қайсысы сәйкес келеді?"
	}
	return "Уточните, пожалуйста, какой вопрос вам ближе:"
}

func similarText(language string) string {
	if language == qa.LanguageKazakh {
		return "Нақты жауап табылмады. Мүмкін сізге мыналар көмектеседі:"
	}
	return "Точного ответа не нашлось. Возможно, вам помогут эти вопросы:"
}

func noMatchText(language string) string {
	if language == qa.LanguageKazakh {
		return "Өкінішке орай, бұл сұраққа жауап таба алмадым. Басқаша тұжырымдап көріңіз."
	}
	return "К сожалению, я не нашел ответа на этот вопрос. Попробуйте сформулировать иначе."
}

func fallbackText(language string) string {
	if language == qa.LanguageKazakh {
		return "Кешіріңіз, техникалық ақау туындады. Сәл кейінірек қайталап көріңіз."
	}
	return "Извините, произошла техническая ошибка. Попробуйте еще раз чуть позже."
}
