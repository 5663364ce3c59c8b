// Package telegram is the Telegram gateway: it long-polls for updates,
// hands text to the dialogue engine and sends the replies back.
package telegram

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"warfarin-bot/internal/dialogue"
)

// Channel tags Telegram users in audit events and sink user IDs.
const Channel = "telegram"

const userPrefix = "tg:"

// Handler processes one inbound message.
type Handler interface {
	OnMessage(ctx context.Context, msg dialogue.Message) []dialogue.Reply
}

// ReportFunc builds the admin usage report on demand.
type ReportFunc func(ctx context.Context) (string, error)

// sender is the slice of the Bot API the gateway uses; tests replace it.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type botAPISender struct{ api *tgbotapi.BotAPI }

func (s botAPISender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) { return s.api.Send(c) }

type Bot struct {
	api         *tgbotapi.BotAPI
	s           sender
	handler     Handler
	adminUserID int64
	report      ReportFunc
}

func New(botToken string, handler Handler, adminUserID int64, report ReportFunc) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:         api,
		s:           botAPISender{api: api},
		handler:     handler,
		adminUserID: adminUserID,
		report:      report,
	}, nil
}

// Start polls until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	log.Printf("🤖 Telegram bot @%s polling", b.api.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.handleIncomingMessage(ctx, update.Message)
			}
		}
	}
}

// UserID converts a Telegram user to the ID used by the dialogue and the sink.
func UserID(id int64) string { return userPrefix + strconv.FormatInt(id, 10) }

// ChatID is the inverse of UserID. Bare numeric IDs are accepted too.
func ChatID(userID string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(userID, userPrefix), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not a telegram user id: %q", userID)
	}
	return id, nil
}

// IsUserID reports whether userID addresses a Telegram chat.
func IsUserID(userID string) bool {
	_, err := ChatID(userID)
	return err == nil
}

// commandText maps slash commands onto the dialogue's trigger phrases.
var commandText = map[string]string{
	"start":   dialogue.CmdStart,
	"log":     dialogue.CmdLogINR,
	"dose":    dialogue.CmdTitration,
	"today":   dialogue.CmdTodayDose,
	"chart":   dialogue.CmdChart,
	"symptom": dialogue.CmdSymptoms,
	"profile": dialogue.CmdEditProfile,
	"cancel":  dialogue.CmdCancel,
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	input := msg.Text
	if msg.IsCommand() {
		if msg.Command() == "report" {
			b.handleReportCommand(ctx, msg)
			return
		}
		mapped, ok := commandText[msg.Command()]
		if !ok {
			b.sendText(msg.Chat.ID, "❓ ไม่รู้จักคำสั่งนี้", dialogue.Menu)
			return
		}
		input = mapped
	}
	log.Printf("📨 Telegram message from %d (@%s): %q", msg.From.ID, msg.From.UserName, input)

	replies := b.handler.OnMessage(ctx, dialogue.Message{Channel: Channel, UserID: UserID(msg.From.ID), Text: input})
	b.sendReplies(msg.Chat.ID, replies)
}

func (b *Bot) handleReportCommand(ctx context.Context, msg *tgbotapi.Message) {
	if b.adminUserID == 0 || msg.From.ID != b.adminUserID {
		b.sendText(msg.Chat.ID, "❌ คำสั่งนี้สำหรับผู้ดูแลระบบเท่านั้น", nil)
		return
	}
	if b.report == nil {
		b.sendText(msg.Chat.ID, "ℹ️ ไม่ได้เปิดใช้งานรายงาน", nil)
		return
	}
	text, err := b.report(ctx)
	if err != nil {
		log.Printf("❌ Report generation failed: %v", err)
		b.sendText(msg.Chat.ID, fmt.Sprintf("❌ สร้างรายงานไม่สำเร็จ: %v", err), nil)
		return
	}
	b.sendText(msg.Chat.ID, text, nil)
}

func (b *Bot) sendReplies(chatID int64, replies []dialogue.Reply) {
	for _, r := range replies {
		if r.Image != nil {
			photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "inr_chart.png", Bytes: r.Image})
			if _, err := b.s.Send(photo); err != nil {
				log.Printf("failed to send photo: %v", err)
			}
			continue
		}
		b.sendText(chatID, r.Text, r.QuickReplies)
	}
}

func (b *Bot) sendText(chatID int64, text string, quick []string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(quick) > 0 {
		msg.ReplyMarkup = keyboard(quick)
	}
	if _, err := b.s.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

// keyboard lays quick replies out two per row.
func keyboard(labels []string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(labels); i += 2 {
		row := []tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(labels[i])}
		if i+1 < len(labels) {
			row = append(row, tgbotapi.NewKeyboardButton(labels[i+1]))
		}
		rows = append(rows, row)
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.OneTimeKeyboard = true
	kb.ResizeKeyboard = true
	return kb
}

// Push sends an unsolicited text, used by reminders and the admin report.
func (b *Bot) Push(_ context.Context, userID, text string) error {
	chatID, err := ChatID(userID)
	if err != nil {
		return err
	}
	if _, err := b.s.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("telegram push: %w", err)
	}
	return nil
}
