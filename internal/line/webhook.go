// Package line is the LINE gateway: a signed webhook that feeds the
// dialogue engine, a Messaging API client for replies and pushes, and
// short-lived hosting for chart images.
package line

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"warfarin-bot/internal/dialogue"
)

// Channel tags LINE users in audit events.
const Channel = "line"

// Handler processes one inbound message.
type Handler interface {
	OnMessage(ctx context.Context, msg dialogue.Message) []dialogue.Reply
}

type messenger interface {
	Reply(ctx context.Context, replyToken string, msgs []message) error
	pushMessages(ctx context.Context, to string, msgs []message) error
}

type webhookBody struct {
	Events []event `json:"events"`
}

type event struct {
	Type       string `json:"type"`
	ReplyToken string `json:"replyToken"`
	Source     struct {
		UserID string `json:"userId"`
	} `json:"source"`
	Message struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
}

// Webhook serves the LINE callback and chart images.
type Webhook struct {
	secret  []byte
	client  messenger
	handler Handler
	images  *ImageStore
	baseURL string
}

// NewWebhook wires the callback. baseURL is the public HTTPS origin LINE
// uses to download images.
func NewWebhook(channelSecret string, client *Client, handler Handler, images *ImageStore, baseURL string) *Webhook {
	return &Webhook{
		secret:  []byte(channelSecret),
		client:  client,
		handler: handler,
		images:  images,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// RegisterRoutes mounts POST /callback and GET /image/{name}.
func (h *Webhook) RegisterRoutes(r chi.Router) {
	r.Post("/callback", h.Callback)
	r.Get("/image/{name}", h.images.ServeImage)
}

// ValidSignature checks X-Line-Signature: base64 HMAC-SHA256 of the body.
func ValidSignature(secret, body []byte, signature string) bool {
	got, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// Callback verifies and dispatches a webhook delivery.
func (h *Webhook) Callback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	if !ValidSignature(h.secret, body, r.Header.Get("X-Line-Signature")) {
		log.Printf("⚠️ Rejected LINE webhook with invalid signature from %s", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}
	var wb webhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	for _, ev := range wb.Events {
		if ev.Type != "message" || ev.Message.Type != "text" || ev.Source.UserID == "" {
			continue
		}
		h.handleText(r.Context(), ev)
	}
	_, _ = w.Write([]byte("OK"))
}

func (h *Webhook) handleText(ctx context.Context, ev event) {
	log.Printf("📨 LINE message from %s: %q", ev.Source.UserID, ev.Message.Text)
	replies := h.handler.OnMessage(ctx, dialogue.Message{Channel: Channel, UserID: ev.Source.UserID, Text: ev.Message.Text})
	msgs := h.toMessages(replies)
	if len(msgs) == 0 {
		return
	}
	first, rest := msgs, []message(nil)
	if len(msgs) > maxPerRequest {
		first, rest = msgs[:maxPerRequest], msgs[maxPerRequest:]
	}
	if err := h.client.Reply(ctx, ev.ReplyToken, first); err != nil {
		log.Printf("❌ LINE reply to %s failed: %v", ev.Source.UserID, err)
		return
	}
	for len(rest) > 0 {
		n := min(len(rest), maxPerRequest)
		if err := h.client.pushMessages(ctx, ev.Source.UserID, rest[:n]); err != nil {
			log.Printf("❌ LINE push to %s failed: %v", ev.Source.UserID, err)
			return
		}
		rest = rest[n:]
	}
}

func (h *Webhook) toMessages(replies []dialogue.Reply) []message {
	out := make([]message, 0, len(replies))
	for _, r := range replies {
		if r.Image != nil {
			name := h.images.Put(r.Image)
			out = append(out, imageMessage(h.baseURL+"/image/"+name))
			continue
		}
		out = append(out, textMessage(r.Text, r.QuickReplies))
	}
	return out
}
