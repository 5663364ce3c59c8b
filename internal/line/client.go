package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultAPIBase = "https://api.line.me"

// Messaging API limits: messages per reply or push, quick reply items per message.
const (
	maxPerRequest   = 5
	maxQuickReplies = 13
)

type quickReplyAction struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

type quickReplyItem struct {
	Type   string           `json:"type"`
	Action quickReplyAction `json:"action"`
}

type quickReply struct {
	Items []quickReplyItem `json:"items"`
}

type message struct {
	Type               string      `json:"type"`
	Text               string      `json:"text,omitempty"`
	OriginalContentURL string      `json:"originalContentUrl,omitempty"`
	PreviewImageURL    string      `json:"previewImageUrl,omitempty"`
	QuickReply         *quickReply `json:"quickReply,omitempty"`
}

func textMessage(text string, quick []string) message {
	m := message{Type: "text", Text: text}
	if len(quick) > maxQuickReplies {
		// Menus end with their catch-all choice, so the last item is kept.
		capped := append([]string{}, quick[:maxQuickReplies-1]...)
		quick = append(capped, quick[len(quick)-1])
	}
	if len(quick) > 0 {
		m.QuickReply = &quickReply{}
		for _, q := range quick {
			m.QuickReply.Items = append(m.QuickReply.Items, quickReplyItem{
				Type:   "action",
				Action: quickReplyAction{Type: "message", Label: truncateLabel(q), Text: q},
			})
		}
	}
	return m
}

func imageMessage(url string) message {
	return message{Type: "image", OriginalContentURL: url, PreviewImageURL: url}
}

// truncateLabel keeps quick reply labels within LINE's 20 character limit.
func truncateLabel(s string) string {
	r := []rune(s)
	if len(r) <= 20 {
		return s
	}
	return string(r[:20])
}

// Client calls the LINE Messaging API.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

func NewClient(accessToken string, timeout time.Duration) *Client {
	return &Client{token: accessToken, baseURL: defaultAPIBase, http: &http.Client{Timeout: timeout}}
}

// Reply answers a webhook event. A reply token is single use.
func (c *Client) Reply(ctx context.Context, replyToken string, msgs []message) error {
	return c.post(ctx, "/v2/bot/message/reply", map[string]any{"replyToken": replyToken, "messages": msgs})
}

func (c *Client) pushMessages(ctx context.Context, to string, msgs []message) error {
	return c.post(ctx, "/v2/bot/message/push", map[string]any{"to": to, "messages": msgs})
}

// Push sends an unsolicited text to a LINE user.
func (c *Client) Push(ctx context.Context, userID, text string) error {
	return c.pushMessages(ctx, userID, []message{textMessage(text, nil)})
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("line %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("line %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
