package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// AppsScriptClient is a Sink backed by a Google Apps Script web app that
// fronts the patient spreadsheet.
type AppsScriptClient struct {
	baseURL string
	client  *http.Client
}

// NewAppsScriptClient creates a client for the given /exec URL.
func NewAppsScriptClient(baseURL string, timeout time.Duration) *AppsScriptClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AppsScriptClient{baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

type submitPayload struct {
	UserID       string  `json:"userId"`
	Name         string  `json:"name"`
	Birthdate    string  `json:"birthdate"`
	INR          float64 `json:"inr"`
	Bleeding     string  `json:"bleeding"`
	Supplement   string  `json:"supplement"`
	WarfarinDose string  `json:"warfarin_dose"`
}

type profilePayload struct {
	Action    string `json:"action"`
	UserID    string `json:"userId"`
	Name      string `json:"name,omitempty"`
	Birthdate string `json:"birthdate,omitempty"`
}

// SubmitRecord posts one log row.
func (c *AppsScriptClient) SubmitRecord(ctx context.Context, r Record) (string, error) {
	body, err := c.post(ctx, submitPayload{
		UserID:       r.UserID,
		Name:         r.Name,
		Birthdate:    r.Birthdate,
		INR:          r.INR,
		Bleeding:     r.Bleeding,
		Supplement:   r.Supplement,
		WarfarinDose: r.Doses.Raw(),
	})
	if err != nil {
		return "", fmt.Errorf("submit record: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

// UpdateProfile posts new name and/or birthdate for the user.
func (c *AppsScriptClient) UpdateProfile(ctx context.Context, userID, name, birthdate string) error {
	if _, err := c.post(ctx, profilePayload{Action: "update_profile", UserID: userID, Name: name, Birthdate: birthdate}); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

type historyItem struct {
	Date string `json:"date"`
	INR  any    `json:"inr"`
}

// FetchHistory reads the user's INR history.
func (c *AppsScriptClient) FetchHistory(ctx context.Context, userID string) ([]HistoryPoint, error) {
	var items []historyItem
	if err := c.get(ctx, url.Values{"userId": {userID}, "history": {"true"}}, &items); err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	out := make([]HistoryPoint, 0, len(items))
	for _, it := range items {
		v, err := toFloat(it.INR)
		if err != nil {
			return nil, fmt.Errorf("fetch history: bad inr for %s: %w", it.Date, err)
		}
		out = append(out, HistoryPoint{Date: it.Date, INR: v})
	}
	return out, nil
}

// FetchProfile reads the user's profile. An empty object means a new user.
func (c *AppsScriptClient) FetchProfile(ctx context.Context, userID string) (Profile, error) {
	var raw struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Birthdate string `json:"birthdate"`
	}
	if err := c.get(ctx, url.Values{"userId": {userID}, "profile": {"true"}}, &raw); err != nil {
		return Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	return Profile{
		FirstName: strings.TrimSpace(raw.FirstName),
		LastName:  strings.TrimSpace(raw.LastName),
		Birthdate: strings.TrimSpace(raw.Birthdate),
	}, nil
}

// LatestSchedule reads the newest row. The script keys each weekday as
// "<full Thai day> (คำอธิบาย)".
func (c *AppsScriptClient) LatestSchedule(ctx context.Context, userID string) (Schedule, error) {
	var raw map[string]any
	if err := c.get(ctx, url.Values{"userId": {userID}, "latest": {"true"}}, &raw); err != nil {
		return Schedule{}, fmt.Errorf("latest schedule: %w", err)
	}
	var s Schedule
	found := false
	for i, day := range DayLongLabels {
		v, ok := raw[day+" (คำอธิบาย)"]
		if !ok {
			continue
		}
		found = true
		if v != nil {
			s[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	if !found {
		return Schedule{}, ErrNotFound
	}
	return s, nil
}

func (c *AppsScriptClient) post(ctx context.Context, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *AppsScriptClient) get(ctx context.Context, q url.Values, out any) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	u.RawQuery = q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	body, err := c.do(req)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func (c *AppsScriptClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
