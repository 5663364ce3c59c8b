package main

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"warfarin-bot/internal/dose"
)

func newTestServer() *DoseMCPServer {
	now := func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	return NewDoseMCPServer(dose.NewEvaluator(dose.DefaultCatalogs(), now))
}

func resultText(t *testing.T, res *mcp.CallToolResultFor[any]) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(res.Content))
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return tc.Text
}

func TestEvaluateDose(t *testing.T) {
	s := newTestServer()
	res, err := s.EvaluateDose(context.Background(), nil, &mcp.CallToolParamsFor[EvaluateDoseParams]{
		Arguments: EvaluateDoseParams{INR: 3.5, WeeklyDose: 20},
	})
	if err != nil || res.IsError {
		t.Fatalf("unexpected failure: %v %+v", err, res)
	}
	if got := resultText(t, res); !strings.Contains(got, "18.0 – 19.0") {
		t.Fatalf("unexpected text: %q", got)
	}
	if res.Meta["band"] != string(dose.Band31To39) || res.Meta["follow_up_days"] != 14 {
		t.Fatalf("unexpected meta: %+v", res.Meta)
	}
}

func TestEvaluateDose_Bleeding(t *testing.T) {
	s := newTestServer()
	res, _ := s.EvaluateDose(context.Background(), nil, &mcp.CallToolParamsFor[EvaluateDoseParams]{
		Arguments: EvaluateDoseParams{INR: 2.5, WeeklyDose: 20, Bleeding: true},
	})
	if got := resultText(t, res); got != dose.BleedingMessage {
		t.Fatalf("bleeding must return only the critical message, got %q", got)
	}
	if _, ok := res.Meta["follow_up_days"]; ok {
		t.Fatalf("critical result must not carry a follow-up")
	}
}

func TestEvaluateDose_RejectsBadNumbers(t *testing.T) {
	s := newTestServer()
	for _, p := range []EvaluateDoseParams{
		{INR: math.NaN(), WeeklyDose: 20},
		{INR: 2.5, WeeklyDose: 0},
		{INR: 2.5, WeeklyDose: math.Inf(1)},
	} {
		res, err := s.EvaluateDose(context.Background(), nil, &mcp.CallToolParamsFor[EvaluateDoseParams]{Arguments: p})
		if err != nil || !res.IsError {
			t.Fatalf("expected tool error for %+v", p)
		}
	}
}

func TestFollowUpInterval(t *testing.T) {
	s := newTestServer()
	res, _ := s.FollowUpInterval(context.Background(), nil, &mcp.CallToolParamsFor[FollowUpParams]{Arguments: FollowUpParams{INR: 2.5}})
	if res.Meta["days"] != 56 {
		t.Fatalf("expected 56 days, got %+v", res.Meta)
	}
}

func TestCheckCatalog(t *testing.T) {
	s := newTestServer()
	res, _ := s.CheckCatalog(context.Background(), nil, &mcp.CallToolParamsFor[CheckCatalogParams]{Arguments: CheckCatalogParams{Text: "กระเทียม และ NSAIDs"}})
	got := resultText(t, res)
	if !strings.Contains(got, "กระเทียม") || !strings.Contains(got, "NSAIDs") {
		t.Fatalf("unexpected text: %q", got)
	}

	res, _ = s.CheckCatalog(context.Background(), nil, &mcp.CallToolParamsFor[CheckCatalogParams]{Arguments: CheckCatalogParams{Text: "something else"}})
	if !strings.HasPrefix(resultText(t, res), "⚠️") {
		t.Fatalf("unknown text should be flagged")
	}
}
