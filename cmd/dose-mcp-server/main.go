package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"warfarin-bot/internal/dose"
)

// EvaluateDoseParams are the inputs of one titration.
type EvaluateDoseParams struct {
	INR         float64 `json:"inr" mcp:"measured INR value"`
	WeeklyDose  float64 `json:"weekly_dose" mcp:"current total weekly warfarin dose in mg"`
	Bleeding    bool    `json:"bleeding,omitempty" mcp:"true if the patient reports bleeding"`
	Supplement  string  `json:"supplement,omitempty" mcp:"herbs or supplements the patient takes, free text"`
	Interaction string  `json:"interaction,omitempty" mcp:"other drugs the patient takes, free text"`
}

// FollowUpParams asks for the recheck interval of an INR.
type FollowUpParams struct {
	INR float64 `json:"inr" mcp:"measured INR value"`
}

// CheckCatalogParams matches free text against the catalogs.
type CheckCatalogParams struct {
	Text string `json:"text" mcp:"free text listing supplements or drugs"`
}

// DoseMCPServer exposes the titration rules as MCP tools.
type DoseMCPServer struct {
	eval *dose.Evaluator
}

func NewDoseMCPServer(eval *dose.Evaluator) *DoseMCPServer {
	return &DoseMCPServer{eval: eval}
}

func errorResult(format string, args ...any) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: "❌ " + fmt.Sprintf(format, args...)}},
	}
}

func validNumber(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// EvaluateDose returns the recommendation text plus its structured fields in Meta.
func (s *DoseMCPServer) EvaluateDose(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[EvaluateDoseParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	log.Printf("💊 MCP Server: evaluate_dose inr=%.2f weekly=%.1f bleeding=%t", args.INR, args.WeeklyDose, args.Bleeding)

	if !validNumber(args.INR) {
		return errorResult("inr must be a finite number"), nil
	}
	if !validNumber(args.WeeklyDose) || args.WeeklyDose <= 0 {
		return errorResult("weekly_dose must be a positive number"), nil
	}

	rec := s.eval.Evaluate(dose.Input{
		INR:         args.INR,
		WeeklyDose:  args.WeeklyDose,
		Bleeding:    args.Bleeding,
		Supplement:  args.Supplement,
		Interaction: args.Interaction,
	})

	meta := map[string]any{
		"band":     string(rec.Band),
		"critical": rec.Critical(),
		"success":  true,
	}
	if rec.NewDose != nil {
		meta["new_dose_low"] = rec.NewDose.Low
		meta["new_dose_high"] = rec.NewDose.High
	}
	if !rec.Critical() {
		meta["follow_up_days"] = rec.FollowUpDays
		meta["follow_up_date"] = rec.FollowUpDate.Format("2006-01-02")
	}
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: rec.Text()}},
		Meta:    meta,
	}, nil
}

// FollowUpInterval returns the days until the next INR check.
func (s *DoseMCPServer) FollowUpInterval(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[FollowUpParams]) (*mcp.CallToolResultFor[any], error) {
	inr := params.Arguments.INR
	if !validNumber(inr) {
		return errorResult("inr must be a finite number"), nil
	}
	days := dose.FollowUpDays(inr)
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("📅 INR %.2f: recheck in %d days", inr, days)}},
		Meta:    map[string]any{"days": days, "success": true},
	}, nil
}

// CheckCatalog lists the catalog entries found in the text.
func (s *DoseMCPServer) CheckCatalog(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[CheckCatalogParams]) (*mcp.CallToolResultFor[any], error) {
	text := params.Arguments.Text
	if dose.IsNone(text) {
		return &mcp.CallToolResultFor[any]{
			Content: []mcp.Content{&mcp.TextContent{Text: "✅ nothing to check"}},
			Meta:    map[string]any{"supplements": []string{}, "interactions": []string{}, "success": true},
		}, nil
	}

	c := s.eval.Catalogs()
	supplements := c.Supplements.Match(text)
	interactions := c.Interactions.Match(text)

	var b strings.Builder
	switch {
	case len(supplements) == 0 && len(interactions) == 0:
		b.WriteString("⚠️ no known entries found, refer to a pharmacist")
	default:
		if len(supplements) > 0 {
			fmt.Fprintf(&b, "🌿 supplements: %s", strings.Join(supplements, ", "))
		}
		if len(interactions) > 0 {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "💊 interacting drugs: %s", strings.Join(interactions, ", "))
		}
	}
	if supplements == nil {
		supplements = []string{}
	}
	if interactions == nil {
		interactions = []string{}
	}
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: b.String()}},
		Meta:    map[string]any{"supplements": supplements, "interactions": interactions, "success": true},
	}, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	catalogs, err := dose.LoadCatalogs(os.Getenv("CATALOG_PATH"))
	if err != nil {
		log.Fatalf("❌ Failed to load catalogs: %v", err)
	}

	log.Printf("🚀 Starting Warfarin dose MCP Server")

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "warfarin-dose-mcp",
		Version: "1.0.0",
	}, nil)

	doseServer := NewDoseMCPServer(dose.NewEvaluator(catalogs, time.Now))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "evaluate_dose",
		Description: "Computes the warfarin dose titration recommendation for an INR and weekly dose",
	}, doseServer.EvaluateDose)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "follow_up_interval",
		Description: "Returns the number of days until the next INR check",
	}, doseServer.FollowUpInterval)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_catalog",
		Description: "Finds known INR-affecting supplements and interacting drugs in free text",
	}, doseServer.CheckCatalog)

	log.Printf("📋 Registered %d tools: evaluate_dose, follow_up_interval, check_catalog", 3)
	log.Printf("🔗 Starting server on stdin/stdout...")

	if err := server.Run(context.Background(), mcp.NewStdioTransport()); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}
