// Package reminder pushes each patient today's warfarin instructions.
// It runs as a batch job and shares nothing with the dialogue sessions.
package reminder

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"warfarin-bot/internal/records"
)

// Notifier delivers one text to one user.
type Notifier interface {
	Push(ctx context.Context, userID, text string) error
}

// Result counts what one sweep did.
type Result struct {
	Sent    int
	Skipped int
	Failed  int
}

type Sweeper struct {
	roster   records.Roster
	notifier Notifier
	now      func() time.Time
	loc      *time.Location
}

func NewSweeper(roster records.Roster, notifier Notifier, loc *time.Location) *Sweeper {
	if loc == nil {
		loc = time.Local
	}
	return &Sweeper{roster: roster, notifier: notifier, now: time.Now, loc: loc}
}

// Message builds the reminder text, or "" when there is nothing to take.
func Message(e records.RosterEntry, day int) string {
	text := strings.TrimSpace(e.Schedule[day])
	if text == "" || text == "-" {
		return ""
	}
	return fmt.Sprintf("📅 วันนี้วัน%s\nคุณ %s\nกรุณากินยา\n%s", records.DayLabels[day], e.Name(), text)
}

// Run sends today's reminders. A failed push is logged and the sweep continues.
func (s *Sweeper) Run(ctx context.Context) (Result, error) {
	var res Result
	entries, err := s.roster.Roster(ctx)
	if err != nil {
		return res, fmt.Errorf("load roster: %w", err)
	}
	day := records.DayIndex(s.now().In(s.loc))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		msg := Message(e, day)
		if msg == "" {
			res.Skipped++
			continue
		}
		if err := s.notifier.Push(ctx, e.UserID, msg); err != nil {
			log.Printf("❌ Reminder to %s failed: %v", e.UserID, err)
			res.Failed++
			continue
		}
		res.Sent++
	}
	log.Printf("💊 Reminders: sent=%d skipped=%d failed=%d", res.Sent, res.Skipped, res.Failed)
	return res, nil
}
