package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"warfarin-bot/internal/records"
	"warfarin-bot/internal/session"
	"warfarin-bot/internal/storage"
)

// command handles trigger phrases and symptom answers. They take priority
// over any active session; flow starters replace it.
func (e *Engine) command(ctx context.Context, userID, input string) (result, bool) {
	switch {
	case slices.Contains(BleedingSymptoms, input):
		return result{replies: []Reply{text(msgBleedingFound)}, outcome: storage.OutcomeCommand}, true
	case slices.Contains(ClotSymptoms, input):
		return result{replies: []Reply{text(msgClotFound)}, outcome: storage.OutcomeCommand}, true
	case input == SymptomNone:
		return result{replies: []Reply{text(msgNoSymptoms)}, outcome: storage.OutcomeCommand}, true
	}

	switch input {
	case CmdLogINR, CmdStart:
		return e.startLog(ctx, userID), true
	case CmdTitration:
		return e.startFlow(userID, session.FlowTitration, session.StepAskINR, text(msgAskINR)), true
	case CmdEditProfile:
		return e.startFlow(userID, session.FlowProfile, session.StepEditName, text(msgEditName)), true
	case CmdCancel:
		return e.cancel(userID), true
	case CmdChart:
		return e.showChart(ctx, userID), true
	case CmdTodayDose:
		return e.todayDose(ctx, userID), true
	case CmdSymptoms:
		return result{replies: []Reply{
			text(msgBleedingHeader, append(slices.Clone(BleedingSymptoms), SymptomNone)...),
			text(msgClotHeader, append(slices.Clone(ClotSymptoms), SymptomNone)...),
		}, outcome: storage.OutcomeCommand}, true
	}
	return result{}, false
}

func (e *Engine) startFlow(userID string, flow session.Flow, step session.Step, first Reply) result {
	s, err := session.New(userID, flow, step)
	if err != nil {
		log.Printf("⚠️ Cannot start %s for %s: %v", flow, userID, err)
		return failed(msgInternal)
	}
	e.start(userID, s)
	return prompt(first)
}

// startLog greets returning users by name and skips straight to the INR step.
// A profile lookup failure is treated like a new user.
func (e *Engine) startLog(ctx context.Context, userID string) result {
	profile, err := e.sink.FetchProfile(ctx, userID)
	if err != nil {
		log.Printf("⚠️ Profile lookup for %s failed: %v", userID, err)
		profile = records.Profile{}
	}
	if !profile.Known() {
		return e.startFlow(userID, session.FlowLogINR, session.StepAskName, text(msgAskName))
	}
	s, err := session.New(userID, session.FlowLogINR, session.StepAskINR)
	if err != nil {
		log.Printf("⚠️ Cannot start log flow for %s: %v", userID, err)
		return failed(msgInternal)
	}
	s.Log.Name = profile.FullName()
	s.Log.Birthdate = profile.Birthdate
	e.start(userID, s)
	return prompt(text(fmt.Sprintf(msgWelcomeBack, s.Log.Name)), text(msgAskINR))
}

func (e *Engine) cancel(userID string) result {
	had := false
	e.sessions.Update(userID, func(cur *session.Session) *session.Session {
		had = cur != nil
		return nil
	})
	if !had {
		return result{replies: []Reply{text(msgNoSession, Menu...)}, outcome: storage.OutcomeCommand}
	}
	return result{replies: []Reply{text(msgCancelled, Menu...)}, outcome: storage.OutcomeCommand}
}

func (e *Engine) showChart(ctx context.Context, userID string) result {
	history, err := e.sink.FetchHistory(ctx, userID)
	if err != nil {
		log.Printf("❌ Error fetching INR history for %s: %v", userID, err)
		return failed(msgHistoryError)
	}
	if len(history) == 0 {
		return result{replies: []Reply{text(msgNoHistory)}, outcome: storage.OutcomeCommand}
	}
	dates := make([]string, len(history))
	values := make([]float64, len(history))
	for i, p := range history {
		dates[i], values[i] = p.Date, p.INR
	}
	img, err := e.chart.Render(dates, values)
	if err != nil {
		log.Printf("❌ Error rendering INR chart for %s: %v", userID, err)
		return failed(msgHistoryError)
	}
	return result{replies: []Reply{{Image: img}}, outcome: storage.OutcomeCommand}
}

func (e *Engine) todayDose(ctx context.Context, userID string) result {
	now := e.today()
	day := records.DayLongLabels[records.DayIndex(now)]
	sched, err := e.sink.LatestSchedule(ctx, userID)
	switch {
	case errors.Is(err, records.ErrNotFound):
		return result{replies: []Reply{text(msgDoseMissing)}, outcome: storage.OutcomeCommand}
	case err != nil:
		log.Printf("❌ Error fetching today's dose for %s: %v", userID, err)
		return failed(msgDoseError)
	}
	entry := sched[records.DayIndex(now)]
	if NoDose(entry) {
		return result{replies: []Reply{text(fmt.Sprintf(msgNoDoseToday, day))}, outcome: storage.OutcomeCommand}
	}
	return result{replies: []Reply{text(fmt.Sprintf(msgDoseToday, day, entry))}, outcome: storage.OutcomeCommand}
}

// NoDose reports whether a schedule entry means no warfarin that day.
func NoDose(entry string) bool {
	entry = strings.TrimSpace(entry)
	return entry == "" || entry == "-" || entry == "งดยา"
}
