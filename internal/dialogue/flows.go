package dialogue

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"warfarin-bot/internal/dose"
	"warfarin-bot/internal/records"
	"warfarin-bot/internal/session"
	"warfarin-bot/internal/storage"
)

// ParseYesNo accepts yes/no in any case, tolerating one trailing period.
func ParseYesNo(input string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(input))
	t = strings.TrimSuffix(t, ".")
	if t == "yes" || t == "no" {
		return t, true
	}
	return "", false
}

// ParseSchedule splits a comma-separated week of doses. It needs exactly
// seven entries; each is trimmed but otherwise kept as typed.
func ParseSchedule(input string) (records.Schedule, bool) {
	parts := strings.Split(input, ",")
	if len(parts) != 7 {
		return records.Schedule{}, false
	}
	var s records.Schedule
	for i, p := range parts {
		s[i] = strings.TrimSpace(p)
	}
	return s, true
}

// SchedulePreview renders one line per weekday, Monday first.
func SchedulePreview(s records.Schedule) string {
	lines := make([]string, len(s))
	for i, d := range s {
		lines[i] = fmt.Sprintf("📅 วัน%s: %s mg", records.DayLabels[i], d)
	}
	return strings.Join(lines, "\n")
}

func formatINR(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (e *Engine) logStep(ctx context.Context, s *session.Session, input string) (*session.Session, result) {
	f := s.Log
	switch s.Step {
	case session.StepAskName:
		f.Name = input
		return advance(s, session.StepAskBirthdate, text(msgAskBirthdate))

	case session.StepAskBirthdate:
		f.Birthdate = input
		return advance(s, session.StepAskINR, text(msgAskINR))

	case session.StepAskINR:
		v, err := dose.ParseNumber(input)
		if err != nil {
			return s, reprompt(text(msgBadINR))
		}
		f.INR = v
		return advance(s, session.StepAskBleeding, text(msgAskBleeding, yesNo...))

	case session.StepAskBleeding:
		b, ok := ParseYesNo(input)
		if !ok {
			return s, reprompt(text(msgBadBleeding, yesNo...))
		}
		f.Bleeding = b
		return advance(s, session.StepAskSupplement, text(msgAskSupp))

	case session.StepAskSupplement:
		f.Supplement = input
		return advance(s, session.StepAskWarfDose, text(msgAskDoses))

	case session.StepAskWarfDose:
		sched, ok := ParseSchedule(input)
		if !ok {
			return s, reprompt(text(msgBadDoses))
		}
		f.Doses = sched[:]
		return e.submitLog(ctx, s, sched)
	}
	return unexpectedStep(s)
}

// submitLog is terminal: the session ends whether or not the sink accepts the record.
func (e *Engine) submitLog(ctx context.Context, s *session.Session, sched records.Schedule) (*session.Session, result) {
	f := s.Log
	s.Finish()
	rec := records.Record{
		UserID:     s.UserID,
		Name:       f.Name,
		Birthdate:  f.Birthdate,
		INR:        f.INR,
		Bleeding:   f.Bleeding,
		Supplement: f.Supplement,
		Doses:      sched,
		LoggedAt:   e.now(),
	}
	outcome, err := e.sink.SubmitRecord(ctx, rec)
	if err != nil {
		log.Printf("❌ Failed to submit INR record for %s: %v", s.UserID, err)
		return s, failed(msgSaveFailed)
	}
	log.Printf("✅ INR record for %s saved: %s", s.UserID, outcome)

	summary := fmt.Sprintf("✅ ข้อมูลถูกบันทึกเรียบร้อยแล้ว\n👤 %s\n🧪 INR: %s\n🩸 Bleeding: %s\n🌿 Supplement: %s\n\n💊 Warfarin (1 week):\n%s",
		f.Name, formatINR(f.INR), f.Bleeding, f.Supplement, SchedulePreview(sched))
	return s, result{replies: []Reply{text(summary, Menu...)}, outcome: storage.OutcomeRecorded}
}

func (e *Engine) titrationStep(s *session.Session, input string) (*session.Session, result) {
	f := s.Titration
	cat := e.eval.Catalogs()
	switch s.Step {
	case session.StepAskINR:
		v, err := dose.ParseNumber(input)
		if err != nil {
			return s, reprompt(text(msgBadINR))
		}
		f.INR = v
		return advance(s, session.StepAskTWD, text(msgAskTWD))

	case session.StepAskTWD:
		v, err := dose.ParsePositive(input)
		if err != nil {
			return s, reprompt(text(msgBadTWD))
		}
		f.WeeklyDose = v
		return advance(s, session.StepAskBleeding, text(msgAskBleeding, yesNo...))

	case session.StepAskBleeding:
		b, ok := ParseYesNo(input)
		if !ok {
			return s, reprompt(text(msgBadBleeding, yesNo...))
		}
		f.Bleeding = b == "yes"
		if f.Bleeding {
			return e.recommend(s)
		}
		return advance(s, session.StepChooseSupplement, text(msgChooseSupplement, choices(cat.Supplements)...))

	case session.StepChooseSupplement:
		switch {
		case input == ChoiceOther:
			return advance(s, session.StepAskCustomSupplement, text(msgAskCustomSupp))
		case input == ChoiceNone || cat.Supplements.Has(input):
			f.Supplement = input
			return advance(s, session.StepChooseInteraction, text(msgChooseInteraction, choices(cat.Interactions)...))
		}
		return s, reprompt(text(msgBadChoice, choices(cat.Supplements)...))

	case session.StepAskCustomSupplement:
		f.Supplement = input
		return advance(s, session.StepChooseInteraction, text(msgChooseInteraction, choices(cat.Interactions)...))

	case session.StepChooseInteraction:
		switch {
		case input == ChoiceOther:
			return advance(s, session.StepAskInteraction, text(msgAskCustomDrug))
		case input == ChoiceNone || cat.Interactions.Has(input):
			f.Interaction = input
			return e.recommend(s)
		}
		return s, reprompt(text(msgBadChoice, choices(cat.Interactions)...))

	case session.StepAskInteraction:
		f.Interaction = input
		return e.recommend(s)
	}
	return unexpectedStep(s)
}

func (e *Engine) recommend(s *session.Session) (*session.Session, result) {
	f := s.Titration
	s.Finish()
	rec := e.eval.Evaluate(dose.Input{
		INR:         f.INR,
		WeeklyDose:  f.WeeklyDose,
		Bleeding:    f.Bleeding,
		Supplement:  f.Supplement,
		Interaction: f.Interaction,
	})
	outcome := storage.OutcomeRecommended
	if rec.Critical() {
		outcome = storage.OutcomeCritical
	}
	return s, result{replies: []Reply{text(rec.Text())}, outcome: outcome}
}

func choices(c dose.Catalog) []string {
	out := make([]string, 0, len(c.Names)+2)
	out = append(out, ChoiceNone)
	out = append(out, c.Names...)
	return append(out, ChoiceOther)
}

func (e *Engine) profileStep(ctx context.Context, s *session.Session, input string) (*session.Session, result) {
	f := s.Profile
	switch s.Step {
	case session.StepEditName:
		if input != "-" {
			f.Name = input
		}
		return advance(s, session.StepEditBirthdate, text(msgEditBirthdate))

	case session.StepEditBirthdate:
		if input != "-" {
			f.Birthdate = input
		}
		s.Finish()
		if f.Name == "" && f.Birthdate == "" {
			return s, result{replies: []Reply{text(msgProfileSame, Menu...)}, outcome: storage.OutcomeCommand}
		}
		if err := e.sink.UpdateProfile(ctx, s.UserID, f.Name, f.Birthdate); err != nil {
			log.Printf("❌ Failed to update profile for %s: %v", s.UserID, err)
			return s, failed(msgSaveFailed)
		}
		return s, result{replies: []Reply{text(msgProfileUpdated, Menu...)}, outcome: storage.OutcomeCommand}
	}
	return unexpectedStep(s)
}

func unexpectedStep(s *session.Session) (*session.Session, result) {
	log.Printf("⚠️ Unexpected step %s in flow %s for %s, dropping session", s.Step, s.Flow, s.UserID)
	return nil, failed(msgInternal)
}
