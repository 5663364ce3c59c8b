package session

import (
	"fmt"
	"time"
)

// Flow is one named dialogue variant.
type Flow string

const (
	FlowLogINR    Flow = "log_inr"
	FlowTitration Flow = "titration"
	FlowProfile   Flow = "edit_profile"
)

// Step is a position inside a flow.
type Step string

const (
	StepAskName             Step = "ask_name"
	StepAskBirthdate        Step = "ask_birthdate"
	StepAskINR              Step = "ask_inr"
	StepAskTWD              Step = "ask_twd"
	StepAskBleeding         Step = "ask_bleeding"
	StepChooseSupplement    Step = "choose_supplement"
	StepAskCustomSupplement Step = "ask_custom_supplement"
	StepChooseInteraction   Step = "choose_interaction"
	StepAskInteraction      Step = "ask_interaction"
	StepAskSupplement       Step = "ask_supplement"
	StepAskWarfDose         Step = "ask_warf_dose"
	StepEditName            Step = "edit_name"
	StepEditBirthdate       Step = "edit_birthdate"
	StepDone                Step = "terminal"
)

// sequences fixes the order of steps per flow. StepDone is implicitly last.
var sequences = map[Flow][]Step{
	FlowLogINR:    {StepAskName, StepAskBirthdate, StepAskINR, StepAskBleeding, StepAskSupplement, StepAskWarfDose},
	FlowTitration: {StepAskINR, StepAskTWD, StepAskBleeding, StepChooseSupplement, StepAskCustomSupplement, StepChooseInteraction, StepAskInteraction},
	FlowProfile:   {StepEditName, StepEditBirthdate},
}

func position(f Flow, s Step) int {
	seq := sequences[f]
	if s == StepDone {
		return len(seq)
	}
	for i, x := range seq {
		if x == s {
			return i
		}
	}
	return -1
}

// LogForm holds answers collected by the INR logging flow.
type LogForm struct {
	Name       string
	Birthdate  string
	INR        float64
	Bleeding   string
	Supplement string
	Doses      []string
}

// TitrationForm holds answers collected by the dose titration flow.
type TitrationForm struct {
	INR         float64
	WeeklyDose  float64
	Bleeding    bool
	Supplement  string
	Interaction string
}

// ProfileForm holds answers collected by the profile edit flow.
type ProfileForm struct {
	Name      string
	Birthdate string
}

// Session is one user's in-progress dialogue. Exactly one form is set,
// matching Flow.
type Session struct {
	UserID    string
	Flow      Flow
	Step      Step
	Log       *LogForm
	Titration *TitrationForm
	Profile   *ProfileForm
	CreatedAt time.Time
	TouchedAt time.Time
}

// New creates a session positioned at start, which must belong to flow.
func New(userID string, flow Flow, start Step) (*Session, error) {
	if position(flow, start) < 0 || start == StepDone {
		return nil, fmt.Errorf("step %s is not part of flow %s", start, flow)
	}
	s := &Session{UserID: userID, Flow: flow, Step: start}
	switch flow {
	case FlowLogINR:
		s.Log = &LogForm{}
	case FlowTitration:
		s.Titration = &TitrationForm{}
	case FlowProfile:
		s.Profile = &ProfileForm{}
	}
	return s, nil
}

// Advance moves to a later step of the same flow. Moving backwards or
// sideways is an error and leaves the session unchanged.
func (s *Session) Advance(next Step) error {
	cur, to := position(s.Flow, s.Step), position(s.Flow, next)
	if to < 0 {
		return fmt.Errorf("step %s is not part of flow %s", next, s.Flow)
	}
	if to <= cur {
		return fmt.Errorf("cannot move from %s back to %s", s.Step, next)
	}
	s.Step = next
	return nil
}

// Finish marks the session terminal; the store drops it on write-back.
func (s *Session) Finish() { s.Step = StepDone }

// Done reports whether the session reached its terminal step.
func (s *Session) Done() bool { return s.Step == StepDone }

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Log != nil {
		l := *s.Log
		l.Doses = append([]string(nil), s.Log.Doses...)
		c.Log = &l
	}
	if s.Titration != nil {
		t := *s.Titration
		c.Titration = &t
	}
	if s.Profile != nil {
		p := *s.Profile
		c.Profile = &p
	}
	return &c
}
