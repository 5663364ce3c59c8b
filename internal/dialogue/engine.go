// Package dialogue drives the per-user conversation: the INR logging,
// dose titration and profile edit flows plus the stateless commands.
package dialogue

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"time"

	"warfarin-bot/internal/dose"
	"warfarin-bot/internal/records"
	"warfarin-bot/internal/session"
	"warfarin-bot/internal/storage"
)

// Reply is one outbound message. Exactly one of Text or Image is set;
// QuickReplies attaches fixed choices to it.
type Reply struct {
	Text         string
	Image        []byte
	QuickReplies []string
}

// Message is one inbound text message from a gateway. Signature checks
// happen before it gets here.
type Message struct {
	Channel string
	UserID  string
	Text    string
}

// Renderer turns an INR series into an image.
type Renderer interface {
	Render(dates []string, values []float64) ([]byte, error)
}

type result struct {
	replies []Reply
	outcome storage.Outcome
}

func text(s string, quick ...string) Reply { return Reply{Text: s, QuickReplies: quick} }

func prompt(rs ...Reply) result { return result{replies: rs, outcome: storage.OutcomePrompt} }

func reprompt(rs ...Reply) result { return result{replies: rs, outcome: storage.OutcomeReprompt} }

func failed(msg string) result {
	return result{replies: []Reply{text(msg)}, outcome: storage.OutcomeFailed}
}

// Engine is safe for concurrent use; per-user ordering comes from the session store.
type Engine struct {
	sessions *session.Store
	eval     *dose.Evaluator
	sink     records.Sink
	chart    Renderer
	recorder storage.Recorder
	now      func() time.Time
	loc      *time.Location
}

// Option customises an Engine.
type Option func(*Engine)

// WithRecorder writes every exchange to the audit log.
func WithRecorder(r storage.Recorder) Option { return func(e *Engine) { e.recorder = r } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithLocation sets the timezone used to pick "today".
func WithLocation(loc *time.Location) Option { return func(e *Engine) { e.loc = loc } }

func New(sessions *session.Store, eval *dose.Evaluator, sink records.Sink, chart Renderer, opts ...Option) *Engine {
	e := &Engine{
		sessions: sessions,
		eval:     eval,
		sink:     sink,
		chart:    chart,
		now:      time.Now,
		loc:      time.Local,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// OnMessage handles one inbound message and returns the replies in order.
// It never panics and always returns at least one reply.
func (e *Engine) OnMessage(ctx context.Context, msg Message) (replies []Reply) {
	res := result{outcome: storage.OutcomeFailed}
	var flow session.Flow
	var step session.Step
	defer func() {
		if r := recover(); r != nil {
			log.Printf("🔥 panic handling message from %s: %v\n%s", msg.UserID, r, debug.Stack())
			res = failed(msgInternal)
			e.sessions.Delete(msg.UserID)
		}
		replies = res.replies
		e.audit(msg, flow, step, res)
	}()

	input := strings.TrimSpace(msg.Text)
	if r, ok := e.command(ctx, msg.UserID, input); ok {
		res = r
		return
	}

	e.sessions.Update(msg.UserID, func(cur *session.Session) *session.Session {
		if cur == nil {
			res = result{replies: []Reply{text(msgHelp, Menu...)}, outcome: storage.OutcomeHelp}
			return nil
		}
		flow, step = cur.Flow, cur.Step
		if input == "" {
			res = reprompt(text(msgEmptyText))
			return cur
		}
		next, r := e.step(ctx, cur, input)
		res = r
		return next
	})
	return
}

func (e *Engine) step(ctx context.Context, s *session.Session, input string) (*session.Session, result) {
	switch s.Flow {
	case session.FlowLogINR:
		return e.logStep(ctx, s, input)
	case session.FlowTitration:
		return e.titrationStep(s, input)
	case session.FlowProfile:
		return e.profileStep(ctx, s, input)
	}
	log.Printf("⚠️ Unknown flow %q for user %s, dropping session", s.Flow, s.UserID)
	return nil, result{replies: []Reply{text(msgHelp, Menu...)}, outcome: storage.OutcomeHelp}
}

// advance moves s to next and emits rs. A rejected move ends the session.
func advance(s *session.Session, next session.Step, rs ...Reply) (*session.Session, result) {
	if err := s.Advance(next); err != nil {
		log.Printf("⚠️ Session %s: %v", s.UserID, err)
		return nil, failed(msgInternal)
	}
	return s, prompt(rs...)
}

// start replaces any existing session with a fresh one.
func (e *Engine) start(userID string, s *session.Session) {
	e.sessions.Update(userID, func(*session.Session) *session.Session { return s })
}

func (e *Engine) today() time.Time { return e.now().In(e.loc) }

func (e *Engine) audit(msg Message, flow session.Flow, step session.Step, res result) {
	if e.recorder == nil {
		return
	}
	var texts []string
	for _, r := range res.replies {
		if r.Image != nil {
			texts = append(texts, fmt.Sprintf("[image %d bytes]", len(r.Image)))
			continue
		}
		texts = append(texts, r.Text)
	}
	ev := storage.Event{
		Timestamp: e.now(),
		Channel:   msg.Channel,
		UserID:    msg.UserID,
		Flow:      string(flow),
		Step:      string(step),
		Message:   msg.Text,
		Reply:     strings.Join(texts, "\n---\n"),
		Outcome:   res.outcome,
	}
	if err := e.recorder.AppendEvent(ev); err != nil {
		log.Printf("⚠️ Failed to append audit event: %v", err)
	}
}
