package dialogue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"warfarin-bot/internal/dose"
	"warfarin-bot/internal/records"
	"warfarin-bot/internal/session"
	"warfarin-bot/internal/storage"
)

type fakeSink struct {
	mu         sync.Mutex
	profile    records.Profile
	profileErr error
	history    []records.HistoryPoint
	historyErr error
	schedule   records.Schedule
	schedErr   error
	submitErr  error
	submitted  []records.Record
	updates    [][3]string
}

func (f *fakeSink) SubmitRecord(_ context.Context, r records.Record) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.submitted = append(f.submitted, r)
	return "Success", nil
}

func (f *fakeSink) FetchHistory(context.Context, string) ([]records.HistoryPoint, error) {
	return f.history, f.historyErr
}

func (f *fakeSink) FetchProfile(context.Context, string) (records.Profile, error) {
	return f.profile, f.profileErr
}

func (f *fakeSink) UpdateProfile(_ context.Context, userID, name, birthdate string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, [3]string{userID, name, birthdate})
	return nil
}

func (f *fakeSink) LatestSchedule(context.Context, string) (records.Schedule, error) {
	return f.schedule, f.schedErr
}

type fakeChart struct {
	dates  []string
	values []float64
	err    error
	panics bool
}

func (c *fakeChart) Render(dates []string, values []float64) ([]byte, error) {
	if c.panics {
		panic("renderer exploded")
	}
	c.dates, c.values = dates, values
	if c.err != nil {
		return nil, c.err
	}
	return []byte("\x89PNG"), nil
}

type memRecorder struct {
	mu     sync.Mutex
	events []storage.Event
}

func (m *memRecorder) AppendEvent(ev storage.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *memRecorder) LoadEvents() ([]storage.Event, error) { return m.events, nil }

// 2025-03-10 is a Monday.
var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type harness struct {
	e     *Engine
	store *session.Store
	sink  *fakeSink
	chart *fakeChart
	audit *memRecorder
}

func newHarness() *harness {
	now := func() time.Time { return fixedNow }
	h := &harness{
		store: session.NewStore(30*time.Minute, now),
		sink:  &fakeSink{},
		chart: &fakeChart{},
		audit: &memRecorder{},
	}
	eval := dose.NewEvaluator(dose.DefaultCatalogs(), now)
	h.e = New(h.store, eval, h.sink, h.chart, WithRecorder(h.audit), WithClock(now), WithLocation(time.UTC))
	return h
}

func (h *harness) send(t *testing.T, msg string) []Reply {
	t.Helper()
	replies := h.e.OnMessage(context.Background(), Message{Channel: "test", UserID: "U1", Text: msg})
	if len(replies) == 0 {
		t.Fatalf("no reply for %q", msg)
	}
	return replies
}

func (h *harness) sendAll(t *testing.T, msgs ...string) []Reply {
	t.Helper()
	var last []Reply
	for _, m := range msgs {
		last = h.send(t, m)
	}
	return last
}

func (h *harness) step(t *testing.T) session.Step {
	t.Helper()
	s, ok := h.store.Get("U1")
	if !ok {
		return ""
	}
	return s.Step
}

func TestNoSessionGetsHelp(t *testing.T) {
	h := newHarness()
	r := h.send(t, "สวัสดี")
	if r[0].Text != msgHelp || len(r[0].QuickReplies) != len(Menu) {
		t.Fatalf("unexpected reply: %+v", r)
	}
	if len(h.audit.events) != 1 || h.audit.events[0].Outcome != storage.OutcomeHelp {
		t.Fatalf("help not audited: %+v", h.audit.events)
	}
}

func TestLogFlow_NewUser(t *testing.T) {
	h := newHarness()
	if r := h.send(t, CmdLogINR); r[0].Text != msgAskName {
		t.Fatalf("want name prompt, got %q", r[0].Text)
	}
	h.sendAll(t, "สมชาย ใจดี", "01/01/1960", "2.7")
	if r := h.send(t, "No."); r[0].Text != msgAskSupp {
		t.Fatalf("trailing period should be tolerated, got %q", r[0].Text)
	}
	h.send(t, "ไม่มี")
	r := h.send(t, " 3, 3,3 ,3,3,1.5, 0 ")

	if h.step(t) != "" {
		t.Fatalf("session should be cleared after submit")
	}
	if len(h.sink.submitted) != 1 {
		t.Fatalf("want one record, got %d", len(h.sink.submitted))
	}
	got := h.sink.submitted[0]
	if got.Name != "สมชาย ใจดี" || got.Birthdate != "01/01/1960" || got.INR != 2.7 || got.Bleeding != "no" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.Doses != (records.Schedule{"3", "3", "3", "3", "3", "1.5", "0"}) {
		t.Fatalf("unexpected doses: %+v", got.Doses)
	}

	want := "✅ ข้อมูลถูกบันทึกเรียบร้อยแล้ว\n👤 สมชาย ใจดี\n🧪 INR: 2.7\n🩸 Bleeding: no\n🌿 Supplement: ไม่มี\n\n💊 Warfarin (1 week):\n" +
		"📅 วันจันทร์: 3 mg\n📅 วันอังคาร: 3 mg\n📅 วันพุธ: 3 mg\n📅 วันพฤหัส: 3 mg\n📅 วันศุกร์: 3 mg\n📅 วันเสาร์: 1.5 mg\n📅 วันอาทิตย์: 0 mg"
	if r[0].Text != want {
		t.Fatalf("unexpected summary:\n%s\nwant:\n%s", r[0].Text, want)
	}

	// replay after termination is "no session"
	if r := h.send(t, "3,3,3,3,3,1.5,0"); r[0].Text != msgHelp {
		t.Fatalf("terminated session should not be resumed, got %q", r[0].Text)
	}
	last := h.audit.events[len(h.audit.events)-2]
	if last.Outcome != storage.OutcomeRecorded || last.Flow != string(session.FlowLogINR) {
		t.Fatalf("submit not audited: %+v", last)
	}
}

func TestLogFlow_ReturningUserSkipsIdentity(t *testing.T) {
	h := newHarness()
	h.sink.profile = records.Profile{FirstName: "มานี", LastName: "มีนา", Birthdate: "02/02/1970"}

	r := h.send(t, CmdLogINR)
	if len(r) != 2 || r[0].Text != "🙋‍♂️ ยินดีต้อนรับกลับมาคุณ มานี มีนา" || r[1].Text != msgAskINR {
		t.Fatalf("unexpected greeting: %+v", r)
	}
	if h.step(t) != session.StepAskINR {
		t.Fatalf("want ask_inr, got %s", h.step(t))
	}
	h.sendAll(t, "3", "yes", "-", "1,1,1,1,1,1,1")
	got := h.sink.submitted[0]
	if got.Name != "มานี มีนา" || got.Birthdate != "02/02/1970" || got.Bleeding != "yes" {
		t.Fatalf("profile not carried into record: %+v", got)
	}
}

func TestLogFlow_ProfileErrorFallsBackToNewUser(t *testing.T) {
	h := newHarness()
	h.sink.profileErr = errors.New("timeout")
	if r := h.send(t, CmdStart); r[0].Text != msgAskName {
		t.Fatalf("want name prompt, got %q", r[0].Text)
	}
}

func TestLogFlow_BadINRDoesNotAdvance(t *testing.T) {
	h := newHarness()
	h.sink.profile = records.Profile{FirstName: "A"}
	h.send(t, CmdLogINR)

	if r := h.send(t, "abc"); r[0].Text != msgBadINR {
		t.Fatalf("want INR error, got %q", r[0].Text)
	}
	s, _ := h.store.Get("U1")
	if s.Step != session.StepAskINR || s.Log.INR != 0 {
		t.Fatalf("session mutated by bad input: %+v %+v", s, s.Log)
	}
	if r := h.send(t, "2.4"); r[0].Text != msgAskBleeding {
		t.Fatalf("valid INR should advance, got %q", r[0].Text)
	}
}

func TestLogFlow_BleedingAndDoseValidation(t *testing.T) {
	h := newHarness()
	h.sink.profile = records.Profile{FirstName: "A"}
	h.sendAll(t, CmdLogINR, "2.4")

	r := h.send(t, "maybe")
	if r[0].Text != msgBadBleeding || len(r[0].QuickReplies) != 2 {
		t.Fatalf("want bleeding error with choices, got %+v", r[0])
	}
	h.sendAll(t, "YES", "กระเทียม")
	if r := h.send(t, "3,3,3,3,3,3"); r[0].Text != msgBadDoses {
		t.Fatalf("six doses should be rejected, got %q", r[0].Text)
	}
	if h.step(t) != session.StepAskWarfDose {
		t.Fatalf("step should stay at ask_warf_dose, got %s", h.step(t))
	}
	if len(h.sink.submitted) != 0 {
		t.Fatalf("nothing should be submitted yet")
	}
}

func TestLogFlow_SubmitFailureClearsSession(t *testing.T) {
	h := newHarness()
	h.sink.profile = records.Profile{FirstName: "A"}
	h.sink.submitErr = errors.New("502")
	r := h.sendAll(t, CmdLogINR, "2.4", "no", "ไม่มี", "1,1,1,1,1,1,1")
	if r[0].Text != msgSaveFailed {
		t.Fatalf("want failure text, got %q", r[0].Text)
	}
	if h.step(t) != "" {
		t.Fatalf("session should be cleared on terminal failure")
	}
}

func TestTitration_TargetRange(t *testing.T) {
	h := newHarness()
	r := h.sendAll(t, CmdTitration, "2.7", "21", "no", ChoiceNone, ChoiceNone)
	out := r[0].Text
	if !strings.HasPrefix(out, "คงขนาดยาเดิม") {
		t.Fatalf("want no-change, got %q", out)
	}
	if strings.Contains(out, "⚠️") {
		t.Fatalf("no warnings expected: %q", out)
	}
	if !strings.HasSuffix(out, "ในอีก 56 วัน (05/05/2025)") {
		t.Fatalf("want 56-day follow-up, got %q", out)
	}
	if h.step(t) != "" {
		t.Fatalf("session should be cleared")
	}
}

func TestTitration_HoldBand(t *testing.T) {
	h := newHarness()
	r := h.sendAll(t, CmdTitration, "5.5", "21", "no", ChoiceNone, ChoiceNone)
	out := r[0].Text
	if !strings.HasPrefix(out, "งดยา 1–2 วัน") || strings.Contains(out, "ขนาดยาใหม่") {
		t.Fatalf("unexpected hold text: %q", out)
	}
	if !strings.Contains(out, "ในอีก 7 วัน") {
		t.Fatalf("want 7-day follow-up: %q", out)
	}
}

func TestTitration_BleedingShortCircuits(t *testing.T) {
	h := newHarness()
	r := h.sendAll(t, CmdTitration, "2.7", "21", "yes")
	if len(r) != 1 || r[0].Text != dose.BleedingMessage {
		t.Fatalf("want only the bleeding message, got %+v", r)
	}
	if h.step(t) != "" {
		t.Fatalf("session should be cleared after the critical reply")
	}
	if h.audit.events[len(h.audit.events)-1].Outcome != storage.OutcomeCritical {
		t.Fatalf("critical outcome not audited")
	}
}

func TestTitration_ChoiceSteps(t *testing.T) {
	h := newHarness()
	r := h.sendAll(t, CmdTitration, "3.5", "20", "no")
	if r[0].QuickReplies[0] != ChoiceNone || r[0].QuickReplies[len(r[0].QuickReplies)-1] != ChoiceOther {
		t.Fatalf("unexpected choices: %v", r[0].QuickReplies)
	}
	if r := h.send(t, "อะไรก็ได้"); r[0].Text != msgBadChoice {
		t.Fatalf("free text must be rejected at a choice step, got %q", r[0].Text)
	}
	if h.step(t) != session.StepChooseSupplement {
		t.Fatalf("step should not move, got %s", h.step(t))
	}
	if r := h.send(t, ChoiceOther); r[0].Text != msgAskCustomSupp {
		t.Fatalf("want custom prompt, got %q", r[0].Text)
	}
	h.send(t, "กระเทียมดอง และโสม")
	r = h.send(t, "NSAIDs")
	out := r[0].Text
	if !strings.HasPrefix(out, "ลดขนาดยา 5–10%") {
		t.Fatalf("unexpected action: %q", out)
	}
	supp := strings.Index(out, "กระเทียม, โสม")
	drug := strings.Index(out, "พบยาที่มีปฏิกิริยากับ Warfarin: NSAIDs")
	if supp < 0 || drug < 0 || supp > drug {
		t.Fatalf("warnings missing or misordered: %q", out)
	}
}

func TestTitration_BadDoseRejected(t *testing.T) {
	h := newHarness()
	h.sendAll(t, CmdTitration, "2.7")
	for _, bad := range []string{"0", "-5", "ยี่สิบ", "NaN"} {
		if r := h.send(t, bad); r[0].Text != msgBadTWD {
			t.Fatalf("%q: want dose error, got %q", bad, r[0].Text)
		}
	}
	if h.step(t) != session.StepAskTWD {
		t.Fatalf("step should stay at ask_twd, got %s", h.step(t))
	}
}

func TestTitration_ReplayIsDeterministic(t *testing.T) {
	inputs := []string{CmdTitration, "1.7", "17.5", "no", "ขิง", ChoiceNone}
	a := newHarness().sendAll(t, inputs...)
	b := newHarness().sendAll(t, inputs...)
	if a[0].Text != b[0].Text {
		t.Fatalf("replay differs:\n%s\n%s", a[0].Text, b[0].Text)
	}
}

func TestStartCommandRestartsFlow(t *testing.T) {
	h := newHarness()
	h.sendAll(t, CmdTitration, "2.7")
	h.sink.profile = records.Profile{FirstName: "A"}
	h.send(t, CmdLogINR)
	s, _ := h.store.Get("U1")
	if s.Flow != session.FlowLogINR || s.Step != session.StepAskINR {
		t.Fatalf("flow not restarted: %+v", s)
	}
}

func TestCommandsPreemptSession(t *testing.T) {
	h := newHarness()
	h.sink.profile = records.Profile{FirstName: "A"}
	h.sink.schedule = records.Schedule{"สีชมพู 1 เม็ด", "งดยา"}
	h.send(t, CmdLogINR)

	r := h.send(t, CmdTodayDose)
	if r[0].Text != "📅 วันนี้วันจันทร์\n💊 คุณต้องกินยา Warfarin ดังนี้:\nสีชมพู 1 เม็ด" {
		t.Fatalf("unexpected dose reply: %q", r[0].Text)
	}
	if h.step(t) != session.StepAskINR {
		t.Fatalf("session should survive a stateless command, got %q", h.step(t))
	}
}

func TestTodayDose(t *testing.T) {
	cases := []struct {
		name  string
		sched records.Schedule
		err   error
		want  string
	}{
		{"no dose", records.Schedule{" งดยา "}, nil, "📅 วันนี้วันจันทร์ คุณไม่มียา Warfarin ครับ"},
		{"dash", records.Schedule{"-"}, nil, "📅 วันนี้วันจันทร์ คุณไม่มียา Warfarin ครับ"},
		{"missing", records.Schedule{}, records.ErrNotFound, msgDoseMissing},
		{"failure", records.Schedule{}, errors.New("dns"), msgDoseError},
	}
	for _, tc := range cases {
		h := newHarness()
		h.sink.schedule, h.sink.schedErr = tc.sched, tc.err
		if r := h.send(t, CmdTodayDose); r[0].Text != tc.want {
			t.Errorf("%s: got %q want %q", tc.name, r[0].Text, tc.want)
		}
	}
}

func TestChartCommand(t *testing.T) {
	h := newHarness()
	if r := h.send(t, CmdChart); r[0].Text != msgNoHistory {
		t.Fatalf("want no-history text, got %+v", r[0])
	}

	h.sink.history = []records.HistoryPoint{{Date: "01/03", INR: 2.1}, {Date: "08/03", INR: 6.4}}
	r := h.send(t, CmdChart)
	if r[0].Image == nil || r[0].Text != "" {
		t.Fatalf("want an image reply, got %+v", r[0])
	}
	if len(h.chart.dates) != 2 || h.chart.dates[1] != "08/03" || h.chart.values[1] != 6.4 {
		t.Fatalf("renderer got %v %v", h.chart.dates, h.chart.values)
	}

	h.sink.historyErr = errors.New("down")
	if r := h.send(t, CmdChart); r[0].Text != msgHistoryError {
		t.Fatalf("want failure text, got %q", r[0].Text)
	}
}

func TestPanicBecomesGenericError(t *testing.T) {
	h := newHarness()
	h.sink.history = []records.HistoryPoint{{Date: "01/03", INR: 2.1}}
	h.chart.panics = true
	if r := h.send(t, CmdChart); r[0].Text != msgInternal {
		t.Fatalf("want generic error, got %q", r[0].Text)
	}
	if h.audit.events[0].Outcome != storage.OutcomeFailed {
		t.Fatalf("panic not audited as failure")
	}
}

func TestSymptomAssessment(t *testing.T) {
	h := newHarness()
	r := h.send(t, CmdSymptoms)
	if len(r) != 2 {
		t.Fatalf("want two choice sets, got %d", len(r))
	}
	if r[0].QuickReplies[len(r[0].QuickReplies)-1] != SymptomNone || len(r[1].QuickReplies) != len(ClotSymptoms)+1 {
		t.Fatalf("unexpected choices: %+v", r)
	}
	if r := h.send(t, "อุจจาระสีดำ"); r[0].Text != msgBleedingFound {
		t.Fatalf("got %q", r[0].Text)
	}
	if r := h.send(t, "พูดไม่ชัด"); r[0].Text != msgClotFound {
		t.Fatalf("got %q", r[0].Text)
	}
	if r := h.send(t, SymptomNone); r[0].Text != msgNoSymptoms {
		t.Fatalf("got %q", r[0].Text)
	}
}

func TestCancel(t *testing.T) {
	h := newHarness()
	if r := h.send(t, CmdCancel); r[0].Text != msgNoSession {
		t.Fatalf("got %q", r[0].Text)
	}
	h.send(t, CmdTitration)
	if r := h.send(t, CmdCancel); r[0].Text != msgCancelled {
		t.Fatalf("got %q", r[0].Text)
	}
	if h.step(t) != "" {
		t.Fatalf("session should be gone")
	}
}

func TestProfileEdit(t *testing.T) {
	h := newHarness()
	if r := h.send(t, CmdEditProfile); r[0].Text != msgEditName {
		t.Fatalf("got %q", r[0].Text)
	}
	h.send(t, "-")
	if r := h.send(t, "03/03/1971"); r[0].Text != msgProfileUpdated {
		t.Fatalf("got %q", r[0].Text)
	}
	if len(h.sink.updates) != 1 || h.sink.updates[0] != [3]string{"U1", "", "03/03/1971"} {
		t.Fatalf("unexpected updates: %v", h.sink.updates)
	}

	h.sendAll(t, CmdEditProfile, "-")
	if r := h.send(t, "-"); r[0].Text != msgProfileSame {
		t.Fatalf("got %q", r[0].Text)
	}
	if len(h.sink.updates) != 1 {
		t.Fatalf("no-op edit should not call the sink")
	}
}

func TestEmptyTextInsideFlow(t *testing.T) {
	h := newHarness()
	h.send(t, CmdTitration)
	if r := h.send(t, "   "); r[0].Text != msgEmptyText {
		t.Fatalf("got %q", r[0].Text)
	}
	if h.step(t) != session.StepAskINR {
		t.Fatalf("step moved on empty input")
	}
}

func TestParseHelpers(t *testing.T) {
	for in, want := range map[string]string{"yes": "yes", "No": "no", "YES.": "yes", " no. ": "no"} {
		if got, ok := ParseYesNo(in); !ok || got != want {
			t.Errorf("ParseYesNo(%q) = %q, %v", in, got, ok)
		}
	}
	for _, bad := range []string{"y", "yes..", "ใช่", ""} {
		if _, ok := ParseYesNo(bad); ok {
			t.Errorf("ParseYesNo(%q) should fail", bad)
		}
	}
	if _, ok := ParseSchedule("1,2,3,4,5,6,7,8"); ok {
		t.Errorf("eight entries accepted")
	}
	if formatINR(3) != "3.0" || formatINR(2.75) != "2.75" {
		t.Errorf("formatINR: %s %s", formatINR(3), formatINR(2.75))
	}
}
