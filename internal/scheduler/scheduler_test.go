package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAdd_RejectsBadSpecAndDuplicates(t *testing.T) {
	s := New(time.UTC)
	defer s.Stop()

	if err := s.Add("not a spec", "bad", func(context.Context) error { return nil }); err == nil {
		t.Fatalf("expected error for invalid spec")
	}
	if err := s.Add("0 7 * * *", "remind", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add("0 8 * * *", "remind", func(context.Context) error { return nil }); err == nil {
		t.Fatalf("expected duplicate name error")
	}
	if !s.IsRunning() {
		t.Fatalf("scheduler should report a scheduled job")
	}
}

func TestRunNow(t *testing.T) {
	s := New(nil)
	defer s.Stop()

	calls := 0
	boom := errors.New("boom")
	_ = s.Add("0 21 * * *", "report", func(ctx context.Context) error {
		if ctx == nil {
			t.Fatalf("nil context")
		}
		calls++
		return boom
	})
	if err := s.RunNow("report"); !errors.Is(err, boom) {
		t.Fatalf("want job error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("want 1 call, got %d", calls)
	}
	if err := s.RunNow("missing"); err == nil {
		t.Fatalf("expected error for unknown job")
	}
}

func TestStopCancelsJobContext(t *testing.T) {
	s := New(time.UTC)
	var seen context.Context
	_ = s.Add("@every 1h", "probe", func(ctx context.Context) error { seen = ctx; return nil })
	_ = s.RunNow("probe")
	s.Stop()
	select {
	case <-seen.Done():
	default:
		t.Fatalf("job context should be cancelled after Stop")
	}
}
