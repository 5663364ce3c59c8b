package records

import "testing"

func TestScheduleFromRaw(t *testing.T) {
	full := Schedule{"3", "3", "1.5", "3", "3", "-", "3"}
	if got := ScheduleFromRaw(full.Raw()); got != full {
		t.Fatalf("round trip: got %v", got)
	}
	if got := ScheduleFromRaw(" 2 , 2 "); got != (Schedule{"2", "2"}) {
		t.Fatalf("short input: got %v", got)
	}
	if got := ScheduleFromRaw("1,2,3,4,5,6,7,8,9"); got[6] != "7" {
		t.Fatalf("extra fields should be dropped: got %v", got)
	}
	if got := ScheduleFromRaw("  "); got != (Schedule{}) {
		t.Fatalf("blank input: got %v", got)
	}
}
