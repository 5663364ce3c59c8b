// Package records talks to the external store that owns patient records:
// submitted INR logs, INR history, profiles and weekly dose schedules.
package records

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when the sink has no data for a user.
var ErrNotFound = errors.New("not found")

// DayLabels are the short Thai weekday names, Monday first. They double as
// roster column headers.
var DayLabels = [7]string{"จันทร์", "อังคาร", "พุธ", "พฤหัส", "ศุกร์", "เสาร์", "อาทิตย์"}

// DayLongLabels are the full Thai weekday names, Monday first.
var DayLongLabels = [7]string{"วันจันทร์", "วันอังคาร", "วันพุธ", "วันพฤหัสบดี", "วันศุกร์", "วันเสาร์", "วันอาทิตย์"}

// DayIndex maps t to a Monday-first index into DayLabels.
func DayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// Record is one completed INR log.
type Record struct {
	UserID     string
	Name       string
	Birthdate  string
	INR        float64
	Bleeding   string
	Supplement string
	Doses      Schedule
	LoggedAt   time.Time
}

// Schedule is a weekly warfarin plan, Monday first.
type Schedule [7]string

// Raw joins the schedule back into the comma form the patient typed.
func (s Schedule) Raw() string { return strings.Join(s[:], ",") }

// ScheduleFromRaw splits the comma form back into weekdays, Monday first.
// Missing days stay empty and extra fields are dropped.
func ScheduleFromRaw(raw string) Schedule {
	var s Schedule
	if strings.TrimSpace(raw) == "" {
		return s
	}
	for i, part := range strings.SplitN(raw, ",", len(s)+1) {
		if i == len(s) {
			break
		}
		s[i] = strings.TrimSpace(part)
	}
	return s
}

// HistoryPoint is one historical INR value.
type HistoryPoint struct {
	Date string
	INR  float64
}

// Profile is what the sink knows about a patient. A zero Profile means a new user.
type Profile struct {
	FirstName string
	LastName  string
	Birthdate string
}

// Known reports whether the profile identifies a returning user.
func (p Profile) Known() bool { return p.FirstName != "" }

// FullName joins first and last name.
func (p Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// SplitName splits "first last..." on the first space.
func SplitName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	if i := strings.IndexAny(full, " \t"); i >= 0 {
		return full[:i], strings.TrimSpace(full[i+1:])
	}
	return full, ""
}

// Sink is the durable record store the dialogue talks to.
type Sink interface {
	// SubmitRecord stores a completed log and returns the sink's outcome text.
	SubmitRecord(ctx context.Context, r Record) (string, error)
	// FetchHistory returns the user's INR values in chronological order.
	// An empty slice means no history.
	FetchHistory(ctx context.Context, userID string) ([]HistoryPoint, error)
	// FetchProfile returns the stored profile; a zero Profile means a new user.
	FetchProfile(ctx context.Context, userID string) (Profile, error)
	UpdateProfile(ctx context.Context, userID, name, birthdate string) error
	// LatestSchedule returns the most recently submitted weekly plan or ErrNotFound.
	LatestSchedule(ctx context.Context, userID string) (Schedule, error)
}

// RosterEntry is one reminder recipient.
type RosterEntry struct {
	UserID    string
	FirstName string
	LastName  string
	Schedule  Schedule
}

// Name is the display name used in reminders.
func (e RosterEntry) Name() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// Roster lists everyone who should receive a daily reminder.
type Roster interface {
	Roster(ctx context.Context) ([]RosterEntry, error)
}
