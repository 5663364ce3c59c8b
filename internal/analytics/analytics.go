// Package analytics summarises the dialogue audit log for the daily admin report.
package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"warfarin-bot/internal/storage"
)

// DailyStats holds usage numbers for one calendar day.
type DailyStats struct {
	Date          string                  `json:"date"`
	TotalMessages int                     `json:"total_messages"`
	UniqueUsers   int                     `json:"unique_users"`
	Outcomes      map[storage.Outcome]int `json:"outcomes"`
	Flows         map[string]int          `json:"flows"`
	Channels      map[string]int          `json:"channels"`
	CriticalUsers []string                `json:"critical_users,omitempty"`
	UserStats     map[string]UserStats    `json:"user_stats"`
}

// UserStats is one user's activity for the day.
type UserStats struct {
	UserID          string `json:"user_id"`
	Messages        int    `json:"messages"`
	Recorded        int    `json:"recorded"`
	Recommendations int    `json:"recommendations"`
	Failures        int    `json:"failures"`
}

// AnalyzeDailyLogs computes stats for the day containing targetDate, in its location.
func AnalyzeDailyLogs(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	stats := &DailyStats{
		Date:      startOfDay.Format("2006-01-02"),
		Outcomes:  make(map[storage.Outcome]int),
		Flows:     make(map[string]int),
		Channels:  make(map[string]int),
		UserStats: make(map[string]UserStats),
	}
	critical := make(map[string]bool)

	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}
		// system rows carry no user message
		if event.Message == "" {
			continue
		}
		stats.TotalMessages++
		stats.Outcomes[event.Outcome]++
		if event.Flow != "" {
			stats.Flows[event.Flow]++
		}
		if event.Channel != "" {
			stats.Channels[event.Channel]++
		}

		us, ok := stats.UserStats[event.UserID]
		if !ok {
			us = UserStats{UserID: event.UserID}
		}
		us.Messages++
		switch event.Outcome {
		case storage.OutcomeRecorded:
			us.Recorded++
		case storage.OutcomeRecommended:
			us.Recommendations++
		case storage.OutcomeFailed:
			us.Failures++
		case storage.OutcomeCritical:
			critical[event.UserID] = true
		}
		stats.UserStats[event.UserID] = us
	}

	stats.UniqueUsers = len(stats.UserStats)
	for id := range critical {
		stats.CriticalUsers = append(stats.CriticalUsers, id)
	}
	sort.Strings(stats.CriticalUsers)
	return stats
}

// GenerateReportSummary renders the stats as the admin's daily message.
func (ds *DailyStats) GenerateReportSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 สรุปการใช้งานประจำวันที่ %s\n", ds.Date)
	fmt.Fprintf(&b, "ข้อความทั้งหมด: %d\n", ds.TotalMessages)
	fmt.Fprintf(&b, "ผู้ใช้: %d\n", ds.UniqueUsers)
	fmt.Fprintf(&b, "บันทึก INR: %d\n", ds.Outcomes[storage.OutcomeRecorded])
	fmt.Fprintf(&b, "คำแนะนำปรับยา: %d\n", ds.Outcomes[storage.OutcomeRecommended])
	fmt.Fprintf(&b, "ข้อผิดพลาด: %d\n", ds.Outcomes[storage.OutcomeFailed])

	if len(ds.Channels) > 0 {
		b.WriteString("\nช่องทาง:\n")
		for _, k := range sortedKeys(ds.Channels) {
			fmt.Fprintf(&b, "- %s: %d\n", k, ds.Channels[k])
		}
	}
	if len(ds.CriticalUsers) > 0 {
		fmt.Fprintf(&b, "\n🚨 ผู้ป่วยที่รายงานภาวะเลือดออก: %s\n", strings.Join(ds.CriticalUsers, ", "))
	}
	return b.String()
}

// ToJSON serialises the stats for detailed inspection.
func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
