package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"nova-api/internal/storage"
)

// DailyStats aggregates recorded chat exchanges for one calendar day.
type DailyStats struct {
	Date           string                  `json:"date"`
	TotalMessages  int                     `json:"total_messages"`
	UniqueSessions int                     `json:"unique_sessions"`
	UniqueUsers    int                     `json:"unique_users"`
	RepliesByModel map[string]int          `json:"replies_by_model"`
	SessionStats   map[string]SessionStats `json:"session_stats"`
}

type SessionStats struct {
	SessionID string `json:"session_id"`
	Messages  int    `json:"messages"`
}

// AnalyzeDailyLogs counts the events whose timestamp falls on targetDate's
// day, in targetDate's location. Every event is one turn, including turns
// whose user message was empty.
func AnalyzeDailyLogs(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	stats := &DailyStats{
		Date:           startOfDay.Format("2006-01-02"),
		RepliesByModel: make(map[string]int),
		SessionStats:   make(map[string]SessionStats),
	}

	users := make(map[string]bool)
	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}
		stats.TotalMessages++
		if event.UserID != "" {
			users[event.UserID] = true
		}
		if event.Model != "" {
			stats.RepliesByModel[event.Model]++
		}

		ss := stats.SessionStats[event.SessionID]
		ss.SessionID = event.SessionID
		ss.Messages++
		stats.SessionStats[event.SessionID] = ss
	}

	stats.UniqueSessions = len(stats.SessionStats)
	stats.UniqueUsers = len(users)
	return stats
}

// Summary renders a plain-text report. Map sections are sorted so the output
// is stable.
func (ds *DailyStats) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Chat usage for %s:\n", ds.Date)
	fmt.Fprintf(&b, "- messages: %d\n", ds.TotalMessages)
	fmt.Fprintf(&b, "- sessions: %d\n", ds.UniqueSessions)
	fmt.Fprintf(&b, "- users: %d\n", ds.UniqueUsers)

	if len(ds.RepliesByModel) > 0 {
		b.WriteString("Replies by model:\n")
		for _, model := range sortedKeys(ds.RepliesByModel) {
			fmt.Fprintf(&b, "- %s: %d\n", model, ds.RepliesByModel[model])
		}
	}
	return b.String()
}

// ToJSON renders the full statistics as indented JSON.
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
