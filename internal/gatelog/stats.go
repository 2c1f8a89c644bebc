package gatelog

import (
	"sort"
	"time"
)

// BuildStats folds a log sequence into per-day traffic counts. Parked counts
// the in-events that are still unmatched when the report runs, attributed to
// the day they entered.
func BuildStats(logs []Log, from, to time.Time) StatsReport {
	report := StatsReport{From: from, To: to}
	byDay := map[string]*DayStats{}

	for _, log := range logs {
		day := log.At.UTC().Format("2006-01-02")
		stats, ok := byDay[day]
		if !ok {
			stats = &DayStats{Date: day}
			byDay[day] = stats
		}
		switch log.Direction {
		case DirectionIn:
			stats.In++
			report.TotalIn++
			if log.ExitLogID == nil {
				stats.Parked++
				report.TotalParked++
			}
		case DirectionOut:
			stats.Out++
			report.TotalOut++
		}
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		report.Days = append(report.Days, *byDay[day])
	}
	return report
}

// DwellHours is the whole-hour dwell time of an entry, truncated.
func DwellHours(enteredAt, now time.Time) int {
	if now.Before(enteredAt) {
		return 0
	}
	return int(now.Sub(enteredAt).Hours())
}
