package output

import (
	"fmt"
	"math"
	"sort"

	"trackboard/internal/timeutil"
	"trackboard/project"
)

const (
	ModeRaw    = "raw"
	ModeDaily  = "daily"
	ModeTotals = "totals"
)

func SupportedModes() []string {
	return []string{ModeRaw, ModeDaily, ModeTotals}
}

// DailySummary aggregates all projects for one UTC day.
type DailySummary struct {
	Date         string
	TotalSeconds int64
	Projects     int
}

// ProjectTotal aggregates all days for one project.
type ProjectTotal struct {
	ProjectID    string
	ProjectName  string
	TotalSeconds int64
	Days         int
	FirstDate    string
	LastDate     string
}

// BuildDailySummaries returns one summary per date, oldest first.
func BuildDailySummaries(logs []project.TimeLog) []DailySummary {
	byDay := make(map[string]*DailySummary)
	for _, log := range logs {
		summary, ok := byDay[log.Date]
		if !ok {
			summary = &DailySummary{Date: log.Date}
			byDay[log.Date] = summary
		}
		summary.TotalSeconds += log.DurationSeconds
		summary.Projects++
	}

	summaries := make([]DailySummary, 0, len(byDay))
	for _, summary := range byDay {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Date < summaries[j].Date
	})
	return summaries
}

// BuildProjectTotals returns one total per project, largest first. names maps
// project id to display name; unknown ids keep an empty name.
func BuildProjectTotals(logs []project.TimeLog, names map[string]string) []ProjectTotal {
	byProject := make(map[string]*ProjectTotal)
	for _, log := range logs {
		total, ok := byProject[log.ProjectID]
		if !ok {
			total = &ProjectTotal{
				ProjectID:   log.ProjectID,
				ProjectName: names[log.ProjectID],
				FirstDate:   log.Date,
				LastDate:    log.Date,
			}
			byProject[log.ProjectID] = total
		}
		total.TotalSeconds += log.DurationSeconds
		total.Days++
		if log.Date < total.FirstDate {
			total.FirstDate = log.Date
		}
		if log.Date > total.LastDate {
			total.LastDate = log.Date
		}
	}

	totals := make([]ProjectTotal, 0, len(byProject))
	for _, total := range byProject {
		totals = append(totals, *total)
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].TotalSeconds == totals[j].TotalSeconds {
			return totals[i].ProjectID < totals[j].ProjectID
		}
		return totals[i].TotalSeconds > totals[j].TotalSeconds
	})
	return totals
}

// BuildTable renders logs in the given mode.
func BuildTable(mode string, logs []project.TimeLog, names map[string]string) (Table, error) {
	switch normalizeFormat(mode) {
	case "", ModeRaw:
		return rawTable(logs, names), nil
	case ModeDaily:
		return dailyTable(BuildDailySummaries(logs)), nil
	case ModeTotals:
		return totalsTable(BuildProjectTotals(logs, names)), nil
	default:
		return Table{}, fmt.Errorf("unsupported export mode: %s (supported: raw, daily, totals)", mode)
	}
}

func rawTable(logs []project.TimeLog, names map[string]string) Table {
	table := Table{Headers: []string{"Date", "ProjectID", "ProjectName", "Seconds", "Duration", "Hours"}}
	for _, log := range logs {
		table.Rows = append(table.Rows, []any{
			log.Date,
			log.ProjectID,
			names[log.ProjectID],
			log.DurationSeconds,
			timeutil.FormatClock(log.DurationSeconds),
			roundHours(timeutil.Hours(log.DurationSeconds)),
		})
	}
	return table
}

func dailyTable(summaries []DailySummary) Table {
	table := Table{Headers: []string{"Date", "Projects", "Seconds", "Duration", "Hours"}}
	for _, summary := range summaries {
		table.Rows = append(table.Rows, []any{
			summary.Date,
			summary.Projects,
			summary.TotalSeconds,
			timeutil.FormatClock(summary.TotalSeconds),
			roundHours(timeutil.Hours(summary.TotalSeconds)),
		})
	}
	return table
}

func totalsTable(totals []ProjectTotal) Table {
	table := Table{Headers: []string{"ProjectID", "ProjectName", "Days", "FirstDate", "LastDate", "Seconds", "Duration", "Hours"}}
	for _, total := range totals {
		table.Rows = append(table.Rows, []any{
			total.ProjectID,
			total.ProjectName,
			total.Days,
			total.FirstDate,
			total.LastDate,
			total.TotalSeconds,
			timeutil.FormatClock(total.TotalSeconds),
			roundHours(timeutil.Hours(total.TotalSeconds)),
		})
	}
	return table
}

func roundHours(value float64) float64 {
	return math.Round(value*100) / 100
}
