// Package visuals renders issue metrics as Mermaid charts.
package visuals

import (
	"fmt"
	"math"
	"strings"
	"time"

	"jiracounter/internal/calendar"
	"jiracounter/internal/metrics"
)

const ganttLayout = "2006-01-02T15:04"

// StatusTimeline creates a Mermaid gantt chart with one bar per status period,
// from creation to asOf. Periods entered through a backflow are marked critical.
func StatusTimeline(title string, created, asOf time.Time, rec *metrics.Record) string {
	if rec == nil || created.IsZero() || !created.Before(asOf) {
		return ""
	}

	status := rec.CurrentStatus
	if len(rec.UniqueStatusesVisited) > 0 {
		status = rec.UniqueStatusesVisited[0]
	}
	start := created
	crit := false

	var bars []string
	addBar := func(name string, from, to time.Time, critical bool) {
		if !to.After(from) {
			return
		}
		tag := ""
		if critical {
			tag = "crit, "
		}
		bars = append(bars, fmt.Sprintf("    %s :%s%s, %s", sanitize(name), tag, from.Format(ganttLayout), to.Format(ganttLayout)))
	}

	for _, tr := range rec.Transitions {
		if tr.TransitionDate != nil {
			addBar(status, start, *tr.TransitionDate, crit)
			start = *tr.TransitionDate
		}
		status = tr.ToStatus
		crit = tr.IsBackflow
	}
	addBar(status, start, asOf, crit)

	if len(bars) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("gantt\n")
	sb.WriteString(fmt.Sprintf("    title %s\n", sanitize(title)))
	sb.WriteString("    dateFormat YYYY-MM-DDTHH:mm\n")
	sb.WriteString("    axisFormat %d %b\n")
	sb.WriteString("    section Status\n")
	for _, b := range bars {
		sb.WriteString(b)
		sb.WriteString("\n")
	}
	sb.WriteString("```")
	return sb.String()
}

// CategoryChart creates a Mermaid bar chart of working days per time category.
func CategoryChart(rec *metrics.Record) string {
	if rec == nil {
		return ""
	}

	values := []float64{
		calendar.DaysFromMinutes(rec.Categorized.Backlog),
		calendar.DaysFromMinutes(rec.Categorized.Processing),
		calendar.DaysFromMinutes(rec.Categorized.Waiting),
	}
	maxVal := 0.0
	formatted := make([]string, len(values))
	for i, v := range values {
		formatted[i] = fmt.Sprintf("%.2f", v)
		maxVal = math.Max(maxVal, v)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Working Days per Category\"\n")
	sb.WriteString("    x-axis [\"Backlog\", \"Processing\", \"Waiting\"]\n")
	sb.WriteString(fmt.Sprintf("    y-axis \"Working Days\" 0 --> %d\n", int(math.Ceil(maxVal*1.2))+1))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(formatted, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// sanitize strips characters Mermaid treats as syntax in task names.
func sanitize(s string) string {
	return strings.NewReplacer(":", " ", ";", " ", "#", "", "\n", " ").Replace(s)
}
