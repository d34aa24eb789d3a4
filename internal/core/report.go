package core

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/NBISweden/timelogbot/pkg/models"
)

// ReportMarker separates hand-authored page content (above) from the
// generated report (at and after the marker). The space before the slash
// survives Confluence's HTML cleanup; do not "fix" it.
const ReportMarker = "<hr />"

// hoursEpsilon absorbs float round-trip noise when comparing the hours and
// budget parsed back out of a previously rendered report.
const hoursEpsilon = 0.01

// usagePattern matches the summary sentence of a previously generated
// report, capturing hours spent and budget.
var usagePattern = regexp.MustCompile(`([0-9.]+) out of ([0-9.]+) hours used`)

// TotalHours sums the hours of all work units.
func TotalHours(units []models.WorkUnit) float64 {
	var total float64
	for _, u := range units {
		total += u.Hours
	}
	return total
}

// RenderReport regenerates the report fragment of a wiki page body.
//
// The returned bool reports whether the body changed. Unless force is set,
// a previously rendered report whose hours and budget both match the fresh
// values within hoursEpsilon is left untouched, so unchanged projects do
// not churn page versions.
func RenderReport(existingBody, projectName string, units []models.WorkUnit, budgetHours float64, force bool) (string, bool) {
	hoursSpent := TotalHours(units)

	head := existingBody
	if idx := strings.Index(existingBody, ReportMarker); idx >= 0 {
		if !force && reportIsCurrent(existingBody[idx:], hoursSpent, budgetHours) {
			return existingBody, false
		}
		head = existingBody[:idx]
	}

	return head + "\n" + renderFragment(projectName, units, hoursSpent, budgetHours), true
}

// reportIsCurrent parses the previous report for the usage sentence and
// reports whether both numbers still match.
func reportIsCurrent(previousReport string, hoursSpent, budgetHours float64) bool {
	m := usagePattern.FindStringSubmatch(previousReport)
	if m == nil {
		return false
	}
	previousHours, err1 := strconv.ParseFloat(m[1], 64)
	previousBudget, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return false
	}
	return abs(hoursSpent-previousHours) < hoursEpsilon && abs(previousBudget-budgetHours) < hoursEpsilon
}

// renderFragment produces the generated report: marker, completion heading,
// usage sentence, and the per-month hours table, most recent month first.
func renderFragment(projectName string, units []models.WorkUnit, hoursSpent, budgetHours float64) string {
	percent := 0.0
	if budgetHours > 0 {
		percent = hoursSpent / budgetHours
	}

	var b strings.Builder
	b.WriteString(ReportMarker)
	b.WriteString("\n")
	fmt.Fprintf(&b, "<h2>Project %s is %.1f%% complete</h2>\n", projectName, percent*100)
	fmt.Fprintf(&b, "<p>%.2f out of %.0f hours used.</p>\n", hoursSpent, budgetHours)

	b.WriteString("<p><table>\n")
	b.WriteString("<tr><th>Date</th><th>Hours spent</th></tr>\n")
	for _, mt := range monthlyTotals(units) {
		fmt.Fprintf(&b, "<tr><td>%s %d</td><td>%.2f</td></tr>\n", mt.month.String(), mt.year, mt.hours)
	}
	b.WriteString("</table></p>")

	return b.String()
}

type monthTotal struct {
	year  int
	month time.Month
	hours float64
}

// monthlyTotals groups work units by (year, month) and returns the summed
// hours sorted most recent month first.
func monthlyTotals(units []models.WorkUnit) []monthTotal {
	type key struct {
		year  int
		month time.Month
	}
	sums := make(map[key]float64)
	for _, u := range units {
		sums[key{u.Date.Year(), u.Date.Month()}] += u.Hours
	}

	totals := make([]monthTotal, 0, len(sums))
	for k, h := range sums {
		totals = append(totals, monthTotal{year: k.year, month: k.month, hours: h})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].year != totals[j].year {
			return totals[i].year > totals[j].year
		}
		return totals[i].month > totals[j].month
	})
	return totals
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
