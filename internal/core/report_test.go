package core

import (
	"strings"
	"testing"
	"time"

	"github.com/NBISweden/timelogbot/pkg/models"
)

func wu(date string, hours float64) models.WorkUnit {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return models.WorkUnit{Date: t, Hours: hours}
}

var sampleUnits = []models.WorkUnit{
	wu("2024-01-05", 2),
	wu("2024-01-20", 3),
	wu("2024-02-01", 1),
}

func TestRenderReport_AppendsWhenMarkerAbsent(t *testing.T) {
	body := "<p>Hand-written introduction.</p>"

	got, changed := RenderReport(body, "Söder_2101", sampleUnits, 80, false)
	if !changed {
		t.Fatal("expected changed=true on first render")
	}
	if !strings.HasPrefix(got, body) {
		t.Fatalf("hand-authored content must be preserved above the marker, got %q", got)
	}
	if !strings.Contains(got, ReportMarker) {
		t.Fatal("expected marker in rendered body")
	}
	if !strings.Contains(got, "<h2>Project Söder_2101 is 7.5% complete</h2>") {
		t.Fatalf("unexpected heading in %q", got)
	}
	if !strings.Contains(got, "<p>6.00 out of 80 hours used.</p>") {
		t.Fatalf("unexpected usage sentence in %q", got)
	}
}

func TestRenderReport_Idempotent(t *testing.T) {
	first, changed := RenderReport("<p>intro</p>", "P", sampleUnits, 80, false)
	if !changed {
		t.Fatal("first render should report a change")
	}

	second, changed := RenderReport(first, "P", sampleUnits, 80, false)
	if changed {
		t.Fatal("second render with identical data should report no change")
	}
	if second != first {
		t.Fatal("unchanged report must return the existing body unmodified")
	}
}

func TestRenderReport_RegeneratesWhenHoursChange(t *testing.T) {
	first, _ := RenderReport("<p>intro</p>", "P", sampleUnits, 80, false)

	more := append([]models.WorkUnit{wu("2024-03-01", 4)}, sampleUnits...)
	second, changed := RenderReport(first, "P", more, 80, false)
	if !changed {
		t.Fatal("expected change after new work units")
	}
	if !strings.Contains(second, "<p>10.00 out of 80 hours used.</p>") {
		t.Fatalf("expected updated usage sentence in %q", second)
	}
	if strings.Count(second, ReportMarker) != 1 {
		t.Fatalf("old report must be truncated at the marker, got %q", second)
	}
}

func TestRenderReport_Force(t *testing.T) {
	first, _ := RenderReport("<p>intro</p>", "P", sampleUnits, 80, false)

	_, changed := RenderReport(first, "P", sampleUnits, 80, true)
	if !changed {
		t.Fatal("force must always report a change")
	}
}

func TestRenderReport_ZeroBudget(t *testing.T) {
	got, changed := RenderReport("", "P", sampleUnits, 0, false)
	if !changed {
		t.Fatal("expected changed=true")
	}
	if !strings.Contains(got, "is 0.0% complete") {
		t.Fatalf("zero budget must yield 0.0%% completion, got %q", got)
	}
}

func TestRenderReport_MonthlyAggregation(t *testing.T) {
	got, _ := RenderReport("", "P", sampleUnits, 80, false)

	febRow := "<tr><td>February 2024</td><td>1.00</td></tr>"
	janRow := "<tr><td>January 2024</td><td>5.00</td></tr>"
	febIdx := strings.Index(got, febRow)
	janIdx := strings.Index(got, janRow)
	if febIdx < 0 {
		t.Fatalf("missing February row in %q", got)
	}
	if janIdx < 0 {
		t.Fatalf("missing January row in %q", got)
	}
	if febIdx > janIdx {
		t.Fatal("most recent month must come first")
	}
	if n := strings.Count(got, "<tr><td>"); n != 2 {
		t.Fatalf("expected exactly two month rows, got %d", n)
	}
}

func TestTotalHours(t *testing.T) {
	if got := TotalHours(sampleUnits); got != 6 {
		t.Fatalf("TotalHours = %v, want 6", got)
	}
	if got := TotalHours(nil); got != 0 {
		t.Fatalf("TotalHours(nil) = %v, want 0", got)
	}
}
