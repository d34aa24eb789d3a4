package core

import (
	"fmt"
	"time"

	"github.com/NBISweden/timelogbot/pkg/models"
)

// CheckpointHours are the hour totals that trigger a notification when a
// project crosses them, evaluated in ascending order. The first newly
// crossed checkpoint wins; remaining crossings are reported on later runs.
var CheckpointHours = []float64{100, 300}

// CheckpointDays is the number of calendar days since the first logged hour
// that triggers a notification.
const CheckpointDays = 365

// EvaluateCheckpoints decides whether a checkpoint notification should fire
// for a project, given its persisted previous state (nil on first
// observation), the freshly computed hour total, the date of the first
// logged work unit, and today's date. At most one notification per run.
//
// Callers must persist the current hours afterwards regardless of the
// outcome, so the stored timestamp always reflects the most recent run.
func EvaluateCheckpoints(previous *models.ReportState, projectName string, currentHours float64, startDate, today time.Time) *models.Notification {
	if previous == nil {
		// No baseline: a crossing cannot be detected on first observation.
		return nil
	}

	elapsedDays := int(today.Sub(startDate).Hours() / 24)

	for _, checkpoint := range CheckpointHours {
		if previous.Hours < checkpoint && currentHours >= checkpoint {
			return &models.Notification{
				Subject: fmt.Sprintf("[TimeLog Bot] Checkpoint in project %s: %.0f hours", projectName, checkpoint),
				Body: fmt.Sprintf("%v hours have been reached in project %s.\n%d calendar days have elapsed",
					currentHours, projectName, elapsedDays),
			}
		}
	}

	if previous.LastUpdate.IsZero() {
		return nil
	}
	dayCheckpoint := startDate.AddDate(0, 0, CheckpointDays)
	if previous.LastUpdate.Before(dayCheckpoint) && !today.Before(dayCheckpoint) {
		return &models.Notification{
			Subject: fmt.Sprintf("[TimeLog Bot] Checkpoint in project %s: %d days", projectName, CheckpointDays),
			Body: fmt.Sprintf("%d calendar days have been reached in project %s\n%.1f working hours have been spent",
				elapsedDays, projectName, currentHours),
		}
	}

	return nil
}
