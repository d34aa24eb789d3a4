package core

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/NBISweden/timelogbot/pkg/models"
)

// Custom field names on tracker issues the sync reads.
const (
	ProjectIDField = "WABI ID"
	BudgetField    = "Hours ordered"
)

// subjectIDPattern is the fallback for issues without a project ID custom
// field: a subject ending in underscore plus four digits is taken as the
// canonical ID itself.
var subjectIDPattern = regexp.MustCompile(`.*_\d{4}$`)

// IssueTracker is the narrow issue tracker contract the driver consumes.
type IssueTracker interface {
	ListIssues(ctx context.Context, projectID string) ([]models.TrackerIssue, error)
	ListWorkUnits(ctx context.Context, issueID int) ([]models.WorkUnit, error)
}

// Wiki is the narrow wiki platform contract the driver consumes.
type Wiki interface {
	FindPages(ctx context.Context, title string) ([]models.PageRef, error)
	GetPage(ctx context.Context, pageID string) (*models.Page, error)
	UpdatePage(ctx context.Context, page *models.Page, newBody string) error
}

// Mailer sends checkpoint notifications to the configured recipients.
type Mailer interface {
	Send(subject, body string) error
}

// StateStore is the durable per-project record of hours and last update.
type StateStore interface {
	Get(name string) (*models.ReportState, error)
	Put(name string, hours float64) error
}

// RunOptions are the per-invocation flags.
type RunOptions struct {
	// Space restricts processing to one named wiki space. Matched against
	// both the raw and the normalized space name. Empty means all spaces.
	Space string
	// DryRun suppresses page updates; the mailer is expected to be in
	// dry-run mode as well.
	DryRun bool
	// Force bypasses the idempotence guard and always rewrites reports.
	Force bool
	// DumpPath, when set, receives all matched work units after the run.
	DumpPath string
}

// Summary reports per-item outcomes of one run.
type Summary struct {
	Pages      int
	Matched    int
	Updated    int
	Skipped    int
	Failed     int
	EmailsSent int
}

// PartialError signals that the run completed but some page updates failed.
type PartialError struct {
	Failed int
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%d page update(s) failed", e.Failed)
}

// Runner orchestrates one top-to-bottom sync pass.
type Runner struct {
	cfg     *Config
	tracker IssueTracker
	wiki    Wiki
	mailer  Mailer
	store   StateStore
	log     zerolog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewRunner wires a Runner from its collaborators.
func NewRunner(cfg *Config, tracker IssueTracker, wiki Wiki, mailer Mailer, store StateStore, log zerolog.Logger) *Runner {
	return &Runner{
		cfg:     cfg,
		tracker: tracker,
		wiki:    wiki,
		mailer:  mailer,
		store:   store,
		log:     log,
		now:     time.Now,
	}
}

// Run executes one full pass: fetch issues, fetch pages, match, render and
// update reports, evaluate checkpoints, send notifications, persist state.
//
// Page-level transport failures are counted in the summary and do not abort
// the run. Failures fetching the issue or page lists, reading or writing
// state, or sending email are fatal.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	issues, err := r.collectIssues(ctx)
	if err != nil {
		return nil, err
	}

	pages, err := r.wiki.FindPages(ctx, r.cfg.PageTitle)
	if err != nil {
		return nil, fmt.Errorf("finding %s pages: %w", r.cfg.PageTitle, err)
	}

	summary := &Summary{Pages: len(pages)}
	dumped := make(map[string][]models.WorkUnit)

	for i, page := range pages {
		spaceNorm := Normalize(page.SpaceName)

		if opts.Space != "" && opts.Space != page.SpaceName && opts.Space != spaceNorm {
			r.log.Info().Str("space", page.SpaceName).Msg("ignored, outside requested space")
			summary.Skipped++
			continue
		}

		issue, ok := issues[spaceNorm]
		if !ok {
			issue, ok = issues[StripSpacePrefix(spaceNorm)]
		}
		if !ok {
			r.log.Info().Str("space", page.SpaceName).Msg("not found in Redmine")
			summary.Skipped++
			continue
		}

		units, err := r.tracker.ListWorkUnits(ctx, issue.ID)
		if err != nil {
			return nil, fmt.Errorf("fetching time entries for issue %d: %w", issue.ID, err)
		}
		dumped[page.SpaceName] = units
		summary.Matched++

		hoursSpent := TotalHours(units)
		budget := r.parseBudget(issue)

		percent := 0.0
		if budget > 0 {
			percent = hoursSpent / budget
		}
		r.log.Info().
			Int("page", i+1).
			Int("pages", len(pages)).
			Int("redmine_id", issue.ID).
			Str("subject", issue.Subject).
			Float64("hours", hoursSpent).
			Float64("budget", budget).
			Str("complete", fmt.Sprintf("%.1f%%", percent*100)).
			Msg("processing project")

		updated, err := r.updateReportPage(ctx, page, units, budget, opts)
		if err != nil {
			// Per-page isolation: log and keep going, the checkpoint
			// evaluation below still runs for this project.
			r.log.Error().Err(err).Str("page_id", page.ID).Str("space", page.SpaceName).Msg("could not update page")
			summary.Failed++
		} else if updated {
			summary.Updated++
		}

		if len(units) > 0 {
			sent, err := r.evaluateProject(issue.Subject, hoursSpent, units)
			if err != nil {
				return summary, err
			}
			if sent {
				summary.EmailsSent++
			}
		}
	}

	if opts.DumpPath != "" {
		if err := WriteDump(opts.DumpPath, dumped); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

// collectIssues fetches all issues of the configured tracker projects and
// keys them by normalized canonical project ID. Issues without a usable ID
// are skipped with a logged reason.
func (r *Runner) collectIssues(ctx context.Context) (map[string]models.TrackerIssue, error) {
	issues := make(map[string]models.TrackerIssue)

	for _, projectID := range r.cfg.Redmine.Projects {
		list, err := r.tracker.ListIssues(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("fetching issues for project %s: %w", projectID, err)
		}

		for _, issue := range list {
			canonical, ok := issue.CustomField(ProjectIDField)
			if !ok || canonical == "" {
				if subjectIDPattern.MatchString(issue.Subject) {
					canonical = issue.Subject
				} else {
					r.log.Info().
						Int("redmine_id", issue.ID).
						Str("subject", issue.Subject).
						Msgf("ignored, no %s attribute or compatible issue subject found", ProjectIDField)
					continue
				}
			}
			issues[Normalize(canonical)] = issue
		}
	}

	return issues, nil
}

// parseBudget reads the hour budget custom field, defaulting to 0 when the
// field is missing or not a number.
func (r *Runner) parseBudget(issue models.TrackerIssue) float64 {
	raw, ok := issue.CustomField(BudgetField)
	if !ok {
		return 0
	}
	budget, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		r.log.Warn().Str("subject", issue.Subject).Str("value", raw).Msgf("unparsable %s field, using 0", BudgetField)
		return 0
	}
	return budget
}

// updateReportPage regenerates the report on one wiki page and uploads it
// if it changed. Returns whether the report content changed.
func (r *Runner) updateReportPage(ctx context.Context, ref models.PageRef, units []models.WorkUnit, budget float64, opts RunOptions) (bool, error) {
	page, err := r.wiki.GetPage(ctx, ref.ID)
	if err != nil {
		return false, fmt.Errorf("fetching page: %w", err)
	}

	newBody, changed := RenderReport(page.Body, ref.SpaceName, units, budget, opts.Force)
	if !changed {
		return false, nil
	}
	if opts.DryRun {
		r.log.Info().Str("space", ref.SpaceName).Msg("dry-run active, not uploading new report")
		return true, nil
	}
	if err := r.wiki.UpdatePage(ctx, page, newBody); err != nil {
		return false, fmt.Errorf("uploading page: %w", err)
	}
	return true, nil
}

// evaluateProject runs the checkpoint rules for one project and persists
// the current hours unconditionally afterwards.
func (r *Runner) evaluateProject(name string, hoursSpent float64, units []models.WorkUnit) (bool, error) {
	previous, err := r.store.Get(name)
	if err != nil {
		return false, fmt.Errorf("reading state for %s: %w", name, err)
	}

	sent := false
	notif := EvaluateCheckpoints(previous, name, hoursSpent, EarliestDate(units), r.now())
	if notif != nil {
		if err := r.mailer.Send(notif.Subject, notif.Body); err != nil {
			return false, fmt.Errorf("sending checkpoint mail for %s: %w", name, err)
		}
		r.log.Info().Str("subject", name).Msg("e-mail sent")
		sent = true
	}

	// The timestamp must refresh even when the hours did not change; the
	// day checkpoint rule measures against the most recent run.
	if err := r.store.Put(name, hoursSpent); err != nil {
		return sent, fmt.Errorf("persisting state for %s: %w", name, err)
	}
	return sent, nil
}

// EarliestDate returns the date of the first logged work unit. The tracker
// does not guarantee chronological order, so all units are scanned.
func EarliestDate(units []models.WorkUnit) time.Time {
	earliest := units[0].Date
	for _, u := range units[1:] {
		if u.Date.Before(earliest) {
			earliest = u.Date
		}
	}
	return earliest
}
