// Package models contains the shared data types for timelogbot: work units
// and tracker issues fetched from Redmine, wiki pages fetched from
// Confluence, persisted report state, and checkpoint notifications.
package models

import "time"

// WorkUnit is a single logged time entry attributed to a project.
// Immutable once fetched; the renderer aggregates but never mutates them.
type WorkUnit struct {
	Date  time.Time
	Hours float64
}

// TrackerIssue is a tracker issue parsed and validated at the Redmine
// boundary. CustomFields holds the first value seen per field name.
type TrackerIssue struct {
	ID           int
	Subject      string
	CustomFields map[string]string
}

// CustomField returns the value of the named custom field and whether it
// was present on the issue.
func (i TrackerIssue) CustomField(name string) (string, bool) {
	v, ok := i.CustomFields[name]
	return v, ok
}

// Project is a tracker issue matched to a wiki space, reconstructed fresh
// every run. Identity is the canonical ID derived from the WABI ID custom
// field or the subject-line pattern fallback.
type Project struct {
	CanonicalID string
	Issue       TrackerIssue
	BudgetHours float64
	WorkUnits   []WorkUnit
}

// ReportState is the persisted per-project record: total hours and the
// time the record was last written. Keyed by project display name.
type ReportState struct {
	Hours      float64
	LastUpdate time.Time
}

// Notification is a checkpoint email ready to be handed to the mailer.
type Notification struct {
	Subject string
	Body    string
}

// PageRef identifies one wiki page found by title search.
type PageRef struct {
	ID        string
	SpaceName string
}

// PageAncestor is an opaque ancestor reference carried through page updates
// so Confluence keeps the page in place in the space hierarchy.
type PageAncestor struct {
	ID string `json:"id"`
}

// Page is a wiki page with its storage-format body. Updates increment
// Version by exactly one and preserve Title and Ancestors.
type Page struct {
	ID        string
	Title     string
	Body      string
	Version   int
	Ancestors []PageAncestor
}
