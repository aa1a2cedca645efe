package workflow

import (
	"context"

	"spot-monitor/internal/preview"
)

// ExtractResultsView is what the extract results page renders. Stale
// means the required artifact is missing (direct navigation, lost
// session): the page shows a "go back" notice and disables the download
// and proceed actions instead of failing.
type ExtractResultsView struct {
	Token   string
	Preview *preview.Table
	Stale   bool
}

// CanProceed reports whether the monitoring step may be entered.
func (v ExtractResultsView) CanProceed() bool {
	return !v.Stale
}

// CanDownload reports whether the extracted-file download is available.
func (v ExtractResultsView) CanDownload() bool {
	return !v.Stale
}

// ExtractResults assembles the extract results page from the session
// state. Never fails; a missing artifact yields a Stale view.
func (c *Controller) ExtractResults(ctx context.Context) ExtractResultsView {
	token := c.state.ExtractToken(ctx)
	return ExtractResultsView{
		Token:   token,
		Preview: preview.Render(c.state.ExtractPreview(ctx)),
		Stale:   token == "",
	}
}

// StatCard is one summary counter on the monitoring results page.
type StatCard struct {
	Label string
	Value int
}

// MonitorResultsView is what the monitoring results page renders: the
// three stat cards and the two independently formatted previews.
type MonitorResultsView struct {
	JobID     string
	Stats     []StatCard
	Unmatched *preview.Table
	Nilson    *preview.Table
	Stale     bool
}

// CanDownload reports whether the result downloads are available.
func (v MonitorResultsView) CanDownload() bool {
	return !v.Stale
}

// MonitorResults assembles the monitoring results page from the session
// state. Never fails; a missing artifact yields a Stale view.
func (c *Controller) MonitorResults(ctx context.Context) MonitorResultsView {
	jobID := c.state.MonitorJob(ctx)

	view := MonitorResultsView{
		JobID:     jobID,
		Unmatched: preview.Render(c.state.UnmatchedPreview(ctx)),
		Nilson:    preview.Render(c.state.NilsonPreview(ctx)),
		Stale:     jobID == "",
	}

	if summary := c.state.MonitorSummary(ctx); summary != nil {
		view.Stats = []StatCard{
			{Label: "Total Spots in Schedule", Value: summary.TotalScheduleSpots},
			{Label: "Total Unmatched Spots", Value: summary.TotalUnmatched},
			{Label: "Matched Spots in Nilson", Value: summary.TotalMatchedInNilson},
		}
	}

	return view
}
