// Package workflow sequences the two-phase reconciliation flow:
// Start → Extract → ExtractResults → Monitor → MonitorResults. The
// controller owns the guard conditions between steps, the per-operation
// busy locks, and the handoff of artifacts through the session state.
package workflow

import (
	"context"
	"strings"

	"spot-monitor/internal/common/errors"
	"spot-monitor/internal/common/logger"
	"spot-monitor/internal/common/metrics"
	"spot-monitor/internal/gateway"
	"spot-monitor/internal/session"
)

// Page identifies one step of the flow.
type Page string

const (
	PageStart          Page = "start"
	PageExtract        Page = "extract"
	PageExtractResults Page = "extract_results"
	PageMonitor        Page = "monitor"
	PageMonitorResults Page = "monitor_results"
)

// Operation names for the busy locks.
const (
	opLoadSheets = "load_sheets"
	opExtract    = "extract"
	opMonitoring = "monitoring"
)

// Gateway is the slice of the processing-service client the controller
// needs; narrowed so tests can substitute a fake.
type Gateway interface {
	ListSheets(ctx context.Context, file *gateway.Upload) ([]string, error)
	Extract(ctx context.Context, req gateway.ExtractRequest) (*gateway.ExtractResult, error)
	RunMonitoring(ctx context.Context, req gateway.MonitorRequest) (*gateway.MonitorResult, error)
	TriggerExtractDownload(token string)
	TriggerMonitorDownload(jobID string, which gateway.DownloadKind)
}

type Controller struct {
	gateway Gateway
	state   *session.State
	logger  logger.Logger

	page Page

	// Extract step local state; ephemeral, never persisted.
	sheets      []string
	sheet       string
	channel     string
	advertiser  string
	channels    []string
	advertisers []string

	locks map[string]*opLock
}

type Options struct {
	Gateway     Gateway
	State       *session.State
	Logger      logger.Logger
	Channels    []string
	Advertisers []string
}

func NewController(opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	c := &Controller{
		gateway:     opts.Gateway,
		state:       opts.State,
		logger:      log,
		page:        PageStart,
		channels:    opts.Channels,
		advertisers: opts.Advertisers,
		locks: map[string]*opLock{
			opLoadSheets: {},
			opExtract:    {},
			opMonitoring: {},
		},
	}
	if len(c.channels) > 0 {
		c.channel = c.channels[0]
	}
	if len(c.advertisers) > 0 {
		c.advertiser = c.advertisers[0]
	}
	return c
}

// Page returns the current step.
func (c *Controller) Page() Page {
	return c.page
}

// Busy reports whether the named operation is in flight.
func (c *Controller) Busy(op string) bool {
	l, ok := c.locks[op]
	return ok && l.isBusy()
}

func (c *Controller) transition(to Page) {
	metrics.WorkflowTransitions.WithLabelValues(string(c.page), string(to)).Inc()
	c.logger.Debug("Page transition", map[string]interface{}{
		"from": string(c.page),
		"to":   string(to),
	})
	c.page = to
}

// Navigate performs a user navigation, enforcing the flow's transition
// graph and guards. Step completions (extract, monitoring) transition on
// their own and do not go through here.
func (c *Controller) Navigate(ctx context.Context, to Page) error {
	allowed := map[Page][]Page{
		PageStart:          {PageExtract},
		PageExtract:        {PageStart},
		PageExtractResults: {PageExtract, PageMonitor},
		PageMonitor:        {PageExtractResults},
		PageMonitorResults: {PageMonitor, PageStart},
	}

	ok := false
	for _, p := range allowed[c.page] {
		if p == to {
			ok = true
			break
		}
	}
	if !ok {
		return errors.NewValidationError("page", "navigation from "+string(c.page)+" to "+string(to)+" is not allowed")
	}

	// Proceeding to monitoring requires a stored extraction token.
	if to == PageMonitor && c.state.ExtractToken(ctx) == "" {
		return errors.NewValidationError("token", "No extracted schedule found. Please extract schedule first.")
	}

	c.transition(to)
	return nil
}

// Jump moves directly to a page with no guard, modeling manual URL entry
// or a refresh. Results pages reached this way report Stale views.
func (c *Controller) Jump(to Page) {
	c.transition(to)
}

// Sheets returns the sheet list loaded for the current file.
func (c *Controller) Sheets() []string {
	return c.sheets
}

// SelectedSheet returns the currently selected sheet, "" when none.
func (c *Controller) SelectedSheet() string {
	return c.sheet
}

// SelectSheet picks a sheet from the loaded list.
func (c *Controller) SelectSheet(name string) error {
	for _, s := range c.sheets {
		if s == name {
			c.sheet = name
			return nil
		}
	}
	return errors.NewValidationError("sheet", "sheet "+name+" is not in the loaded sheet list")
}

// Channels returns the configured channel reference list.
func (c *Controller) Channels() []string {
	return c.channels
}

// Advertisers returns the configured advertiser reference list.
func (c *Controller) Advertisers() []string {
	return c.advertisers
}

func (c *Controller) SelectedChannel() string {
	return c.channel
}

func (c *Controller) SelectedAdvertiser() string {
	return c.advertiser
}

func (c *Controller) SelectChannel(name string) {
	c.channel = name
}

func (c *Controller) SelectAdvertiser(name string) {
	c.advertiser = name
}

// LoadSheets lists the sheets of the chosen schedule file and
// auto-selects the first one. Self-loop on the Extract step; no
// transition happens.
func (c *Controller) LoadSheets(ctx context.Context, file *gateway.Upload) error {
	if file == nil {
		metrics.WorkflowValidationFailures.WithLabelValues(opLoadSheets, "file").Inc()
		return errors.NewValidationError("file", "Please choose the schedule Excel file.")
	}

	lock := c.locks[opLoadSheets]
	if !lock.acquire() {
		return errors.NewValidationError("busy", "sheet loading is already in progress")
	}
	defer lock.release()

	sheets, err := c.gateway.ListSheets(ctx, file)
	if err != nil {
		return err
	}

	c.sheets = sheets
	if len(sheets) > 0 {
		c.sheet = sheets[0]
	} else {
		c.sheet = ""
	}
	return nil
}

// RunExtract validates the step's inputs, calls the extraction service,
// writes token and preview to the session state, and only then moves to
// the results page. Nothing transitions on failure.
func (c *Controller) RunExtract(ctx context.Context, file *gateway.Upload) error {
	if file == nil {
		metrics.WorkflowValidationFailures.WithLabelValues(opExtract, "file").Inc()
		return errors.NewValidationError("file", "Please choose the schedule Excel file.")
	}
	if c.sheet == "" {
		metrics.WorkflowValidationFailures.WithLabelValues(opExtract, "sheet").Inc()
		return errors.NewValidationError("sheet", "Please select a sheet.")
	}

	lock := c.locks[opExtract]
	if !lock.acquire() {
		return errors.NewValidationError("busy", "an extraction is already in progress")
	}
	defer lock.release()

	result, err := c.gateway.Extract(ctx, gateway.ExtractRequest{
		File:       file,
		Sheet:      c.sheet,
		Channel:    c.channel,
		Advertiser: c.advertiser,
	})
	if err != nil {
		return err
	}

	// Store before navigating so the results page can assume presence.
	if err := c.state.PutExtract(ctx, result.Token, result.Preview); err != nil {
		c.logger.Error("Failed to persist extraction result", map[string]interface{}{
			"token": result.Token,
			"error": err.Error(),
		})
		return err
	}

	c.transition(PageExtractResults)
	return nil
}

// RunMonitoring validates its three preconditions in order, each with its
// own message, then reconciles against the uploaded Nilson report. No
// network request is attempted when any precondition is missing.
func (c *Controller) RunMonitoring(ctx context.Context, nilson *gateway.Upload, roNumber string) error {
	token := c.state.ExtractToken(ctx)
	if token == "" {
		metrics.WorkflowValidationFailures.WithLabelValues(opMonitoring, "token").Inc()
		return errors.NewValidationError("token", "No extracted schedule found. Please extract schedule first.")
	}
	if nilson == nil {
		metrics.WorkflowValidationFailures.WithLabelValues(opMonitoring, "nilson").Inc()
		return errors.NewValidationError("nilson", "Please upload Nilson report.")
	}
	if strings.TrimSpace(roNumber) == "" {
		metrics.WorkflowValidationFailures.WithLabelValues(opMonitoring, "ro_number").Inc()
		return errors.NewValidationError("ro_number", "Please enter RO Number.")
	}

	lock := c.locks[opMonitoring]
	if !lock.acquire() {
		return errors.NewValidationError("busy", "a monitoring run is already in progress")
	}
	defer lock.release()

	result, err := c.gateway.RunMonitoring(ctx, gateway.MonitorRequest{
		Token:    token,
		Nilson:   nilson,
		RONumber: strings.TrimSpace(roNumber),
	})
	if err != nil {
		return err
	}

	if err := c.state.PutMonitor(ctx, result); err != nil {
		c.logger.Error("Failed to persist monitoring result", map[string]interface{}{
			"jobId": result.JobID,
			"error": err.Error(),
		})
		return err
	}

	c.transition(PageMonitorResults)
	return nil
}

// DownloadExtracted triggers the extracted-spots download. Refused when
// no token is stored.
func (c *Controller) DownloadExtracted(ctx context.Context) error {
	token := c.state.ExtractToken(ctx)
	if token == "" {
		return errors.NewValidationError("token", "No extracted data found. Go back and extract again.")
	}
	c.gateway.TriggerExtractDownload(token)
	return nil
}

// DownloadMonitorArtifact triggers one monitoring result download.
// Refused when no job is stored or the selector is unknown.
func (c *Controller) DownloadMonitorArtifact(ctx context.Context, which gateway.DownloadKind) error {
	jobID := c.state.MonitorJob(ctx)
	if jobID == "" {
		return errors.NewValidationError("job", "No monitoring job found. Please process again.")
	}
	if which != gateway.DownloadUnmatched && which != gateway.DownloadNilson {
		return errors.NewValidationError("which", "download selector must be unmatched or nilson")
	}
	c.gateway.TriggerMonitorDownload(jobID, which)
	return nil
}
