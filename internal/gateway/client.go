// Package gateway is the typed client for the external processing
// service: sheet listing, extraction, monitoring, and the fire-and-forget
// download triggers. All four network operations go through one generic
// multipart helper so their encode/decode behavior cannot drift.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"spot-monitor/internal/common/browser"
	"spot-monitor/internal/common/errors"
	"spot-monitor/internal/common/logger"
	"spot-monitor/internal/common/metrics"
	"spot-monitor/internal/common/observability"
)

// Operation names used in errors, metrics, and spans.
const (
	OpListSheets    = "list_sheets"
	OpExtract       = "extract"
	OpRunMonitoring = "run_monitoring"
	OpHealth        = "health"
)

// OpenFunc opens a URL in a separate browsing context. Injected so tests
// can observe download triggers without spawning a browser.
type OpenFunc func(url string) error

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
	tracing    *observability.Tracing
	open       OpenFunc
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	Logger  logger.Logger
	Tracing *observability.Tracing
	Open    OpenFunc
}

func NewClient(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	open := opts.Open
	if open == nil {
		open = browser.Open
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		logger:  log,
		tracing: opts.Tracing,
		open:    open,
	}
}

// formField is one multipart part: either a plain value or a file.
type formField struct {
	name  string
	value string
	file  *Upload
}

// postForm encodes fields as multipart/form-data, POSTs them to path, and
// decodes the JSON response into out. A network failure yields a
// TransportError; a non-2xx status yields a ServiceError carrying the raw
// response body text.
func (c *Client) postForm(ctx context.Context, op, path string, fields []formField, out interface{}) error {
	start := time.Now()
	status := "success"
	defer func() {
		metrics.GatewayRequestsTotal.WithLabelValues(op, status).Inc()
		metrics.GatewayRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	ctx, span := c.tracing.StartSpan(ctx, "gateway."+op)
	defer span.End()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range fields {
		if f.file != nil {
			part, err := writer.CreateFormFile(f.name, f.file.Name)
			if err != nil {
				status = "encode_error"
				return errors.NewTransportError(op, err)
			}
			if _, err := io.Copy(part, f.file.Reader); err != nil {
				status = "encode_error"
				return errors.NewTransportError(op, err)
			}
			continue
		}
		if err := writer.WriteField(f.name, f.value); err != nil {
			status = "encode_error"
			return errors.NewTransportError(op, err)
		}
	}
	if err := writer.Close(); err != nil {
		status = "encode_error"
		return errors.NewTransportError(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		status = "transport_error"
		return errors.NewTransportError(op, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		status = "transport_error"
		c.logger.Error("Request to processing service failed", map[string]interface{}{
			"operation": op,
			"path":      path,
			"error":     err.Error(),
		})
		return errors.NewTransportError(op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		status = "transport_error"
		return errors.NewTransportError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		status = "service_error"
		c.logger.Warn("Processing service returned failure status", map[string]interface{}{
			"operation": op,
			"path":      path,
			"status":    resp.StatusCode,
		})
		return errors.NewServiceError(op, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			status = "decode_error"
			return errors.NewTransportError(op, fmt.Errorf("decoding response: %w", err))
		}
	}

	return nil
}

// ListSheets returns the sheet names of an uploaded schedule file, in
// workbook order.
func (c *Client) ListSheets(ctx context.Context, file *Upload) ([]string, error) {
	if file == nil {
		return nil, errors.NewValidationError("file", "schedule file is required")
	}

	var resp sheetsResponse
	err := c.postForm(ctx, OpListSheets, "/api/schedule/sheets", []formField{
		{name: "file", file: file},
	}, &resp)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Listed schedule sheets", map[string]interface{}{
		"count": len(resp.Sheets),
	})
	return resp.Sheets, nil
}

// Extract asks the service to expand the selected sheet into row-level
// spots. On success the returned token is the only handle needed for the
// download and monitoring steps.
func (c *Client) Extract(ctx context.Context, req ExtractRequest) (*ExtractResult, error) {
	if req.File == nil {
		return nil, errors.NewValidationError("file", "schedule file is required")
	}
	if req.Sheet == "" {
		return nil, errors.NewValidationError("sheet", "sheet name is required")
	}

	var result ExtractResult
	err := c.postForm(ctx, OpExtract, "/api/extract", []formField{
		{name: "file", file: req.File},
		{name: "sheet", value: req.Sheet},
		{name: "channel", value: req.Channel},
		{name: "advertiser", value: req.Advertiser},
	}, &result)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Extraction succeeded", map[string]interface{}{
		"token":     result.Token,
		"sheet":     req.Sheet,
		"totalRows": previewTotal(result.Preview),
	})
	return &result, nil
}

// RunMonitoring reconciles the previously extracted spots (referenced by
// token) against an uploaded Nilson report.
func (c *Client) RunMonitoring(ctx context.Context, req MonitorRequest) (*MonitorResult, error) {
	if req.Token == "" {
		return nil, errors.NewValidationError("token", "extraction token is required")
	}
	if req.Nilson == nil {
		return nil, errors.NewValidationError("nilson", "nilson file is required")
	}
	if strings.TrimSpace(req.RONumber) == "" {
		return nil, errors.NewValidationError("ro_number", "RO number is required")
	}

	var result MonitorResult
	err := c.postForm(ctx, OpRunMonitoring, "/api/monitor", []formField{
		{name: "token", value: req.Token},
		{name: "ro_number", value: strings.TrimSpace(req.RONumber)},
		{name: "nilson", file: req.Nilson},
	}, &result)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Monitoring run succeeded", map[string]interface{}{
		"jobId": result.JobID,
	})
	return &result, nil
}

// Health pings the processing service.
func (c *Client) Health(ctx context.Context) error {
	start := time.Now()
	status := "success"
	defer func() {
		metrics.GatewayRequestsTotal.WithLabelValues(OpHealth, status).Inc()
		metrics.GatewayRequestDuration.WithLabelValues(OpHealth).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		status = "transport_error"
		return errors.NewTransportError(OpHealth, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		status = "transport_error"
		return errors.NewTransportError(OpHealth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		status = "service_error"
		body, _ := io.ReadAll(resp.Body)
		return errors.NewServiceError(OpHealth, resp.StatusCode, string(body))
	}
	return nil
}

// ExtractDownloadURL builds the retrieval URL for an extraction artifact.
func (c *Client) ExtractDownloadURL(token string) string {
	return fmt.Sprintf("%s/api/extract/download/%s", c.baseURL, token)
}

// MonitorDownloadURL builds the retrieval URL for one monitoring artifact.
func (c *Client) MonitorDownloadURL(jobID string, which DownloadKind) string {
	return fmt.Sprintf("%s/api/monitor/download/%s/%s", c.baseURL, jobID, which)
}

// TriggerExtractDownload opens the extracted-spots file in a separate
// browsing context. Fire-and-forget: failures are logged, never surfaced
// to the workflow.
func (c *Client) TriggerExtractDownload(token string) {
	metrics.DownloadsTriggered.WithLabelValues("extract").Inc()
	if err := c.open(c.ExtractDownloadURL(token)); err != nil {
		c.logger.Warn("Failed to open extract download", map[string]interface{}{
			"token": token,
			"error": err.Error(),
		})
	}
}

// TriggerMonitorDownload opens one monitoring result file in a separate
// browsing context. Fire-and-forget, same as TriggerExtractDownload.
func (c *Client) TriggerMonitorDownload(jobID string, which DownloadKind) {
	metrics.DownloadsTriggered.WithLabelValues(string(which)).Inc()
	if err := c.open(c.MonitorDownloadURL(jobID, which)); err != nil {
		c.logger.Warn("Failed to open monitoring download", map[string]interface{}{
			"jobId": jobID,
			"which": which,
			"error": err.Error(),
		})
	}
}

func previewTotal(p *TablePreview) int {
	if p == nil {
		return 0
	}
	return p.TotalRows
}
