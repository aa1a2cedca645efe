package gateway

import "io"

// Upload is a user-selected file handed to exactly one request. The
// reader is consumed by that request and never retained.
type Upload struct {
	Name   string
	Reader io.Reader
}

// TablePreview is the tabular sample returned by the extraction and
// monitoring operations. Rows may be a truncated sample; TotalRows is the
// full server-side result size and the two are allowed to diverge.
type TablePreview struct {
	Columns   []string                 `json:"columns"`
	Rows      []map[string]interface{} `json:"rows"`
	TotalRows int                      `json:"totalRows"`
}

// MonitoringSummary carries the server-computed aggregate counts for one
// monitoring run. No arithmetic relationship between the three is assumed;
// matching can be partial or many-to-many.
type MonitoringSummary struct {
	TotalScheduleSpots   int `json:"totalScheduleSpots"`
	TotalUnmatched       int `json:"totalUnmatched"`
	TotalMatchedInNilson int `json:"totalMatchedInNilson"`
}

// ExtractRequest is the input to the extraction operation.
type ExtractRequest struct {
	File       *Upload
	Sheet      string
	Channel    string
	Advertiser string
}

// ExtractResult is a successful extraction response. Token is the sole
// key needed to download the artifact or run monitoring; the original
// file is never re-sent.
type ExtractResult struct {
	Token   string        `json:"token"`
	Preview *TablePreview `json:"preview"`
}

// MonitorRequest is the input to the monitoring operation. Token must
// reference a prior successful extraction.
type MonitorRequest struct {
	Token    string
	Nilson   *Upload
	RONumber string
}

// MonitorResult is a successful monitoring response. JobID scopes the two
// downloadable result files produced by the run.
type MonitorResult struct {
	JobID            string             `json:"job_id"`
	Summary          *MonitoringSummary `json:"summary"`
	UnmatchedPreview *TablePreview      `json:"unmatchedPreview"`
	NilsonPreview    *TablePreview      `json:"nilsonPreview"`
}

type sheetsResponse struct {
	Sheets []string `json:"sheets"`
}

// DownloadKind selects which monitoring artifact to download.
type DownloadKind string

const (
	DownloadUnmatched DownloadKind = "unmatched"
	DownloadNilson    DownloadKind = "nilson"
)
