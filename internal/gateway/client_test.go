package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot-monitor/internal/common/errors"
	"spot-monitor/internal/common/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Options{
		BaseURL: server.URL,
		Logger:  logger.NewTestLogger(t),
	})
	return client, server
}

func scheduleUpload() *Upload {
	return &Upload{Name: "schedule.xlsx", Reader: strings.NewReader("fake-xlsx-bytes")}
}

func TestListSheets(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/schedule/sheets", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "schedule.xlsx", header.Filename)

		json.NewEncoder(w).Encode(map[string]interface{}{"sheets": []string{"Week1", "Week2"}})
	})

	sheets, err := client.ListSheets(context.Background(), scheduleUpload())
	require.NoError(t, err)
	assert.Equal(t, []string{"Week1", "Week2"}, sheets)
}

func TestListSheets_NilFile(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := client.ListSheets(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Zero(t, atomic.LoadInt32(&calls), "no request may be issued on validation failure")
}

func TestExtract(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/extract", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "Week1", r.FormValue("sheet"))
		assert.Equal(t, "Tv - Derana", r.FormValue("channel"))
		assert.Equal(t, "Seylan Bank", r.FormValue("advertiser"))
		_, _, err := r.FormFile("file")
		require.NoError(t, err)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"token": "abc123",
			"preview": map[string]interface{}{
				"columns":   []string{"Date", "Program"},
				"rows":      []map[string]interface{}{{"Date": "2024-01-01", "Program": "News"}},
				"totalRows": 120,
			},
		})
	})

	result, err := client.Extract(context.Background(), ExtractRequest{
		File:       scheduleUpload(),
		Sheet:      "Week1",
		Channel:    "Tv - Derana",
		Advertiser: "Seylan Bank",
	})
	require.NoError(t, err)
	assert.Equal(t, "abc123", result.Token)
	require.NotNil(t, result.Preview)
	assert.Equal(t, 120, result.Preview.TotalRows)
	assert.Len(t, result.Preview.Rows, 1)
}

func TestExtract_Preconditions(t *testing.T) {
	tests := []struct {
		name  string
		req   ExtractRequest
		field string
	}{
		{
			name:  "missing file",
			req:   ExtractRequest{Sheet: "Week1"},
			field: "file",
		},
		{
			name:  "missing sheet",
			req:   ExtractRequest{File: scheduleUpload()},
			field: "sheet",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
			})

			_, err := client.Extract(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
			assert.Zero(t, atomic.LoadInt32(&calls))
		})
	}
}

func TestRunMonitoring(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/monitor", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "abc123", r.FormValue("token"))
		assert.Equal(t, "RO-99", r.FormValue("ro_number"))
		_, _, err := r.FormFile("nilson")
		require.NoError(t, err)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"job_id": "job-7",
			"summary": map[string]interface{}{
				"totalScheduleSpots":   120,
				"totalUnmatched":       15,
				"totalMatchedInNilson": 98,
			},
			"unmatchedPreview": map[string]interface{}{"columns": []string{"Date"}, "rows": []map[string]interface{}{}, "totalRows": 15},
			"nilsonPreview":    map[string]interface{}{"columns": []string{"Date"}, "rows": []map[string]interface{}{}, "totalRows": 98},
		})
	})

	result, err := client.RunMonitoring(context.Background(), MonitorRequest{
		Token:    "abc123",
		Nilson:   &Upload{Name: "nilson.xlsx", Reader: strings.NewReader("nilson-bytes")},
		RONumber: "  RO-99  ", // trimmed before sending
	})
	require.NoError(t, err)
	assert.Equal(t, "job-7", result.JobID)
	require.NotNil(t, result.Summary)
	assert.Equal(t, 120, result.Summary.TotalScheduleSpots)
}

func TestRunMonitoring_BlankRONumber(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := client.RunMonitoring(context.Background(), MonitorRequest{
		Token:    "abc123",
		Nilson:   &Upload{Name: "nilson.xlsx", Reader: strings.NewReader("x")},
		RONumber: "   ",
	})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestServiceError_BodySurfacedVerbatim(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("file and sheet are required"))
	})

	_, err := client.Extract(context.Background(), ExtractRequest{
		File:  scheduleUpload(),
		Sheet: "Week1",
	})
	require.Error(t, err)
	assert.True(t, errors.IsService(err))
	assert.Equal(t, "file and sheet are required", err.Error())
}

func TestTransportError(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := client.ListSheets(context.Background(), scheduleUpload())
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
}

func TestDownloadURLs(t *testing.T) {
	client := NewClient(Options{BaseURL: "http://localhost:5000/"})

	assert.Equal(t, "http://localhost:5000/api/extract/download/abc123",
		client.ExtractDownloadURL("abc123"))
	assert.Equal(t, "http://localhost:5000/api/monitor/download/job-7/unmatched",
		client.MonitorDownloadURL("job-7", DownloadUnmatched))
	assert.Equal(t, "http://localhost:5000/api/monitor/download/job-7/nilson",
		client.MonitorDownloadURL("job-7", DownloadNilson))
}

func TestTriggerDownloads_FireAndForget(t *testing.T) {
	var opened []string
	client := NewClient(Options{
		BaseURL: "http://localhost:5000",
		Logger:  logger.NewTestLogger(t),
		Open: func(url string) error {
			opened = append(opened, url)
			return nil
		},
	})

	client.TriggerExtractDownload("abc123")
	client.TriggerMonitorDownload("job-7", DownloadUnmatched)

	require.Len(t, opened, 2)
	assert.Equal(t, "http://localhost:5000/api/extract/download/abc123", opened[0])
	assert.Equal(t, "http://localhost:5000/api/monitor/download/job-7/unmatched", opened[1])
}

func TestTriggerDownload_FailureNotSurfaced(t *testing.T) {
	client := NewClient(Options{
		BaseURL: "http://localhost:5000",
		Logger:  logger.NewTestLogger(t),
		Open: func(url string) error {
			return assert.AnError
		},
	})

	// Must not panic or propagate; failures are logged only.
	client.TriggerExtractDownload("abc123")
	client.TriggerMonitorDownload("job-7", DownloadNilson)
}
