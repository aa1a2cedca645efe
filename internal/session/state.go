package session

import (
	"context"
	"encoding/json"

	"spot-monitor/internal/common/logger"
	"spot-monitor/internal/gateway"
)

// Keys owned by the workflow steps. Extract writes the first two,
// Monitor writes the rest; each new successful run overwrites its keys.
const (
	KeyExtractToken     = "extract_token"
	KeyExtractPreview   = "extract_preview"
	KeyMonitorJob       = "monitor_job"
	KeyMonitorSummary   = "monitor_summary"
	KeyMonitorUnmatched = "monitor_unmatched"
	KeyMonitorNilson    = "monitor_nilson"
)

// State is the typed layer over the flat Store: structured values are
// JSON-encoded on write and decoded on read. A decode failure or a store
// read failure is treated as "no value available", never a crash.
type State struct {
	store  Store
	logger logger.Logger
}

func NewState(store Store, log logger.Logger) *State {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &State{store: store, logger: log}
}

// PutExtract records a successful extraction. Both keys are written
// before the caller navigates, so the results step can assume presence.
func (s *State) PutExtract(ctx context.Context, token string, preview *gateway.TablePreview) error {
	if err := s.store.Put(ctx, KeyExtractToken, token); err != nil {
		return err
	}
	return s.putJSON(ctx, KeyExtractPreview, preview)
}

// PutMonitor records a successful monitoring run.
func (s *State) PutMonitor(ctx context.Context, result *gateway.MonitorResult) error {
	if err := s.store.Put(ctx, KeyMonitorJob, result.JobID); err != nil {
		return err
	}
	if err := s.putJSON(ctx, KeyMonitorSummary, result.Summary); err != nil {
		return err
	}
	if err := s.putJSON(ctx, KeyMonitorUnmatched, result.UnmatchedPreview); err != nil {
		return err
	}
	return s.putJSON(ctx, KeyMonitorNilson, result.NilsonPreview)
}

// ExtractToken returns the stored extraction token, or "" when absent.
func (s *State) ExtractToken(ctx context.Context) string {
	return s.getString(ctx, KeyExtractToken)
}

// ExtractPreview returns the stored extraction preview, or nil.
func (s *State) ExtractPreview(ctx context.Context) *gateway.TablePreview {
	var p gateway.TablePreview
	if !s.getJSON(ctx, KeyExtractPreview, &p) {
		return nil
	}
	return &p
}

// MonitorJob returns the stored monitoring job id, or "" when absent.
func (s *State) MonitorJob(ctx context.Context) string {
	return s.getString(ctx, KeyMonitorJob)
}

// MonitorSummary returns the stored summary counts, or nil.
func (s *State) MonitorSummary(ctx context.Context) *gateway.MonitoringSummary {
	var sum gateway.MonitoringSummary
	if !s.getJSON(ctx, KeyMonitorSummary, &sum) {
		return nil
	}
	return &sum
}

// UnmatchedPreview returns the stored unmatched-spots preview, or nil.
func (s *State) UnmatchedPreview(ctx context.Context) *gateway.TablePreview {
	var p gateway.TablePreview
	if !s.getJSON(ctx, KeyMonitorUnmatched, &p) {
		return nil
	}
	return &p
}

// NilsonPreview returns the stored nilson-with-RO preview, or nil.
func (s *State) NilsonPreview(ctx context.Context) *gateway.TablePreview {
	var p gateway.TablePreview
	if !s.getJSON(ctx, KeyMonitorNilson, &p) {
		return nil
	}
	return &p
}

func (s *State) putJSON(ctx context.Context, key string, value interface{}) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, key, string(encoded))
}

func (s *State) getString(ctx context.Context, key string) string {
	v, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Session store read failed, treating as absent", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

func (s *State) getJSON(ctx context.Context, key string, out interface{}) bool {
	raw := s.getString(ctx, key)
	if raw == "" || raw == "null" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		s.logger.Warn("Corrupt session value, treating as absent", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}
	return true
}
