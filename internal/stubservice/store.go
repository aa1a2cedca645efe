package stubservice

import (
	"sync"

	"github.com/google/uuid"

	"spot-monitor/internal/gateway"
)

// artifactStore retains extraction and monitoring artifacts in memory,
// keyed by opaque ids, the way the original service's storage module
// does. Artifacts live for the stub's process lifetime.
type artifactStore struct {
	mu       sync.RWMutex
	extracts map[string]*extractArtifact
	results  map[string]*monitorArtifact
}

type extractArtifact struct {
	Table      *Table
	Sheet      string
	Channel    string
	Advertiser string
}

type monitorArtifact struct {
	Unmatched *Table
	Nilson    *Table
	Summary   *gateway.MonitoringSummary
}

func newArtifactStore() *artifactStore {
	return &artifactStore{
		extracts: make(map[string]*extractArtifact),
		results:  make(map[string]*monitorArtifact),
	}
}

func (s *artifactStore) putExtract(a *extractArtifact) string {
	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extracts[token] = a
	return token
}

func (s *artifactStore) getExtract(token string) (*extractArtifact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.extracts[token]
	return a, ok
}

func (s *artifactStore) putResult(a *monitorArtifact) string {
	jobID := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[jobID] = a
	return jobID
}

func (s *artifactStore) getResult(jobID string) (*monitorArtifact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.results[jobID]
	return a, ok
}
