// Package session holds the per-analyst dashboard state: the combined
// enrollment table built from that analyst's uploads plus their current
// filter selection. Sessions live in memory and expire after a TTL.
package session

import (
	"sync"
	"time"

	"doorstroom/pkg/contracts/domain"
)

// Session is one analyst's workspace. All mutable fields are guarded by
// the session's own mutex so concurrent uploads and dashboard reads on
// the same session stay consistent.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu          sync.RWMutex
	lastSeen    time.Time
	combined    *domain.Table
	fileReports []domain.FileReport
	dataHash    string
	selection   domain.FilterSelection
	selected    bool
}

// Touch records activity so the janitor keeps the session alive.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// LastSeen returns the time of the most recent activity.
func (s *Session) LastSeen() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

// SetData replaces the session's combined table. The hash identifies the
// file-set content the table was built from, so repeated uploads of the
// same files can reuse the combine result. Setting new data resets the
// filter selection: the option lists may have changed.
func (s *Session) SetData(combined *domain.Table, reports []domain.FileReport, hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.combined = combined
	s.fileReports = reports
	s.dataHash = hash
	s.selected = false
	s.selection = domain.FilterSelection{}
}

// Data returns the combined table and its content hash. The table is nil
// while the session is still waiting for a successful upload.
func (s *Session) Data() (*domain.Table, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.combined, s.dataHash
}

// FileReports returns the per-file outcomes of the most recent upload.
func (s *Session) FileReports() []domain.FileReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reports := make([]domain.FileReport, len(s.fileReports))
	copy(reports, s.fileReports)
	return reports
}

// HasData reports whether at least one uploaded file parsed successfully.
func (s *Session) HasData() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.combined != nil && len(s.combined.Records) > 0
}

// SetSelection stores an explicit filter selection.
func (s *Session) SetSelection(sel domain.FilterSelection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = sel
	s.selected = true
}

// Selection returns the stored selection and whether one was ever set.
// When none was set the caller derives the configured defaults instead.
func (s *Session) Selection() (domain.FilterSelection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection, s.selected
}
