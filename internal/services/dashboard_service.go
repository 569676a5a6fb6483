package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"doorstroom/internal/config"
	"doorstroom/internal/dataprocessing"
	apperrors "doorstroom/internal/errors"
	"doorstroom/internal/infrastructure"
	"doorstroom/internal/session"
	"doorstroom/pkg/contracts/domain"
)

// Notifier pushes session events to connected dashboard clients. The
// websocket hub implements it; tests substitute a recording double.
type Notifier interface {
	BroadcastDatasetUpdated(sessionID string, result domain.UploadResult)
	BroadcastFiltersUpdated(sessionID string, selection domain.FilterSelection)
}

// DashboardService owns the session lifecycle and every dashboard
// operation: upload ingestion, filter state, and the aggregates.
type DashboardService struct {
	cfg      *config.Config
	store    *session.Store
	logger   *slog.Logger
	metrics  *infrastructure.Metrics
	notifier Notifier

	// combine collapses concurrent identical uploads to one combine run.
	combine singleflight.Group
}

// NewDashboardService creates the dashboard service. Metrics and
// notifier may be nil; both degrade to no-ops.
func NewDashboardService(cfg *config.Config, store *session.Store, logger *slog.Logger, metrics *infrastructure.Metrics, notifier Notifier) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		cfg:      cfg,
		store:    store,
		logger:   logger,
		metrics:  metrics,
		notifier: notifier,
	}
}

// CreateSession registers a new empty analyst session.
func (s *DashboardService) CreateSession(ctx context.Context) *session.Session {
	sess := s.store.Create()
	if s.metrics != nil {
		s.metrics.ActiveSessions.Add(ctx, 1)
	}
	s.logger.InfoContext(ctx, "session created", slog.String("session_id", sess.ID))
	return sess
}

// RunJanitor expires idle sessions on the configured interval until the
// context is cancelled, keeping the active-sessions gauge in step.
func (s *DashboardService) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := s.store.Cleanup()
			if removed == 0 {
				continue
			}
			if s.metrics != nil {
				s.metrics.ActiveSessions.Add(ctx, int64(-removed))
			}
			s.logger.InfoContext(ctx, "expired idle sessions",
				slog.Int("removed", removed),
				slog.Int("remaining", s.store.Len()))
		}
	}
}

// SessionCount returns the number of live sessions.
func (s *DashboardService) SessionCount() int {
	return s.store.Len()
}

func (s *DashboardService) getSession(id string) (*session.Session, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, apperrors.ErrSessionNotFound
	}
	return sess, nil
}

// Ingest parses an upload batch and replaces the session's dataset with
// the combined table of every file that parsed. Files that fail to parse
// are reported per file and skipped; one bad file never rejects the
// batch. When the batch content matches the session's current dataset
// the previous combine result is reused.
func (s *DashboardService) Ingest(ctx context.Context, sessionID string, files []domain.UploadedFile) (domain.UploadResult, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return domain.UploadResult{}, err
	}
	if len(files) == 0 {
		return domain.UploadResult{}, apperrors.ErrValidation("files", "at least one file is required")
	}

	hash := fileSetHash(files)

	if _, prevHash := sess.Data(); prevHash == hash {
		s.logger.InfoContext(ctx, "upload matches current dataset, reusing combine result",
			slog.String("session_id", sessionID),
			slog.String("dataset_hash", hash))
		return s.uploadResult(sess), nil
	}

	type combineOutcome struct {
		table   *domain.Table
		reports []domain.FileReport
		rows    int
		failed  int
	}

	v, err, _ := s.combine.Do(sessionID+":"+hash, func() (interface{}, error) {
		out := combineOutcome{}
		var tables []*domain.Table

		for _, f := range files {
			table, parseErr := dataprocessing.ParseFile(f.Name, f.Data)
			if parseErr != nil {
				s.logger.WarnContext(ctx, "uploaded file failed to parse",
					slog.String("session_id", sessionID),
					slog.String("file", f.Name),
					slog.String("error", parseErr.Error()))
				out.reports = append(out.reports, domain.FileReport{Name: f.Name, Error: parseErr.Error()})
				out.failed++
				continue
			}
			out.reports = append(out.reports, domain.FileReport{Name: f.Name, Rows: table.Len()})
			out.rows += table.Len()
			tables = append(tables, table)
		}

		if len(tables) > 0 {
			combined, combineErr := dataprocessing.Combine(tables)
			if combineErr != nil {
				return nil, fmt.Errorf("failed to combine uploaded files: %w", combineErr)
			}
			out.table = combined
		}
		return out, nil
	})
	if err != nil {
		return domain.UploadResult{}, err
	}
	out := v.(combineOutcome)

	sess.SetData(out.table, out.reports, hash)

	if s.metrics != nil {
		s.metrics.UploadsTotal.Add(ctx, 1)
		s.metrics.UploadFilesFailed.Add(ctx, int64(out.failed))
		s.metrics.RowsIngested.Add(ctx, int64(out.rows))
	}

	result := s.uploadResult(sess)
	s.logger.InfoContext(ctx, "upload ingested",
		slog.String("session_id", sessionID),
		slog.String("dataset_hash", hash),
		slog.Int("files", len(files)),
		slog.Int("failed", out.failed),
		slog.Int("rows", out.rows))

	if s.notifier != nil {
		s.notifier.BroadcastDatasetUpdated(sessionID, result)
	}
	return result, nil
}

func (s *DashboardService) uploadResult(sess *session.Session) domain.UploadResult {
	combined, _ := sess.Data()
	return domain.UploadResult{
		Files:     sess.FileReports(),
		TotalRows: combined.Len(),
		HasData:   sess.HasData(),
	}
}

// fileSetHash identifies an upload batch by content, independent of the
// order the files arrived in.
func fileSetHash(files []domain.UploadedFile) string {
	digests := make([]string, 0, len(files))
	for _, f := range files {
		h := sha256.New()
		h.Write([]byte(f.Name))
		h.Write([]byte{0})
		h.Write(f.Data)
		digests = append(digests, hex.EncodeToString(h.Sum(nil)))
	}
	sort.Strings(digests)

	h := sha256.New()
	for _, d := range digests {
		h.Write([]byte(d))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Filters returns the session's filter surface: option lists derived
// from the combined table plus the effective selection. Before any
// successful upload the state is empty with HasData false.
func (s *DashboardService) Filters(ctx context.Context, sessionID string) (domain.FilterState, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return domain.FilterState{}, err
	}
	return s.filterState(sess), nil
}

func (s *DashboardService) filterState(sess *session.Session) domain.FilterState {
	combined, _ := sess.Data()
	state := domain.FilterState{
		HasData:      sess.HasData(),
		Sources:      dataprocessing.SourceOptions(combined),
		Destinations: dataprocessing.DestinationOptions(combined),
	}
	if !state.HasData {
		return state
	}
	if sel, explicit := sess.Selection(); explicit {
		state.Selected = sel
		return state
	}
	state.Selected = domain.FilterSelection{
		Source:       dataprocessing.DefaultSource(state.Sources, s.cfg.Dashboard.DefaultSourcePattern),
		Destinations: dataprocessing.DefaultDestinations(state.Destinations, s.cfg.Dashboard.DefaultDestinationPattern),
	}
	return state
}

// SetFilters stores an explicit selection. The source must be one of the
// session's source options; destinations outside the option list simply
// match no rows and are kept as-is.
func (s *DashboardService) SetFilters(ctx context.Context, sessionID string, sel domain.FilterSelection) (domain.FilterState, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return domain.FilterState{}, err
	}
	if !sess.HasData() {
		return domain.FilterState{}, apperrors.ErrNoDataUploaded
	}

	combined, _ := sess.Data()
	sources := dataprocessing.SourceOptions(combined)
	if !contains(sources, sel.Source) {
		return domain.FilterState{}, apperrors.ErrValidation("source", "unknown source institution")
	}

	sess.SetSelection(sel)
	s.logger.InfoContext(ctx, "filters updated",
		slog.String("session_id", sessionID),
		slog.String("source", sel.Source),
		slog.Int("destinations", len(sel.Destinations)))

	if s.notifier != nil {
		s.notifier.BroadcastFiltersUpdated(sessionID, sel)
	}
	return s.filterState(sess), nil
}

func contains(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}

// views resolves the session's effective selection and builds the two
// filtered views every aggregate reads from.
func (s *DashboardService) views(sess *session.Session) (state domain.FilterState, sourceFiltered, doubly *domain.Table) {
	state = s.filterState(sess)
	combined, _ := sess.Data()
	sourceFiltered = dataprocessing.FilterBySource(combined, state.Selected.Source)
	doubly = dataprocessing.FilterByDestinations(sourceFiltered, state.Selected.Destinations)
	return state, sourceFiltered, doubly
}

// Dashboard computes the complete dashboard payload. A session without
// data returns an empty payload with HasData false rather than an error;
// the frontend renders the waiting-for-upload state from it.
func (s *DashboardService) Dashboard(ctx context.Context, sessionID string) (domain.Dashboard, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return domain.Dashboard{}, err
	}

	if !sess.HasData() {
		return domain.Dashboard{Filters: s.filterState(sess)}, nil
	}

	state, sourceFiltered, doubly := s.views(sess)
	kpi := dataprocessing.InflowKPI(doubly, s.cfg.Dashboard.FallbackYear)

	return domain.Dashboard{
		HasData: true,
		Filters: state,
		Summary: domain.Summary{
			Inflow:           kpi,
			DestinationCount: dataprocessing.DistinctDestinations(doubly),
			ProgramCount:     dataprocessing.DistinctPrograms(doubly),
		},
		Trend:       dataprocessing.Trend(doubly),
		MarketShare: dataprocessing.MarketShare(sourceFiltered, kpi.CurrentYear),
		TopPrograms: dataprocessing.TopPrograms(doubly, kpi.CurrentYear, s.cfg.Dashboard.TopPrograms),
		Pathways:    dataprocessing.PathwayTrend(doubly),
		Rows:        dataprocessing.RawRows(doubly),
	}, nil
}

// Trend returns the multi-year trend chart on its own.
func (s *DashboardService) Trend(ctx context.Context, sessionID string) ([]domain.TrendPoint, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.HasData() {
		return []domain.TrendPoint{}, nil
	}
	_, _, doubly := s.views(sess)
	return dataprocessing.Trend(doubly), nil
}

// MarketShare returns the current-year market-share snapshot across all
// destinations reachable from the selected source.
func (s *DashboardService) MarketShare(ctx context.Context, sessionID string) ([]domain.SharePoint, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.HasData() {
		return []domain.SharePoint{}, nil
	}
	_, sourceFiltered, doubly := s.views(sess)
	year := dataprocessing.CurrentYear(doubly, s.cfg.Dashboard.FallbackYear)
	return dataprocessing.MarketShare(sourceFiltered, year), nil
}

// TopPrograms returns the current-year top destination programs.
func (s *DashboardService) TopPrograms(ctx context.Context, sessionID string) ([]domain.ProgramTotal, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.HasData() {
		return []domain.ProgramTotal{}, nil
	}
	_, _, doubly := s.views(sess)
	year := dataprocessing.CurrentYear(doubly, s.cfg.Dashboard.FallbackYear)
	return dataprocessing.TopPrograms(doubly, year, s.cfg.Dashboard.TopPrograms), nil
}

// Pathways returns the direct-versus-indirect inflow trend.
func (s *DashboardService) Pathways(ctx context.Context, sessionID string) ([]domain.PathwayPoint, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.HasData() {
		return []domain.PathwayPoint{}, nil
	}
	_, _, doubly := s.views(sess)
	return dataprocessing.PathwayTrend(doubly), nil
}

// Rows returns the doubly-filtered raw rows for tabular display.
func (s *DashboardService) Rows(ctx context.Context, sessionID string) (domain.RawTable, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return domain.RawTable{}, err
	}
	if !sess.HasData() {
		return domain.RawTable{}, nil
	}
	_, _, doubly := s.views(sess)
	return dataprocessing.RawRows(doubly), nil
}
