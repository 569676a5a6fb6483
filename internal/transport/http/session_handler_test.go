package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "doorstroom/internal/errors"
	"doorstroom/internal/session"
	"doorstroom/pkg/contracts/domain"
)

type mockDashboardService struct {
	mock.Mock
}

func (m *mockDashboardService) CreateSession(ctx context.Context) *session.Session {
	args := m.Called(ctx)
	return args.Get(0).(*session.Session)
}

func (m *mockDashboardService) Ingest(ctx context.Context, sessionID string, files []domain.UploadedFile) (domain.UploadResult, error) {
	args := m.Called(ctx, sessionID, files)
	return args.Get(0).(domain.UploadResult), args.Error(1)
}

func (m *mockDashboardService) Filters(ctx context.Context, sessionID string) (domain.FilterState, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.FilterState), args.Error(1)
}

func (m *mockDashboardService) SetFilters(ctx context.Context, sessionID string, sel domain.FilterSelection) (domain.FilterState, error) {
	args := m.Called(ctx, sessionID, sel)
	return args.Get(0).(domain.FilterState), args.Error(1)
}

func (m *mockDashboardService) Dashboard(ctx context.Context, sessionID string) (domain.Dashboard, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.Dashboard), args.Error(1)
}

func (m *mockDashboardService) Trend(ctx context.Context, sessionID string) ([]domain.TrendPoint, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]domain.TrendPoint), args.Error(1)
}

func (m *mockDashboardService) MarketShare(ctx context.Context, sessionID string) ([]domain.SharePoint, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]domain.SharePoint), args.Error(1)
}

func (m *mockDashboardService) TopPrograms(ctx context.Context, sessionID string) ([]domain.ProgramTotal, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]domain.ProgramTotal), args.Error(1)
}

func (m *mockDashboardService) Pathways(ctx context.Context, sessionID string) ([]domain.PathwayPoint, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]domain.PathwayPoint), args.Error(1)
}

func (m *mockDashboardService) Rows(ctx context.Context, sessionID string) (domain.RawTable, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.RawTable), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSessionRouter(svc DashboardServiceInterface) chi.Router {
	logger := testLogger()
	eh := apierrors.NewErrorHandler(logger, false)
	sessions := NewSessionHandler(svc, logger, eh, 1<<20)
	dashboards := NewDashboardHandler(svc, logger, eh)

	r := chi.NewRouter()
	r.Mount("/api/sessions", sessions.Routes(dashboards))
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCreateSession(t *testing.T) {
	svc := &mockDashboardService{}
	svc.On("CreateSession", mock.Anything).Return(&session.Session{ID: "abc-123"})

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/", nil)
	rec := httptest.NewRecorder()
	newSessionRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "abc-123", data["session_id"])
	svc.AssertExpectations(t)
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for name, content := range files {
		fw, err := w.CreateFormFile(uploadFieldName, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestUploadFiles(t *testing.T) {
	svc := &mockDashboardService{}
	svc.On("Ingest", mock.Anything, "s1", mock.MatchedBy(func(files []domain.UploadedFile) bool {
		return len(files) == 2
	})).Return(domain.UploadResult{
		Files: []domain.FileReport{
			{Name: "2023.csv", Rows: 4},
			{Name: "2024.csv", Rows: 3},
		},
		TotalRows: 7,
		HasData:   true,
	}, nil)

	body, contentType := multipartBody(t, map[string]string{
		"2023.csv": "Jaar,Aantal\n2023,1\n",
		"2024.csv": "Jaar,Aantal\n2024,2\n",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/s1/files", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	newSessionRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, float64(2), resp["count"])
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, true, data["has_data"])
	svc.AssertExpectations(t)
}

func TestUploadFiles_NoFiles(t *testing.T) {
	svc := &mockDashboardService{}

	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/s1/files", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	newSessionRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Ingest")
}

func TestUploadFiles_NotMultipart(t *testing.T) {
	svc := &mockDashboardService{}

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/s1/files", strings.NewReader("plain"))
	rec := httptest.NewRecorder()
	newSessionRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadFiles_SessionNotFound(t *testing.T) {
	svc := &mockDashboardService{}
	svc.On("Ingest", mock.Anything, "gone", mock.Anything).
		Return(domain.UploadResult{}, apierrors.ErrSessionNotFound)

	body, contentType := multipartBody(t, map[string]string{"a.csv": "Jaar\n2024\n"})
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/gone/files", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	newSessionRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "session/not-found")
}

func TestGetFilters(t *testing.T) {
	svc := &mockDashboardService{}
	svc.On("Filters", mock.Anything, "s1").Return(domain.FilterState{
		HasData: true,
		Sources: []string{"ROC van Twente"},
		Selected: domain.FilterSelection{
			Source:       "ROC van Twente",
			Destinations: []string{"Saxion"},
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/s1/filters", nil)
	rec := httptest.NewRecorder()
	newSessionRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, true, data["has_data"])
	svc.AssertExpectations(t)
}

func TestPutFilters(t *testing.T) {
	svc := &mockDashboardService{}
	sel := domain.FilterSelection{Source: "ROC van Twente", Destinations: []string{"Saxion"}}
	svc.On("SetFilters", mock.Anything, "s1", sel).
		Return(domain.FilterState{HasData: true, Selected: sel}, nil)

	payload, err := json.Marshal(sel)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, "/api/sessions/s1/filters", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newSessionRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestPutFilters_MissingSource(t *testing.T) {
	svc := &mockDashboardService{}

	req := httptest.NewRequest(http.MethodPut, "/api/sessions/s1/filters",
		strings.NewReader(`{"destinations":["Saxion"]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newSessionRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "SetFilters")
}

func TestPutFilters_MalformedJSON(t *testing.T) {
	svc := &mockDashboardService{}

	req := httptest.NewRequest(http.MethodPut, "/api/sessions/s1/filters", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newSessionRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
