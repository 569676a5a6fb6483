package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "doorstroom/internal/errors"
	"doorstroom/pkg/contracts/domain"
)

func TestGetDashboard(t *testing.T) {
	svc := &mockDashboardService{}
	delta := -2.0
	svc.On("Dashboard", mock.Anything, "s1").Return(domain.Dashboard{
		HasData: true,
		Summary: domain.Summary{
			Inflow: domain.YearKPI{
				CurrentYear:  2024,
				PriorYear:    2023,
				TotalCurrent: 8,
				TotalPrior:   10,
				Delta:        &delta,
			},
			DestinationCount: 1,
			ProgramCount:     2,
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/s1/dashboard", nil)
	rec := httptest.NewRecorder()
	newSessionRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["has_data"])
	summary := data["summary"].(map[string]interface{})
	inflow := summary["inflow"].(map[string]interface{})
	assert.Equal(t, float64(2024), inflow["current_year"])
	assert.Equal(t, float64(-2), inflow["delta"])
	svc.AssertExpectations(t)
}

func TestGetDashboard_WaitingForData(t *testing.T) {
	svc := &mockDashboardService{}
	svc.On("Dashboard", mock.Anything, "s1").Return(domain.Dashboard{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/s1/dashboard", nil)
	rec := httptest.NewRecorder()
	newSessionRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, false, data["has_data"])

	// Delta is omitted when no prior-year baseline exists.
	summary := data["summary"].(map[string]interface{})
	inflow := summary["inflow"].(map[string]interface{})
	assert.NotContains(t, inflow, "delta")
}

func TestGetDashboard_SessionNotFound(t *testing.T) {
	svc := &mockDashboardService{}
	svc.On("Dashboard", mock.Anything, "gone").Return(domain.Dashboard{}, apierrors.ErrSessionNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/gone/dashboard", nil)
	rec := httptest.NewRecorder()
	newSessionRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "session/not-found")
}

func TestChartEndpoints(t *testing.T) {
	svc := &mockDashboardService{}
	svc.On("Trend", mock.Anything, "s1").Return([]domain.TrendPoint{
		{Year: 2023, Destination: "Saxion", Total: 5},
		{Year: 2024, Destination: "Saxion", Total: 8},
	}, nil)
	svc.On("MarketShare", mock.Anything, "s1").Return([]domain.SharePoint{
		{Destination: "Saxion", Total: 8},
	}, nil)
	svc.On("TopPrograms", mock.Anything, "s1").Return([]domain.ProgramTotal{
		{Program: "ICT", Total: 6},
	}, nil)
	svc.On("Pathways", mock.Anything, "s1").Return([]domain.PathwayPoint{
		{Year: 2024, Pathway: "mbo direct", Total: 8},
	}, nil)

	router := newSessionRouter(svc)
	tests := []struct {
		path  string
		count float64
	}{
		{"/api/sessions/s1/charts/trend", 2},
		{"/api/sessions/s1/charts/market-share", 1},
		{"/api/sessions/s1/charts/top-programs", 1},
		{"/api/sessions/s1/charts/pathways", 1},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, "success", body["status"])
			assert.Equal(t, tt.count, body["count"])
		})
	}
	svc.AssertExpectations(t)
}

func TestGetRows(t *testing.T) {
	svc := &mockDashboardService{}
	svc.On("Rows", mock.Anything, "s1").Return(domain.RawTable{
		Columns: []string{"Jaar", "Aantal"},
		Rows:    [][]string{{"2024", "5"}},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/s1/rows", nil)
	rec := httptest.NewRecorder()
	newSessionRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
	svc.AssertExpectations(t)
}
