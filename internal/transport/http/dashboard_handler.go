package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "doorstroom/internal/errors"
)

// DashboardHandler serves the dashboard payload, the individual chart
// tables, and the raw filtered rows.
type DashboardHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// RegisterRoutes attaches the dashboard routes to a per-session router.
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.GetDashboard)
	r.Get("/charts/trend", h.GetTrend)
	r.Get("/charts/market-share", h.GetMarketShare)
	r.Get("/charts/top-programs", h.GetTopPrograms)
	r.Get("/charts/pathways", h.GetPathways)
	r.Get("/rows", h.GetRows)
}

// GetDashboard handles GET /api/sessions/{sessionID}/dashboard.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.service.Dashboard(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   dash,
	})
}

// GetTrend handles GET /api/sessions/{sessionID}/charts/trend.
func (h *DashboardHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	points, err := h.service.Trend(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   points,
		"count":  len(points),
	})
}

// GetMarketShare handles GET /api/sessions/{sessionID}/charts/market-share.
func (h *DashboardHandler) GetMarketShare(w http.ResponseWriter, r *http.Request) {
	points, err := h.service.MarketShare(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   points,
		"count":  len(points),
	})
}

// GetTopPrograms handles GET /api/sessions/{sessionID}/charts/top-programs.
func (h *DashboardHandler) GetTopPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := h.service.TopPrograms(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   programs,
		"count":  len(programs),
	})
}

// GetPathways handles GET /api/sessions/{sessionID}/charts/pathways.
func (h *DashboardHandler) GetPathways(w http.ResponseWriter, r *http.Request) {
	points, err := h.service.Pathways(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   points,
		"count":  len(points),
	})
}

// GetRows handles GET /api/sessions/{sessionID}/rows.
func (h *DashboardHandler) GetRows(w http.ResponseWriter, r *http.Request) {
	table, err := h.service.Rows(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   table,
		"count":  len(table.Rows),
	})
}
