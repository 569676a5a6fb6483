package http

import (
	"context"

	"doorstroom/internal/services"
	"doorstroom/internal/session"
	"doorstroom/pkg/contracts/domain"
)

// DashboardServiceInterface defines the session and dashboard operations
// the handlers depend on.
type DashboardServiceInterface interface {
	CreateSession(ctx context.Context) *session.Session
	Ingest(ctx context.Context, sessionID string, files []domain.UploadedFile) (domain.UploadResult, error)
	Filters(ctx context.Context, sessionID string) (domain.FilterState, error)
	SetFilters(ctx context.Context, sessionID string, sel domain.FilterSelection) (domain.FilterState, error)
	Dashboard(ctx context.Context, sessionID string) (domain.Dashboard, error)
	Trend(ctx context.Context, sessionID string) ([]domain.TrendPoint, error)
	MarketShare(ctx context.Context, sessionID string) ([]domain.SharePoint, error)
	TopPrograms(ctx context.Context, sessionID string) ([]domain.ProgramTotal, error)
	Pathways(ctx context.Context, sessionID string) ([]domain.PathwayPoint, error)
	Rows(ctx context.Context, sessionID string) (domain.RawTable, error)
}

// HealthServiceInterface defines the health operations the handlers use.
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}
