package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/operalog/api/internal/auth"
	"github.com/operalog/api/internal/cache"
	"github.com/operalog/api/internal/domain"
	"github.com/operalog/api/internal/events"
	"github.com/operalog/api/internal/repository"
	apperrors "github.com/operalog/api/pkg/util/errorutil"
)

// ReportService coordinates daily report workflows. Every operation that
// touches a specific ship's reports runs the ownership policy first.
type ReportService struct {
	reports    repository.ReportRepository
	stats      cache.StatsCache
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ReportDependencies bundles requirements for the report service.
type ReportDependencies struct {
	ReportRepo repository.ReportRepository
	StatsCache cache.StatsCache
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// ReportListFilter describes listing filters; dates use domain.ReportDateLayout.
type ReportListFilter struct {
	ShipID    *int64
	StartDate *string
	EndDate   *string
	Page      Page
}

// NewReportService constructs the service.
func NewReportService(deps ReportDependencies) *ReportService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	stats := deps.StatsCache
	if stats == nil {
		stats = cache.NopStatsCache{}
	}
	return &ReportService{
		reports:    deps.ReportRepo,
		stats:      stats,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// List returns a filtered page of reports across all ships.
func (s *ReportService) List(ctx context.Context, filter ReportListFilter) ([]domain.DailyReport, Pagination, error) {
	for field, value := range map[string]*string{"start_date": filter.StartDate, "end_date": filter.EndDate} {
		if value == nil {
			continue
		}
		if _, err := time.Parse(domain.ReportDateLayout, *value); err != nil {
			return nil, Pagination{}, apperrors.NewValidationError("invalid date", map[string]any{"field": field, "layout": domain.ReportDateLayout})
		}
	}

	page := filter.Page.Normalize()
	reports, total, err := s.reports.List(ctx, repository.ReportFilter{
		ShipID:    filter.ShipID,
		StartDate: filter.StartDate,
		EndDate:   filter.EndDate,
		Limit:     page.Size,
		Offset:    page.Offset(),
	})
	if err != nil {
		return nil, Pagination{}, err
	}
	return reports, newPagination(page, total), nil
}

// ListByShip returns every report of one ship.
func (s *ReportService) ListByShip(ctx context.Context, principal auth.Principal, shipID int64) ([]domain.DailyReport, error) {
	if err := auth.AuthorizeReportAccess(principal, shipID); err != nil {
		return nil, auth.HTTPError(err)
	}
	return s.reports.ListByShip(ctx, shipID)
}

// Get loads one report and checks the caller may see it.
func (s *ReportService) Get(ctx context.Context, principal auth.Principal, id int64) (*domain.DailyReport, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, reportLookupError(err, id)
	}
	if err := auth.AuthorizeReportAccess(principal, report.ShipID); err != nil {
		return nil, auth.HTTPError(err)
	}
	return report, nil
}

// Create stores a new report. A ship may only file its own reports, and each
// ship has at most one report per date.
func (s *ReportService) Create(ctx context.Context, principal auth.Principal, report *domain.DailyReport) (*domain.DailyReport, error) {
	if err := auth.AuthorizeReportAccess(principal, report.ShipID); err != nil {
		return nil, auth.HTTPError(err)
	}
	if report.ReportDate.IsZero() {
		return nil, apperrors.NewValidationError("report_date required", nil)
	}

	exists, err := s.reports.ExistsForDate(ctx, report.ShipID, report.ReportDate)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateReport
	}

	if err := s.reports.Create(ctx, report); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, ErrDuplicateReport
		}
		return nil, err
	}
	s.invalidateStats(ctx)

	s.publish(ctx, events.New(events.EventReportCreated, report.ID, actorOf(principal), events.ReportPayload{
		ShipID:     report.ShipID,
		ReportDate: report.ReportDate.Format(domain.ReportDateLayout),
		GoConsumed: report.GoConsumed,
	}))

	created, err := s.reports.GetByID(ctx, report.ID)
	if err != nil {
		return nil, reportLookupError(err, report.ID)
	}
	return created, nil
}

// Update applies a partial update after checking ownership of the stored report.
func (s *ReportService) Update(ctx context.Context, principal auth.Principal, id int64, update repository.ReportUpdate) (*domain.DailyReport, error) {
	shipID, err := s.reports.GetShipID(ctx, id)
	if err != nil {
		return nil, reportLookupError(err, id)
	}
	if err := auth.AuthorizeReportAccess(principal, shipID); err != nil {
		return nil, auth.HTTPError(err)
	}

	report, err := s.reports.Update(ctx, id, update)
	if err != nil {
		return nil, reportLookupError(err, id)
	}
	s.invalidateStats(ctx)

	s.publish(ctx, events.New(events.EventReportUpdated, id, actorOf(principal), events.ReportUpdatedPayload{
		ShipID: shipID,
		Fields: updatedFields(update),
	}))
	return report, nil
}

// Delete removes a report. Only users reach this operation.
func (s *ReportService) Delete(ctx context.Context, principal auth.Principal, id int64) error {
	if !principal.IsUser() {
		return auth.HTTPError(auth.ErrUnauthenticated)
	}
	shipID, err := s.reports.GetShipID(ctx, id)
	if err != nil {
		return reportLookupError(err, id)
	}
	if err := s.reports.Delete(ctx, id); err != nil {
		return reportLookupError(err, id)
	}
	s.invalidateStats(ctx)

	s.publish(ctx, events.New(events.EventReportDeleted, id, actorOf(principal), events.ReportPayload{ShipID: shipID}))
	return nil
}

// Stats returns fleet-wide aggregates, served from cache when fresh.
func (s *ReportService) Stats(ctx context.Context) (*domain.ReportStats, error) {
	if cached, ok, err := s.stats.Get(ctx); err != nil {
		s.logger.Warn("stats cache read failed", zap.Error(err))
	} else if ok {
		return cached, nil
	}

	stats, err := s.reports.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.stats.Set(ctx, stats); err != nil {
		s.logger.Warn("stats cache write failed", zap.Error(err))
	}
	return stats, nil
}

func (s *ReportService) invalidateStats(ctx context.Context) {
	if err := s.stats.Invalidate(ctx); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
}

func (s *ReportService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func updatedFields(u repository.ReportUpdate) []string {
	fields := []string{}
	add := func(present bool, name string) {
		if present {
			fields = append(fields, name)
		}
	}
	add(u.GoConsumed != nil, "go_consumed")
	add(u.Notes != nil, "notes")
	add(u.Remarks != nil, "remarks")
	add(u.PreparedBy != nil, "prepared_by")
	add(u.VesselName != nil, "vessel_name")
	add(u.Crew != nil, "crew")
	add(u.Visitors != nil, "visitors")
	add(u.Distance != nil, "distance")
	add(u.Downtime != nil, "downtime")
	return fields
}

func reportLookupError(err error, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("report", map[string]any{"id": id})
	}
	return err
}
