package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/operalog/api/internal/domain"
	"github.com/operalog/api/internal/repository"
)

type reportRepo struct{ s *Store }

func (r reportRepo) Create(_ context.Context, report *domain.DailyReport) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.ships[report.ShipID]; !ok {
		return &pgconn.PgError{Code: "23503", ConstraintName: "daily_reports_ship_id_fkey"}
	}
	for _, existing := range r.s.reports {
		if existing.ShipID == report.ShipID && sameDay(existing.ReportDate, report.ReportDate) {
			return uniqueViolation("daily_reports_ship_date_key")
		}
	}
	r.s.reportSeq++
	now := r.s.now()
	report.ID = r.s.reportSeq
	report.CreatedAt, report.UpdatedAt = now, now
	r.s.reports[report.ID] = *report
	return nil
}

func (r reportRepo) GetByID(_ context.Context, id int64) (*domain.DailyReport, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	report, ok := r.s.reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.joined(report), nil
}

func (r reportRepo) GetShipID(_ context.Context, id int64) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	report, ok := r.s.reports[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return report.ShipID, nil
}

func (r reportRepo) ExistsForDate(_ context.Context, shipID int64, reportDate time.Time) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, report := range r.s.reports {
		if report.ShipID == shipID && sameDay(report.ReportDate, reportDate) {
			return true, nil
		}
	}
	return false, nil
}

func (r reportRepo) List(_ context.Context, filter repository.ReportFilter) ([]domain.DailyReport, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var start, end *time.Time
	if filter.StartDate != nil {
		t, err := time.Parse(domain.ReportDateLayout, *filter.StartDate)
		if err != nil {
			return nil, 0, &pgconn.PgError{Code: "22007", Message: "invalid input syntax for type date"}
		}
		start = &t
	}
	if filter.EndDate != nil {
		t, err := time.Parse(domain.ReportDateLayout, *filter.EndDate)
		if err != nil {
			return nil, 0, &pgconn.PgError{Code: "22007", Message: "invalid input syntax for type date"}
		}
		end = &t
	}

	matched := []domain.DailyReport{}
	for _, report := range r.s.reports {
		if filter.ShipID != nil && report.ShipID != *filter.ShipID {
			continue
		}
		if start != nil && report.ReportDate.Before(*start) {
			continue
		}
		if end != nil && report.ReportDate.After(*end) {
			continue
		}
		matched = append(matched, *r.joined(report))
	}
	sortReports(matched)

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	return page(matched, limit, offset), int64(len(matched)), nil
}

func (r reportRepo) ListByShip(_ context.Context, shipID int64) ([]domain.DailyReport, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.DailyReport{}
	for _, report := range r.s.reports {
		if report.ShipID == shipID {
			out = append(out, *r.joined(report))
		}
	}
	sortReports(out)
	return out, nil
}

func (r reportRepo) Update(_ context.Context, id int64, update repository.ReportUpdate) (*domain.DailyReport, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	report, ok := r.s.reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	assignPtr(&report.GoConsumed, update.GoConsumed)
	assignPtr(&report.Notes, update.Notes)
	assignPtr(&report.Remarks, update.Remarks)
	assignPtr(&report.PreparedBy, update.PreparedBy)
	assignPtr(&report.VesselName, update.VesselName)
	assignPtr(&report.Crew, update.Crew)
	assignPtr(&report.Visitors, update.Visitors)
	assignPtr(&report.Distance, update.Distance)
	assignPtr(&report.Activity.Downtime, update.Downtime)
	report.UpdatedAt = r.s.now()
	r.s.reports[id] = report
	return r.joined(report), nil
}

func (r reportRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reports[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.reports, id)
	return nil
}

func (r reportRepo) Stats(_ context.Context) (*domain.ReportStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := &domain.ReportStats{TopConsumers: []domain.ShipConsumer{}}
	today := truncateDay(r.s.now())
	weekAgo := today.AddDate(0, 0, -7)
	monthAgo := today.AddDate(0, 0, -30)

	ships := map[int64]struct{}{}
	var sum float64
	var withConsumption int
	monthly := map[int64]float64{}
	for _, report := range r.s.reports {
		stats.TotalReports++
		ships[report.ShipID] = struct{}{}
		consumed := 0.0
		if report.GoConsumed != nil {
			consumed = *report.GoConsumed
			sum += consumed
			withConsumption++
		}
		if !report.ReportDate.Before(weekAgo) {
			stats.WeeklyReports++
			stats.WeeklyConsumption += consumed
		}
		if !report.ReportDate.Before(monthAgo) {
			monthly[report.ShipID] += consumed
		}
	}
	stats.ShipsReporting = int64(len(ships))
	if withConsumption > 0 {
		stats.AvgConsumption = sum / float64(withConsumption)
	}

	for shipID, total := range monthly {
		ship := r.s.ships[shipID]
		stats.TopConsumers = append(stats.TopConsumers, domain.ShipConsumer{
			Name:             ship.Name,
			Type:             ship.Type,
			TotalConsumption: total,
		})
	}
	sort.Slice(stats.TopConsumers, func(i, j int) bool {
		return stats.TopConsumers[i].TotalConsumption > stats.TopConsumers[j].TotalConsumption
	})
	if len(stats.TopConsumers) > 5 {
		stats.TopConsumers = stats.TopConsumers[:5]
	}
	return stats, nil
}

// joined fills the ship columns a SQL join would return. Callers hold the lock.
func (r reportRepo) joined(report domain.DailyReport) *domain.DailyReport {
	if ship, ok := r.s.ships[report.ShipID]; ok {
		report.ShipName = ship.Name
		report.ShipType = ship.Type
	}
	return &report
}

func sortReports(reports []domain.DailyReport) {
	sort.Slice(reports, func(i, j int) bool {
		if !reports[i].ReportDate.Equal(reports[j].ReportDate) {
			return reports[i].ReportDate.After(reports[j].ReportDate)
		}
		return reports[i].UpdatedAt.After(reports[j].UpdatedAt)
	})
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
