package repository

import (
	"context"
	"time"

	"github.com/operalog/api/internal/domain"
	"github.com/operalog/api/internal/querybuilder"
)

// ReportFilter captures report listing parameters. Dates use the
// domain.ReportDateLayout format.
type ReportFilter struct {
	ShipID    *int64
	StartDate *string
	EndDate   *string
	Limit     int
	Offset    int
}

// ReportUpdate carries the optional fields of a partial report update.
type ReportUpdate struct {
	GoConsumed *float64
	Notes      *string
	Remarks    *string
	PreparedBy *string
	VesselName *string
	Crew       *int
	Visitors   *int
	Distance   *float64
	Downtime   *float64
}

// ReportRepository encapsulates daily report persistence.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.DailyReport) error
	GetByID(ctx context.Context, id int64) (*domain.DailyReport, error)
	GetShipID(ctx context.Context, id int64) (int64, error)
	ExistsForDate(ctx context.Context, shipID int64, reportDate time.Time) (bool, error)
	List(ctx context.Context, filter ReportFilter) ([]domain.DailyReport, int64, error)
	ListByShip(ctx context.Context, shipID int64) ([]domain.DailyReport, error)
	Update(ctx context.Context, id int64, update ReportUpdate) (*domain.DailyReport, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (*domain.ReportStats, error)
}

type reportRepository struct {
	db Querier
}

// NewReportRepository instantiates repository.
func NewReportRepository(db Querier) ReportRepository {
	return &reportRepository{db: db}
}

const reportColumns = `dr.id, dr.ship_id, dr.report_date, dr.vessel_name, dr.prepared_by, dr.crew, dr.visitors,
               dr.sailing_eco, dr.sailing_full, dr.cargo_ops, dr.lifting_ops,
               dr.standby_offshore, dr.standby_port, dr.standby_anchorage, dr.downtime, dr.distance,
               dr.operations, dr.tanks, dr.silos, dr.fuel_transfers,
               dr.fuel_oil_rob, dr.fuel_oil_received, dr.fuel_oil_consumed, dr.fuel_oil_delivered,
               dr.lub_oil_rob, dr.lub_oil_received, dr.lub_oil_consumed, dr.lub_oil_delivered,
               dr.fresh_water_rob, dr.fresh_water_received, dr.fresh_water_consumed, dr.fresh_water_delivered,
               dr.go_consumed, dr.remarks, dr.notes, dr.created_at, dr.updated_at,
               s.name, s.type`

const reportFrom = ` FROM daily_reports dr JOIN ships s ON dr.ship_id = s.id`

// BuildReportFilterClause renders the listing predicates. limit and offset
// take $1 and $2; predicates follow in ship_id, start_date, end_date order.
func BuildReportFilterClause(filter ReportFilter, leading ...any) querybuilder.Clause {
	return reportFilter(filter, leading...).Build()
}

func reportFilter(filter ReportFilter, leading ...any) *querybuilder.Filter {
	f := querybuilder.NewFilter(leading...)
	if filter.ShipID != nil {
		f.Where("dr.ship_id", querybuilder.OpEq, *filter.ShipID)
	}
	if filter.StartDate != nil {
		f.Where("dr.report_date", querybuilder.OpGte, *filter.StartDate)
	}
	if filter.EndDate != nil {
		f.Where("dr.report_date", querybuilder.OpLte, *filter.EndDate)
	}
	return f
}

func (r *reportRepository) Create(ctx context.Context, report *domain.DailyReport) error {
	const query = `
        INSERT INTO daily_reports (
            ship_id, report_date, vessel_name, prepared_by, crew, visitors,
            sailing_eco, sailing_full, cargo_ops, lifting_ops,
            standby_offshore, standby_port, standby_anchorage, downtime, distance,
            operations, tanks, silos, fuel_transfers,
            fuel_oil_rob, fuel_oil_received, fuel_oil_consumed, fuel_oil_delivered,
            lub_oil_rob, lub_oil_received, lub_oil_consumed, lub_oil_delivered,
            fresh_water_rob, fresh_water_received, fresh_water_consumed, fresh_water_delivered,
            go_consumed, remarks, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,
                $21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		report.ShipID,
		report.ReportDate,
		report.VesselName,
		report.PreparedBy,
		report.Crew,
		report.Visitors,
		report.Activity.SailingEco,
		report.Activity.SailingFull,
		report.Activity.CargoOps,
		report.Activity.LiftingOps,
		report.Activity.StandbyOffshore,
		report.Activity.StandbyPort,
		report.Activity.StandbyAnchorage,
		report.Activity.Downtime,
		report.Distance,
		jsonArray(report.Operations),
		jsonArray(report.Tanks),
		jsonArray(report.Silos),
		jsonArray(report.FuelTransfers),
		report.FuelOil.ROB,
		report.FuelOil.Received,
		report.FuelOil.Consumed,
		report.FuelOil.Delivered,
		report.LubOil.ROB,
		report.LubOil.Received,
		report.LubOil.Consumed,
		report.LubOil.Delivered,
		report.FreshWater.ROB,
		report.FreshWater.Received,
		report.FreshWater.Consumed,
		report.FreshWater.Delivered,
		report.GoConsumed,
		report.Remarks,
		report.Notes,
	).Scan(&report.ID, &report.CreatedAt, &report.UpdatedAt)
}

func (r *reportRepository) GetByID(ctx context.Context, id int64) (*domain.DailyReport, error) {
	const query = `SELECT ` + reportColumns + reportFrom + ` WHERE dr.id = $1`
	return scanReport(r.db.QueryRowContext(ctx, query, id))
}

func (r *reportRepository) GetShipID(ctx context.Context, id int64) (int64, error) {
	var shipID int64
	err := r.db.QueryRowContext(ctx, `SELECT ship_id FROM daily_reports WHERE id = $1`, id).Scan(&shipID)
	return shipID, notFound(err)
}

func (r *reportRepository) ExistsForDate(ctx context.Context, shipID int64, reportDate time.Time) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM daily_reports WHERE ship_id = $1 AND report_date = $2)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, shipID, reportDate).Scan(&exists)
	return exists, err
}

func (r *reportRepository) List(ctx context.Context, filter ReportFilter) ([]domain.DailyReport, int64, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	page := BuildReportFilterClause(filter, limit, offset)
	query := `SELECT ` + reportColumns + reportFrom + page.Text +
		` ORDER BY dr.report_date DESC, dr.updated_at DESC LIMIT $1 OFFSET $2`

	reports, err := r.queryReports(ctx, query, page.Args...)
	if err != nil {
		return nil, 0, err
	}

	count := BuildReportFilterClause(filter)
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+reportFrom+count.Text, count.Args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (r *reportRepository) ListByShip(ctx context.Context, shipID int64) ([]domain.DailyReport, error) {
	const query = `SELECT ` + reportColumns + reportFrom +
		` WHERE dr.ship_id = $1 ORDER BY dr.report_date DESC, dr.updated_at DESC`
	return r.queryReports(ctx, query, shipID)
}

func (r *reportRepository) Update(ctx context.Context, id int64, update ReportUpdate) (*domain.DailyReport, error) {
	set := querybuilder.NewUpdate("updated_at", id)
	querybuilder.SetOptional(set, "go_consumed", update.GoConsumed)
	querybuilder.SetOptional(set, "notes", update.Notes)
	querybuilder.SetOptional(set, "remarks", update.Remarks)
	querybuilder.SetOptional(set, "prepared_by", update.PreparedBy)
	querybuilder.SetOptional(set, "vessel_name", update.VesselName)
	querybuilder.SetOptional(set, "crew", update.Crew)
	querybuilder.SetOptional(set, "visitors", update.Visitors)
	querybuilder.SetOptional(set, "distance", update.Distance)
	querybuilder.SetOptional(set, "downtime", update.Downtime)
	clause := set.Build()

	query := `WITH dr AS (UPDATE daily_reports SET ` + clause.Text + ` WHERE id = $1 RETURNING *)
        SELECT ` + reportColumns + ` FROM dr JOIN ships s ON dr.ship_id = s.id`
	return scanReport(r.db.QueryRowContext(ctx, query, clause.Args...))
}

func (r *reportRepository) Delete(ctx context.Context, id int64) error {
	var deleted int64
	err := r.db.QueryRowContext(ctx, `DELETE FROM daily_reports WHERE id = $1 RETURNING id`, id).Scan(&deleted)
	return notFound(err)
}

func (r *reportRepository) Stats(ctx context.Context) (*domain.ReportStats, error) {
	stats := &domain.ReportStats{TopConsumers: []domain.ShipConsumer{}}

	const totals = `
        SELECT COUNT(*), COUNT(DISTINCT ship_id), COALESCE(AVG(go_consumed), 0)::float8
        FROM daily_reports`
	if err := r.db.QueryRowContext(ctx, totals).Scan(
		&stats.TotalReports, &stats.ShipsReporting, &stats.AvgConsumption,
	); err != nil {
		return nil, err
	}

	const weekly = `
        SELECT COALESCE(SUM(go_consumed), 0)::float8, COUNT(*)
        FROM daily_reports
        WHERE report_date >= CURRENT_DATE - INTERVAL '7 days'`
	if err := r.db.QueryRowContext(ctx, weekly).Scan(
		&stats.WeeklyConsumption, &stats.WeeklyReports,
	); err != nil {
		return nil, err
	}

	const top = `
        SELECT s.name, s.type, COALESCE(SUM(dr.go_consumed), 0)::float8 AS total_consumption
        FROM daily_reports dr
        JOIN ships s ON dr.ship_id = s.id
        WHERE dr.report_date >= CURRENT_DATE - INTERVAL '30 days'
        GROUP BY s.id, s.name, s.type
        ORDER BY total_consumption DESC
        LIMIT 5`
	rows, err := r.db.QueryContext(ctx, top)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c domain.ShipConsumer
		if err := rows.Scan(&c.Name, &c.Type, &c.TotalConsumption); err != nil {
			return nil, err
		}
		stats.TopConsumers = append(stats.TopConsumers, c)
	}
	return stats, rows.Err()
}

func (r *reportRepository) queryReports(ctx context.Context, query string, args ...any) ([]domain.DailyReport, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.DailyReport{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *report)
	}
	return result, rows.Err()
}

func scanReport(row rowScanner) (*domain.DailyReport, error) {
	var report domain.DailyReport
	var operations, tanks, silos, fuelTransfers []byte
	if err := row.Scan(
		&report.ID,
		&report.ShipID,
		&report.ReportDate,
		&report.VesselName,
		&report.PreparedBy,
		&report.Crew,
		&report.Visitors,
		&report.Activity.SailingEco,
		&report.Activity.SailingFull,
		&report.Activity.CargoOps,
		&report.Activity.LiftingOps,
		&report.Activity.StandbyOffshore,
		&report.Activity.StandbyPort,
		&report.Activity.StandbyAnchorage,
		&report.Activity.Downtime,
		&report.Distance,
		&operations,
		&tanks,
		&silos,
		&fuelTransfers,
		&report.FuelOil.ROB,
		&report.FuelOil.Received,
		&report.FuelOil.Consumed,
		&report.FuelOil.Delivered,
		&report.LubOil.ROB,
		&report.LubOil.Received,
		&report.LubOil.Consumed,
		&report.LubOil.Delivered,
		&report.FreshWater.ROB,
		&report.FreshWater.Received,
		&report.FreshWater.Consumed,
		&report.FreshWater.Delivered,
		&report.GoConsumed,
		&report.Remarks,
		&report.Notes,
		&report.CreatedAt,
		&report.UpdatedAt,
		&report.ShipName,
		&report.ShipType,
	); err != nil {
		return nil, notFound(err)
	}
	report.Operations = operations
	report.Tanks = tanks
	report.Silos = silos
	report.FuelTransfers = fuelTransfers
	return &report, nil
}

// jsonArray stores absent sub-collections as an empty JSON array.
func jsonArray(raw []byte) string {
	if len(raw) == 0 {
		return "[]"
	}
	return string(raw)
}
