package domain

import (
	"encoding/json"
	"time"
)

// ReportDateLayout is the wire format of report dates.
const ReportDateLayout = "2006-01-02"

// ActivityHours splits the reporting day across vessel activities.
type ActivityHours struct {
	SailingEco       *float64
	SailingFull      *float64
	CargoOps         *float64
	LiftingOps       *float64
	StandbyOffshore  *float64
	StandbyPort      *float64
	StandbyAnchorage *float64
	Downtime         *float64
}

// FluidBalance tracks one consumable (fuel oil, lube oil, fresh water).
type FluidBalance struct {
	ROB       *float64
	Received  *float64
	Consumed  *float64
	Delivered *float64
}

// DailyReport is the per-ship, per-date operational record.
type DailyReport struct {
	ID            int64
	ShipID        int64
	ReportDate    time.Time
	VesselName    *string
	PreparedBy    *string
	Crew          *int
	Visitors      *int
	Activity      ActivityHours
	Distance      *float64
	Operations    json.RawMessage
	Tanks         json.RawMessage
	Silos         json.RawMessage
	FuelTransfers json.RawMessage
	FuelOil       FluidBalance
	LubOil        FluidBalance
	FreshWater    FluidBalance
	GoConsumed    *float64
	Remarks       *string
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Populated by reads that join ships.
	ShipName string
	ShipType *string
}

// ReportStats aggregates report activity for dashboards.
type ReportStats struct {
	TotalReports      int64          `json:"total_reports"`
	ShipsReporting    int64          `json:"ships_reporting"`
	AvgConsumption    float64        `json:"avg_consumption"`
	WeeklyConsumption float64        `json:"weekly_consumption"`
	WeeklyReports     int64          `json:"weekly_reports"`
	TopConsumers      []ShipConsumer `json:"top_consumers"`
}

// ShipConsumer is one entry of the top consumers ranking.
type ShipConsumer struct {
	Name             string  `json:"name"`
	Type             *string `json:"type"`
	TotalConsumption float64 `json:"total_consumption"`
}
