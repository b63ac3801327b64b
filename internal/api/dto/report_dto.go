package dto

import (
	"encoding/json"
	"time"
)

// ReportFields are the report columns shared by requests and responses.
type ReportFields struct {
	VesselName          *string         `json:"vessel_name"`
	PreparedBy          *string         `json:"prepared_by"`
	Crew                *int            `json:"crew"`
	Visitors            *int            `json:"visitors"`
	SailingEco          *float64        `json:"sailing_eco"`
	SailingFull         *float64        `json:"sailing_full"`
	CargoOps            *float64        `json:"cargo_ops"`
	LiftingOps          *float64        `json:"lifting_ops"`
	StandbyOffshore     *float64        `json:"standby_offshore"`
	StandbyPort         *float64        `json:"standby_port"`
	StandbyAnchorage    *float64        `json:"standby_anchorage"`
	Downtime            *float64        `json:"downtime"`
	Distance            *float64        `json:"distance"`
	Operations          json.RawMessage `json:"operations"`
	Tanks               json.RawMessage `json:"tanks"`
	Silos               json.RawMessage `json:"silos"`
	FuelTransfers       json.RawMessage `json:"fuel_transfers"`
	FuelOilROB          *float64        `json:"fuel_oil_rob"`
	FuelOilReceived     *float64        `json:"fuel_oil_received"`
	FuelOilConsumed     *float64        `json:"fuel_oil_consumed"`
	FuelOilDelivered    *float64        `json:"fuel_oil_delivered"`
	LubOilROB           *float64        `json:"lub_oil_rob"`
	LubOilReceived      *float64        `json:"lub_oil_received"`
	LubOilConsumed      *float64        `json:"lub_oil_consumed"`
	LubOilDelivered     *float64        `json:"lub_oil_delivered"`
	FreshWaterROB       *float64        `json:"fresh_water_rob"`
	FreshWaterReceived  *float64        `json:"fresh_water_received"`
	FreshWaterConsumed  *float64        `json:"fresh_water_consumed"`
	FreshWaterDelivered *float64        `json:"fresh_water_delivered"`
	GoConsumed          *float64        `json:"go_consumed"`
	Remarks             *string         `json:"remarks"`
	Notes               *string         `json:"notes"`
}

// CreateReportRequest payload.
type CreateReportRequest struct {
	ShipID     int64  `json:"ship_id"`
	ReportDate string `json:"report_date"`
	ReportFields
}

// UpdateReportRequest payload; absent fields are left unchanged.
type UpdateReportRequest struct {
	GoConsumed *float64 `json:"go_consumed"`
	Notes      *string  `json:"notes"`
	Remarks    *string  `json:"remarks"`
	PreparedBy *string  `json:"prepared_by"`
	VesselName *string  `json:"vessel_name"`
	Crew       *int     `json:"crew"`
	Visitors   *int     `json:"visitors"`
	Distance   *float64 `json:"distance"`
	Downtime   *float64 `json:"downtime"`
}

// ReportResponse is a report with its joined ship columns.
type ReportResponse struct {
	ID         int64     `json:"id"`
	ShipID     int64     `json:"ship_id"`
	ShipName   string    `json:"ship_name"`
	ShipType   *string   `json:"ship_type"`
	ReportDate string    `json:"report_date"`
	ReportFields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
