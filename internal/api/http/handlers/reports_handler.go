package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/operalog/api/internal/api/dto"
	"github.com/operalog/api/internal/domain"
	"github.com/operalog/api/internal/repository"
	"github.com/operalog/api/internal/service"
	apperrors "github.com/operalog/api/pkg/util/errorutil"
)

// ReportsHandler manages daily report endpoints.
type ReportsHandler struct {
	service *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reportService}
}

// List GET /api/reports.
func (h *ReportsHandler) List(c *fiber.Ctx) error {
	filter, err := parseReportQuery(c)
	if err != nil {
		return err
	}
	reports, pagination, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reportResponses(reports), "pagination": pagination})
}

// ListByShip GET /api/reports/ship/:shipId.
func (h *ReportsHandler) ListByShip(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	shipID, err := parseID(c, "shipId")
	if err != nil {
		return err
	}
	reports, err := h.service.ListByShip(c.UserContext(), principal, shipID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reportResponses(reports)})
}

// Get GET /api/reports/:id.
func (h *ReportsHandler) Get(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	report, err := h.service.Get(c.UserContext(), principal, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reportResponse(report)})
}

// Create POST /api/reports.
func (h *ReportsHandler) Create(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ShipID <= 0 {
		return apperrors.NewValidationError("ship_id required", nil)
	}
	reportDate, err := time.Parse(domain.ReportDateLayout, strings.TrimSpace(req.ReportDate))
	if err != nil {
		return apperrors.NewValidationError("report_date must use YYYY-MM-DD", map[string]any{"report_date": req.ReportDate})
	}

	report := reportFromRequest(req.ReportFields)
	report.ShipID = req.ShipID
	report.ReportDate = reportDate

	created, err := h.service.Create(c.UserContext(), principal, report)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": reportResponse(created)})
}

// Update PUT /api/reports/:id.
func (h *ReportsHandler) Update(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	report, err := h.service.Update(c.UserContext(), principal, id, repository.ReportUpdate{
		GoConsumed: req.GoConsumed,
		Notes:      req.Notes,
		Remarks:    req.Remarks,
		PreparedBy: req.PreparedBy,
		VesselName: req.VesselName,
		Crew:       req.Crew,
		Visitors:   req.Visitors,
		Distance:   req.Distance,
		Downtime:   req.Downtime,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reportResponse(report)})
}

// Delete DELETE /api/reports/:id.
func (h *ReportsHandler) Delete(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), principal, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Stats GET /api/reports/stats.
func (h *ReportsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

func parseReportQuery(c *fiber.Ctx) (service.ReportListFilter, error) {
	filter := service.ReportListFilter{Page: parsePage(c)}
	if raw := c.Query("ship_id"); raw != "" {
		shipID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || shipID <= 0 {
			return filter, apperrors.NewValidationError("invalid ship_id", map[string]any{"ship_id": raw})
		}
		filter.ShipID = &shipID
	}
	if raw := c.Query("start_date"); raw != "" {
		filter.StartDate = &raw
	}
	if raw := c.Query("end_date"); raw != "" {
		filter.EndDate = &raw
	}
	return filter, nil
}

func reportFromRequest(f dto.ReportFields) *domain.DailyReport {
	return &domain.DailyReport{
		VesselName: f.VesselName,
		PreparedBy: f.PreparedBy,
		Crew:       f.Crew,
		Visitors:   f.Visitors,
		Activity: domain.ActivityHours{
			SailingEco:       f.SailingEco,
			SailingFull:      f.SailingFull,
			CargoOps:         f.CargoOps,
			LiftingOps:       f.LiftingOps,
			StandbyOffshore:  f.StandbyOffshore,
			StandbyPort:      f.StandbyPort,
			StandbyAnchorage: f.StandbyAnchorage,
			Downtime:         f.Downtime,
		},
		Distance:      f.Distance,
		Operations:    f.Operations,
		Tanks:         f.Tanks,
		Silos:         f.Silos,
		FuelTransfers: f.FuelTransfers,
		FuelOil:       domain.FluidBalance{ROB: f.FuelOilROB, Received: f.FuelOilReceived, Consumed: f.FuelOilConsumed, Delivered: f.FuelOilDelivered},
		LubOil:        domain.FluidBalance{ROB: f.LubOilROB, Received: f.LubOilReceived, Consumed: f.LubOilConsumed, Delivered: f.LubOilDelivered},
		FreshWater:    domain.FluidBalance{ROB: f.FreshWaterROB, Received: f.FreshWaterReceived, Consumed: f.FreshWaterConsumed, Delivered: f.FreshWaterDelivered},
		GoConsumed:    f.GoConsumed,
		Remarks:       f.Remarks,
		Notes:         f.Notes,
	}
}

func reportResponse(r *domain.DailyReport) dto.ReportResponse {
	return dto.ReportResponse{
		ID:         r.ID,
		ShipID:     r.ShipID,
		ShipName:   r.ShipName,
		ShipType:   r.ShipType,
		ReportDate: r.ReportDate.Format(domain.ReportDateLayout),
		ReportFields: dto.ReportFields{
			VesselName:          r.VesselName,
			PreparedBy:          r.PreparedBy,
			Crew:                r.Crew,
			Visitors:            r.Visitors,
			SailingEco:          r.Activity.SailingEco,
			SailingFull:         r.Activity.SailingFull,
			CargoOps:            r.Activity.CargoOps,
			LiftingOps:          r.Activity.LiftingOps,
			StandbyOffshore:     r.Activity.StandbyOffshore,
			StandbyPort:         r.Activity.StandbyPort,
			StandbyAnchorage:    r.Activity.StandbyAnchorage,
			Downtime:            r.Activity.Downtime,
			Distance:            r.Distance,
			Operations:          jsonOrEmpty(r.Operations),
			Tanks:               jsonOrEmpty(r.Tanks),
			Silos:               jsonOrEmpty(r.Silos),
			FuelTransfers:       jsonOrEmpty(r.FuelTransfers),
			FuelOilROB:          r.FuelOil.ROB,
			FuelOilReceived:     r.FuelOil.Received,
			FuelOilConsumed:     r.FuelOil.Consumed,
			FuelOilDelivered:    r.FuelOil.Delivered,
			LubOilROB:           r.LubOil.ROB,
			LubOilReceived:      r.LubOil.Received,
			LubOilConsumed:      r.LubOil.Consumed,
			LubOilDelivered:     r.LubOil.Delivered,
			FreshWaterROB:       r.FreshWater.ROB,
			FreshWaterReceived:  r.FreshWater.Received,
			FreshWaterConsumed:  r.FreshWater.Consumed,
			FreshWaterDelivered: r.FreshWater.Delivered,
			GoConsumed:          r.GoConsumed,
			Remarks:             r.Remarks,
			Notes:               r.Notes,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func reportResponses(reports []domain.DailyReport) []dto.ReportResponse {
	items := make([]dto.ReportResponse, 0, len(reports))
	for i := range reports {
		items = append(items, reportResponse(&reports[i]))
	}
	return items
}

func jsonOrEmpty(raw []byte) []byte {
	if len(raw) == 0 {
		return []byte("[]")
	}
	return raw
}
