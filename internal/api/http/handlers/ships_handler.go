package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/operalog/api/internal/api/dto"
	"github.com/operalog/api/internal/domain"
	"github.com/operalog/api/internal/service"
	apperrors "github.com/operalog/api/pkg/util/errorutil"
)

// ShipsHandler manages ship endpoints.
type ShipsHandler struct {
	service *service.ShipService
}

// NewShipsHandler constructs handler.
func NewShipsHandler(shipService *service.ShipService) *ShipsHandler {
	return &ShipsHandler{service: shipService}
}

// List GET /api/ships.
func (h *ShipsHandler) List(c *fiber.Ctx) error {
	ships, pagination, err := h.service.List(c.UserContext(), parsePage(c))
	if err != nil {
		return err
	}
	items := make([]dto.ShipResponse, 0, len(ships))
	for i := range ships {
		items = append(items, shipResponse(&ships[i]))
	}
	return c.JSON(fiber.Map{"data": items, "pagination": pagination})
}

// Get GET /api/ships/:id.
func (h *ShipsHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ship, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": shipResponse(ship)})
}

// Create POST /api/ships.
func (h *ShipsHandler) Create(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	var req dto.CreateShipRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ship, err := h.service.Create(c.UserContext(), principal, service.ShipCreateInput{
		Name:      req.Name,
		SmallName: req.SmallName,
		Type:      req.Type,
		Status:    req.Status,
		Captain:   req.Captain,
		Username:  req.Username,
		Password:  req.Password,
		Crew:      req.Crew,
		Position:  req.Position,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": shipResponse(ship)})
}

// Update PUT /api/ships/:id.
func (h *ShipsHandler) Update(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateShipRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ship, err := h.service.Update(c.UserContext(), principal, id, service.ShipUpdateInput{
		Name:      req.Name,
		SmallName: req.SmallName,
		Type:      req.Type,
		Status:    req.Status,
		Captain:   req.Captain,
		Username:  req.Username,
		Password:  req.Password,
		Crew:      req.Crew,
		Position:  req.Position,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": shipResponse(ship)})
}

// Delete DELETE /api/ships/:id.
func (h *ShipsHandler) Delete(c *fiber.Ctx) error {
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

// Profile GET /api/ships/me/profile.
func (h *ShipsHandler) Profile(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	if principal.Type != domain.PrincipalTypeShip || principal.Ship == nil {
		return apperrors.NewForbidden("ship account required")
	}
	return c.JSON(fiber.Map{"data": shipResponse(principal.Ship)})
}
