package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/operalog/api/internal/api/dto"
	"github.com/operalog/api/internal/auth"
	"github.com/operalog/api/internal/domain"
	"github.com/operalog/api/internal/service"
	apperrors "github.com/operalog/api/pkg/util/errorutil"
)

func principalOf(c *fiber.Ctx) (auth.Principal, error) {
	principal, ok := auth.PrincipalFromFiber(c)
	if !ok {
		return auth.Principal{}, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

func parseID(c *fiber.Ctx, param string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid "+param, map[string]any{param: c.Params(param)})
	}
	return id, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parsePage(c *fiber.Ctx) service.Page {
	return service.Page{
		Number: parseInt(c.Query("page"), 1),
		Size:   parseInt(c.Query("limit"), 10),
	}
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
}

func shipResponse(ship *domain.Ship) dto.ShipResponse {
	return dto.ShipResponse{
		ID:        ship.ID,
		Name:      ship.Name,
		SmallName: ship.SmallName,
		Type:      ship.Type,
		Status:    ship.Status,
		Captain:   ship.Captain,
		Username:  ship.Username,
		Crew:      ship.Crew,
		Position:  ship.Position,
		LastLogin: ship.LastLogin,
		CreatedAt: ship.CreatedAt,
		UpdatedAt: ship.UpdatedAt,
	}
}
