package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/models"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/services"
)

// BlockHandler handles block/unblock HTTP requests
type BlockHandler struct {
	relationService *services.RelationService
}

// NewBlockHandler creates a new BlockHandler
func NewBlockHandler(relationService *services.RelationService) *BlockHandler {
	return &BlockHandler{relationService: relationService}
}

// RegisterBlockRoutes registers block-related routes
func (h *BlockHandler) RegisterBlockRoutes(g *echo.Group) {
	g.POST("/users/:id/block", h.BlockUser)
	g.DELETE("/users/:id/block", h.UnblockUser)
}

// BlockUser blocks a user. Blocking also removes any follow relationship in
// both directions; that cleanup is best effort and does not affect the block.
func (h *BlockHandler) BlockUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	targetID := c.Param("id")

	res, err := h.relationService.Toggle(c.Request().Context(), currentUserID, targetID, models.RelationBlock, services.StateActive)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"blocked": true, "changed": res.Changed}})
}

// UnblockUser unblocks a user; repeating the call is a no-op
func (h *BlockHandler) UnblockUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	targetID := c.Param("id")

	res, err := h.relationService.Toggle(c.Request().Context(), currentUserID, targetID, models.RelationBlock, services.StateInactive)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"blocked": false, "changed": res.Changed}})
}
