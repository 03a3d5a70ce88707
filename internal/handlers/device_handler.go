package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/models"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/repositories"
)

// DeviceHandler handles push-token registration HTTP requests
type DeviceHandler struct {
	deviceRepository repositories.DeviceRepository
}

// NewDeviceHandler creates a new DeviceHandler
func NewDeviceHandler(deviceRepo repositories.DeviceRepository) *DeviceHandler {
	return &DeviceHandler{deviceRepository: deviceRepo}
}

// RegisterDeviceRoutes registers device routes
func (h *DeviceHandler) RegisterDeviceRoutes(g *echo.Group) {
	g.POST("/devices", h.RegisterDevice)
	g.DELETE("/devices/:token", h.UnregisterDevice)
}

// RegisterDevice registers (or refreshes) a push token for the current user
func (h *DeviceHandler) RegisterDevice(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.RegisterDeviceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	device := &models.Device{
		UserID:    currentUserID,
		PushToken: req.PushToken,
		Platform:  req.Platform,
	}
	if device.Platform == "" {
		device.Platform = "unknown"
	}

	if err := h.deviceRepository.RegisterDevice(device); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true})
}

// UnregisterDevice removes a push token registration
func (h *DeviceHandler) UnregisterDevice(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.deviceRepository.UnregisterDevice(currentUserID, c.Param("token")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}
