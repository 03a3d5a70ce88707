package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tanvir-hossain-dev/opencircle/backend/internal/models"
	"github.com/tanvir-hossain-dev/opencircle/backend/pkg/apperrors"
)

// getUserIDFromContext extracts the authenticated user's ID from the JWT
// claims stored by the auth middleware. Returns 0 when no principal is
// present; absence is a value, never a panic.
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0
	}
	return claims.UserID
}

// httpError maps tagged service errors onto HTTP responses.
func httpError(err error) error {
	switch apperrors.KindOf(err) {
	case apperrors.KindUnauthorized:
		return echo.NewHTTPError(http.StatusUnauthorized, errMessage(err))
	case apperrors.KindNotFound:
		return echo.NewHTTPError(http.StatusNotFound, errMessage(err))
	case apperrors.KindInvalidRequest:
		return echo.NewHTTPError(http.StatusBadRequest, errMessage(err))
	case apperrors.KindConflict:
		return echo.NewHTTPError(http.StatusConflict, errMessage(err))
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func errMessage(err error) string {
	var e *apperrors.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
