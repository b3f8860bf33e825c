package http

import (
	"errors"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"

	"valet/entity"
)

// Error categories clients branch on without string matching.
const (
	errorValidation = "validation-error"
	errorNotFound   = "not-found"
	errorConflict   = "conflict"
	errorInternal   = "internal-error"
)

type errorResponse struct {
	OK      bool              `json:"ok"`
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// validationError reports field-indexed input problems, before any store
// access happened.
func validationError(c echo.Context, fields map[string]string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{
		OK:      false,
		Error:   errorValidation,
		Details: fields,
	})
}

// respondError maps a service error to the envelope: not-found and conflict
// are expected outcomes, everything else is reported as a generic internal
// failure and logged with full detail.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{OK: false, Error: errorNotFound})
	case errors.Is(err, entity.ErrConflict):
		return c.JSON(http.StatusConflict, errorResponse{OK: false, Error: errorConflict})
	default:
		log.FromContext(c.Request().Context()).WithError(err).Error("request failed")
		return c.JSON(http.StatusInternalServerError, errorResponse{OK: false, Error: errorInternal})
	}
}
