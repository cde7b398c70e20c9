package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/club-seat-reservation/internal/middleware"
	"github.com/iliyamo/club-seat-reservation/internal/observability"
	"github.com/iliyamo/club-seat-reservation/internal/repository"
	"github.com/iliyamo/club-seat-reservation/internal/service"
	"github.com/iliyamo/club-seat-reservation/internal/utils"
)

// requestTimeout bounds the storage work of a single request.
const requestTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// parseID reads a numeric path parameter with utils.ParseID.
func parseID(c echo.Context, name string) (uint64, bool) {
	return utils.ParseID(c.Param(name))
}

var notFoundMessages = []struct {
	err error
	msg string
}{
	{repository.ErrGameNotFound, "Game not found"},
	{repository.ErrTicketNotFound, "Ticket not found"},
	{repository.ErrCustomerNotFound, "Customer not found"},
	{repository.ErrVenueNotFound, "Venue not found"},
}

// writeError maps service and repository errors to a JSON error response.
// Anything unrecognised is logged and answered with 500.
func writeError(c echo.Context, logger observability.Logger, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": errors.UnwrapAll(err).Error()})
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": errors.UnwrapAll(err).Error()})
	}
	for _, nf := range notFoundMessages {
		if errors.Is(err, nf.err) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": nf.msg})
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		middleware.LoggerFrom(c, logger).WithError(err).Warn("request timed out")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "Request timed out"})
	}
	middleware.LoggerFrom(c, logger).WithError(err).Error("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
}
