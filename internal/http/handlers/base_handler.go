// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mealmesh/internal/modules/geofence"
	"mealmesh/internal/modules/mealslot"
	"mealmesh/internal/modules/order"
	"mealmesh/internal/modules/policy"
	"mealmesh/internal/modules/timewindow"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}

// writeServiceError maps module errors onto HTTP statuses. Typed errors
// carry structured payloads so clients can act on the reason.
func writeServiceError(c *gin.Context, err error) {
	var transition *order.TransitionError
	if errors.As(err, &transition) {
		c.JSON(http.StatusConflict, gin.H{
			"error":               transition.Error(),
			"allowed_transitions": transition.Allowed,
		})
		return
	}
	var notEnabled *policy.MethodNotEnabledError
	if errors.As(err, &notEnabled) {
		writeError(c, http.StatusConflict, notEnabled.Error())
		return
	}
	var notServiceable *geofence.NotServiceableError
	if errors.As(err, &notServiceable) {
		resp := gin.H{"error": notServiceable.Error()}
		if notServiceable.NearestArea != "" {
			resp["nearest_area"] = notServiceable.NearestArea
			resp["distance_km"] = notServiceable.DistanceKm
		}
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}
	var outOfRange *geofence.OutOfRangeError
	if errors.As(err, &outOfRange) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":       outOfRange.Error(),
			"distance_km": outOfRange.DistanceKm,
			"radius_km":   outOfRange.RadiusKm,
		})
		return
	}
	var creation *order.CreationError
	if errors.As(err, &creation) {
		writeError(c, http.StatusInternalServerError, "order creation failed")
		return
	}

	switch {
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, mealslot.ErrNotFound),
		errors.Is(err, geofence.ErrAreaNotFound),
		errors.Is(err, geofence.ErrVendorNotLocated):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrUnauthorized),
		errors.Is(err, order.ErrAddressOwnershipMismatch):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, order.ErrBadRequest),
		errors.Is(err, order.ErrAddressNotFound),
		errors.Is(err, policy.ErrUnknownMethod),
		errors.Is(err, timewindow.ErrInvalidTimeFormat),
		errors.Is(err, timewindow.ErrInvalidSlotConfiguration),
		errors.Is(err, timewindow.ErrWindowOutOfRange),
		errors.Is(err, geofence.ErrInvalidBoundary),
		errors.Is(err, geofence.ErrInvalidRadius):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrConflict),
		errors.Is(err, order.ErrVendorUnavailable),
		errors.Is(err, order.ErrMealSlotUnavailable),
		errors.Is(err, order.ErrCutoffPassed),
		errors.Is(err, order.ErrItemUnavailable),
		errors.Is(err, mealslot.ErrUnavailable):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
