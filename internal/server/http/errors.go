package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/pontofacil/internal/errs"
)

var statusTable = []struct {
	err    error
	status int
}{
	{errs.ErrInvalidTimeFormat, http.StatusBadRequest},
	{errs.ErrInvalidDate, http.StatusBadRequest},
	{errs.ErrInvalidCursor, http.StatusBadRequest},
	{errs.ErrInvalidAction, http.StatusBadRequest},
	{errs.ErrInvalidKind, http.StatusBadRequest},
	{errs.ErrValidation, http.StatusBadRequest},

	{errs.ErrInvalidReason, http.StatusUnprocessableEntity},
	{errs.ErrUnexpectedEventKind, http.StatusUnprocessableEntity},
	{errs.ErrDayAlreadyClosed, http.StatusUnprocessableEntity},
	{errs.ErrSequenceExhausted, http.StatusUnprocessableEntity},
	{errs.ErrWorkdayRejected, http.StatusUnprocessableEntity},

	{errs.ErrTooFrequent, http.StatusConflict},
	{errs.ErrAlreadyExists, http.StatusConflict},

	{errs.ErrGeofenceViolation, http.StatusForbidden},
	{errs.ErrOutsideCorrectionWindow, http.StatusForbidden},
	{errs.ErrRoleNotPermitted, http.StatusForbidden},
	{errs.ErrPasswordLoginDisabled, http.StatusForbidden},
	{errs.ErrDeviceLoginDisabled, http.StatusForbidden},
	{errs.ErrForbidden, http.StatusForbidden},

	{errs.ErrInvalidCredentials, http.StatusUnauthorized},
	{errs.ErrDeviceNotRegistered, http.StatusUnauthorized},
	{errs.ErrUnauthorized, http.StatusUnauthorized},

	{errs.ErrNotFound, http.StatusNotFound},
	{errs.ErrPairingCodeInvalid, http.StatusNotFound},

	{errs.ErrRateLimited, http.StatusTooManyRequests},
}

// statusOf maps a service error to its HTTP status; unknown errors are 500.
func statusOf(err error) int {
	for _, e := range statusTable {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// writeError answers with {"detail": msg} and aborts the chain. Internal
// failures are logged and reported generically.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(status, gin.H{"detail": "internal server error"})
		return
	}
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": err.Error()})
}
