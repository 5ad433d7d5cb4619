package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/katatrina/roxot-collector/internal/adapter"
	"github.com/katatrina/roxot-collector/internal/analytics"
	"github.com/katatrina/roxot-collector/internal/session"
)

var (
	ErrInvalidToken   = errors.New("invalid API token")
	ErrInternalServer = errors.New("internal server error")
)

func errorResponse(err error) gin.H {
	return gin.H{"error": err.Error()}
}

// statusFor maps adapter and session errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, adapter.ErrUnknownCode):
		return http.StatusNotFound
	case errors.Is(err, analytics.ErrMissingPublisherID),
		errors.Is(err, analytics.ErrInvalidOptions),
		errors.Is(err, analytics.ErrInvalidArgs):
		return http.StatusBadRequest
	case errors.Is(err, analytics.ErrUnknownAuction),
		errors.Is(err, analytics.ErrUnknownAdUnit),
		errors.Is(err, analytics.ErrUnknownBidder):
		return http.StatusUnprocessableEntity
	case errors.Is(err, analytics.ErrNotEnabled),
		errors.Is(err, analytics.ErrAlreadyEnabled):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes err with its mapped status. Unexpected errors are
// logged and hidden from the client.
func abortWithError(ctx *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = ctx.Error(err)
		ctx.AbortWithStatusJSON(status, errorResponse(ErrInternalServer))
		return
	}
	ctx.AbortWithStatusJSON(status, errorResponse(err))
}
