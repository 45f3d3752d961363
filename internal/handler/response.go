package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qs-lzh/movie-booking/internal/middleware"
	"github.com/qs-lzh/movie-booking/internal/service"
)

func respond(ctx *gin.Context, status int, message string, data any) {
	ctx.JSON(status, gin.H{
		"message": message,
		"data":    data,
	})
}

func respondBadRequest(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid_input",
		"message": "Invalid request format",
		"detail":  err.Error(),
	})
}

// respondError maps the service error kinds onto HTTP statuses. Anything
// unrecognised is logged and reported as a generic 500.
func respondError(ctx *gin.Context, logger *zap.Logger, err error) {
	status, kind := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, service.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrInvalidInput):
		status, kind = http.StatusBadRequest, "invalid_input"
	case errors.Is(err, service.ErrInvalidState):
		status, kind = http.StatusUnprocessableEntity, "invalid_state"
	case errors.Is(err, service.ErrConflict):
		status, kind = http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrUnauthorized):
		status, kind = http.StatusForbidden, "unauthorized"
	case errors.Is(err, service.ErrInvalidCredentials):
		status, kind = http.StatusUnauthorized, "invalid_credentials"
	}

	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", ctx.Request.URL.Path),
			zap.String("request_id", middleware.RequestIDFromContext(ctx.Request.Context())),
			zap.Error(err))
		ctx.JSON(status, gin.H{
			"error":   kind,
			"message": "Internal server error, please try again later",
		})
		return
	}
	ctx.JSON(status, gin.H{
		"error":   kind,
		"message": err.Error(),
	})
}

func parseIDParam(ctx *gin.Context, name string) (uint, error) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", service.ErrInvalidInput, name, raw)
	}
	return uint(id), nil
}

// currentUserID reads the identity JWTAuth stored. It is 0 on routes not
// behind that middleware.
func currentUserID(ctx *gin.Context) uint {
	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		return 0
	}
	return identity.UserID
}
