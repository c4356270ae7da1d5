package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"facelyze-api/internal/app"
	"facelyze-api/internal/transport/http/middleware"
	"facelyze-api/internal/transport/http/response"
)

func getUserIDFromContext(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	return userID, ok
}

func queryInt(c *gin.Context, key string, fallback int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

// writeServiceError maps the errors every paid or model-backed endpoint can
// return. Anything unrecognised becomes a 500 carrying fallback.
func writeServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrInvalidPhoto):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidPhoto, err.Error())
	case errors.Is(err, app.ErrPhotoRejected):
		response.Error(c, http.StatusUnprocessableEntity, response.CodePhotoRejected, err.Error())
	case errors.Is(err, app.ErrInsufficientTokens):
		response.Error(c, http.StatusPaymentRequired, response.CodeInsufficientTokens, err.Error())
	case errors.Is(err, app.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, response.CodeUserNotFound, err.Error())
	case errors.Is(err, app.ErrAnalysisNotFound):
		response.Error(c, http.StatusNotFound, response.CodeAnalysisNotFound, err.Error())
	case errors.Is(err, app.ErrPreviewNotFound):
		response.Error(c, http.StatusNotFound, response.CodePreviewNotFound, err.Error())
	case errors.Is(err, app.ErrModelOutputInvalid):
		response.Error(c, http.StatusBadGateway, response.CodeModelOutputInvalid, app.ErrModelOutputInvalid.Error())
	case errors.Is(err, app.ErrModelUnavailable):
		response.Error(c, http.StatusServiceUnavailable, response.CodeModelUnavailable, err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
