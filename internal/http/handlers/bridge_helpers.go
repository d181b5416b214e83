package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-resizer-bridge/internal/models"
	"go.uber.org/zap"
)

// === CALLBACK ===

type callbackResult struct {
	payload interface{}
	err     error
}

// channelCallback hands the action outcome back to the request goroutine.
// It is buffered so a worker never blocks on a client that went away.
type channelCallback chan callbackResult

func newChannelCallback() channelCallback {
	return make(channelCallback, 1)
}

func (c channelCallback) Success(payload interface{}) {
	c <- callbackResult{payload: payload}
}

func (c channelCallback) Error(err error) {
	c <- callbackResult{err: err}
}

// === RESPONSE HANDLING ===

func statusForError(err error) int {
	switch models.KindOf(err) {
	case models.KindInvalidArguments, models.KindInvalidAction:
		return http.StatusBadRequest
	case models.KindSourceNotFound:
		return http.StatusNotFound
	case models.KindInvalidSourceDimensions, models.KindDecodeFailure:
		return http.StatusUnprocessableEntity
	case models.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *BridgeHandler) respondError(c *gin.Context, err error) {
	statusCode := statusForError(err)
	if statusCode >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}

	c.JSON(statusCode, models.APIResponse{
		Success: false,
		Error:   err.Error(),
		Code:    models.KindOf(err),
	})
}

func (h *BridgeHandler) respondUnavailable(c *gin.Context, message string) {
	c.JSON(http.StatusServiceUnavailable, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

// === UTILITY METHODS ===

func calculateOverallHealth(services map[string]string) string {
	for _, status := range services {
		if status != "healthy" && status != "not configured" {
			return "unhealthy"
		}
	}
	return "healthy"
}
