package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *AppError   `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

type Meta struct {
	RequestID string `json:"request_id,omitempty"`
	Season    int    `json:"season,omitempty"`
	Week      int    `json:"week,omitempty"`
}

func SendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
		Meta:    metaFromContext(c),
	})
}

func SendError(c *gin.Context, statusCode int, err *AppError) {
	c.JSON(statusCode, Response{
		Success: false,
		Error:   err,
		Meta:    metaFromContext(c),
	})
}

func SendValidationError(c *gin.Context, message string, details string) {
	SendError(c, http.StatusBadRequest, NewAppError(ErrCodeValidation, message, details))
}

func SendInvalidConfiguration(c *gin.Context, message string, details string) {
	SendError(c, http.StatusBadRequest, NewAppError(ErrCodeInvalidConfig, message, details))
}

func SendNotFound(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, NewAppError(ErrCodeNotFound, message))
}

func SendUnauthorized(c *gin.Context, message string) {
	SendError(c, http.StatusUnauthorized, NewAppError(ErrCodeUnauthorized, message))
}

func SendInternalError(c *gin.Context, message string) {
	SendError(c, http.StatusInternalServerError, NewAppError(ErrCodeInternal, message))
}

func SendUpstreamError(c *gin.Context, message string, details string) {
	SendError(c, http.StatusBadGateway, NewAppError(ErrCodeUpstream, message, details))
}

// metaFromContext picks up values set by middleware (request id) and
// handlers (season/week) so every envelope carries them.
func metaFromContext(c *gin.Context) *Meta {
	meta := &Meta{}
	if id, ok := c.Get("request_id"); ok {
		if s, ok := id.(string); ok {
			meta.RequestID = s
		}
	}
	if season, ok := c.Get("season"); ok {
		if n, ok := season.(int); ok {
			meta.Season = n
		}
	}
	if week, ok := c.Get("week"); ok {
		if n, ok := week.(int); ok {
			meta.Week = n
		}
	}
	if meta.RequestID == "" && meta.Season == 0 && meta.Week == 0 {
		return nil
	}
	return meta
}
