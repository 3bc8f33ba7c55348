package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Pravinkumar0908/business/internal/apperr"
	"github.com/Pravinkumar0908/business/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type PageMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

func successResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func errorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
	}
}

func successWithMetaResponse(message string, data interface{}, meta interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	}
}

// Options are shared by every HTTP handler.
type Options struct {
	// Production hides internal error messages from callers.
	Production     bool
	RequestTimeout time.Duration
}

func (o Options) context(c *gin.Context) (context.Context, context.CancelFunc) {
	if o.RequestTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), o.RequestTimeout)
}

// handleServiceError writes the status mapped from the error's code. Internal
// errors are logged in full and, in production, reported generically.
func (o Options) handleServiceError(c *gin.Context, err error) {
	code := apperr.HTTPStatus(err)
	message := apperr.Message(err)

	log := logger.FromContext(c.Request.Context())
	if apperr.IsInternal(err) {
		log.Error("service error", zap.Error(err), zap.String("reason", apperr.Reason(err)))
		if o.Production {
			message = "internal server error"
		}
	} else {
		log.Debug("request refused", zap.String("reason", apperr.Reason(err)), zap.String("message", message))
	}

	c.AbortWithStatusJSON(code, errorResponse(message))
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse(message))
}

func pageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 200 {
		size = 50
	}
	return page, size
}

func boolQuery(c *gin.Context, key string) bool {
	v, _ := strconv.ParseBool(c.Query(key))
	return v
}
