package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Hint      string `json:"hint,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

var statusByCode = map[string]int{
	"MISSING_SIGNER":           http.StatusUnauthorized,
	"INVALID_SIGNATURE":        http.StatusUnauthorized,
	"TIMESTAMP_OUT_OF_RANGE":   http.StatusUnauthorized,
	"UNAUTHORIZED":             http.StatusForbidden,
	"UNAUTHORIZED_STATUS":      http.StatusForbidden,
	"RATE_LIMITED":             http.StatusTooManyRequests,
	"TRANSACTION_TOO_LARGE":    http.StatusRequestEntityTooLarge,
	"NO_STAKE":                 http.StatusNotFound,
	"SPLITTER_NOT_INITIALIZED": http.StatusNotFound,
	"ALREADY_SETTLED":          http.StatusConflict,
	"INTERNAL":                 http.StatusInternalServerError,
}

// httpStatus maps an error to a response status by code, then by kind.
func httpStatus(err error) int {
	code := types.CodeOf(err)
	if status, ok := statusByCode[code]; ok {
		return status
	}
	switch {
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "_ALREADY_EXISTS"),
		strings.HasSuffix(code, "_ALREADY_REGISTERED"),
		strings.HasSuffix(code, "_ALREADY_INITIALIZED"):
		return http.StatusConflict
	}
	switch types.KindOf(err) {
	case types.KindInput:
		return http.StatusBadRequest
	case types.KindConfig:
		return http.StatusInternalServerError
	default:
		return http.StatusConflict
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := httpStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "code", types.CodeOf(err), "error", err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     err.Error(),
		Code:      types.CodeOf(err),
		Hint:      types.GetRecoverySuggestion(err),
		RequestID: c.GetString(ctxRequestID),
	})
}

func malformed(format string, args ...interface{}) error {
	return types.InputError(types.ErrMalformedRequest, format, args...)
}
