package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-followup/errors"
)

// ErrorResponse is the uniform error body every endpoint returns
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// HandleError maps an error to its HTTP response. Application errors carry
// their own status code; anything else is a 500 with the cause kept out of
// the body.
func HandleError(c echo.Context, logger *zap.Logger, err error) error {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		status := appErr.HTTPCode
		if status == 0 {
			status = http.StatusInternalServerError
		}
		if status >= 500 && logger != nil {
			logger.Error("request failed",
				zap.String("path", c.Request().URL.Path),
				zap.Error(err),
			)
		}
		return c.JSON(status, ErrorResponse{
			Code:    appErr.Code.String(),
			Message: appErr.Message,
			Details: appErr.Details,
		})
	}

	if logger != nil {
		logger.Error("request failed",
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Code:    "INTERNAL",
		Message: "internal server error",
	})
}
