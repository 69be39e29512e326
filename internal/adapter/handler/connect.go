package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-followup/internal/usecase/account"
)

// ConnectHandler runs the calendar connection consent flow
type ConnectHandler struct {
	connect *account.ConnectService
	logger  *zap.Logger
}

// NewConnectHandler creates a connect handler
func NewConnectHandler(connect *account.ConnectService, logger *zap.Logger) *ConnectHandler {
	return &ConnectHandler{connect: connect, logger: logger}
}

// Start redirects to Google consent
// GET /v1/calendar/connect
func (h *ConnectHandler) Start(c echo.Context) error {
	authURL, err := h.connect.AuthURL(c.Request().Context())
	if err != nil {
		return HandleError(c, h.logger, err)
	}
	return c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// Callback completes the consent flow
// GET /v1/calendar/connect/callback
func (h *ConnectHandler) Callback(c echo.Context) error {
	acct, err := h.connect.HandleCallback(c.Request().Context(), c.QueryParam("code"), c.QueryParam("state"))
	if err != nil {
		return HandleError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"account_id":         acct.ID,
		"calendar_connected": acct.CalendarConnected,
	})
}
