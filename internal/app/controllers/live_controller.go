package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/atlasedu/rollcall/internal/app/services"
	"github.com/atlasedu/rollcall/internal/middleware"
	"github.com/atlasedu/rollcall/internal/pkg/websocket"
)

// LiveController serves the websocket live feed of session check-ins
type LiveController struct {
	hub            *websocket.Hub
	sessionService services.SessionService
	logger         zerolog.Logger
}

// NewLiveController creates a new LiveController
func NewLiveController(hub *websocket.Hub, sessionService services.SessionService, logger zerolog.Logger) *LiveController {
	return &LiveController{
		hub:            hub,
		sessionService: sessionService,
		logger:         logger,
	}
}

// Watch upgrades the connection and streams accepted check-ins
// @Summary Watch a session live
// @Description Upgrades to a websocket and streams check-in events for the session as they are accepted
// @Tags check-ins
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param token query string false "Bearer token for websocket clients"
// @Success 101 "Switching protocols"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /attendance-sessions/{id}/live [get]
func (c *LiveController) Watch(ctx *gin.Context) {
	sessionID := ctx.Param("id")

	// Reject feeds for sessions that do not exist before upgrading.
	if _, err := c.sessionService.GetSession(ctx, sessionID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	userID, _ := middleware.CurrentUserID(ctx)

	if err := websocket.ServeWS(c.hub, ctx.Writer, ctx.Request, sessionID, userID, c.logger); err != nil {
		c.logger.Error().Err(err).Str("sessionID", sessionID).Msg("Websocket upgrade failed")
	}
}
