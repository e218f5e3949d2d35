package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psds-microservice/broadcast-service/internal/handler"
	"github.com/psds-microservice/broadcast-service/pkg/constants"
)

// New builds the HTTP router.
func New(
	sessionHandler *handler.SessionHandler,
	connectionHandler *handler.ConnectionHandler,
	meetingHandler *handler.MeetingHandler,
	statusWS *handler.StatusWSHandler,
	health *handler.HealthHandler,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET(constants.PathHealth, health.Health)
	r.GET(constants.PathReady, health.Ready)

	tenant := r.Group("", handler.RequireTenant())

	// REST sessions
	sessions := tenant.Group("/sessions")
	{
		sessions.POST("", sessionHandler.CreateSession)
		sessions.GET("", sessionHandler.ListSessions)
		sessions.GET("/:id", sessionHandler.GetSession)
		sessions.PATCH("/:id", sessionHandler.UpdateSession)
		sessions.DELETE("/:id", sessionHandler.DeleteSession)
		sessions.POST("/:id/start", sessionHandler.StartBroadcasting)
		sessions.POST("/:id/stop", sessionHandler.StopBroadcasting)
		sessions.GET("/:id/platforms", sessionHandler.PlatformLinks)
	}

	// Platform connections
	connections := tenant.Group("/connections")
	{
		connections.POST("", connectionHandler.Connect)
		connections.GET("", connectionHandler.List)
		connections.DELETE("/:platform", connectionHandler.Disconnect)
	}

	// Meeting series and derived occurrences
	meetings := tenant.Group("/meetings")
	{
		meetings.POST("", meetingHandler.CreateSeries)
		meetings.GET("", meetingHandler.ListSeries)
		meetings.GET("/:id", meetingHandler.GetSeries)
		meetings.PATCH("/:id", meetingHandler.UpdateSeries)
		meetings.DELETE("/:id", meetingHandler.DeleteSeries)
		meetings.GET("/:id/occurrences", meetingHandler.Occurrences)
	}
	tenant.GET("/occurrences", meetingHandler.CalendarWindow)

	// WebSocket: /ws/sessions/:session_id
	tenant.GET("/ws/sessions/:session_id", statusWS.ServeWS)

	return r
}
