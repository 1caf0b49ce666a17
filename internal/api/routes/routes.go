package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/yoockh/careermentor/internal/api/handlers"
	"github.com/yoockh/careermentor/internal/api/middleware"
)

type Deps struct {
	Auth      gin.HandlerFunc
	Interview *handlers.InterviewHandler
	Settings  *handlers.SettingsHandler
	History   *handlers.HistoryHandler
	Voice     *handlers.VoiceHandler
	WS        *handlers.WSHandler
	Admin     *handlers.AdminHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	auth := r.Group("/")
	auth.Use(d.Auth)

	auth.GET("/settings", d.Settings.Get)
	auth.PUT("/settings", d.Settings.Update)

	auth.POST("/interviews", d.Interview.Start)
	auth.GET("/interviews/:id", d.Interview.Get)
	auth.PUT("/interviews/:id/draft", d.Interview.Draft)
	auth.POST("/interviews/:id/submit", d.Interview.Submit)
	auth.POST("/interviews/:id/skip", d.Interview.Skip)
	auth.POST("/interviews/:id/next", d.Interview.Next)
	auth.DELETE("/interviews/:id", d.Interview.Abandon)
	if d.Voice != nil {
		auth.POST("/interviews/:id/voice", d.Voice.Answer)
	}

	auth.GET("/history", d.History.List)
	auth.GET("/history/:id/transcript", d.History.Transcript)

	// WebSocket
	if d.WS != nil {
		auth.GET("/ws/interviews/:id", d.WS.InterviewWS)
	}

	admin := auth.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	admin.GET("/interviews", d.Admin.ActiveInterviews)
}
