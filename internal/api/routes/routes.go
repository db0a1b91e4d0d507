package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/careerguide/internal/api/handlers"
	"github.com/yoockh/careerguide/internal/api/middleware"
)

type Deps struct {
	Query        *handlers.QueryHandler
	Conversation *handlers.ConversationHandler
	Ingest       *handlers.IngestHandler
	WS           *handlers.ChatWSHandler

	Auth           middleware.JWTConfig
	RequestTimeout time.Duration
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// the web client calls everything under /file
	register(r.Group("/"), d)
	register(r.Group("/file"), d)
}

func register(g *gin.RouterGroup, d Deps) {
	g.Use(middleware.JWTAuth(d.Auth))

	api := g.Group("")
	api.Use(middleware.Timeout(d.RequestTimeout))

	api.POST("/query", d.Query.Query)
	api.POST("/createConversation", d.Conversation.Create)
	api.POST("/conversationHistory", d.Conversation.History)
	api.POST("/history", d.Conversation.Timeline)
	api.POST("/conversationsh", d.Conversation.ListIDs)
	api.GET("/conversation/:id/references/:history_id", d.Conversation.References)

	ingest := g.Group("")
	if d.Auth.Enabled() {
		ingest.Use(middleware.RequireAdmin())
	}
	ingest.GET("/pdf", d.Ingest.PDF)
	ingest.GET("/csv", d.Ingest.CSV)
	ingest.GET("/ingest/jobs/:job_id", d.Ingest.JobStatus)
	ingest.GET("/ingest/latest", d.Ingest.Latest)

	// websocket applies its own per-query timeout
	g.GET("/ws/chat", d.WS.Chat)
}
