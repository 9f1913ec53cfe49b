package api

import (
	"github.com/gin-gonic/gin"
)

// NewRouter регистрирует маршруты; limiter применяется к маршрутам, вызывающим модель
func NewRouter(h *Handler, limiter *RateLimiter) *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = MaxUploadSize

	r.GET("/health", h.Health)
	r.GET("/ws", h.Events)
	r.POST("/query", h.Query)

	posts := r.Group("/posts")
	posts.GET("", h.ListPosts)
	posts.GET("/:id", h.GetPost)
	posts.GET("/:id/media", h.GetMedia)
	posts.GET("/:id/share", h.Share)
	posts.GET("/:id/qr", h.QRCode)
	posts.POST("/:id/comments/:index/replies", h.AddReply)

	ai := posts.Group("")
	if limiter != nil {
		ai.Use(limiter.Middleware())
	}
	ai.POST("", h.CreatePost)
	ai.POST("/:id/attachment", h.AttachFile)
	ai.POST("/:id/questions", h.AskQuestion)
	ai.GET("/:id/summary", h.Summary)

	return r
}
