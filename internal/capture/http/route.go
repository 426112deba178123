package http

import "github.com/gin-gonic/gin"

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	sessions := g.Group("/sessions/:id/captures")
	sessions.Use(authMiddleware)
	{
		sessions.POST("", h.Upload)
		sessions.GET("", h.ListBySession)
	}

	captures := g.Group("/captures")
	captures.Use(authMiddleware)
	{
		captures.GET("/:id", h.ServeImage)
		captures.GET("/:id/thumbnail", h.ServeThumbnail)
		captures.GET("/:id/info", h.Get)
		captures.DELETE("/:id", h.Delete)
	}
}
