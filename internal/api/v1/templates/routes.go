package templates

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/search", h.Search)
	r.POST("/render/:id", h.Render)
}
