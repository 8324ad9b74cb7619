package web

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/", h.Index)
	r.GET("/template/:id", h.ViewTemplate)
	r.GET("/create", h.CreateForm)
	r.POST("/create", h.Create)
	r.GET("/edit/:id", h.EditForm)
	r.POST("/edit/:id", h.Edit)
	r.POST("/delete/:id", h.Delete)
}
