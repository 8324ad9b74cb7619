package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"prompthub-backend/internal/api/v1/templates"
	"prompthub-backend/internal/api/web"
	"prompthub-backend/internal/middleware"
	"prompthub-backend/internal/services"
)

// NewRouter wires the injected database and cache handles into the service
// layer and registers the page and API routes.
func NewRouter(db *gorm.DB, cache *redis.Client) *gin.Engine {
	svc := services.NewTemplateService(db, cache)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:8080"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.LoadHTMLGlob("templates/*.html")

	web.RegisterRoutes(router, web.NewHandler(svc))

	apiGroup := router.Group("/api")
	templates.RegisterRoutes(apiGroup, templates.NewHandler(svc))

	return router
}
