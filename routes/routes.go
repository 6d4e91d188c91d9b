package routes

import (
	"time"

	v1 "github.com/autotraits-be/api/v1"
	"github.com/autotraits-be/config"
	"github.com/autotraits-be/controllers"
	"github.com/autotraits-be/lib/metrics"
	"github.com/autotraits-be/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRoutes builds the engine with middleware and every API route
func SetupRoutes(cfg config.Config, log *zap.Logger, svc v1.Services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log.Named("http")))

	// Cookies carry the session, so origins must be listed explicitly
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Public routes
	router.GET("/", controllers.HealthCheck)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")
	v1.RegisterRoutes(api, svc, cfg.CookieSecure)

	return router
}
