package v1

import (
	"github.com/autotraits-be/middleware"
	"github.com/autotraits-be/services"
	"github.com/gin-gonic/gin"
)

// Services bundles the service instances the v1 controllers depend on
type Services struct {
	Auth         *services.AuthService
	Plants       *services.PlantService
	Measurements *services.MeasurementService
	Imports      *services.ImportService
	Files        *services.FileService
}

// RegisterRoutes registers all v1 API routes
func RegisterRoutes(router *gin.RouterGroup, svc Services, cookieSecure bool) {
	router.GET("/health", HealthCheck)

	// Auth endpoints; /user/me applies AuthMiddleware itself
	NewAuthController(svc.Auth, cookieSecure).RegisterRoutes(router)

	authRouter := router.Group("")
	authRouter.Use(middleware.AuthMiddleware(svc.Auth))

	NewPlantController(svc.Plants).RegisterRoutes(authRouter)
	NewMeasurementController(svc.Measurements, svc.Imports).RegisterRoutes(authRouter)
	NewFileController(svc.Files).RegisterRoutes(authRouter)
}
