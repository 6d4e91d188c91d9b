package v1

import (
	"net/http"

	"github.com/autotraits-be/database"
	"github.com/gin-gonic/gin"
)

// HealthCheck handles the health check endpoint
func HealthCheck(c *gin.Context) {
	dbStatus := "ok"
	if database.DB == nil {
		dbStatus = "unavailable"
	} else if sqlDB, err := database.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		dbStatus = "unavailable"
	}

	code, overall := http.StatusOK, "ok"
	if dbStatus != "ok" {
		code, overall = http.StatusServiceUnavailable, "degraded"
	}
	c.JSON(code, gin.H{
		"status":   overall,
		"service":  "autotraits-api",
		"version":  "1.0.0",
		"database": dbStatus,
	})
}
