package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	pricehandler "pricewatch_backend/internal/feature/prices/transport/handler"
	"pricewatch_backend/internal/platform/http/handler"
)

// NewRouter wires the API routes. An empty allowOrigins allows every origin.
func NewRouter(health *handler.HealthHandler, prices *pricehandler.PriceHandler, allowOrigins []string) *gin.Engine {
	r := gin.Default()

	// The dashboard is served from another origin
	r.Use(corsMiddleware(allowOrigins))

	// Liveness check
	r.GET("/healthz", health.Health)
	r.HEAD("/healthz", health.Health)

	r.GET("/categories", prices.ListCategories)
	cat := r.Group("/categories/:category")
	{
		cat.GET("/series", prices.GetSeries)
		cat.GET("/latest", prices.GetLatest)
		cat.GET("/range", prices.GetRange)
		cat.GET("/changes", prices.GetChanges)
		cat.GET("/stats", prices.GetStats)
		cat.GET("/alarms", prices.GetAlarms)
		cat.POST("/alarms", prices.NotifyAlarms)
		cat.GET("/export.csv", prices.ExportCSV)
	}

	r.POST("/refresh", prices.Refresh)

	return r
}

func corsMiddleware(allowOrigins []string) gin.HandlerFunc {
	if len(allowOrigins) == 0 {
		return cors.Default()
	}
	return cors.New(cors.Config{
		AllowOrigins:  allowOrigins,
		AllowMethods:  []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	})
}
