package controller

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter собирает gin-движок со всеми маршрутами API
func NewRouter(h *Handlers, corsOrigins []string, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(accessLog(logger), recovery(logger))

	router.Use(cors.New(corsConfig(corsOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")
	{
		api.GET("/experiences", h.ListExperiences)
		api.GET("/experiences/:id", h.GetExperience)

		api.POST("/bookings", h.CreateBooking)
		api.GET("/bookings/:ref", h.GetBooking)

		api.POST("/promo/validate", h.ValidatePromo)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found."})
	})

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}

	cfg.AllowOrigins = origins
	return cfg
}
