// Package api exposes week detection, recommendations and predictions over HTTP
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richard-senior/nflodds/internal/api/handlers"
	"github.com/richard-senior/nflodds/internal/api/middleware"
	"github.com/richard-senior/nflodds/internal/api/models"
)

// NewRouter wires the routes onto a new gin engine
func NewRouter(h *handlers.NflHandler) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.GET("/week", h.GetWeek)
		v1.GET("/recommendations", h.GetRecommendations)
		v1.GET("/predictions", h.GetPredictions)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.NewError("NOT_FOUND", "no route for "+c.Request.URL.Path))
	})
	return router
}
