package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richard-senior/nflodds/internal/api/models"
	"github.com/richard-senior/nflodds/internal/logger"
	"github.com/richard-senior/nflodds/pkg/tools"
	"github.com/richard-senior/nflodds/pkg/util/nflodds"
)

// NflHandler serves the /api/v1 endpoints from one datasource
type NflHandler struct {
	ds    *nflodds.Datasource
	cache *responseCache
}

// NewNflHandler creates a handler. Recommendations are kept in memory for cacheTTL
func NewNflHandler(ds *nflodds.Datasource, cacheTTL time.Duration) *NflHandler {
	return &NflHandler{ds: ds, cache: newResponseCache(cacheTTL)}
}

// GetWeek handles GET /api/v1/week
func (h *NflHandler) GetWeek(c *gin.Context) {
	_, season, ok := h.bind(c)
	if !ok {
		return
	}
	info, err := h.ds.CurrentWeek(c.Request.Context(), season)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// GetRecommendations handles GET /api/v1/recommendations
func (h *NflHandler) GetRecommendations(c *gin.Context) {
	q, season, ok := h.bind(c)
	if !ok {
		return
	}
	limit := q.Limit
	if limit == 0 {
		limit = nflodds.Config.TableLimit
	}

	key := fmt.Sprintf("recommendations:%d", season)
	if v, hit := h.cache.get(key); hit {
		report := *v.(*nflodds.RecommendationReport)
		report.Recommendations = nflodds.Head(report.Recommendations, limit)
		c.JSON(http.StatusOK, models.RecommendationsResponse{RecommendationReport: &report, Cached: true})
		return
	}

	report, err := h.ds.RunRecommendations(c.Request.Context(), season)
	if err != nil {
		writeError(c, err)
		return
	}
	h.cache.set(key, report)

	limited := *report
	limited.Recommendations = nflodds.Head(report.Recommendations, limit)
	c.JSON(http.StatusOK, models.RecommendationsResponse{RecommendationReport: &limited})
}

// GetPredictions handles GET /api/v1/predictions
func (h *NflHandler) GetPredictions(c *gin.Context) {
	q, season, ok := h.bind(c)
	if !ok {
		return
	}
	report, err := h.ds.RunWeekPredictions(c.Request.Context(), season, q.Week)
	if err != nil {
		writeError(c, err)
		return
	}
	if q.Team != "" {
		if report.Predictions, err = tools.FilterByTeam(report.Predictions, q.Team); err != nil {
			c.JSON(http.StatusBadRequest, models.NewError("INVALID_TEAM", err.Error()))
			return
		}
	}
	c.JSON(http.StatusOK, report)
}

// bind reads the query string, writing a 400 and returning ok=false when it is invalid
func (h *NflHandler) bind(c *gin.Context) (models.SeasonQuery, int, bool) {
	var q models.SeasonQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, models.NewError("INVALID_REQUEST", err.Error()))
		return q, 0, false
	}
	if q.Season == "" {
		return q, nflodds.CurrentSeason(h.ds.Now()), true
	}
	season, err := nflodds.ParseSeason(q.Season)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewError("INVALID_SEASON", err.Error()))
		return q, 0, false
	}
	return q, season, true
}

func writeError(c *gin.Context, err error) {
	logger.Warn("Request failed", c.Request.URL.Path, err)
	switch {
	case errors.Is(err, nflodds.ErrNoGames):
		c.JSON(http.StatusNotFound, models.NewError("NO_GAMES", err.Error()))
	case errors.Is(err, nflodds.ErrSeasonUnavailable):
		c.JSON(http.StatusServiceUnavailable, models.NewError("SEASON_UNAVAILABLE", err.Error()))
	default:
		c.JSON(http.StatusBadGateway, models.NewError("UPSTREAM_ERROR", err.Error()))
	}
}
