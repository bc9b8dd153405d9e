package models

import "github.com/richard-senior/nflodds/pkg/util/nflodds"

// SeasonQuery is bound from the query string of every /api/v1 endpoint.
// Season accepts "2025" or "2025/2026"
type SeasonQuery struct {
	Season string `form:"season"`
	Week   int    `form:"week" binding:"min=0,max=30"`
	Limit  int    `form:"limit" binding:"min=0"`
	Team   string `form:"team"`
}

// RecommendationsResponse is the body of GET /api/v1/recommendations
type RecommendationsResponse struct {
	*nflodds.RecommendationReport
	Cached bool `json:"cached"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewError builds an ErrorResponse
func NewError(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}
