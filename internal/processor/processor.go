package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/richard-senior/nflodds/internal/logger"
	"github.com/richard-senior/nflodds/pkg/protocol"
	"github.com/richard-senior/nflodds/pkg/tools"
	"github.com/richard-senior/nflodds/pkg/util/nflodds"
)

const version = "1.0.0"

// MCPRequest is a one-shot query such as "predictions 2025 7 KC"
type MCPRequest struct {
	Query     string `json:"query"`
	RequestID string `json:"requestId"`
}

// MCPResponse carries the result of a query in Context
type MCPResponse struct {
	RequestID   string          `json:"requestId,omitempty"`
	Context     map[string]any  `json:"context,omitempty"`
	Tools       []protocol.Tool `json:"tools,omitempty"`
	Suggestions []string        `json:"suggestions,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	RequestID string `json:"requestId,omitempty"`
	Error     struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Processor answers queries from a datasource
type Processor struct {
	ds *nflodds.Datasource
}

func NewProcessor(ds *nflodds.Datasource) *Processor {
	return &Processor{ds: ds}
}

// ProcessRequest processes a request against the default datasource
func ProcessRequest(input []byte) ([]byte, error) {
	return NewProcessor(nflodds.GetDatasourceInstance()).Process(context.Background(), input)
}

func createErrorResponse(code, message, requestID string) ([]byte, error) {
	var response ErrorResponse
	response.RequestID = requestID
	response.Error.Code = code
	response.Error.Message = message
	return json.MarshalIndent(response, "", "  ")
}

// Process parses input and dispatches on the first word of the query.
// Failures are reported as an ErrorResponse rather than an error
func (p *Processor) Process(ctx context.Context, input []byte) ([]byte, error) {
	var request MCPRequest
	if err := json.Unmarshal(input, &request); err != nil {
		logger.Error("Failed to parse input JSON", err)
		return createErrorResponse("invalid_request", fmt.Sprintf("Invalid JSON: %v", err), "")
	}
	logger.Info("Processing request", request.Query)

	fields := strings.Fields(request.Query)
	if len(fields) == 0 {
		return p.marshal(p.help(request.RequestID), request.RequestID)
	}

	var (
		key    string
		result any
		err    error
	)
	switch cmd, args := strings.ToLower(fields[0]), fields[1:]; cmd {
	case "week":
		key = "week"
		result, err = p.week(ctx, args)
	case "recommendations":
		key = "recommendations"
		result, err = p.recommendations(ctx, args)
	case "predictions":
		key = "predictions"
		result, err = p.predictions(ctx, args)
	default:
		return p.marshal(p.help(request.RequestID), request.RequestID)
	}
	if err != nil {
		logger.Error("Query failed", request.Query, err)
		return createErrorResponse(key+"_error", err.Error(), request.RequestID)
	}

	return p.marshal(&MCPResponse{
		RequestID: request.RequestID,
		Context:   map[string]any{key: result},
		Metadata:  map[string]any{"version": version},
	}, request.RequestID)
}

func (p *Processor) marshal(response *MCPResponse, requestID string) ([]byte, error) {
	jsonResult, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		logger.Error("Failed to marshal response to JSON", err)
		return createErrorResponse("internal_error", "Failed to create response", requestID)
	}
	return jsonResult, nil
}

// help lists the available tools when the query is not understood
func (p *Processor) help(requestID string) *MCPResponse {
	return &MCPResponse{
		RequestID: requestID,
		Tools: []protocol.Tool{
			tools.CurrentWeekTool(),
			tools.RecommendationsTool(),
			tools.WeekPredictionsTool(),
			tools.TeamPageTool(),
		},
		Suggestions: []string{
			"Detect the current week with 'week [season]'",
			"Rank net EPA bets with 'recommendations [season] [limit]'",
			"Predict a week with 'predictions [season] [week] [team]'",
			"Read a team season page with the nfl_team_page tool",
		},
		Metadata: map[string]any{"version": version},
	}
}

func (p *Processor) season(args []string) (int, error) {
	if len(args) == 0 {
		return nflodds.CurrentSeason(p.ds.Now()), nil
	}
	return nflodds.ParseSeason(args[0])
}

func (p *Processor) week(ctx context.Context, args []string) (*nflodds.WeekInfo, error) {
	season, err := p.season(args)
	if err != nil {
		return nil, err
	}
	return p.ds.CurrentWeek(ctx, season)
}

func (p *Processor) recommendations(ctx context.Context, args []string) (*nflodds.RecommendationReport, error) {
	season, err := p.season(args)
	if err != nil {
		return nil, err
	}
	limit := nflodds.Config.TableLimit
	if len(args) > 1 {
		if limit, err = strconv.Atoi(args[1]); err != nil {
			return nil, fmt.Errorf("limit must be a number, got: %s", args[1])
		}
		if limit < 0 {
			return nil, fmt.Errorf("limit must not be negative, got: %d", limit)
		}
	}
	report, err := p.ds.RunRecommendations(ctx, season)
	if err != nil {
		return nil, err
	}
	report.Recommendations = nflodds.Head(report.Recommendations, limit)
	return report, nil
}

func (p *Processor) predictions(ctx context.Context, args []string) (*nflodds.WeekReport, error) {
	season, err := p.season(args)
	if err != nil {
		return nil, err
	}
	week := 0
	if len(args) > 1 {
		if week, err = strconv.Atoi(args[1]); err != nil {
			return nil, fmt.Errorf("week must be a number, got: %s", args[1])
		}
	}
	report, err := p.ds.RunWeekPredictions(ctx, season, week)
	if err != nil {
		return nil, err
	}
	if len(args) > 2 {
		if report.Predictions, err = tools.FilterByTeam(report.Predictions, strings.Join(args[2:], " ")); err != nil {
			return nil, err
		}
	}
	return report, nil
}
