package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/richard-senior/nflodds/internal/logger"
	"github.com/richard-senior/nflodds/pkg/protocol"
	"github.com/richard-senior/nflodds/pkg/util"
	"github.com/richard-senior/nflodds/pkg/util/nflodds"
)

// Handler runs a tool with the arguments of a tools/call request
type Handler func(ctx context.Context, args map[string]any) (*protocol.ToolCallResult, error)

// NflTools serves the NFL tools from one datasource
type NflTools struct {
	ds *nflodds.Datasource
}

func NewNflTools(ds *nflodds.Datasource) *NflTools {
	return &NflTools{ds: ds}
}

var seasonProperty = protocol.ToolProperty{
	Type:        "integer",
	Description: "Season year, e.g. 2025. The 2025 season runs into February 2026. Defaults to the current season",
}

func CurrentWeekTool() protocol.Tool {
	return protocol.Tool{
		Name: "nfl_current_week",
		Description: `
		Detects the current week of an NFL season from the schedule and today's date,
		and lists that week's games with kickoff dates, scores for played games and betting lines.
		`,
		InputSchema: protocol.InputSchema{
			Type:       "object",
			Properties: map[string]protocol.ToolProperty{"season": seasonProperty},
			Required:   []string{},
		},
	}
}

func RecommendationsTool() protocol.Tool {
	return protocol.Tool{
		Name: "nfl_recommendations",
		Description: `
		Betting recommendations from net EPA (expected points added) per play for every team in every game of a season.
		Positive net EPA is a Bet, and a net EPA per play above 0.05 in either direction is a Spread bet.
		If the season has no play-by-play yet the fallback season is used and reported.
		`,
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"season": seasonProperty,
				"limit":  {Type: "integer", Description: "Number of rows to return", Default: 10},
			},
			Required: []string{},
		},
	}
}

func WeekPredictionsTool() protocol.Tool {
	return protocol.Tool{
		Name: "nfl_week_predictions",
		Description: `
		Predicted score, point spread and total for each game of an NFL week, with picks against the betting lines.
		The week defaults to the current week. Played games are graded against the final score.
		`,
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"season": seasonProperty,
				"week":   {Type: "integer", Description: "Week number, 1 to 18 for the regular season. Defaults to the current week"},
				"team":   {Type: "string", Description: "Only show games involving this team, e.g. KC or Chiefs"},
			},
			Required: []string{},
		},
	}
}

// HandleCurrentWeek handles nfl_current_week
func (n *NflTools) HandleCurrentWeek(ctx context.Context, args map[string]any) (*protocol.ToolCallResult, error) {
	season, err := n.seasonArg(args)
	if err != nil {
		return nil, err
	}
	info, err := n.ds.CurrentWeek(ctx, season)
	if err != nil {
		return nil, err
	}
	return jsonResult(info)
}

// HandleRecommendations handles nfl_recommendations
func (n *NflTools) HandleRecommendations(ctx context.Context, args map[string]any) (*protocol.ToolCallResult, error) {
	season, err := n.seasonArg(args)
	if err != nil {
		return nil, err
	}
	limit, err := intArg(args, "limit", nflodds.Config.TableLimit)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, fmt.Errorf("limit must not be negative, got: %d", limit)
	}
	report, err := n.ds.RunRecommendations(ctx, season)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if report.Season != report.RequestedSeason {
		fmt.Fprintf(&out, "No play-by-play for %d, showing %d instead.\n", report.RequestedSeason, report.Season)
	}
	if err := nflodds.RenderRecommendations(&out, nflodds.Head(report.Recommendations, limit)); err != nil {
		return nil, err
	}
	return protocol.NewTextResult(out.String()), nil
}

// HandleWeekPredictions handles nfl_week_predictions
func (n *NflTools) HandleWeekPredictions(ctx context.Context, args map[string]any) (*protocol.ToolCallResult, error) {
	season, err := n.seasonArg(args)
	if err != nil {
		return nil, err
	}
	week, err := intArg(args, "week", 0)
	if err != nil {
		return nil, err
	}
	report, err := n.ds.RunWeekPredictions(ctx, season, week)
	if err != nil {
		return nil, err
	}

	preds := report.Predictions
	if raw, ok := args["team"]; ok && raw != nil {
		query, err := util.GetAsString(raw)
		if err != nil {
			return nil, err
		}
		if preds, err = FilterByTeam(preds, query); err != nil {
			return nil, err
		}
	}

	var out bytes.Buffer
	if err := nflodds.RenderPredictions(&out, report.Week, preds); err != nil {
		return nil, err
	}
	if err := nflodds.RenderAccuracy(&out, report.Summary); err != nil {
		return nil, err
	}
	return protocol.NewTextResult(out.String()), nil
}

// FilterByTeam keeps predictions involving the team named by query
func FilterByTeam(preds []*nflodds.Prediction, query string) ([]*nflodds.Prediction, error) {
	if query == "" {
		return preds, nil
	}
	team, err := nflodds.ResolveTeam(query)
	if err != nil {
		return nil, err
	}
	var ret []*nflodds.Prediction
	for _, p := range preds {
		if p.HomeTeam == team.Abbr || p.AwayTeam == team.Abbr {
			ret = append(ret, p)
		}
	}
	return ret, nil
}

func (n *NflTools) seasonArg(args map[string]any) (int, error) {
	raw, ok := args["season"]
	if !ok || raw == nil {
		return nflodds.CurrentSeason(n.ds.Now()), nil
	}
	s, err := util.GetAsString(raw)
	if err != nil {
		return 0, err
	}
	return nflodds.ParseSeason(s)
}

func intArg(args map[string]any, name string, def int) (int, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return def, nil
	}
	v, err := util.GetAsInteger(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

func jsonResult(v any) (*protocol.ToolCallResult, error) {
	b, err := json.MarshalIndent(v, "", " ")
	if err != nil {
		logger.Error("Failed to marshal tool result", err)
		return nil, err
	}
	return protocol.NewTextResult(string(b)), nil
}
