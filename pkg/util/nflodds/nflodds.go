// Package nflodds predicts NFL point spreads and totals from play-by-play EPA.
//
// Play-by-play and schedules come from nflverse (with pro-football-reference as
// a fallback schedule source). Plays are reduced to per game offensive and
// defensive EPA per play, which drive both the net EPA betting recommendations
// and the week's spread and total predictions. Games, team EPA and predictions
// are persisted in sqlite through the Persistable interface.
package nflodds

import (
	"context"
	"errors"
	"fmt"
	"sync"
	_ "time/tzdata"

	"github.com/richard-senior/nflodds/internal/logger"
)

var (
	// ErrSeasonUnavailable means no play-by-play could be loaded, even after falling back
	ErrSeasonUnavailable = errors.New("season unavailable")
	// ErrNoGames means a schedule held no games for the requested season or week
	ErrNoGames = errors.New("no games in schedule")
)

// RecommendationReport is the outcome of RunRecommendations.
// Season differs from RequestedSeason when the fallback season was used
type RecommendationReport struct {
	RequestedSeason int               `json:"requestedSeason"`
	Season          int               `json:"season"`
	EPASource       string            `json:"epaSource"`
	Recommendations []*Recommendation `json:"recommendations"`
}

// WeekReport is the outcome of RunWeekPredictions
type WeekReport struct {
	Season       int                   `json:"season"`
	Week         int                   `json:"week"`
	DetectedWeek bool                  `json:"detectedWeek"`
	RatingSeason int                   `json:"ratingSeason"`
	EPASource    string                `json:"epaSource"`
	Predictions  []*Prediction         `json:"predictions"`
	Accuracy     []*PredictionAccuracy `json:"accuracy,omitempty"`
	Summary      *AggregateAccuracy    `json:"summary"`
	Ratings      []*TeamRating         `json:"ratings,omitempty"`
}

// WeekInfo is the detected week of a season and its games
type WeekInfo struct {
	Season int     `json:"season"`
	Week   int     `json:"week"`
	Weeks  []int   `json:"weeks"`
	Games  []*Game `json:"games"`
}

// RunRecommendations fetches play-by-play and turns it into net EPA recommendations
func RunRecommendations(ctx context.Context, season int) (*RecommendationReport, error) {
	return GetDatasourceInstance().RunRecommendations(ctx, season)
}

// RunWeekPredictions predicts a week of season. week <= 0 detects the current week
func RunWeekPredictions(ctx context.Context, season, week int) (*WeekReport, error) {
	return GetDatasourceInstance().RunWeekPredictions(ctx, season, week)
}

// CurrentWeek detects the current week of season
func CurrentWeek(ctx context.Context, season int) (*WeekInfo, error) {
	return GetDatasourceInstance().CurrentWeek(ctx, season)
}

func (d *Datasource) RunRecommendations(ctx context.Context, season int) (*RecommendationReport, error) {
	pbp, effective, err := d.FetchPlayByPlay(ctx, season)
	if err != nil {
		return nil, err
	}
	pbp = CalculateEPA(pbp)
	rows := AggregateNetEPA(pbp)
	logger.Info("Aggregated net EPA rows", len(rows), "season", effective)

	return &RecommendationReport{
		RequestedSeason: season,
		Season:          effective,
		EPASource:       pbp.EPASource,
		Recommendations: GenerateBettingRecommendations(rows),
	}, nil
}

func (d *Datasource) CurrentWeek(ctx context.Context, season int) (*WeekInfo, error) {
	games, err := d.FetchSchedule(ctx, season)
	if err != nil {
		return nil, err
	}
	week, err := DetectCurrentWeek(games, d.Now())
	if err != nil {
		return nil, err
	}
	return &WeekInfo{
		Season: season,
		Week:   week,
		Weeks:  GetSortedWeeks(games),
		Games:  GamesInWeek(games, week),
	}, nil
}

func (d *Datasource) RunWeekPredictions(ctx context.Context, season, week int) (*WeekReport, error) {
	var (
		wg        sync.WaitGroup
		games     []*Game
		schedErr  error
		pbp       *PlayByPlay
		pbpSeason int
		pbpErr    error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		games, schedErr = d.FetchSchedule(ctx, season)
	}()
	go func() {
		defer wg.Done()
		pbp, pbpSeason, pbpErr = d.FetchPlayByPlay(ctx, season)
	}()
	wg.Wait()

	if schedErr != nil {
		return nil, fmt.Errorf("failed to fetch schedule for %d: %w", season, schedErr)
	}

	report := &WeekReport{Season: season, Week: week}
	if week <= 0 {
		detected, err := DetectCurrentWeek(games, d.Now())
		if err != nil {
			return nil, err
		}
		report.Week, report.DetectedWeek = detected, true
		logger.Info("Detected current week", season, detected)
	}

	if len(GamesInWeek(games, report.Week)) == 0 {
		logger.Warn("Week missing from schedule, scraping pro-football-reference", season, report.Week)
		scraped, err := d.ScrapeWeekSchedule(ctx, season, report.Week)
		if err != nil {
			logger.Warn("Failed to scrape week", report.Week, err)
		}
		games = append(games, scraped...)
	}
	weekGames := GamesInWeek(games, report.Week)
	if len(weekGames) == 0 {
		return nil, fmt.Errorf("season %d week %d: %w", season, report.Week, ErrNoGames)
	}

	var current, prior, fallback map[string]*TeamRating
	if pbpErr != nil {
		logger.Warn("No play-by-play available, using prior season ratings", pbpErr)
	} else {
		pbp = CalculateEPA(pbp)
		report.EPASource = pbp.EPASource
		rows := AggregateNetEPA(pbp)
		if err := SaveTeamGameEPA(rows); err != nil {
			logger.Warn("Failed to save team EPA", err)
		}
		switch pbpSeason {
		case season:
			current = BuildTeamRatings(rows, report.Week)
			report.RatingSeason = season
		case season - 1:
			prior = BuildTeamRatings(rows, 0)
		default:
			// only used when season-1 cannot be rated
			fallback = BuildTeamRatings(rows, 0)
		}
	}
	if prior == nil && needsPrior(weekGames, current) && season-1 >= Config.FirstSeason {
		var err error
		if prior, err = d.SeasonRatings(ctx, season-1); err != nil {
			logger.Warn("Failed to build prior season ratings", season-1, err)
			prior = nil
		}
	}
	if len(prior) > 0 && report.RatingSeason == 0 {
		report.RatingSeason = season - 1
	}
	if len(prior) == 0 && fallback != nil {
		logger.Warn("No ratings for prior season, using fallback season", season-1, pbpSeason)
		prior = fallback
		if report.RatingSeason == 0 {
			report.RatingSeason = pbpSeason
		}
	}

	report.Predictions = PredictWeek(games, report.Week, current, prior)
	report.Accuracy, report.Summary = EvaluateAllPredictions(report.Predictions, games)
	if current != nil {
		report.Ratings = SortedRatings(current)
	} else {
		report.Ratings = SortedRatings(prior)
	}

	if err := SaveGames(games); err != nil {
		logger.Warn("Failed to save games", err)
	}
	if err := SavePredictions(report.Predictions); err != nil {
		logger.Warn("Failed to save predictions", err)
	}
	return report, nil
}

// needsPrior reports whether any team playing in games lacks a current rating
func needsPrior(games []*Game, current map[string]*TeamRating) bool {
	for _, g := range games {
		for _, team := range []string{g.HomeTeam, g.AwayTeam} {
			if r, ok := current[team]; !ok || r.Games == 0 {
				return true
			}
		}
	}
	return false
}
