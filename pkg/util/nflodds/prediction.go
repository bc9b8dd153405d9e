package nflodds

import (
	"fmt"
	"math"
	"time"
)

// Total picks
const (
	PickOver  = "Over"
	PickUnder = "Under"
)

// Prediction is the model's view of one game.
// Margin is home minus away points. Spread is the home line, i.e. -Margin
type Prediction struct {
	GameID          string  `json:"gameId" column:"game_id" dbtype:"TEXT NOT NULL" primary:"true"`
	Season          int     `json:"season" column:"season" dbtype:"INTEGER" index:"true"`
	Week            int     `json:"week" column:"week" dbtype:"INTEGER" index:"true"`
	HomeTeam        string  `json:"homeTeam" column:"home_team" dbtype:"TEXT"`
	AwayTeam        string  `json:"awayTeam" column:"away_team" dbtype:"TEXT"`
	HomePoints      float64 `json:"homePoints" column:"home_points" dbtype:"REAL"`
	AwayPoints      float64 `json:"awayPoints" column:"away_points" dbtype:"REAL"`
	Margin          float64 `json:"margin" column:"margin" dbtype:"REAL"`
	Spread          float64 `json:"spread" column:"spread" dbtype:"REAL"`
	Total           float64 `json:"total" column:"total" dbtype:"REAL"`
	MarketSpread    float64 `json:"marketSpread" column:"market_spread" dbtype:"REAL"` // nflverse spread_line, home margin
	HasMarketSpread bool    `json:"hasMarketSpread" column:"has_market_spread" dbtype:"INTEGER"`
	MarketTotal     float64 `json:"marketTotal" column:"market_total" dbtype:"REAL"`
	HasMarketTotal  bool    `json:"hasMarketTotal" column:"has_market_total" dbtype:"INTEGER"`
	SpreadEdge      float64 `json:"spreadEdge" column:"spread_edge" dbtype:"REAL"`
	SpreadPick      string  `json:"spreadPick" column:"spread_pick" dbtype:"TEXT"`
	TotalEdge       float64 `json:"totalEdge" column:"total_edge" dbtype:"REAL"`
	TotalPick       string  `json:"totalPick" column:"total_pick" dbtype:"TEXT"`
	RatingSource    string  `json:"ratingSource" column:"rating_source" dbtype:"TEXT"`
	CreatedAt       string  `json:"createdAt" column:"created_at" dbtype:"TEXT"`
}

func (p *Prediction) GetTableName() string { return "prediction" }

func (p *Prediction) GetPrimaryKey() map[string]any {
	return map[string]any{"game_id": p.GameID}
}

func (p *Prediction) BeforeSave() error {
	if p.GameID == "" {
		return fmt.Errorf("prediction has no game id")
	}
	if p.CreatedAt == "" {
		p.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return nil
}

func (p *Prediction) AfterSave() error { return nil }

// Where a game's ratings came from
const (
	RatingSourceSeason = "season"
	RatingSourcePrior  = "prior"
	RatingSourceNone   = "none"
)

// lookupRating returns the first rating found for team and which set it came from
func lookupRating(team string, current, prior map[string]*TeamRating) (*TeamRating, string) {
	if r, ok := current[team]; ok && r.Games > 0 {
		return r, RatingSourceSeason
	}
	if r, ok := prior[team]; ok && r.Games > 0 {
		return r, RatingSourcePrior
	}
	return &TeamRating{Team: team}, RatingSourceNone
}

// PredictGame predicts points for each side of game.
//
//	home = avg + plays * (home.off - away.def) + hfa/2
//	away = avg + plays * (away.off - home.def) - hfa/2
//
// Each side is floored at Config.MinPoints. Teams without a rating in the
// current season use prior, and rate zero when missing from both
func PredictGame(game *Game, current, prior map[string]*TeamRating) *Prediction {
	home, homeSrc := lookupRating(game.HomeTeam, current, prior)
	away, awaySrc := lookupRating(game.AwayTeam, current, prior)

	hfa := Config.HomeFieldAdvantage
	homePts := Config.LeagueAveragePoints + Config.PlaysPerGame*(home.OffEPAPerPlay-away.DefEPAPerPlay) + hfa/2
	awayPts := Config.LeagueAveragePoints + Config.PlaysPerGame*(away.OffEPAPerPlay-home.DefEPAPerPlay) - hfa/2
	homePts = math.Max(homePts, Config.MinPoints)
	awayPts = math.Max(awayPts, Config.MinPoints)

	p := &Prediction{
		GameID:       game.GameID,
		Season:       game.Season,
		Week:         game.Week,
		HomeTeam:     game.HomeTeam,
		AwayTeam:     game.AwayTeam,
		HomePoints:   round1(homePts),
		AwayPoints:   round1(awayPts),
		RatingSource: worstSource(homeSrc, awaySrc),
	}
	p.Margin = round1(homePts - awayPts)
	p.Spread = -p.Margin
	p.Total = round1(homePts + awayPts)

	p.SpreadPick, p.TotalPick = BetNone, BetNone
	if game.HasSpreadLine {
		p.MarketSpread, p.HasMarketSpread = game.SpreadLine, true
		p.SpreadEdge = round1(p.Margin - game.SpreadLine)
		if math.Abs(p.SpreadEdge) > Config.SpreadEdgeThreshold {
			if p.SpreadEdge > 0 {
				p.SpreadPick = game.HomeTeam
			} else {
				p.SpreadPick = game.AwayTeam
			}
		}
	}
	if game.HasTotalLine {
		p.MarketTotal, p.HasMarketTotal = game.TotalLine, true
		p.TotalEdge = round1(p.Total - game.TotalLine)
		if math.Abs(p.TotalEdge) > Config.TotalEdgeThreshold {
			if p.TotalEdge > 0 {
				p.TotalPick = PickOver
			} else {
				p.TotalPick = PickUnder
			}
		}
	}
	return p
}

// PredictWeek predicts every game of week in kickoff order
func PredictWeek(games []*Game, week int, current, prior map[string]*TeamRating) []*Prediction {
	var preds []*Prediction
	for _, g := range GamesInWeek(games, week) {
		preds = append(preds, PredictGame(g, current, prior))
	}
	return preds
}

// SavePredictions persists predictions in a single transaction
func SavePredictions(preds []*Prediction) error {
	return BulkSave(preds)
}

// LoadPredictions reads stored predictions for a season and week
func LoadPredictions(season, week int) ([]*Prediction, error) {
	return FindWhere[Prediction]("season = ? AND week = ? ORDER BY game_id", season, week)
}

func worstSource(a, b string) string {
	rank := map[string]int{RatingSourceSeason: 0, RatingSourcePrior: 1, RatingSourceNone: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
