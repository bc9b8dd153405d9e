package nflodds

import (
	"math"

	"github.com/richard-senior/nflodds/internal/logger"
)

const (
	BetFavorite = "Bet"
	BetAvoid    = "Avoid"
	BetSpread   = "Spread"
	BetNone     = "No Bet"
)

// Recommendation is a betting call for one team in one game derived from net EPA.
// Defence, net and confidence are zero when HasDefence is false
type Recommendation struct {
	GameID        string  `json:"gameId"`
	Team          string  `json:"team"`
	OffEPAPerPlay float64 `json:"offEpaPerPlay"`
	DefEPAPerPlay float64 `json:"defEpaPerPlay"`
	NetEPAPerPlay float64 `json:"netEpaPerPlay"`
	HasDefence    bool    `json:"hasDefence"`
	BetFavorite   string  `json:"betFavorite"`
	Confidence    float64 `json:"confidence"`
	BetType       string  `json:"betType"`
}

// MockRecommendationInput is substituted when there is no net EPA at all
func MockRecommendationInput() []*TeamGameEPA {
	return []*TeamGameEPA{
		{GameID: "MOCK_1", Team: "TeamA", OffEPAPerPlay: 0.05, DefEPAPerPlay: 0.03, NetEPAPerPlay: 0.08, HasDefence: true},
		{GameID: "MOCK_1", Team: "TeamB", OffEPAPerPlay: -0.02, DefEPAPerPlay: -0.01, NetEPAPerPlay: -0.03, HasDefence: true},
	}
}

// GenerateBettingRecommendations turns net EPA rows into recommendations, one per row, in order.
//
// Positive net EPA is a Bet, anything else (including a missing defence) is Avoid.
// Confidence is |net| and only confidence strictly above Config.ConfidenceThreshold earns a Spread bet
func GenerateBettingRecommendations(rows []*TeamGameEPA) []*Recommendation {
	if len(rows) == 0 {
		logger.Warn("Net EPA data empty, creating mock recommendations")
		rows = MockRecommendationInput()
	}

	recs := make([]*Recommendation, 0, len(rows))
	for _, row := range rows {
		rec := &Recommendation{
			GameID:        row.GameID,
			Team:          row.Team,
			OffEPAPerPlay: row.OffEPAPerPlay,
			HasDefence:    row.HasDefence,
			BetFavorite:   BetAvoid,
			BetType:       BetNone,
		}
		if row.HasDefence {
			rec.DefEPAPerPlay = row.DefEPAPerPlay
			rec.NetEPAPerPlay = row.NetEPAPerPlay
			rec.Confidence = math.Abs(row.NetEPAPerPlay)
			if row.NetEPAPerPlay > 0 {
				rec.BetFavorite = BetFavorite
			}
			if rec.Confidence > Config.ConfidenceThreshold {
				rec.BetType = BetSpread
			}
		}
		recs = append(recs, rec)
	}
	return recs
}

// Head returns at most the first n recommendations
func Head(recs []*Recommendation, n int) []*Recommendation {
	if n < 0 || n >= len(recs) {
		return recs
	}
	return recs[:n]
}
