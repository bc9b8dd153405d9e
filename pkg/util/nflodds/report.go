package nflodds

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"
)

// RenderRecommendations prints recommendations as an aligned table
func RenderRecommendations(w io.Writer, recs []*Recommendation) error {
	if _, err := fmt.Fprintln(w, "\nBetting Recommendations (Net EPA):"); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "game_id\tteam\toff_epa\tdef_epa\tnet_epa\tbet_favorite\tconfidence\tbet_type\t")
	for _, r := range recs {
		def, net, conf := "NaN", "NaN", "NaN"
		if r.HasDefence {
			def = fmt.Sprintf("%.4f", r.DefEPAPerPlay)
			net = fmt.Sprintf("%.4f", r.NetEPAPerPlay)
			conf = fmt.Sprintf("%.4f", r.Confidence)
		}
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%s\t%s\t%s\t%s\t%s\t\n",
			r.GameID, r.Team, r.OffEPAPerPlay, def, net, r.BetFavorite, conf, r.BetType)
	}
	return tw.Flush()
}

// RenderPredictions prints a week of predictions as an aligned table.
// Lines are shown from the favourite's side, e.g. "KC -3.5"
func RenderPredictions(w io.Writer, week int, preds []*Prediction) error {
	if _, err := fmt.Fprintf(w, "\nWeek %d predictions:\n", week); err != nil {
		return err
	}
	if len(preds) == 0 {
		_, err := fmt.Fprintln(w, "no games")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MATCHUP\tSCORE\tSPREAD\tLINE\tPICK\tTOTAL\tO/U\tPICK\tRATINGS")
	for _, p := range preds {
		line, ou := "-", "-"
		if p.HasMarketSpread {
			line = FormatLine(p.HomeTeam, p.AwayTeam, p.MarketSpread)
		}
		if p.HasMarketTotal {
			ou = fmt.Sprintf("%.1f", p.MarketTotal)
		}
		fmt.Fprintf(tw, "%s @ %s\t%.1f-%.1f\t%s\t%s\t%s\t%.1f\t%s\t%s\t%s\n",
			p.AwayTeam, p.HomeTeam,
			p.AwayPoints, p.HomePoints,
			FormatLine(p.HomeTeam, p.AwayTeam, p.Margin), line, p.SpreadPick,
			p.Total, ou, p.TotalPick,
			p.RatingSource)
	}
	return tw.Flush()
}

// RenderAccuracy prints how the week's predictions fared against played games
func RenderAccuracy(w io.Writer, agg *AggregateAccuracy) error {
	if agg == nil || agg.Games == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w,
		"\nPlayed games: %d  winners: %.1f%%  margin error: %.1f  total error: %.1f\n"+
			"Spread picks: %d-%d-%d (%.1f%%)  total picks: %d-%d-%d (%.1f%%)\n",
		agg.Games, agg.WinnerAccuracy, agg.MeanMarginError, agg.MeanTotalError,
		agg.SpreadWins, agg.SpreadLosses, agg.SpreadPushes, agg.SpreadWinRate,
		agg.TotalWins, agg.TotalLosses, agg.TotalPushes, agg.TotalWinRate)
	return err
}

// FormatLine shows an expected home margin as the favourite's line.
// A margin of 3.5 for the home team reads "HOME -3.5"; zero is a pick'em
func FormatLine(home, away string, margin float64) string {
	switch {
	case margin > 0:
		return fmt.Sprintf("%s -%.1f", home, margin)
	case margin < 0:
		return fmt.Sprintf("%s -%.1f", away, math.Abs(margin))
	}
	return "PK"
}
