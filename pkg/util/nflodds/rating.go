package nflodds

import "sort"

// TeamRating is a team's play weighted EPA per play over a run of games
type TeamRating struct {
	Team          string  `json:"team"`
	Games         int     `json:"games"`
	OffPlays      int     `json:"offPlays"`
	DefPlays      int     `json:"defPlays"`
	OffEPAPerPlay float64 `json:"offEpaPerPlay"`
	DefEPAPerPlay float64 `json:"defEpaPerPlay"`
	NetEPAPerPlay float64 `json:"netEpaPerPlay"`
}

// BuildTeamRatings accumulates team game rows with a week before beforeWeek.
// beforeWeek <= 0 uses every row. Rows without defence only add to offence
func BuildTeamRatings(rows []*TeamGameEPA, beforeWeek int) map[string]*TeamRating {
	type acc struct {
		games    int
		offTotal float64
		offPlays int
		defTotal float64
		defPlays int
	}
	sums := make(map[string]*acc)
	for _, r := range rows {
		if beforeWeek > 0 && r.Week >= beforeWeek {
			continue
		}
		a, ok := sums[r.Team]
		if !ok {
			a = &acc{}
			sums[r.Team] = a
		}
		a.games++
		a.offTotal += r.OffTotalEPA
		a.offPlays += r.OffPlays
		if r.HasDefence {
			a.defTotal += r.DefTotalEPA
			a.defPlays += r.DefPlays
		}
	}

	ratings := make(map[string]*TeamRating, len(sums))
	for team, a := range sums {
		tr := &TeamRating{Team: team, Games: a.games, OffPlays: a.offPlays, DefPlays: a.defPlays}
		if a.offPlays > 0 {
			tr.OffEPAPerPlay = a.offTotal / float64(a.offPlays)
		}
		if a.defPlays > 0 {
			tr.DefEPAPerPlay = -a.defTotal / float64(a.defPlays)
		}
		tr.NetEPAPerPlay = tr.OffEPAPerPlay + tr.DefEPAPerPlay
		ratings[team] = tr
	}
	return ratings
}

// SortedRatings returns ratings ordered best net EPA first
func SortedRatings(ratings map[string]*TeamRating) []*TeamRating {
	ret := make([]*TeamRating, 0, len(ratings))
	for _, r := range ratings {
		ret = append(ret, r)
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].NetEPAPerPlay != ret[j].NetEPAPerPlay {
			return ret[i].NetEPAPerPlay > ret[j].NetEPAPerPlay
		}
		return ret[i].Team < ret[j].Team
	})
	return ret
}
