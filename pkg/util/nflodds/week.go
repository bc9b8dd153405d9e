package nflodds

import (
	"sort"
	"time"

	"github.com/richard-senior/nflodds/internal/logger"
)

// GroupGamesByWeek buckets games by week number
func GroupGamesByWeek(games []*Game) map[int][]*Game {
	weeks := make(map[int][]*Game)
	for _, g := range games {
		weeks[g.Week] = append(weeks[g.Week], g)
	}
	return weeks
}

// GetSortedWeeks returns the week numbers present in games, ascending
func GetSortedWeeks(games []*Game) []int {
	grouped := GroupGamesByWeek(games)
	weeks := make([]int, 0, len(grouped))
	for w := range grouped {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)
	return weeks
}

// GamesInWeek returns the games of one week ordered by kickoff then id
func GamesInWeek(games []*Game, week int) []*Game {
	var ret []*Game
	for _, g := range games {
		if g.Week == week {
			ret = append(ret, g)
		}
	}
	sort.SliceStable(ret, func(i, j int) bool {
		if ret[i].Gameday+ret[i].Gametime != ret[j].Gameday+ret[j].Gametime {
			return ret[i].Gameday+ret[i].Gametime < ret[j].Gameday+ret[j].Gametime
		}
		return ret[i].GameID < ret[j].GameID
	})
	return ret
}

// DetectCurrentWeek finds the week being played at now.
//
// It is the lowest week holding an unplayed game whose kickoff date is today or later.
// Before the season starts that is the first week. Once every game is played or
// in the past it is the last week
func DetectCurrentWeek(games []*Game, now time.Time) (int, error) {
	if len(games) == 0 {
		return 0, ErrNoGames
	}
	loc := GetLocation()
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	current, last := 0, 0
	for _, g := range games {
		if g.Week > last {
			last = g.Week
		}
		if g.IsPlayed() {
			continue
		}
		kickoff, err := g.Kickoff()
		if err != nil {
			logger.Debug("Ignoring game without a usable date", g.GameID, err)
			continue
		}
		day := time.Date(kickoff.Year(), kickoff.Month(), kickoff.Day(), 0, 0, 0, 0, loc)
		if day.Before(today) {
			continue
		}
		if current == 0 || g.Week < current {
			current = g.Week
		}
	}
	if current == 0 {
		return last, nil
	}
	return current, nil
}
