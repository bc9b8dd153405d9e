package nflodds

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/richard-senior/nflodds/internal/logger"
)

// playoff rounds as labelled in the pro-football-reference week column,
// with their offset past the last regular season week
var pfrPlayoffRounds = map[string]struct {
	offset   int
	gameType string
}{
	"WildCard":  {1, GameTypeWildcard},
	"Division":  {2, GameTypeDivision},
	"ConfChamp": {3, GameTypeConference},
	"SuperBowl": {4, GameTypeSuperBowl},
}

// LookupTeamByPfrCode finds a team from a pro-football-reference url code such as "kan"
func LookupTeamByPfrCode(code string) (*Team, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, t := range teams {
		if t.PfrCode == code {
			return t, true
		}
	}
	return nil, false
}

// TeamPageURL returns the pro-football-reference season page of team
func (d *Datasource) TeamPageURL(team *Team, season int) string {
	return fmt.Sprintf("%s/teams/%s/%d.htm", strings.TrimRight(d.PfrBaseURL, "/"), team.PfrCode, season)
}

// ScrapeWeekSchedule reads the games of one week from the pro-football-reference week page
func (d *Datasource) ScrapeWeekSchedule(ctx context.Context, season, week int) ([]*Game, error) {
	url := fmt.Sprintf("%s/years/%d/week_%d.htm", strings.TrimRight(d.PfrBaseURL, "/"), season, week)
	body, err := d.get(ctx, url)
	if err != nil {
		return nil, err
	}
	return ParsePfrWeekPage(bytes.NewReader(body), season, week)
}

// ScrapeSeasonSchedule reads a whole season from the pro-football-reference games page
func (d *Datasource) ScrapeSeasonSchedule(ctx context.Context, season int) ([]*Game, error) {
	url := fmt.Sprintf("%s/years/%d/games.htm", strings.TrimRight(d.PfrBaseURL, "/"), season)
	body, err := d.get(ctx, url)
	if err != nil {
		return nil, err
	}
	return ParsePfrSeasonPage(bytes.NewReader(body), season)
}

// ParsePfrWeekPage parses the div.game_summary boxes of a week page.
// Each box lists the away team first and the home team second
func ParsePfrWeekPage(r io.Reader, season, week int) ([]*Game, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse week page: %w", err)
	}

	var games []*Game
	doc.Find("div.game_summary").Each(func(i int, s *goquery.Selection) {
		type side struct {
			team  string
			score string
		}
		var sides []side
		s.Find("table.teams tr").Each(func(_ int, tr *goquery.Selection) {
			link := tr.Find(`a[href^="/teams/"]`).First()
			if link.Length() == 0 {
				return
			}
			team := pfrTeamFromLink(link)
			if team == "" {
				return
			}
			sides = append(sides, side{team: team, score: strings.TrimSpace(tr.Find("td.right").First().Text())})
		})
		if len(sides) < 2 {
			logger.Debug("Skipping game summary without two teams", i)
			return
		}

		g := NewGame()
		g.Season, g.Week, g.GameType = season, week, GameTypeRegular
		g.AwayTeam, g.HomeTeam = sides[0].team, sides[1].team
		g.Source = "pfr"
		if t, err := time.Parse("Jan 2, 2006", strings.TrimSpace(s.Find("table.teams tr.date td").First().Text())); err == nil {
			g.Gameday = t.Format("2006-01-02")
		}
		away, aerr := strconv.Atoi(sides[0].score)
		home, herr := strconv.Atoi(sides[1].score)
		if aerr == nil && herr == nil {
			g.AwayScore, g.HomeScore = away, home
		}
		g.GameID = GenerateGameID(season, week, g.AwayTeam, g.HomeTeam)
		games = append(games, g)
	})
	return games, nil
}

// ParsePfrSeasonPage parses table#games of a season page.
// Rows name a winner and a loser; an "@" in the location column means the
// winner was the away side. Unplayed games list the visitor as the winner
func ParsePfrSeasonPage(r io.Reader, season int) ([]*Game, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse season page: %w", err)
	}

	var games []*Game
	playoffRounds := make(map[*Game]string)
	lastRegular := 0

	doc.Find("table#games tbody tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.HasClass("thead") {
			return
		}
		cell := func(stat string) *goquery.Selection {
			return tr.Find(fmt.Sprintf(`[data-stat="%s"]`, stat)).First()
		}
		weekText := strings.TrimSpace(cell("week_num").Text())
		winner := pfrTeamFromLink(cell("winner").Find("a").First())
		loser := pfrTeamFromLink(cell("loser").Find("a").First())
		if weekText == "" || winner == "" || loser == "" {
			return
		}

		g := NewGame()
		g.Season, g.GameType, g.Source = season, GameTypeRegular, "pfr"
		if week, err := strconv.Atoi(weekText); err == nil {
			g.Week = week
			lastRegular = max(lastRegular, week)
		} else if _, ok := pfrPlayoffRounds[weekText]; ok {
			playoffRounds[g] = weekText
		} else {
			logger.Debug("Skipping row with unknown week", weekText)
			return
		}

		winPts, werr := strconv.Atoi(strings.TrimSpace(cell("pts_win").Text()))
		losePts, lerr := strconv.Atoi(strings.TrimSpace(cell("pts_lose").Text()))
		played := werr == nil && lerr == nil
		if strings.TrimSpace(cell("game_location").Text()) == "@" {
			g.AwayTeam, g.HomeTeam = winner, loser
			if played {
				g.AwayScore, g.HomeScore = winPts, losePts
			}
		} else {
			g.HomeTeam, g.AwayTeam = winner, loser
			if played {
				g.HomeScore, g.AwayScore = winPts, losePts
			}
		}

		g.Gameday = strings.TrimSpace(cell("game_date").AttrOr("csk", cell("game_date").Text()))
		if len(g.Gameday) > 10 {
			g.Gameday = g.Gameday[:10]
		}
		if t, err := time.Parse("3:04PM", strings.TrimSpace(cell("gametime").Text())); err == nil {
			g.Gametime = t.Format("15:04")
		}
		games = append(games, g)
	})

	for g, label := range playoffRounds {
		round := pfrPlayoffRounds[label]
		g.Week = lastRegular + round.offset
		g.GameType = round.gameType
	}
	for _, g := range games {
		g.GameID = GenerateGameID(season, g.Week, g.AwayTeam, g.HomeTeam)
	}
	return games, nil
}

// pfrTeamFromLink maps a /teams/<code>/<year>.htm link to an nflverse abbreviation,
// falling back to the link text
func pfrTeamFromLink(link *goquery.Selection) string {
	if link.Length() == 0 {
		return ""
	}
	if href, ok := link.Attr("href"); ok {
		parts := strings.Split(strings.Trim(href, "/"), "/")
		if len(parts) >= 2 && parts[0] == "teams" {
			if t, ok := LookupTeamByPfrCode(parts[1]); ok {
				return t.Abbr
			}
		}
	}
	if t, err := ResolveTeam(link.Text()); err == nil {
		return t.Abbr
	}
	return ""
}
