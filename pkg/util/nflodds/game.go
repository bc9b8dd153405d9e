package nflodds

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/richard-senior/nflodds/internal/logger"
	"github.com/richard-senior/nflodds/pkg/util"
)

// Game types used by nflverse
const (
	GameTypeRegular    = "REG"
	GameTypeWildcard   = "WC"
	GameTypeDivision   = "DIV"
	GameTypeConference = "CON"
	GameTypeSuperBowl  = "SB"
)

// Game is one scheduled fixture. Scores are -1 until the game has been played
type Game struct {
	GameID        string  `json:"gameId" column:"game_id" dbtype:"TEXT NOT NULL" primary:"true"`
	Season        int     `json:"season" column:"season" dbtype:"INTEGER NOT NULL" index:"true"`
	GameType      string  `json:"gameType" column:"game_type" dbtype:"TEXT"`
	Week          int     `json:"week" column:"week" dbtype:"INTEGER NOT NULL" index:"true"`
	Gameday       string  `json:"gameday" column:"gameday" dbtype:"TEXT"`   // YYYY-MM-DD
	Gametime      string  `json:"gametime" column:"gametime" dbtype:"TEXT"` // HH:MM, schedule timezone
	HomeTeam      string  `json:"homeTeam" column:"home_team" dbtype:"TEXT NOT NULL"`
	AwayTeam      string  `json:"awayTeam" column:"away_team" dbtype:"TEXT NOT NULL"`
	HomeScore     int     `json:"homeScore" column:"home_score" dbtype:"INTEGER"`
	AwayScore     int     `json:"awayScore" column:"away_score" dbtype:"INTEGER"`
	SpreadLine    float64 `json:"spreadLine" column:"spread_line" dbtype:"REAL"` // expected home margin
	HasSpreadLine bool    `json:"hasSpreadLine" column:"has_spread_line" dbtype:"INTEGER"`
	TotalLine     float64 `json:"totalLine" column:"total_line" dbtype:"REAL"`
	HasTotalLine  bool    `json:"hasTotalLine" column:"has_total_line" dbtype:"INTEGER"`
	Source        string  `json:"source" column:"source" dbtype:"TEXT"`
}

// NewGame returns a game with unplayed scores
func NewGame() *Game {
	return &Game{HomeScore: -1, AwayScore: -1}
}

func (g *Game) GetTableName() string { return "game" }

func (g *Game) GetPrimaryKey() map[string]any {
	return map[string]any{"game_id": g.GameID}
}

func (g *Game) BeforeSave() error {
	if g.GameID == "" {
		g.GameID = GenerateGameID(g.Season, g.Week, g.AwayTeam, g.HomeTeam)
	}
	if g.HomeTeam == "" || g.AwayTeam == "" {
		return fmt.Errorf("game %s has no teams", g.GameID)
	}
	return nil
}

func (g *Game) AfterSave() error { return nil }

// IsPlayed reports whether both scores are known
func (g *Game) IsPlayed() bool {
	return g.HomeScore >= 0 && g.AwayScore >= 0
}

// Kickoff returns the kickoff time in the schedule timezone.
// A missing gametime is treated as midnight so the date still orders games
func (g *Game) Kickoff() (time.Time, error) {
	loc := GetLocation()
	if g.Gameday == "" {
		return time.Time{}, fmt.Errorf("game %s has no gameday", g.GameID)
	}
	if g.Gametime != "" {
		if t, err := time.ParseInLocation("2006-01-02 15:04", g.Gameday+" "+g.Gametime, loc); err == nil {
			return t, nil
		}
	}
	t, err := time.ParseInLocation("2006-01-02", g.Gameday, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("game %s has bad gameday %q: %w", g.GameID, g.Gameday, err)
	}
	return t, nil
}

// IsPostseason reports whether the game is a playoff game
func (g *Game) IsPostseason() bool {
	return g.GameType != "" && g.GameType != GameTypeRegular
}

// Margin returns home minus away points, only meaningful when played
func (g *Game) Margin() int {
	return g.HomeScore - g.AwayScore
}

// Total returns combined points, only meaningful when played
func (g *Game) Total() int {
	return g.HomeScore + g.AwayScore
}

func (g *Game) String() string {
	return fmt.Sprintf("%s week %d: %s @ %s", g.GameID, g.Week, g.AwayTeam, g.HomeTeam)
}

// GenerateGameID builds an id in the nflverse form 2024_01_BAL_KC
func GenerateGameID(season, week int, away, home string) string {
	return fmt.Sprintf("%d_%02d_%s_%s", season, week, away, home)
}

// ParseScheduleCSV reads an nflverse games.csv and returns the games of season.
// season <= 0 returns every season in the file
func ParseScheduleCSV(r io.Reader, season int) ([]*Game, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	headers, err := reader.Read()
	if err == io.EOF {
		return []*Game{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule header: %w", err)
	}
	headers = append([]string(nil), headers...)
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}
	for _, required := range []string{"season", "week", "home_team", "away_team"} {
		if !slices.Contains(headers, required) {
			return nil, fmt.Errorf("schedule is missing column %s", required)
		}
	}

	var games []*Game
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to parse schedule at line %d: %w", line, err)
		}
		if len(record) < len(headers) {
			logger.Warn("Skipping incomplete schedule record at line", line)
			continue
		}

		row := make(map[string]string, len(headers))
		for j, h := range headers {
			row[h] = strings.TrimSpace(record[j])
		}
		if row["home_team"] == "" || row["away_team"] == "" {
			continue
		}
		if season > 0 && row["season"] != strconv.Itoa(season) {
			continue
		}

		g, err := ParseScheduleRow(row)
		if err != nil {
			logger.Warn("Failed to parse schedule row at line", line, err)
			continue
		}
		games = append(games, g)
	}
	return games, nil
}

// ParseScheduleRow converts a games.csv row keyed by header to a Game
func ParseScheduleRow(row map[string]string) (*Game, error) {
	g := NewGame()
	var err error
	if g.Season, err = strconv.Atoi(row["season"]); err != nil {
		return nil, fmt.Errorf("bad season %q: %w", row["season"], err)
	}
	if g.Week, err = strconv.Atoi(row["week"]); err != nil {
		return nil, fmt.Errorf("bad week %q: %w", row["week"], err)
	}
	g.HomeTeam = NormaliseTeam(row["home_team"])
	g.AwayTeam = NormaliseTeam(row["away_team"])
	g.GameType = row["game_type"]
	g.Gameday = row["gameday"]
	g.Gametime = row["gametime"]
	g.GameID = row["game_id"]
	if g.GameID == "" {
		g.GameID = GenerateGameID(g.Season, g.Week, g.AwayTeam, g.HomeTeam)
	}
	g.Source = "nflverse"

	if !util.IsBlank(row["home_score"]) && !util.IsBlank(row["away_score"]) {
		hs, herr := strconv.Atoi(row["home_score"])
		as, aerr := strconv.Atoi(row["away_score"])
		if herr != nil || aerr != nil {
			return nil, fmt.Errorf("bad score %q-%q", row["home_score"], row["away_score"])
		}
		g.HomeScore, g.AwayScore = hs, as
	}

	if v, ok, err := util.ParseFloatField(row["spread_line"]); err != nil {
		return nil, fmt.Errorf("bad spread_line: %w", err)
	} else if ok {
		g.SpreadLine, g.HasSpreadLine = v, true
	}
	if v, ok, err := util.ParseFloatField(row["total_line"]); err != nil {
		return nil, fmt.Errorf("bad total_line: %w", err)
	} else if ok {
		g.TotalLine, g.HasTotalLine = v, true
	}
	return g, nil
}

// SaveGames persists games in a single transaction
func SaveGames(games []*Game) error {
	return BulkSave(games)
}

// LoadGames reads the stored schedule for a season
func LoadGames(season int) ([]*Game, error) {
	return FindWhere[Game]("season = ? ORDER BY week, gameday, gametime, game_id", season)
}
