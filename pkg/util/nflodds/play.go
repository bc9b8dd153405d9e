package nflodds

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/richard-senior/nflodds/internal/logger"
	"github.com/richard-senior/nflodds/pkg/util"
)

// Placeholder values used when play-by-play lacks a column
const (
	MockGameID  = "MOCK"
	MockOffence = "OFF"
	MockDefence = "DEF"
)

// Where the EPA of each play came from
const (
	EPASourceExpectedPoints = "ep-ep_before"
	EPASourceProvider       = "epa"
	EPASourceInitial        = "initial"
	EPASourceMock           = "mock"
)

// Play is a single play-by-play row reduced to the fields needed for EPA
type Play struct {
	GameID  string
	PosTeam string
	DefTeam string
	Season  int
	Week    int

	EP             float64
	HasEP          bool
	EPBefore       float64
	HasEPBefore    bool
	ProviderEPA    float64
	HasProviderEPA bool

	// EPA is set by CalculateEPA. HasEPA is false when it could not be derived
	EPA    float64
	HasEPA bool
}

// PlayByPlay is a season of plays plus the set of columns present in the source
type PlayByPlay struct {
	Season    int
	Columns   map[string]bool
	Plays     []*Play
	EPASource string
}

// HasColumn reports whether the source carried the named column
func (p *PlayByPlay) HasColumn(name string) bool {
	return p.Columns[name]
}

// ParsePlayByPlayCSV streams an nflverse play-by-play csv.
// Only the handful of columns used for EPA are kept
func ParsePlayByPlayCSV(r io.Reader) (*PlayByPlay, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	pbp := &PlayByPlay{Columns: make(map[string]bool)}

	header, err := reader.Read()
	if err == io.EOF {
		return pbp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read play-by-play header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		idx[h] = i
		pbp.Columns[h] = true
	}
	get := func(record []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	number := func(record []string, name string, line int) (float64, bool) {
		v, ok, err := util.ParseFloatField(get(record, name))
		if err != nil {
			logger.Debug("Ignoring bad value at line", line, name, err)
			return 0, false
		}
		return v, ok
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to parse play-by-play at line %d: %w", line, err)
		}

		p := &Play{
			GameID:  get(record, "game_id"),
			PosTeam: NormaliseTeam(nullable(get(record, "posteam"))),
			DefTeam: NormaliseTeam(nullable(get(record, "defteam"))),
		}
		if s := get(record, "season"); s != "" {
			p.Season, _ = strconv.Atoi(s)
		}
		if w := get(record, "week"); w != "" {
			p.Week, _ = strconv.Atoi(w)
		}
		p.EP, p.HasEP = number(record, "ep", line)
		p.EPBefore, p.HasEPBefore = number(record, "ep_before", line)
		p.ProviderEPA, p.HasProviderEPA = number(record, "epa", line)
		pbp.Plays = append(pbp.Plays, p)

		if pbp.Season == 0 && p.Season > 0 {
			pbp.Season = p.Season
		}
	}
	return pbp, nil
}

func nullable(v string) string {
	if util.IsBlank(v) {
		return ""
	}
	return v
}

// CalculateEPA sets the EPA of every play.
//
// EPA is ep - ep_before when both columns exist. When either is missing the
// provider's own epa column is used if present, otherwise every play gets
// Config.InitialEPA and missing team or game columns are filled with placeholders
func CalculateEPA(pbp *PlayByPlay) *PlayByPlay {
	if pbp == nil {
		pbp = &PlayByPlay{}
	}
	if pbp.Columns == nil {
		pbp.Columns = make(map[string]bool)
	}

	if len(pbp.Plays) == 0 {
		logger.Warn("Play-by-play data is empty, creating mock EPA column")
		for _, c := range []string{"epa", "posteam", "defteam", "game_id"} {
			pbp.Columns[c] = true
		}
		pbp.EPASource = EPASourceMock
		return pbp
	}

	if !pbp.HasColumn("ep") || !pbp.HasColumn("ep_before") {
		if pbp.HasColumn("epa") {
			logger.Info("Columns 'ep' or 'ep_before' missing, using the provider epa column")
			for _, p := range pbp.Plays {
				p.EPA, p.HasEPA = p.ProviderEPA, p.HasProviderEPA
			}
			pbp.EPASource = EPASourceProvider
			return pbp
		}

		logger.Warn("Columns 'ep' or 'ep_before' missing, creating mock EPA column")
		fillDef := !pbp.HasColumn("defteam")
		fillPos := !pbp.HasColumn("posteam")
		fillGame := !pbp.HasColumn("game_id")
		for _, p := range pbp.Plays {
			p.EPA, p.HasEPA = Config.InitialEPA, true
			if fillDef {
				p.DefTeam = MockDefence
			}
			if fillPos {
				p.PosTeam = MockOffence
			}
			if fillGame {
				p.GameID = MockGameID
			}
		}
		pbp.Columns["epa"] = true
		pbp.Columns["defteam"] = true
		pbp.Columns["posteam"] = true
		pbp.Columns["game_id"] = true
		pbp.EPASource = EPASourceInitial
		return pbp
	}

	for _, p := range pbp.Plays {
		if p.HasEP && p.HasEPBefore {
			p.EPA, p.HasEPA = p.EP-p.EPBefore, true
		} else {
			p.EPA, p.HasEPA = 0, false
		}
	}
	pbp.Columns["epa"] = true
	pbp.EPASource = EPASourceExpectedPoints
	return pbp
}
