package nflodds

import (
	"fmt"
	"sort"
)

// TeamGameEPA is a team's offensive, defensive and net EPA per play in one game.
// DefEPAPerPlay is the negated EPA allowed so that higher is better on both sides.
// When the team never appears on defence HasDefence is false and net is left at zero
type TeamGameEPA struct {
	GameID        string  `json:"gameId" column:"game_id" dbtype:"TEXT NOT NULL" primary:"true"`
	Team          string  `json:"team" column:"team" dbtype:"TEXT NOT NULL" primary:"true" index:"true"`
	Season        int     `json:"season" column:"season" dbtype:"INTEGER" index:"true"`
	Week          int     `json:"week" column:"week" dbtype:"INTEGER"`
	OffTotalEPA   float64 `json:"offTotalEpa" column:"off_total_epa" dbtype:"REAL"`
	OffPlays      int     `json:"offPlays" column:"off_plays" dbtype:"INTEGER"`
	OffEPAPerPlay float64 `json:"offEpaPerPlay" column:"off_epa_per_play" dbtype:"REAL"`
	DefTotalEPA   float64 `json:"defTotalEpa" column:"def_total_epa" dbtype:"REAL"` // EPA allowed, not negated
	DefPlays      int     `json:"defPlays" column:"def_plays" dbtype:"INTEGER"`
	DefEPAPerPlay float64 `json:"defEpaPerPlay" column:"def_epa_per_play" dbtype:"REAL"`
	NetEPAPerPlay float64 `json:"netEpaPerPlay" column:"net_epa_per_play" dbtype:"REAL"`
	HasDefence    bool    `json:"hasDefence" column:"has_defence" dbtype:"INTEGER"`
}

func (t *TeamGameEPA) GetTableName() string { return "team_game_epa" }

func (t *TeamGameEPA) GetPrimaryKey() map[string]any {
	return map[string]any{"game_id": t.GameID, "team": t.Team}
}

func (t *TeamGameEPA) BeforeSave() error {
	if t.GameID == "" || t.Team == "" {
		return fmt.Errorf("team game EPA needs a game and a team")
	}
	return nil
}

func (t *TeamGameEPA) AfterSave() error { return nil }

type gameTeam struct {
	game string
	team string
}

type epaSum struct {
	total float64
	plays int
	week  int
}

// AggregateNetEPA groups plays into per game, per team EPA.
//
// Offence groups by (game, posteam) and defence by (game, defteam), each over
// plays that have an EPA. Offensive rows are then left joined to defensive rows,
// so a team that only appears on defence is dropped. Rows are sorted by game then team
func AggregateNetEPA(pbp *PlayByPlay) []*TeamGameEPA {
	if pbp == nil {
		return []*TeamGameEPA{}
	}
	offence := make(map[gameTeam]*epaSum)
	defence := make(map[gameTeam]*epaSum)

	add := func(m map[gameTeam]*epaSum, key gameTeam, p *Play) {
		s, ok := m[key]
		if !ok {
			s = &epaSum{week: p.Week}
			m[key] = s
		}
		s.total += p.EPA
		s.plays++
	}

	for _, p := range pbp.Plays {
		if !p.HasEPA || p.GameID == "" {
			continue
		}
		if p.PosTeam != "" {
			add(offence, gameTeam{p.GameID, p.PosTeam}, p)
		}
		if p.DefTeam != "" {
			add(defence, gameTeam{p.GameID, p.DefTeam}, p)
		}
	}

	rows := make([]*TeamGameEPA, 0, len(offence))
	for key, off := range offence {
		row := &TeamGameEPA{
			GameID:        key.game,
			Team:          key.team,
			Season:        pbp.Season,
			Week:          off.week,
			OffTotalEPA:   off.total,
			OffPlays:      off.plays,
			OffEPAPerPlay: off.total / float64(off.plays),
		}
		if def, ok := defence[key]; ok {
			row.DefTotalEPA = def.total
			row.DefPlays = def.plays
			row.DefEPAPerPlay = -def.total / float64(def.plays)
			row.NetEPAPerPlay = row.OffEPAPerPlay + row.DefEPAPerPlay
			row.HasDefence = true
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].GameID != rows[j].GameID {
			return rows[i].GameID < rows[j].GameID
		}
		return rows[i].Team < rows[j].Team
	})
	return rows
}

// SaveTeamGameEPA persists rows in a single transaction
func SaveTeamGameEPA(rows []*TeamGameEPA) error {
	return BulkSave(rows)
}

// LoadTeamGameEPA reads the stored rows for a season, ordered like AggregateNetEPA
func LoadTeamGameEPA(season int) ([]*TeamGameEPA, error) {
	return FindWhere[TeamGameEPA]("season = ? ORDER BY game_id, team", season)
}
