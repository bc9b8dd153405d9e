package nflodds

import (
	"fmt"
	"sort"
	"strings"

	"github.com/richard-senior/nflodds/pkg/util"
)

// Team is an NFL franchise as abbreviated by nflverse
type Team struct {
	Abbr     string `json:"abbr"`
	City     string `json:"city"`
	Nickname string `json:"nickname"`
	PfrCode  string `json:"pfrCode"` // pro-football-reference team url code
}

func (t *Team) Name() string {
	return t.City + " " + t.Nickname
}

var teams = []*Team{
	{"ARI", "Arizona", "Cardinals", "crd"},
	{"ATL", "Atlanta", "Falcons", "atl"},
	{"BAL", "Baltimore", "Ravens", "rav"},
	{"BUF", "Buffalo", "Bills", "buf"},
	{"CAR", "Carolina", "Panthers", "car"},
	{"CHI", "Chicago", "Bears", "chi"},
	{"CIN", "Cincinnati", "Bengals", "cin"},
	{"CLE", "Cleveland", "Browns", "cle"},
	{"DAL", "Dallas", "Cowboys", "dal"},
	{"DEN", "Denver", "Broncos", "den"},
	{"DET", "Detroit", "Lions", "det"},
	{"GB", "Green Bay", "Packers", "gnb"},
	{"HOU", "Houston", "Texans", "htx"},
	{"IND", "Indianapolis", "Colts", "clt"},
	{"JAX", "Jacksonville", "Jaguars", "jax"},
	{"KC", "Kansas City", "Chiefs", "kan"},
	{"LA", "Los Angeles", "Rams", "ram"},
	{"LAC", "Los Angeles", "Chargers", "sdg"},
	{"LV", "Las Vegas", "Raiders", "rai"},
	{"MIA", "Miami", "Dolphins", "mia"},
	{"MIN", "Minnesota", "Vikings", "min"},
	{"NE", "New England", "Patriots", "nwe"},
	{"NO", "New Orleans", "Saints", "nor"},
	{"NYG", "New York", "Giants", "nyg"},
	{"NYJ", "New York", "Jets", "nyj"},
	{"PHI", "Philadelphia", "Eagles", "phi"},
	{"PIT", "Pittsburgh", "Steelers", "pit"},
	{"SEA", "Seattle", "Seahawks", "sea"},
	{"SF", "San Francisco", "49ers", "sfo"},
	{"TB", "Tampa Bay", "Buccaneers", "tam"},
	{"TEN", "Tennessee", "Titans", "oti"},
	{"WAS", "Washington", "Commanders", "was"},
}

// aliases maps abbreviations used by other sites onto nflverse ones.
// Relocated franchises keep their historical codes (OAK, SD, STL) as nflverse does
var aliases = map[string]string{
	"LAR": "LA",
	"JAC": "JAX",
	"WSH": "WAS",
	"GNB": "GB",
	"KAN": "KC",
	"NWE": "NE",
	"NOR": "NO",
	"SFO": "SF",
	"TAM": "TB",
	"LVR": "LV",
}

// NormaliseTeam upper-cases an abbreviation and maps known aliases
func NormaliseTeam(abbr string) string {
	abbr = strings.ToUpper(strings.TrimSpace(abbr))
	if a, ok := aliases[abbr]; ok {
		return a
	}
	return abbr
}

// GetTeams returns all franchises sorted by abbreviation
func GetTeams() []*Team {
	ret := make([]*Team, len(teams))
	copy(ret, teams)
	sort.Slice(ret, func(i, j int) bool { return ret[i].Abbr < ret[j].Abbr })
	return ret
}

// LookupTeam finds a team by nflverse abbreviation
func LookupTeam(abbr string) (*Team, bool) {
	abbr = NormaliseTeam(abbr)
	for _, t := range teams {
		if t.Abbr == abbr {
			return t, true
		}
	}
	return nil, false
}

// ResolveTeam turns free text such as "KC", "chiefs" or "Kansas City Chiefs" into a team.
// Abbreviations and exact names win, then a query containing a nickname,
// then the closest nickname or full name by edit distance scoring at least 0.6
func ResolveTeam(query string) (*Team, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("no team given")
	}
	if t, ok := LookupTeam(q); ok {
		return t, nil
	}
	lower := strings.ToLower(q)
	for _, t := range teams {
		if lower == strings.ToLower(t.Nickname) || lower == strings.ToLower(t.Name()) {
			return t, nil
		}
	}
	for _, t := range teams {
		if strings.Contains(lower, strings.ToLower(t.Nickname)) {
			return t, nil
		}
	}

	var best *Team
	bestScore := 0.0
	for _, t := range teams {
		score := similarity(lower, strings.ToLower(t.Nickname))
		if s := similarity(lower, strings.ToLower(t.Name())); s > score {
			score = s
		}
		if score > bestScore {
			best, bestScore = t, score
		}
	}
	if best == nil || bestScore < 0.6 {
		return nil, fmt.Errorf("no team matches %q", query)
	}
	return best, nil
}

// similarity is 1 - edit distance / longer length over whole strings
func similarity(a, b string) float64 {
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(util.LevenshteinDistance(a, b))/float64(maxLen)
}
