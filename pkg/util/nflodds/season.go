package nflodds

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/richard-senior/nflodds/internal/logger"
)

var seasonPattern = regexp.MustCompile(`^(\d{4})(?:[/-](\d{2,4}))?$`)

// CurrentSeason returns the season in progress (or next to start) at now.
// The playoffs run into February, so January and February belong to the
// previous year's season
func CurrentSeason(now time.Time) int {
	if now.Month() < time.March {
		return now.Year() - 1
	}
	return now.Year()
}

// ParseSeason accepts "2025" or "2025/2026" (the first year names the season)
// and rejects anything before the first play-by-play season or after next year
func ParseSeason(input string) (int, error) {
	input = strings.TrimSpace(input)
	m := seasonPattern.FindStringSubmatch(input)
	if m == nil {
		return 0, fmt.Errorf("season must be a year such as 2025, got: %q", input)
	}
	season, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("season must be a year such as 2025, got: %q", input)
	}
	latest := CurrentSeason(time.Now()) + 1
	if season < Config.FirstSeason || season > latest {
		return 0, fmt.Errorf("season %d is outside %d..%d", season, Config.FirstSeason, latest)
	}
	return season, nil
}

// SeasonOrDefault parses input, returning the fallback season when it cannot
func SeasonOrDefault(input string) int {
	season, err := ParseSeason(input)
	if err != nil {
		logger.Warn("Invalid season, using fallback", input, Config.FallbackSeason)
		return Config.FallbackSeason
	}
	return season
}

// PromptSeason asks for a season on w and reads a single line from r
func PromptSeason(r io.Reader, w io.Writer) int {
	fmt.Fprint(w, "Enter season year (e.g., 2025): ")
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return Config.FallbackSeason
	}
	return SeasonOrDefault(line)
}
