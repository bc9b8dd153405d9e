package nflodds

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/richard-senior/nflodds/internal/logger"
	"github.com/richard-senior/nflodds/pkg/transport"
)

// Datasource fetches nflverse play-by-play and schedules, caching files on disk
type Datasource struct {
	PlayByPlayURL string // fmt template taking the season
	ScheduleURL   string
	PfrBaseURL    string
	CachePath     string // empty disables the file cache
	Now           func() time.Time
}

var (
	datasourceInstance *Datasource
	datasourceOnce     sync.Once
)

// GetDatasourceInstance returns the singleton Datasource built from Config
func GetDatasourceInstance() *Datasource {
	datasourceOnce.Do(func() {
		datasourceInstance = NewDatasource(Config)
		transport.Configure(transport.ClientOptions{Timeout: Config.HTTPTimeout})
	})
	return datasourceInstance
}

// NewDatasource builds a Datasource from c
func NewDatasource(c *NflOddsConfig) *Datasource {
	return &Datasource{
		PlayByPlayURL: c.PlayByPlayURL,
		ScheduleURL:   c.ScheduleURL,
		PfrBaseURL:    c.PfrBaseURL,
		CachePath:     c.CachePath,
		Now:           time.Now,
	}
}

/////////////////////////////////////////////////////////////////////////
////// Play-by-play
/////////////////////////////////////////////////////////////////////////

// FetchPlayByPlay loads the play-by-play for season, returning it with the season actually used.
// When the season cannot be fetched or holds no plays the fallback season is
// tried once. An empty fallback season is returned as is
func (d *Datasource) FetchPlayByPlay(ctx context.Context, season int) (*PlayByPlay, int, error) {
	pbp, err := d.LoadPlayByPlay(ctx, season)
	if err == nil && len(pbp.Plays) > 0 {
		return pbp, season, nil
	}
	if err != nil {
		logger.Warn("Failed to load play-by-play for season", season, err)
	} else {
		logger.Warn("No play-by-play data for season", season)
	}

	fallback := Config.FallbackSeason
	if season == fallback {
		if err != nil {
			return nil, season, fmt.Errorf("%w: %d: %w", ErrSeasonUnavailable, season, err)
		}
		return pbp, season, nil
	}

	logger.Warn("Falling back to season", fallback)
	pbp, err = d.LoadPlayByPlay(ctx, fallback)
	if err != nil {
		return nil, fallback, fmt.Errorf("%w: %d: %w", ErrSeasonUnavailable, fallback, err)
	}
	return pbp, fallback, nil
}

// LoadPlayByPlay fetches and parses a single season with no fallback
func (d *Datasource) LoadPlayByPlay(ctx context.Context, season int) (*PlayByPlay, error) {
	url := fmt.Sprintf(d.PlayByPlayURL, season)
	data, err := d.fetchCached(ctx, url, fmt.Sprintf("pbp-%d.csv", season), season)
	if err != nil {
		return nil, err
	}
	pbp, err := ParsePlayByPlayCSV(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if pbp.Season == 0 {
		pbp.Season = season
	}
	for _, p := range pbp.Plays {
		if p.Season == 0 {
			p.Season = season
		}
	}
	logger.Info("Loaded plays for season", season, len(pbp.Plays))
	return pbp, nil
}

// SeasonRatings builds full season ratings, from the database when the season
// was bulk loaded and from play-by-play otherwise
func (d *Datasource) SeasonRatings(ctx context.Context, season int) (map[string]*TeamRating, error) {
	rows, err := LoadTeamGameEPA(season)
	if err != nil {
		logger.Warn("Failed to read stored team EPA", season, err)
	}
	if len(rows) == 0 {
		pbp, err := d.LoadPlayByPlay(ctx, season)
		if err != nil {
			return nil, err
		}
		rows = AggregateNetEPA(CalculateEPA(pbp))
		if err := SaveTeamGameEPA(rows); err != nil {
			logger.Warn("Failed to save team EPA", err)
		}
	}
	return BuildTeamRatings(rows, 0), nil
}

/////////////////////////////////////////////////////////////////////////
////// Schedule
/////////////////////////////////////////////////////////////////////////

// FetchSchedule returns the games of season from the nflverse games file.
// If that cannot be fetched or parsed the season is scraped from pro-football-reference
func (d *Datasource) FetchSchedule(ctx context.Context, season int) ([]*Game, error) {
	games, err := d.fetchNflverseSchedule(ctx, season)
	if err == nil && len(games) > 0 {
		return games, nil
	}
	if err != nil {
		logger.Warn("nflverse schedule unavailable, trying pro-football-reference", err)
	} else {
		logger.Warn("nflverse schedule has no games for season", season)
	}

	games, serr := d.ScrapeSeasonSchedule(ctx, season)
	if serr != nil {
		if err == nil {
			return nil, fmt.Errorf("season %d: %w: %w", season, ErrNoGames, serr)
		}
		return nil, fmt.Errorf("failed to fetch schedule for %d: %w", season, errors.Join(err, serr))
	}
	if len(games) == 0 {
		return nil, fmt.Errorf("season %d: %w", season, ErrNoGames)
	}
	return games, nil
}

func (d *Datasource) fetchNflverseSchedule(ctx context.Context, season int) ([]*Game, error) {
	data, err := d.fetchCached(ctx, d.ScheduleURL, "games.csv", season)
	if err != nil {
		return nil, err
	}
	return ParseScheduleCSV(bytes.NewReader(data), season)
}

/////////////////////////////////////////////////////////////////////////
////// Bulk loading
/////////////////////////////////////////////////////////////////////////

// BulkLoad stores the schedule and team EPA of each season.
// A failing season is logged and skipped; all failures are returned together
func (d *Datasource) BulkLoad(ctx context.Context, seasons []int) error {
	var errs []error
	for _, season := range seasons {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Info("Loading season", season)

		games, err := d.FetchSchedule(ctx, season)
		if err != nil {
			logger.Warn("Failed to load schedule for season", season, err)
			errs = append(errs, err)
		} else if err := SaveGames(games); err != nil {
			errs = append(errs, fmt.Errorf("failed to save games for %d: %w", season, err))
		}

		pbp, err := d.LoadPlayByPlay(ctx, season)
		if err != nil {
			logger.Warn("Failed to load play-by-play for season", season, err)
			errs = append(errs, err)
			continue
		}
		rows := AggregateNetEPA(CalculateEPA(pbp))
		if err := SaveTeamGameEPA(rows); err != nil {
			errs = append(errs, fmt.Errorf("failed to save team EPA for %d: %w", season, err))
			continue
		}
		logger.Info("Saved season", season, "games", len(games), "team games", len(rows))
	}
	logger.Info("Bulk data load completed")
	return errors.Join(errs...)
}

/////////////////////////////////////////////////////////////////////////
////// Transport and caching
/////////////////////////////////////////////////////////////////////////

// fetchCached returns url's body, going through a cache file called name.
// Files for completed seasons never expire. The current season's files are
// refetched after Config.CacheTTL, falling back to the stale copy if that fails
func (d *Datasource) fetchCached(ctx context.Context, url, name string, season int) ([]byte, error) {
	if d.CachePath == "" {
		return d.get(ctx, url)
	}
	path := filepath.Join(d.CachePath, name)

	var stale []byte
	if info, err := os.Stat(path); err == nil {
		data, rerr := os.ReadFile(path)
		switch {
		case rerr != nil:
			logger.Warn("Failed to read cache file", path, rerr)
		case !hasRows(data):
			logger.Warn("Cache file has no rows, refetching", path)
		case season != CurrentSeason(d.Now()) || d.Now().Sub(info.ModTime()) < Config.CacheTTL:
			logger.Debug("Returning data from cached file", path)
			return data, nil
		default:
			logger.Info("Cache file is stale", path)
			stale = data
		}
	}

	data, err := d.get(ctx, url)
	if err != nil {
		if stale != nil {
			logger.Warn("Fetch failed, using stale cache file", path, err)
			return stale, nil
		}
		return nil, err
	}
	if hasRows(data) {
		writeCacheFile(path, data)
	}
	return data, nil
}

// hasRows reports whether a csv body holds a header and at least one record
func hasRows(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	i := bytes.IndexByte(trimmed, '\n')
	return i >= 0 && len(bytes.TrimSpace(trimmed[i:])) > 0
}

// writeCacheFile replaces path via a rename so readers never see a partial file
func writeCacheFile(path string, data []byte) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		logger.Warn("Failed to create cache directory", filepath.Dir(path), err)
		return
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		logger.Warn("Failed to write cache file", path, err)
		return
	}
	_, werr := tmp.Write(data)
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Chmod(tmp.Name(), 0644)
	}
	if werr == nil {
		werr = os.Rename(tmp.Name(), path)
	}
	if werr != nil {
		os.Remove(tmp.Name())
		logger.Warn("Failed to write cache file", path, werr)
		return
	}
	logger.Info("Cached data to", path)
}

// get performs an HTTP GET, decoding compressed bodies
func (d *Datasource) get(ctx context.Context, url string) ([]byte, error) {
	logger.Inform("HTTP get called for", url)
	return transport.Get(ctx, url)
}
