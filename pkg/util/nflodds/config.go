package nflodds

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// NflOddsConfig contains every tunable that influences fetching, ratings and predictions
type NflOddsConfig struct {
	// Database and cache parameters
	AssetsPath string `yaml:"assets_path"` // base directory for everything nflodds writes
	CachePath  string `yaml:"cache_path"`  // downloaded csv files
	DbPath     string `yaml:"db_path"`     // sqlite database
	LogPath    string `yaml:"log_path"`    // log file used when logging to file

	// === DATA SOURCES ===
	PlayByPlayURL string `yaml:"play_by_play_url"` // fmt template taking the season year
	ScheduleURL   string `yaml:"schedule_url"`     // every game since 1999, one row per game
	PfrBaseURL    string `yaml:"pfr_base_url"`     // pro-football-reference, fallback schedule source

	// === SEASONS ===
	FallbackSeason int    `yaml:"fallback_season"` // used when the requested season has no data
	FirstSeason    int    `yaml:"first_season"`    // earliest season with play-by-play
	Seasons        []int  `yaml:"seasons"`         // seasons loaded by bulk-load
	Timezone       string `yaml:"timezone"`        // kickoff times in the schedule are local to this zone

	// === EPA ===
	InitialEPA float64 `yaml:"initial_epa"` // EPA given to plays when expected points are missing

	// === BETTING RECOMMENDATIONS ===
	ConfidenceThreshold float64 `yaml:"confidence_threshold"` // |net EPA per play| above this is a Spread bet

	// === SPREAD AND TOTAL PREDICTION ===
	LeagueAveragePoints float64 `yaml:"league_average_points"` // points per team per game
	PlaysPerGame        float64 `yaml:"plays_per_game"`        // offensive plays per team per game
	HomeFieldAdvantage  float64 `yaml:"home_field_advantage"`  // points
	MinPoints           float64 `yaml:"min_points"`            // floor for a team's predicted points
	SpreadEdgeThreshold float64 `yaml:"spread_edge_threshold"` // points of disagreement with the line needed for a pick
	TotalEdgeThreshold  float64 `yaml:"total_edge_threshold"`

	// === TRANSPORT AND CACHING ===
	CacheTTL    time.Duration `yaml:"cache_ttl"`    // max age of the current season's cached files
	HTTPTimeout time.Duration `yaml:"http_timeout"` // whole request timeout

	// === OUTPUT ===
	TableLimit int    `yaml:"table_limit"` // rows shown in the recommendations table
	APIPort    string `yaml:"api_port"`
	LogLevel   string `yaml:"log_level"`
}

// DefaultConfig returns the configuration with all standard values
func DefaultConfig() *NflOddsConfig {
	assets := ".nflodds"
	if home, err := os.UserHomeDir(); err == nil {
		assets = filepath.Join(home, ".nflodds")
	}
	return &NflOddsConfig{
		AssetsPath: assets,
		CachePath:  filepath.Join(assets, "cache"),
		DbPath:     filepath.Join(assets, "nflodds.db"),
		LogPath:    "/tmp/nflodds.log",

		PlayByPlayURL: "https://github.com/nflverse/nflverse-data/releases/download/pbp/play_by_play_%d.csv.gz",
		ScheduleURL:   "https://raw.githubusercontent.com/nflverse/nfldata/master/data/games.csv",
		PfrBaseURL:    "https://www.pro-football-reference.com",

		FallbackSeason: 2024,
		FirstSeason:    1999,
		Seasons:        []int{2022, 2023, 2024, 2025},
		Timezone:       "America/New_York",

		InitialEPA: 0.0,

		ConfidenceThreshold: 0.05,

		LeagueAveragePoints: 22.0,
		PlaysPerGame:        62.0,
		HomeFieldAdvantage:  1.5,
		MinPoints:           0.0,
		SpreadEdgeThreshold: 1.5,
		TotalEdgeThreshold:  2.0,

		CacheTTL:    6 * time.Hour,
		HTTPTimeout: 60 * time.Second,

		TableLimit: 10,
		APIPort:    "8080",
		LogLevel:   "info",
	}
}

// Global configuration instance
var Config *NflOddsConfig

func init() {
	Config = DefaultConfig()
}

// UpdateConfig replaces the global configuration
func UpdateConfig(newConfig *NflOddsConfig) {
	Config = newConfig
}

// LoadConfigFile overlays the YAML file at path onto the defaults.
// Keys missing from the file keep their default value
func LoadConfigFile(path string) (*NflOddsConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	c := DefaultConfig()
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.applyAssetsPath(raw)
	if err := ValidateConfig(c); err != nil {
		return nil, err
	}
	return c, nil
}

// applyAssetsPath re-derives cache and db paths from assets_path when the
// file moved the assets directory without naming the other two
func (c *NflOddsConfig) applyAssetsPath(raw []byte) {
	var keys map[string]any
	if err := yaml.Unmarshal(raw, &keys); err != nil {
		return
	}
	if _, ok := keys["assets_path"]; !ok {
		return
	}
	if _, ok := keys["cache_path"]; !ok {
		c.CachePath = filepath.Join(c.AssetsPath, "cache")
	}
	if _, ok := keys["db_path"]; !ok {
		c.DbPath = filepath.Join(c.AssetsPath, "nflodds.db")
	}
}

// Configure builds the global configuration from defaults, the optional YAML
// file at path, the .env file and NFLODDS_* variables, in that order
func Configure(path string) error {
	c := DefaultConfig()
	if path != "" {
		var err error
		if c, err = LoadConfigFile(path); err != nil {
			return err
		}
	}
	if err := LoadEnv(c, ".env"); err != nil {
		return err
	}
	UpdateConfig(c)
	return nil
}

// LoadEnv reads optional dotenv files and then applies NFLODDS_* variables to c.
// Variables already present in the environment win over the files
func LoadEnv(c *NflOddsConfig, files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	if v := os.Getenv("NFLODDS_ASSETS_PATH"); v != "" {
		c.AssetsPath = v
		c.CachePath = filepath.Join(v, "cache")
		c.DbPath = filepath.Join(v, "nflodds.db")
	}
	if v := os.Getenv("NFLODDS_CACHE_PATH"); v != "" {
		c.CachePath = v
	}
	if v := os.Getenv("NFLODDS_DB_PATH"); v != "" {
		c.DbPath = v
	}
	if v := os.Getenv("NFLODDS_LOG_PATH"); v != "" {
		c.LogPath = v
	}
	if v := os.Getenv("NFLODDS_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("NFLODDS_API_PORT"); v != "" {
		c.APIPort = v
	}
	if v := os.Getenv("NFLODDS_FALLBACK_SEASON"); v != "" {
		season, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("NFLODDS_FALLBACK_SEASON must be a year, got: %s", v)
		}
		c.FallbackSeason = season
	}
	return ValidateConfig(c)
}

// === CONFIGURATION VALIDATION ===

// ValidateConfig ensures all configuration values are within reasonable ranges
func ValidateConfig(config *NflOddsConfig) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}
	if config.ConfidenceThreshold <= 0 {
		return fmt.Errorf("ConfidenceThreshold must be positive, got: %f", config.ConfidenceThreshold)
	}
	if config.PlaysPerGame <= 0 {
		return fmt.Errorf("PlaysPerGame must be positive, got: %f", config.PlaysPerGame)
	}
	if config.LeagueAveragePoints <= 0 || config.LeagueAveragePoints > 60 {
		return fmt.Errorf("LeagueAveragePoints should be between 0 and 60, got: %f", config.LeagueAveragePoints)
	}
	if config.HomeFieldAdvantage < 0 || config.HomeFieldAdvantage > 10 {
		return fmt.Errorf("HomeFieldAdvantage should be between 0 and 10, got: %f", config.HomeFieldAdvantage)
	}
	if config.MinPoints < 0 {
		return fmt.Errorf("MinPoints cannot be negative, got: %f", config.MinPoints)
	}
	if config.SpreadEdgeThreshold < 0 || config.TotalEdgeThreshold < 0 {
		return fmt.Errorf("edge thresholds cannot be negative, got: %f and %f", config.SpreadEdgeThreshold, config.TotalEdgeThreshold)
	}
	if config.FirstSeason < 1999 {
		return fmt.Errorf("FirstSeason cannot be before 1999, got: %d", config.FirstSeason)
	}
	if config.FallbackSeason < config.FirstSeason {
		return fmt.Errorf("FallbackSeason must be %d or later, got: %d", config.FirstSeason, config.FallbackSeason)
	}
	for _, s := range config.Seasons {
		if s < config.FirstSeason {
			return fmt.Errorf("season %d is before the first season with play-by-play (%d)", s, config.FirstSeason)
		}
	}
	if config.TableLimit < 1 {
		return fmt.Errorf("TableLimit must be at least 1, got: %d", config.TableLimit)
	}
	if config.PlayByPlayURL == "" || config.ScheduleURL == "" {
		return fmt.Errorf("data source URLs must be set")
	}
	if _, err := time.LoadLocation(config.Timezone); err != nil {
		return fmt.Errorf("Timezone %q is not valid: %w", config.Timezone, err)
	}
	return nil
}

// GetCachePath returns the cache directory, creating it if needed
func GetCachePath() (string, error) {
	if err := os.MkdirAll(Config.CachePath, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	return Config.CachePath, nil
}

// GetDbPath returns the database path, creating its directory if needed
func GetDbPath() (string, error) {
	if Config.DbPath == ":memory:" {
		return Config.DbPath, nil
	}
	if err := os.MkdirAll(filepath.Dir(Config.DbPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return Config.DbPath, nil
}

// GetLocation returns the schedule's timezone, UTC if it cannot be loaded
func GetLocation() *time.Location {
	loc, err := time.LoadLocation(Config.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
