package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/richard-senior/nflodds/internal/logger"
	"github.com/richard-senior/nflodds/pkg/server"
	"github.com/richard-senior/nflodds/pkg/util/nflodds"
)

const usage = `usage:
  nflodds                          start the MCP server on stdio
  nflodds predict [-season N] [-week N] [-limit N] [-config file]
  nflodds week [-season N] [-config file]
  nflodds bulk-load [-seasons 2022,2023] [-config file]
`

func main() {
	logger.SetShowDateTime(true)

	// stdout belongs to the MCP client or the tables, so logs only go to file
	configFile := findConfigFlag(os.Args[1:])
	if err := nflodds.Configure(configFile); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	logger.SetLogFile(nflodds.Config.LogPath)
	if err := logger.SetLogOutput('f'); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	if level, err := logger.ParseLevel(nflodds.Config.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	logger.Info("Starting nflodds", os.Args[1:])
	defer nflodds.CloseDatabase()

	if len(os.Args) < 2 {
		startServer()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "predict":
		err = runPredict(ctx, nflodds.GetDatasourceInstance(), args, os.Stdin, os.Stdout)
	case "week":
		err = runWeek(ctx, args, os.Stdout)
	case "bulk-load":
		err = runBulkLoad(ctx, args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("Command failed:", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func startServer() {
	s := server.GetInstance()
	logger.Info("Starting MCP server...")
	if err := s.Start(); err != nil {
		logger.Error("Server error:", err)
		os.Exit(1)
	}
	logger.Info("MCP server shutting down")
}

// findConfigFlag pulls -config out of a subcommand's arguments ahead of flag parsing,
// since the configuration must be installed before anything else runs
func findConfigFlag(args []string) string {
	for i, a := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if !strings.HasPrefix(a, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.String("config", "", "YAML config file")
	return fs
}

func runPredict(ctx context.Context, ds *nflodds.Datasource, args []string, in io.Reader, out io.Writer) error {
	fs := newFlagSet("predict")
	seasonFlag := fs.String("season", "", "season year, e.g. 2025 (prompted for when omitted)")
	week := fs.Int("week", 0, "week to predict, 0 detects the current week")
	limit := fs.Int("limit", nflodds.Config.TableLimit, "rows of the recommendations table")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit < 0 {
		return fmt.Errorf("limit must not be negative, got: %d", *limit)
	}

	var season int
	if *seasonFlag == "" {
		season = nflodds.PromptSeason(in, out)
	} else {
		var err error
		if season, err = nflodds.ParseSeason(*seasonFlag); err != nil {
			return err
		}
	}

	recs, err := ds.RunRecommendations(ctx, season)
	if err != nil {
		return err
	}
	if recs.Season != season {
		fmt.Fprintf(out, "No play-by-play for %d, using %d.\n", season, recs.Season)
	}
	if err := nflodds.RenderRecommendations(out, nflodds.Head(recs.Recommendations, *limit)); err != nil {
		return err
	}

	report, err := ds.RunWeekPredictions(ctx, season, *week)
	if err != nil {
		return err
	}
	if err := nflodds.RenderPredictions(out, report.Week, report.Predictions); err != nil {
		return err
	}
	return nflodds.RenderAccuracy(out, report.Summary)
}

func runWeek(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("week")
	seasonFlag := fs.String("season", "", "season year, defaults to the current season")
	if err := fs.Parse(args); err != nil {
		return err
	}
	season, err := seasonOrCurrent(*seasonFlag)
	if err != nil {
		return err
	}

	info, err := nflodds.CurrentWeek(ctx, season)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Season %d, week %d of %d\n", info.Season, info.Week, len(info.Weeks))
	for _, g := range info.Games {
		score := ""
		if g.IsPlayed() {
			score = fmt.Sprintf("  %d-%d", g.AwayScore, g.HomeScore)
		}
		fmt.Fprintf(out, "  %s %s  %s @ %s%s\n", g.Gameday, g.Gametime, g.AwayTeam, g.HomeTeam, score)
	}
	return nil
}

func runBulkLoad(ctx context.Context, args []string) error {
	fs := newFlagSet("bulk-load")
	seasonsFlag := fs.String("seasons", "", "comma separated seasons, defaults to the configured seasons")
	if err := fs.Parse(args); err != nil {
		return err
	}
	seasons := nflodds.Config.Seasons
	if *seasonsFlag != "" {
		var err error
		if seasons, err = parseSeasons(*seasonsFlag); err != nil {
			return err
		}
	}
	logger.Info("Starting bulk data load...", seasons)
	return nflodds.GetDatasourceInstance().BulkLoad(ctx, seasons)
}

func parseSeasons(list string) ([]int, error) {
	var seasons []int
	for _, s := range strings.Split(list, ",") {
		if strings.TrimSpace(s) == "" {
			continue
		}
		season, err := nflodds.ParseSeason(s)
		if err != nil {
			return nil, err
		}
		seasons = append(seasons, season)
	}
	if len(seasons) == 0 {
		return nil, fmt.Errorf("no seasons in %q", list)
	}
	return seasons, nil
}

func seasonOrCurrent(s string) (int, error) {
	if s == "" {
		return nflodds.CurrentSeason(nflodds.GetDatasourceInstance().Now()), nil
	}
	return nflodds.ParseSeason(s)
}
