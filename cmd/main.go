package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"victransit.dev/transit"
	"victransit.dev/transit/catalog"
	"victransit.dev/transit/config"
	"victransit.dev/transit/fetch"
	"victransit.dev/transit/stopindex"
)

var build = "develop"

var rootCmd = &cobra.Command{
	Use:          "transit",
	Short:        "Victorian multi-mode journey planner",
	Long:         "Plans earliest-arrival journeys over merged GTFS bundles",
	SilenceUsage: true,
}

var (
	feedFlags    []string
	snapshotPath string
)

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(
		&feedFlags,
		"feed",
		"",
		[]string{},
		"GTFS bundle on form <mode>=<dir> (repeatable, merge-priority order)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&snapshotPath,
		"snapshot",
		"",
		"",
		"sqlite snapshot file (loaded when present, written otherwise)",
	)
	rootCmd.AddCommand(journeyCmd)
	rootCmd.AddCommand(stopsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadPlanner assembles the catalogue, stop index and dispatcher from
// flags and the PTV_* environment.
func loadPlanner() (*transit.Dispatcher, *catalog.Catalog, *stopindex.Index, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, _, err := config.Parse(nil, build)
	if err != nil {
		return nil, nil, nil, err
	}

	feeds, err := cfg.ModeFeeds()
	if err != nil {
		return nil, nil, nil, err
	}
	for _, f := range feedFlags {
		mf, err := parseFeedFlag(f)
		if err != nil {
			return nil, nil, nil, err
		}
		feeds = append(feeds, mf)
	}
	if snapshotPath == "" {
		snapshotPath = cfg.Snapshot
	}

	cat, err := loadCatalog(feeds, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	index := stopindex.New(cat.Stops())

	fetcher := fetch.NewFetcher()
	fetcher.CacheTTL = cfg.RealtimeCacheTTL()

	dispatcher := transit.NewDispatcher(cat, index, transit.Options{
		MinTransferSecs:  cfg.MinTransferSecs,
		MaxNextDaySearch: cfg.MaxNextDaySearch,
		FuzzyMinScore:    cfg.FuzzyMinScore,
		RequestTimeout:   cfg.RequestTimeout(),
		Realtime:         fetcher,
		Logger:           logger,
	})

	return dispatcher, cat, index, nil
}

func loadCatalog(feeds []catalog.ModeFeed, logger *slog.Logger) (*catalog.Catalog, error) {
	if snapshotPath != "" {
		if _, err := os.Stat(snapshotPath); err == nil {
			logger.Info("loading catalogue snapshot", "path", snapshotPath)
			return catalog.LoadSnapshot(snapshotPath)
		}
	}

	if len(feeds) == 0 {
		return nil, fmt.Errorf("no GTFS bundles configured, pass --feed mode=dir")
	}

	cat, err := catalog.Load(feeds, logger)
	if err != nil {
		return nil, err
	}

	if snapshotPath != "" {
		if err := catalog.SaveSnapshot(cat, snapshotPath); err != nil {
			logger.Warn("writing snapshot failed", "path", snapshotPath, "error", err)
		}
	}
	return cat, nil
}

func parseFeedFlag(s string) (catalog.ModeFeed, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			if i == 0 || i == len(s)-1 {
				break
			}
			return catalog.ModeFeed{Mode: s[:i], Path: s[i+1:]}, nil
		}
	}
	return catalog.ModeFeed{}, fmt.Errorf("'%s' is not on form <mode>=<dir>", s)
}
