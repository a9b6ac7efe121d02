// Package config holds the recognised planner settings, parsed from
// environment variables (prefix PTV) and flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ardanlabs/conf"

	"victransit.dev/transit/catalog"
)

// EnvPrefix namespaces the environment variables, e.g.
// PTV_MIN_TRANSFER_SECS.
const EnvPrefix = "PTV"

// Config enumerates every recognised option with its default.
type Config struct {
	conf.Version

	// Feeds is a comma-separated list of mode=path pairs naming the
	// GTFS bundles to load, in merge-priority order.
	Feeds string

	// Snapshot, when set, names a sqlite file: loaded instead of the
	// CSV bundles when it exists, written after a CSV load otherwise.
	Snapshot string

	MinTransferSecs      int `conf:"default:120"`
	MaxNextDaySearch     int `conf:"default:7"`
	FuzzyMinScore        int `conf:"default:60"`
	RealtimeCacheTTLSecs int `conf:"default:60"`
	RequestTimeoutSecs   int `conf:"default:10"`
}

// Parse reads args and the PTV_* environment. The returned bool is
// true when help or version output was printed and the caller should
// exit cleanly.
func Parse(args []string, build string) (Config, bool, error) {
	cfg := Config{}
	cfg.Version.SVN = build
	cfg.Version.Desc = "Multi-mode GTFS journey planner"

	if err := conf.Parse(args, EnvPrefix, &cfg); err != nil {
		switch err {
		case conf.ErrHelpWanted:
			usage, err := conf.Usage(EnvPrefix, &cfg)
			if err != nil {
				return cfg, false, fmt.Errorf("generating config usage: %w", err)
			}
			fmt.Println(usage)
			return cfg, true, nil
		case conf.ErrVersionWanted:
			version, err := conf.VersionString(EnvPrefix, &cfg)
			if err != nil {
				return cfg, false, fmt.Errorf("generating config version: %w", err)
			}
			fmt.Println(version)
			return cfg, true, nil
		}
		return cfg, false, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, false, nil
}

// ModeFeeds expands the Feeds option into loadable pairs.
func (c Config) ModeFeeds() ([]catalog.ModeFeed, error) {
	if strings.TrimSpace(c.Feeds) == "" {
		return nil, nil
	}

	var feeds []catalog.ModeFeed
	for _, part := range strings.Split(c.Feeds, ",") {
		mode, path, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || mode == "" || path == "" {
			return nil, fmt.Errorf("malformed feed entry '%s', want mode=path", part)
		}
		feeds = append(feeds, catalog.ModeFeed{Mode: mode, Path: path})
	}
	return feeds, nil
}

// RequestTimeout returns the per-request wall-clock budget.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// RealtimeCacheTTL returns the overlay blob cache lifetime.
func (c Config) RealtimeCacheTTL() time.Duration {
	return time.Duration(c.RealtimeCacheTTLSecs) * time.Second
}
