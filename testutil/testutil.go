package testutil

// Helpers and fixtures for tests.

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"victransit.dev/transit/catalog"
)

// WriteFeed materialises a GTFS bundle in a temp directory, one file
// per map entry, each entry a slice of CSV lines. Missing mandatory
// files get (mostly blank) dummy data so tests only spell out what
// they care about.
func WriteFeed(t testing.TB, files map[string][]string) string {
	if files["stops.txt"] == nil {
		files["stops.txt"] = []string{"stop_id,stop_name", "S1,Somewhere"}
	}
	if files["routes.txt"] == nil {
		files["routes.txt"] = []string{"route_id,route_short_name,route_type", "R1,R1,2"}
	}
	if files["trips.txt"] == nil {
		files["trips.txt"] = []string{"trip_id,route_id,service_id"}
	}
	if files["stop_times.txt"] == nil {
		files["stop_times.txt"] = []string{"trip_id,stop_id,stop_sequence,arrival_time,departure_time"}
	}

	dir := t.TempDir()
	for filename, content := range files {
		err := os.WriteFile(
			filepath.Join(dir, filename),
			[]byte(strings.Join(content, "\n")+"\n"),
			0o644,
		)
		require.NoError(t, err)
	}
	return dir
}

// LoadCatalog writes each mode's files and loads them all into one
// catalogue.
func LoadCatalog(t testing.TB, feeds map[string]map[string][]string) *catalog.Catalog {
	var modeFeeds []catalog.ModeFeed
	modes := make([]string, 0, len(feeds))
	for mode := range feeds {
		modes = append(modes, mode)
	}
	// Deterministic merge order.
	sort.Strings(modes)
	for _, mode := range modes {
		modeFeeds = append(modeFeeds, catalog.ModeFeed{Mode: mode, Path: WriteFeed(t, feeds[mode])})
	}

	cat, err := catalog.Load(modeFeeds, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	require.NoError(t, err)
	return cat
}

// GeelongFeed is a small V/Line-shaped bundle covering the Tarneit ->
// Geelong -> Waurn Ponds corridor. It carries:
//
//   - T1: Tarneit 14:17 to Geelong 14:51, weekdays
//   - T2: Geelong 14:54 to Waurn Ponds 15:08, weekdays
//   - T3: Geelong 23:50 to Waurn Ponds 24:04 (past midnight), weekdays
//   - T4: Geelong 05:10 to Waurn Ponds 05:24, weekdays
//   - T5: Moolap 10:00 to Leopold 10:15, Saturdays only
//   - Richmond, a stop no trip serves
//
// Calendars span all of 2026; tests plan on Wednesday 2026-08-26.
func GeelongFeed() map[string][]string {
	return map[string][]string{
		"agency.txt": {
			"agency_id,agency_name,agency_url,agency_timezone",
			"VL,V/Line,https://www.vline.com.au,Australia/Melbourne",
		},
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon,platform_code",
			"TAR,Tarneit Station,-37.8324,144.6947,2",
			"WVL,Wyndham Vale Station,-37.8893,144.6291,",
			"LRV,Little River Station,-37.9658,144.4982,",
			"LAR,Lara Station,-38.0234,144.4105,",
			"NSH,North Shore Station,-38.0867,144.3662,",
			"NGL,North Geelong Station,-38.1052,144.3528,",
			"GEL,Geelong Station,-38.1414,144.3596,1",
			"SGL,South Geelong Station,-38.1580,144.3623,",
			"MAR,Marshall Station,-38.1963,144.3700,",
			"WPD,Waurn Ponds Station,-38.2165,144.3065,",
			"MLP,Moolap Station,-38.1740,144.4360,",
			"LPD,Leopold Station,-38.1893,144.4701,",
			"RMD,Richmond Station,-37.8239,144.9896,",
		},
		"routes.txt": {
			"route_id,agency_id,route_short_name,route_long_name,route_type",
			"GEE,VL,Geelong,Geelong - Melbourne via Wyndham Vale,2",
			"MLB,VL,Bellarine,Geelong - Bellarine local,2",
		},
		"trips.txt": {
			"trip_id,route_id,service_id,trip_headsign,direction_id",
			"T1,GEE,WEEKDAY,Geelong,0",
			"T2,GEE,WEEKDAY,Waurn Ponds,0",
			"T3,GEE,WEEKDAY,Waurn Ponds,0",
			"T4,GEE,WEEKDAY,Waurn Ponds,0",
			"T5,MLB,SATONLY,Leopold,0",
		},
		"stop_times.txt": {
			"trip_id,stop_id,stop_sequence,arrival_time,departure_time",
			"T1,TAR,1,14:17:00,14:17:00",
			"T1,WVL,2,14:24:00,14:24:00",
			"T1,LRV,3,14:31:00,14:31:00",
			"T1,LAR,4,14:38:00,14:38:00",
			"T1,NSH,5,14:43:00,14:43:00",
			"T1,NGL,6,14:47:00,14:47:00",
			"T1,GEL,7,14:51:00,14:51:00",
			"T2,GEL,1,14:54:00,14:54:00",
			"T2,SGL,2,14:58:00,14:58:00",
			"T2,MAR,3,15:03:00,15:03:00",
			"T2,WPD,4,15:08:00,15:08:00",
			"T3,GEL,1,23:50:00,23:50:00",
			"T3,SGL,2,23:54:00,23:54:00",
			"T3,MAR,3,23:59:00,23:59:00",
			"T3,WPD,4,24:04:00,24:04:00",
			"T4,GEL,1,05:10:00,05:10:00",
			"T4,SGL,2,05:14:00,05:14:00",
			"T4,MAR,3,05:19:00,05:19:00",
			"T4,WPD,4,05:24:00,05:24:00",
			"T5,MLP,1,10:00:00,10:00:00",
			"T5,LPD,2,10:15:00,10:15:00",
		},
		"calendar.txt": {
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"WEEKDAY,1,1,1,1,1,0,0,20260101,20261231",
			"SATONLY,0,0,0,0,0,1,0,20260101,20261231",
		},
	}
}
