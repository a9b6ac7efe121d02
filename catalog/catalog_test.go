package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"victransit.dev/transit/catalog"
	"victransit.dev/transit/testutil"
)

func TestGlobalIDRoundTrip(t *testing.T) {
	id := catalog.GlobalID("vline", "19854")
	assert.Equal(t, "vline:19854", id)
	assert.Equal(t, "19854", catalog.RawID(id))
	assert.Equal(t, "vline", catalog.ModeOf(id))

	// Unprefixed ids pass through.
	assert.Equal(t, "19854", catalog.RawID("19854"))
	assert.Equal(t, "", catalog.ModeOf("19854"))
}

func TestLoadSingleMode(t *testing.T) {
	cat := testutil.LoadCatalog(t, map[string]map[string][]string{
		"vline": testutil.GeelongFeed(),
	})

	assert.Equal(t, []string{"vline"}, cat.Modes())
	assert.True(t, cat.HasCalendar("vline"))

	stop, ok := cat.Stop("vline:GEL")
	require.True(t, ok)
	assert.Equal(t, "Geelong Station", stop.Name)
	assert.Equal(t, "vline", stop.Mode)

	stop, ok = cat.StopIn("vline", "GEL")
	require.True(t, ok)
	assert.Equal(t, "vline:GEL", stop.ID)

	trip, ok := cat.Trip("vline:T1")
	require.True(t, ok)
	assert.Equal(t, "vline:GEE", trip.RouteID)
	assert.Equal(t, "vline:WEEKDAY", trip.ServiceID)

	sts := cat.StopTimes("vline:T1")
	require.Len(t, sts, 7)
	assert.Equal(t, "vline:TAR", sts[0].StopID)
	assert.Equal(t, "vline:GEL", sts[6].StopID)
}

func TestLoadKeepsBundlesApart(t *testing.T) {
	// Two bundles reusing the raw id "X" for different stops.
	feedA := map[string][]string{
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon",
			"X,Alpha Station,-37.1,144.1",
		},
	}
	feedB := map[string][]string{
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon",
			"X,Beta Station,-37.2,144.2",
		},
	}

	cat := testutil.LoadCatalog(t, map[string]map[string][]string{
		"metro": feedA,
		"tram":  feedB,
	})

	a, ok := cat.Stop("metro:X")
	require.True(t, ok)
	b, ok := cat.Stop("tram:X")
	require.True(t, ok)
	assert.Equal(t, "Alpha Station", a.Name)
	assert.Equal(t, "Beta Station", b.Name)
}

func TestStopTimesSortedBySequence(t *testing.T) {
	feed := map[string][]string{
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon",
			"A,Alpha,-37.1,144.1",
			"B,Beta,-37.2,144.2",
			"C,Gamma,-37.3,144.3",
		},
		"routes.txt": {"route_id,route_short_name,route_type", "R,r,2"},
		"trips.txt":  {"trip_id,route_id,service_id", "T,R,S"},
		"stop_times.txt": {
			"trip_id,stop_id,stop_sequence,arrival_time,departure_time",
			"T,C,3,10:20:00,10:20:00",
			"T,A,1,10:00:00,10:00:00",
			"T,B,2,10:10:00,10:10:00",
		},
	}

	cat := testutil.LoadCatalog(t, map[string]map[string][]string{"bus": feed})
	sts := cat.StopTimes("bus:T")
	require.Len(t, sts, 3)
	assert.Equal(t, "bus:A", sts[0].StopID)
	assert.Equal(t, "bus:B", sts[1].StopID)
	assert.Equal(t, "bus:C", sts[2].StopID)
}

func TestStopsSortedAndComplete(t *testing.T) {
	cat := testutil.LoadCatalog(t, map[string]map[string][]string{
		"vline": testutil.GeelongFeed(),
	})

	stops := cat.Stops()
	assert.Len(t, stops, 13)
	for i := 1; i < len(stops); i++ {
		assert.Less(t, stops[i-1].ID, stops[i].ID)
	}
}

func TestTripAndStopIDsByMode(t *testing.T) {
	cat := testutil.LoadCatalog(t, map[string]map[string][]string{
		"vline": testutil.GeelongFeed(),
	})

	trips := cat.TripIDs("vline")
	assert.Len(t, trips, 5)
	assert.Contains(t, trips, "vline:T3")
	assert.Empty(t, cat.TripIDs("metro"))

	assert.Len(t, cat.StopIDs("vline"), 13)
}
