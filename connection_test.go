package transit

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"victransit.dev/transit/catalog"
	"victransit.dev/transit/model"
	"victransit.dev/transit/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func geelongCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	return testutil.LoadCatalog(t, map[string]map[string][]string{
		"vline": testutil.GeelongFeed(),
	})
}

func TestBuildConnections(t *testing.T) {
	set := BuildConnections(geelongCatalog(t), "vline")
	conns := set.Connections()

	// T1 has 7 stops, T2-T4 have 4, T5 has 2.
	assert.Len(t, conns, 6+3+3+3+1)

	for _, c := range conns {
		assert.False(t, c.IsTransfer())
		assert.GreaterOrEqual(t, c.Arrival, c.Departure, "%+v", c)
		assert.NotEmpty(t, c.ServiceID)
		assert.Equal(t, model.RouteTypeRail, c.RouteType)
	}
}

func TestBuildConnectionsSorted(t *testing.T) {
	set := BuildConnections(geelongCatalog(t), "vline")
	conns := set.Connections()

	for i := 1; i < len(conns); i++ {
		assert.False(t, lessConnection(conns[i], conns[i-1]),
			"connections out of order at %d", i)
	}
}

func TestBuildConnectionsDeterministic(t *testing.T) {
	cat := geelongCatalog(t)
	a := BuildConnections(cat, "vline")
	b := BuildConnections(cat, "vline")
	assert.Equal(t, a.Connections(), b.Connections())
	assert.Equal(t, a.Overnight(), b.Overnight())
}

func TestBuildConnectionsUnknownMode(t *testing.T) {
	set := BuildConnections(geelongCatalog(t), "metro")
	assert.Empty(t, set.Connections())
}

func TestBuildConnectionsOvernight(t *testing.T) {
	feed := map[string][]string{
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon",
			"P,Pier Station,-38.0,144.0",
			"Q,Quay Station,-38.1,144.1",
		},
		"routes.txt": {"route_id,route_short_name,route_type", "R,Night,2"},
		"trips.txt":  {"trip_id,route_id,service_id", "N1,R,NIGHTLY"},
		"stop_times.txt": {
			"trip_id,stop_id,stop_sequence,arrival_time,departure_time",
			"N1,P,1,24:10:00,24:10:00",
			"N1,Q,2,24:30:00,24:30:00",
		},
	}
	cat := testutil.LoadCatalog(t, map[string]map[string][]string{"vline": feed})

	set := BuildConnections(cat, "vline")
	require.Len(t, set.Connections(), 1)
	assert.Equal(t, 24*3600+10*60, set.Connections()[0].Departure)

	// The past-midnight hop also appears normalised to the next
	// morning's clock.
	require.Len(t, set.Overnight(), 1)
	overnight := set.Overnight()[0]
	assert.Equal(t, 10*60, overnight.Departure)
	assert.Equal(t, 30*60, overnight.Arrival)
	assert.Equal(t, "vline:N1", overnight.TripID)
}

func TestBuildConnectionsDurationsNeverNegative(t *testing.T) {
	// The fixture plus a fully past-midnight run covers a hop spanning
	// midnight (23:59 -> 24:04) and hops shifted into the overnight
	// slice; departure never exceeds arrival in either representation.
	feed := testutil.GeelongFeed()
	feed["trips.txt"] = append(feed["trips.txt"], "N1,GEE,WEEKDAY,Night,0")
	feed["stop_times.txt"] = append(feed["stop_times.txt"],
		"N1,GEL,1,24:10:00,24:10:00",
		"N1,WPD,2,24:30:00,24:30:00",
	)
	cat := testutil.LoadCatalog(t, map[string]map[string][]string{"vline": feed})
	set := BuildConnections(cat, "vline")

	require.NotEmpty(t, set.Connections())
	for _, c := range set.Connections() {
		assert.LessOrEqual(t, c.Departure, c.Arrival, "%+v", c)
	}

	require.NotEmpty(t, set.Overnight())
	for _, c := range set.Overnight() {
		assert.LessOrEqual(t, c.Departure, c.Arrival, "%+v", c)
		assert.GreaterOrEqual(t, c.Departure, 0, "%+v", c)
		assert.Less(t, c.Departure, model.SecondsPerDay, "%+v", c)
	}
}

func TestBuildConnectionsTransferIndex(t *testing.T) {
	feed := map[string][]string{
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon",
			"A,Alpha Station,-38.0,144.0",
			"B,Beta Station,-38.0,144.0",
		},
		"routes.txt": {"route_id,route_short_name,route_type", "R,r,2"},
		"trips.txt":  {"trip_id,route_id,service_id", "T,R,S"},
		"stop_times.txt": {
			"trip_id,stop_id,stop_sequence,arrival_time,departure_time",
			"T,A,1,10:00:00,10:00:00",
			"T,B,2,10:10:00,10:10:00",
		},
		"transfers.txt": {
			"from_stop_id,to_stop_id,transfer_type,min_transfer_time",
			"A,B,2,300",
		},
	}
	cat := testutil.LoadCatalog(t, map[string]map[string][]string{"vline": feed})

	set := BuildConnections(cat, "vline")
	transfers := set.TransfersFrom("vline:A")
	require.Len(t, transfers, 1)
	assert.Equal(t, "vline:B", transfers[0].ToStopID)
	assert.Equal(t, 300, transfers[0].MinTransferTime)

	assert.Empty(t, set.TransfersFrom("vline:B"))
}
