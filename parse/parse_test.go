package parse

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"victransit.dev/transit/model"
)

func writeFeedDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func minimalFiles() map[string]string {
	return map[string]string{
		"stops.txt": `stop_id,stop_name,stop_lat,stop_lon
A,Alpha Station,-37.1,144.1
B,Beta Station,-37.2,144.2
`,
		"routes.txt": `route_id,route_short_name,route_type
R1,Line 1,2
`,
		"trips.txt": `trip_id,route_id,service_id
T1,R1,SVC
`,
		"stop_times.txt": `trip_id,stop_id,stop_sequence,arrival_time,departure_time
T1,A,1,10:00:00,10:00:00
T1,B,2,10:10:00,10:10:00
`,
	}
}

func TestParseFeedMinimal(t *testing.T) {
	feed, err := ParseFeed(writeFeedDir(t, minimalFiles()), nil)
	require.NoError(t, err)

	assert.Len(t, feed.Stops, 2)
	assert.Len(t, feed.Routes, 1)
	assert.Len(t, feed.Trips, 1)
	assert.Len(t, feed.StopTimes, 2)
	assert.False(t, feed.HasCalendar)

	assert.Equal(t, "Alpha Station", feed.Stops[0].Name)
	assert.Equal(t, model.RouteTypeRail, feed.Routes[0].Type)
	assert.Equal(t, 10*3600+10*60, feed.StopTimes[1].Arrival)
}

func TestParseFeedStripsBOM(t *testing.T) {
	files := minimalFiles()
	files["stops.txt"] = "\xEF\xBB\xBF" + files["stops.txt"]

	feed, err := ParseFeed(writeFeedDir(t, files), nil)
	require.NoError(t, err)
	assert.Equal(t, "A", feed.Stops[0].ID)
}

func TestParseFeedMissingMandatoryFile(t *testing.T) {
	files := minimalFiles()
	delete(files, "trips.txt")

	_, err := ParseFeed(writeFeedDir(t, files), nil)
	require.ErrorIs(t, err, ErrMissingFile)
}

func TestParseFeedOptionalFilesAbsent(t *testing.T) {
	// No calendar, calendar_dates, transfers or agency: still loads.
	feed, err := ParseFeed(writeFeedDir(t, minimalFiles()), nil)
	require.NoError(t, err)
	assert.Empty(t, feed.Calendars)
	assert.Empty(t, feed.Transfers)
	assert.Empty(t, feed.Agencies)
}

func TestParseFeedWithCalendar(t *testing.T) {
	files := minimalFiles()
	files["calendar.txt"] = `service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date
SVC,1,1,1,1,1,0,0,20260101,20261231
`
	files["calendar_dates.txt"] = `service_id,date,exception_type
SVC,20260106,2
`

	feed, err := ParseFeed(writeFeedDir(t, files), nil)
	require.NoError(t, err)
	assert.True(t, feed.HasCalendar)
	require.Len(t, feed.Calendars, 1)

	// Monday through Friday.
	var expected int8
	expected |= 1 << 1
	expected |= 1 << 2
	expected |= 1 << 3
	expected |= 1 << 4
	expected |= 1 << 5
	assert.Equal(t, expected, feed.Calendars[0].Weekday)

	require.Len(t, feed.CalendarDates, 1)
	assert.Equal(t, model.ExceptionRemoved, feed.CalendarDates[0].ExceptionType)
}

func TestParseFeedPastMidnightTimes(t *testing.T) {
	files := minimalFiles()
	files["stop_times.txt"] = `trip_id,stop_id,stop_sequence,arrival_time,departure_time
T1,A,1,23:50:00,23:50:00
T1,B,2,24:04:00,24:04:00
`

	feed, err := ParseFeed(writeFeedDir(t, files), nil)
	require.NoError(t, err)
	assert.Equal(t, 86640, feed.StopTimes[1].Arrival)
}

func TestParseFeedDanglingStopReference(t *testing.T) {
	files := minimalFiles()
	files["stop_times.txt"] = `trip_id,stop_id,stop_sequence,arrival_time,departure_time
T1,A,1,10:00:00,10:00:00
T1,NOPE,2,10:10:00,10:10:00
`

	_, err := ParseFeed(writeFeedDir(t, files), nil)
	require.ErrorIs(t, err, ErrMalformedFeed)
	assert.Contains(t, err.Error(), "NOPE")
}

func TestParseFeedEnumeratesOffenders(t *testing.T) {
	// 25 dangling stop references: the error reports the total but
	// enumerates only the first 20.
	lines := []string{"trip_id,stop_id,stop_sequence,arrival_time,departure_time"}
	for i := 0; i < 25; i++ {
		lines = append(lines, fmt.Sprintf("T1,BAD%d,%d,10:00:00,10:00:00", i, i+1))
	}
	files := minimalFiles()
	files["stop_times.txt"] = strings.Join(lines, "\n") + "\n"

	_, err := ParseFeed(writeFeedDir(t, files), nil)
	require.ErrorIs(t, err, ErrMalformedFeed)
	assert.Contains(t, err.Error(), "25 unresolved")
	assert.Contains(t, err.Error(), "BAD19")
	assert.NotContains(t, err.Error(), "BAD20")
}

func TestParseFeedBadRouteReference(t *testing.T) {
	files := minimalFiles()
	files["trips.txt"] = `trip_id,route_id,service_id
T1,NOPE,SVC
`

	_, err := ParseFeed(writeFeedDir(t, files), nil)
	require.ErrorIs(t, err, ErrMalformedFeed)
}

func TestParseStopsValidation(t *testing.T) {
	_, err := ParseStops(strings.NewReader("stop_id,stop_name\nA,Alpha\nA,Alpha\n"))
	require.ErrorIs(t, err, ErrMalformedFeed)

	_, err = ParseStops(strings.NewReader("stop_id,stop_name\nA,\n"))
	require.ErrorIs(t, err, ErrMalformedFeed)
}

func TestParseRoutesValidation(t *testing.T) {
	_, err := ParseRoutes(strings.NewReader("route_id,route_short_name,route_type\nR1,Line,99\n"))
	require.ErrorIs(t, err, ErrMalformedFeed)

	// A long name alone is enough.
	_, err = ParseRoutes(strings.NewReader("route_id,route_long_name,route_type\nR1,Geelong Line,2\n"))
	require.NoError(t, err)

	_, err = ParseRoutes(strings.NewReader("route_id,route_short_name,route_long_name,route_type\nR1,,,2\n"))
	require.ErrorIs(t, err, ErrMalformedFeed)
}

func TestParseRoutesExtendedTypes(t *testing.T) {
	routes, err := ParseRoutes(strings.NewReader(
		"route_id,route_short_name,route_type\nR1,a,102\nR2,b,204\nR3,c,400\nR4,d,700\nR5,e,701\nR6,f,900\n"))
	require.NoError(t, err)
	assert.Len(t, routes, 6)
	assert.Equal(t, model.RouteTypeMetro, routes[2].Type)
}

func TestParseTransfersValidation(t *testing.T) {
	stops := map[string]bool{"A": true, "B": true}

	// Type 3 pairs can't be used and are dropped.
	transfers, err := ParseTransfers(strings.NewReader(
		"from_stop_id,to_stop_id,transfer_type,min_transfer_time\nA,B,2,180\nB,A,3,0\n"), stops)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, 180, transfers[0].MinTransferTime)

	_, err = ParseTransfers(strings.NewReader(
		"from_stop_id,to_stop_id,transfer_type,min_transfer_time\nA,NOPE,2,180\n"), stops)
	require.ErrorIs(t, err, ErrMalformedFeed)
}

func TestParseCalendarDatesValidation(t *testing.T) {
	_, err := ParseCalendarDates(strings.NewReader("service_id,date,exception_type\nS,20260101,9\n"))
	require.ErrorIs(t, err, ErrMalformedFeed)

	_, err = ParseCalendarDates(strings.NewReader(
		"service_id,date,exception_type\nS,20260101,1\nS,20260101,2\n"))
	require.ErrorIs(t, err, ErrMalformedFeed)
}
