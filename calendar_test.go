package transit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"victransit.dev/transit/testutil"
)

func calendarFixture(t *testing.T) *ServiceCalendar {
	t.Helper()
	feed := map[string][]string{
		"trips.txt": {"trip_id,route_id,service_id", "T,R1,WD"},
		"stop_times.txt": {
			"trip_id,stop_id,stop_sequence,arrival_time,departure_time",
			"T,S1,1,10:00:00,10:00:00",
		},
		"calendar.txt": {
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"WD,1,1,1,1,1,0,0,20260801,20260831",
		},
		"calendar_dates.txt": {
			"service_id,date,exception_type",
			"WD,20260819,2", // removed Wednesday
			"WD,20260822,1", // added Saturday
			"WD,20260905,1", // added, but out of range
		},
	}
	cat := testutil.LoadCatalog(t, map[string]map[string][]string{"vline": feed})
	return NewServiceCalendar(cat, testLogger())
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestIsActive(t *testing.T) {
	cal := calendarFixture(t)

	for _, tc := range []struct {
		name     string
		date     string
		expected bool
	}{
		{"in-range weekday", "2026-08-26", true},
		{"in-range monday", "2026-08-03", true},
		{"in-range saturday off", "2026-08-29", false},
		{"in-range sunday off", "2026-08-30", false},
		{"before range", "2026-07-29", false},
		{"after range", "2026-09-02", false},
		{"removed exception", "2026-08-19", false},
		{"added exception", "2026-08-22", true},
		{"exception outside range ignored", "2026-09-05", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, cal.IsActive("vline:WD", day(t, tc.date)))
		})
	}
}

func TestIsActiveUnknownService(t *testing.T) {
	cal := calendarFixture(t)
	assert.False(t, cal.IsActive("vline:NOPE", day(t, "2026-08-26")))
}

func TestIsActiveFailsOpenWithoutCalendar(t *testing.T) {
	// A bundle without calendar.txt or calendar_dates.txt treats
	// every service as running.
	feed := map[string][]string{
		"trips.txt": {"trip_id,route_id,service_id", "T,R1,ANY"},
		"stop_times.txt": {
			"trip_id,stop_id,stop_sequence,arrival_time,departure_time",
			"T,S1,1,10:00:00,10:00:00",
		},
	}
	cat := testutil.LoadCatalog(t, map[string]map[string][]string{"bus": feed})
	cal := NewServiceCalendar(cat, testLogger())

	assert.True(t, cal.IsActive("bus:ANY", day(t, "2026-08-26")))
	assert.True(t, cal.IsActive("bus:WHATEVER", day(t, "2026-08-30")))
}
