// Package parse loads a single GTFS bundle from a directory of CSV
// files into typed records.
package parse

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/spkg/bom"

	"victransit.dev/transit/model"
)

var (
	// ErrMissingFile means a mandatory GTFS file was absent.
	ErrMissingFile = errors.New("missing mandatory GTFS file")

	// ErrMalformedFeed means a file was present but unusable:
	// missing mandatory columns, unparseable values, or dangling
	// references.
	ErrMalformedFeed = errors.New("malformed GTFS feed")
)

// Number of dangling references enumerated before the loader gives up.
const maxReportedOffenders = 20

// Feed holds the typed records of one parsed GTFS bundle.
type Feed struct {
	Agencies      []model.Agency
	Stops         []model.Stop
	Routes        []model.Route
	Trips         []model.Trip
	StopTimes     []model.StopTime
	Calendars     []model.Calendar
	CalendarDates []model.CalendarDate
	Transfers     []model.Transfer

	// False when neither calendar.txt nor calendar_dates.txt was
	// present. The planner fails open in that case.
	HasCalendar bool
}

var mandatoryFiles = []string{"stops.txt", "routes.txt", "trips.txt", "stop_times.txt"}
var optionalFiles = []string{"agency.txt", "calendar.txt", "calendar_dates.txt", "transfers.txt"}

// ParseFeed reads a GTFS bundle from dir. The first four files are
// mandatory; calendar, calendar_dates, transfers and agency are treated
// as empty when absent.
func ParseFeed(dir string, logger *slog.Logger) (*Feed, error) {
	if logger == nil {
		logger = slog.Default()
	}

	file := map[string]io.ReadCloser{}
	defer func() {
		for _, rc := range file {
			if rc != nil {
				rc.Close()
			}
		}
	}()

	for _, name := range mandatoryFiles {
		rc, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, name)
		}
		file[name] = rc
	}
	for _, name := range optionalFiles {
		rc, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			logger.Info("optional GTFS file absent, treating as empty", "file", name, "dir", dir)
			continue
		}
		file[name] = rc
	}

	// LazyCSVReader required (at least) to survive sloppy use of
	// quotes. The BOM reader strips unicode BOMs if present.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		return gocsv.LazyCSVReader(bom.NewReader(in))
	})

	feed := &Feed{}
	var err error

	if rc := file["agency.txt"]; rc != nil {
		feed.Agencies, err = ParseAgencies(rc)
		if err != nil {
			return nil, fmt.Errorf("parsing agency.txt: %w", err)
		}
	}

	feed.Stops, err = ParseStops(file["stops.txt"])
	if err != nil {
		return nil, fmt.Errorf("parsing stops.txt: %w", err)
	}

	feed.Routes, err = ParseRoutes(file["routes.txt"])
	if err != nil {
		return nil, fmt.Errorf("parsing routes.txt: %w", err)
	}

	routeIDs := map[string]bool{}
	for _, r := range feed.Routes {
		routeIDs[r.ID] = true
	}
	feed.Trips, err = ParseTrips(file["trips.txt"], routeIDs)
	if err != nil {
		return nil, fmt.Errorf("parsing trips.txt: %w", err)
	}

	tripIDs := map[string]bool{}
	for _, t := range feed.Trips {
		tripIDs[t.ID] = true
	}
	stopIDs := map[string]bool{}
	for _, s := range feed.Stops {
		stopIDs[s.ID] = true
	}
	feed.StopTimes, err = ParseStopTimes(file["stop_times.txt"], tripIDs, stopIDs)
	if err != nil {
		return nil, fmt.Errorf("parsing stop_times.txt: %w", err)
	}

	if rc := file["calendar.txt"]; rc != nil {
		feed.Calendars, err = ParseCalendars(rc)
		if err != nil {
			return nil, fmt.Errorf("parsing calendar.txt: %w", err)
		}
		feed.HasCalendar = true
	}
	if rc := file["calendar_dates.txt"]; rc != nil {
		feed.CalendarDates, err = ParseCalendarDates(rc)
		if err != nil {
			return nil, fmt.Errorf("parsing calendar_dates.txt: %w", err)
		}
		feed.HasCalendar = true
	}
	if rc := file["transfers.txt"]; rc != nil {
		feed.Transfers, err = ParseTransfers(rc, stopIDs)
		if err != nil {
			return nil, fmt.Errorf("parsing transfers.txt: %w", err)
		}
	}

	return feed, nil
}

// offenderError builds a single ErrMalformedFeed enumerating up to
// maxReportedOffenders dangling references.
func offenderError(what string, offenders []string, total int) error {
	msg := fmt.Sprintf("%d unresolved %s (first %d:", total, what, len(offenders))
	for _, o := range offenders {
		msg += " " + o
	}
	msg += ")"
	return fmt.Errorf("%w: %s", ErrMalformedFeed, msg)
}
