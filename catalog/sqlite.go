package catalog

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"victransit.dev/transit/model"
)

// Snapshot persistence for a merged catalogue. Parsing stop_times.txt
// dominates startup time on real feeds; a snapshot loads in a fraction
// of it.

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS feed_mode (
    mode TEXT NOT NULL,
    position INTEGER NOT NULL,
    has_calendar INTEGER NOT NULL,
PRIMARY KEY (mode)
);

CREATE TABLE IF NOT EXISTS stop (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    lat REAL NOT NULL,
    lon REAL NOT NULL,
    platform TEXT NOT NULL,
    mode TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS route (
    id TEXT PRIMARY KEY,
    agency_id TEXT NOT NULL,
    short_name TEXT NOT NULL,
    long_name TEXT NOT NULL,
    route_type INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trip (
    id TEXT PRIMARY KEY,
    route_id TEXT NOT NULL,
    service_id TEXT NOT NULL,
    headsign TEXT NOT NULL,
    direction_id INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS stop_time (
    trip_id TEXT NOT NULL,
    stop_id TEXT NOT NULL,
    stop_sequence INTEGER NOT NULL,
    arrival INTEGER NOT NULL,
    departure INTEGER NOT NULL,
PRIMARY KEY (trip_id, stop_sequence)
);

CREATE TABLE IF NOT EXISTS calendar (
    service_id TEXT PRIMARY KEY,
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    weekday INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS calendar_date (
    service_id TEXT NOT NULL,
    date TEXT NOT NULL,
    exception_type INTEGER NOT NULL,
PRIMARY KEY (service_id, date)
);

CREATE TABLE IF NOT EXISTS transfer (
    from_stop_id TEXT NOT NULL,
    to_stop_id TEXT NOT NULL,
    transfer_type INTEGER NOT NULL,
    min_transfer_time INTEGER NOT NULL,
PRIMARY KEY (from_stop_id, to_stop_id)
);`

type stopRow struct {
	ID       string  `db:"id"`
	Name     string  `db:"name"`
	Lat      float64 `db:"lat"`
	Lon      float64 `db:"lon"`
	Platform string  `db:"platform"`
	Mode     string  `db:"mode"`
}

type routeRow struct {
	ID        string `db:"id"`
	AgencyID  string `db:"agency_id"`
	ShortName string `db:"short_name"`
	LongName  string `db:"long_name"`
	RouteType int    `db:"route_type"`
}

type tripRow struct {
	ID          string `db:"id"`
	RouteID     string `db:"route_id"`
	ServiceID   string `db:"service_id"`
	Headsign    string `db:"headsign"`
	DirectionID int8   `db:"direction_id"`
}

type stopTimeRow struct {
	TripID       string `db:"trip_id"`
	StopID       string `db:"stop_id"`
	StopSequence uint32 `db:"stop_sequence"`
	Arrival      int    `db:"arrival"`
	Departure    int    `db:"departure"`
}

type calendarRow struct {
	ServiceID string `db:"service_id"`
	StartDate string `db:"start_date"`
	EndDate   string `db:"end_date"`
	Weekday   int8   `db:"weekday"`
}

type calendarDateRow struct {
	ServiceID     string `db:"service_id"`
	Date          string `db:"date"`
	ExceptionType int8   `db:"exception_type"`
}

type transferRow struct {
	FromStopID      string `db:"from_stop_id"`
	ToStopID        string `db:"to_stop_id"`
	TransferType    int8   `db:"transfer_type"`
	MinTransferTime int    `db:"min_transfer_time"`
}

// SaveSnapshot writes the catalogue to a sqlite file at path. Any
// existing snapshot content is replaced.
func SaveSnapshot(c *Catalog, path string) error {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(snapshotSchema); err != nil {
		return fmt.Errorf("creating snapshot schema: %w", err)
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"feed_mode", "stop", "route", "trip", "stop_time", "calendar", "calendar_date", "transfer"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for i, mode := range c.modes {
		hasCal := 0
		if c.hasCalendar[mode] {
			hasCal = 1
		}
		if _, err := tx.Exec(
			`INSERT INTO feed_mode (mode, position, has_calendar) VALUES (?, ?, ?)`,
			mode, i, hasCal,
		); err != nil {
			return fmt.Errorf("writing feed_mode: %w", err)
		}
	}

	for _, s := range c.stops {
		if _, err := tx.NamedExec(
			`INSERT INTO stop (id, name, lat, lon, platform, mode)
			 VALUES (:id, :name, :lat, :lon, :platform, :mode)`,
			stopRow{s.ID, s.Name, s.Lat, s.Lon, s.Platform, s.Mode},
		); err != nil {
			return fmt.Errorf("writing stop '%s': %w", s.ID, err)
		}
	}

	for _, r := range c.routes {
		if _, err := tx.NamedExec(
			`INSERT INTO route (id, agency_id, short_name, long_name, route_type)
			 VALUES (:id, :agency_id, :short_name, :long_name, :route_type)`,
			routeRow{r.ID, r.AgencyID, r.ShortName, r.LongName, int(r.Type)},
		); err != nil {
			return fmt.Errorf("writing route '%s': %w", r.ID, err)
		}
	}

	for _, t := range c.trips {
		if _, err := tx.NamedExec(
			`INSERT INTO trip (id, route_id, service_id, headsign, direction_id)
			 VALUES (:id, :route_id, :service_id, :headsign, :direction_id)`,
			tripRow{t.ID, t.RouteID, t.ServiceID, t.Headsign, t.DirectionID},
		); err != nil {
			return fmt.Errorf("writing trip '%s': %w", t.ID, err)
		}
	}

	for _, sts := range c.stopTimes {
		for _, st := range sts {
			if _, err := tx.NamedExec(
				`INSERT INTO stop_time (trip_id, stop_id, stop_sequence, arrival, departure)
				 VALUES (:trip_id, :stop_id, :stop_sequence, :arrival, :departure)`,
				stopTimeRow{st.TripID, st.StopID, st.StopSequence, st.Arrival, st.Departure},
			); err != nil {
				return fmt.Errorf("writing stop_time for trip '%s': %w", st.TripID, err)
			}
		}
	}

	for _, cal := range c.calendars {
		if _, err := tx.NamedExec(
			`INSERT INTO calendar (service_id, start_date, end_date, weekday)
			 VALUES (:service_id, :start_date, :end_date, :weekday)`,
			calendarRow{cal.ServiceID, cal.StartDate, cal.EndDate, cal.Weekday},
		); err != nil {
			return fmt.Errorf("writing calendar '%s': %w", cal.ServiceID, err)
		}
	}

	for _, cds := range c.calendarDates {
		for _, cd := range cds {
			if _, err := tx.NamedExec(
				`INSERT INTO calendar_date (service_id, date, exception_type)
				 VALUES (:service_id, :date, :exception_type)`,
				calendarDateRow{cd.ServiceID, cd.Date, cd.ExceptionType},
			); err != nil {
				return fmt.Errorf("writing calendar_date '%s': %w", cd.ServiceID, err)
			}
		}
	}

	for _, tr := range c.transfers {
		if _, err := tx.NamedExec(
			`INSERT INTO transfer (from_stop_id, to_stop_id, transfer_type, min_transfer_time)
			 VALUES (:from_stop_id, :to_stop_id, :transfer_type, :min_transfer_time)`,
			transferRow{tr.FromStopID, tr.ToStopID, tr.TransferType, tr.MinTransferTime},
		); err != nil {
			return fmt.Errorf("writing transfer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reconstructs a catalogue from a sqlite snapshot file.
func LoadSnapshot(path string) (*Catalog, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer db.Close()

	c := newEmpty()

	var modeRows []struct {
		Mode        string `db:"mode"`
		Position    int    `db:"position"`
		HasCalendar int    `db:"has_calendar"`
	}
	if err := db.Select(&modeRows, `SELECT mode, position, has_calendar FROM feed_mode ORDER BY position`); err != nil {
		return nil, fmt.Errorf("reading feed_mode: %w", err)
	}
	for _, m := range modeRows {
		c.modes = append(c.modes, m.Mode)
		if m.HasCalendar != 0 {
			c.hasCalendar[m.Mode] = true
		}
	}

	var stops []stopRow
	if err := db.Select(&stops, `SELECT id, name, lat, lon, platform, mode FROM stop`); err != nil {
		return nil, fmt.Errorf("reading stops: %w", err)
	}
	for _, row := range stops {
		s := model.Stop{ID: row.ID, Name: row.Name, Lat: row.Lat, Lon: row.Lon, Platform: row.Platform, Mode: row.Mode}
		c.stops[s.ID] = &s
		c.stopIDsByMode[s.Mode] = append(c.stopIDsByMode[s.Mode], s.ID)
	}

	var routes []routeRow
	if err := db.Select(&routes, `SELECT id, agency_id, short_name, long_name, route_type FROM route`); err != nil {
		return nil, fmt.Errorf("reading routes: %w", err)
	}
	for _, row := range routes {
		r := model.Route{ID: row.ID, AgencyID: row.AgencyID, ShortName: row.ShortName, LongName: row.LongName, Type: model.RouteType(row.RouteType)}
		c.routes[r.ID] = &r
	}

	var trips []tripRow
	if err := db.Select(&trips, `SELECT id, route_id, service_id, headsign, direction_id FROM trip`); err != nil {
		return nil, fmt.Errorf("reading trips: %w", err)
	}
	for _, row := range trips {
		t := model.Trip{ID: row.ID, RouteID: row.RouteID, ServiceID: row.ServiceID, Headsign: row.Headsign, DirectionID: row.DirectionID}
		c.trips[t.ID] = &t
		c.tripIDsByMode[ModeOf(t.ID)] = append(c.tripIDsByMode[ModeOf(t.ID)], t.ID)
	}

	var stopTimes []stopTimeRow
	if err := db.Select(&stopTimes, `SELECT trip_id, stop_id, stop_sequence, arrival, departure FROM stop_time`); err != nil {
		return nil, fmt.Errorf("reading stop_times: %w", err)
	}
	for _, row := range stopTimes {
		c.stopTimes[row.TripID] = append(c.stopTimes[row.TripID], model.StopTime{
			TripID:       row.TripID,
			StopID:       row.StopID,
			StopSequence: row.StopSequence,
			Arrival:      row.Arrival,
			Departure:    row.Departure,
		})
	}

	var calendars []calendarRow
	if err := db.Select(&calendars, `SELECT service_id, start_date, end_date, weekday FROM calendar`); err != nil {
		return nil, fmt.Errorf("reading calendars: %w", err)
	}
	for _, row := range calendars {
		c.calendars[row.ServiceID] = model.Calendar{
			ServiceID: row.ServiceID,
			StartDate: row.StartDate,
			EndDate:   row.EndDate,
			Weekday:   row.Weekday,
		}
	}

	var calendarDates []calendarDateRow
	if err := db.Select(&calendarDates, `SELECT service_id, date, exception_type FROM calendar_date`); err != nil {
		return nil, fmt.Errorf("reading calendar_dates: %w", err)
	}
	for _, row := range calendarDates {
		c.calendarDates[row.ServiceID] = append(c.calendarDates[row.ServiceID], model.CalendarDate{
			ServiceID:     row.ServiceID,
			Date:          row.Date,
			ExceptionType: row.ExceptionType,
		})
	}

	var transfers []transferRow
	if err := db.Select(&transfers, `SELECT from_stop_id, to_stop_id, transfer_type, min_transfer_time FROM transfer`); err != nil {
		return nil, fmt.Errorf("reading transfers: %w", err)
	}
	for _, row := range transfers {
		c.transfers = append(c.transfers, model.Transfer{
			FromStopID:      row.FromStopID,
			ToStopID:        row.ToStopID,
			TransferType:    row.TransferType,
			MinTransferTime: row.MinTransferTime,
		})
	}

	c.finalize()
	return c, nil
}
