// Package catalog merges several GTFS bundles, each tagged with a
// transport mode, into one addressable catalogue. The catalogue is
// built once at startup and read-only thereafter.
package catalog

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"

	"victransit.dev/transit/model"
	"victransit.dev/transit/parse"
)

// ModeFeed names one GTFS bundle to load and the mode tag it carries.
type ModeFeed struct {
	Mode string
	Path string
}

// GlobalID synthesises the catalogue-wide id for a raw feed id.
// Separate bundles may reuse raw ids, so every map is keyed this way.
func GlobalID(mode, raw string) string {
	return mode + ":" + raw
}

// RawID strips the mode prefix from a global id. Ids without a prefix
// are returned unchanged.
func RawID(id string) string {
	if i := strings.IndexByte(id, ':'); i >= 0 {
		return id[i+1:]
	}
	return id
}

// ModeOf returns the mode prefix of a global id, or "".
func ModeOf(id string) string {
	if i := strings.IndexByte(id, ':'); i >= 0 {
		return id[:i]
	}
	return ""
}

type Catalog struct {
	modes       []string
	hasCalendar map[string]bool

	stops         map[string]*model.Stop
	routes        map[string]*model.Route
	trips         map[string]*model.Trip
	stopTimes     map[string][]model.StopTime // by trip id, sorted by stop_sequence
	calendars     map[string]model.Calendar
	calendarDates map[string][]model.CalendarDate
	transfers     []model.Transfer

	tripIDsByMode map[string][]string
	stopIDsByMode map[string][]string
}

// Load reads each bundle in order and merges them. Within the merged
// catalogue a byte-identical duplicate record is silently deduped;
// otherwise the record from the earlier-listed bundle wins and a
// DuplicateId warning is logged naming both sources.
func Load(feeds []ModeFeed, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := newEmpty()

	for _, mf := range feeds {
		feed, err := parse.ParseFeed(mf.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("loading %s bundle from %s: %w", mf.Mode, mf.Path, err)
		}
		c.merge(mf.Mode, mf.Path, feed, logger)
	}

	c.finalize()
	return c, nil
}

func newEmpty() *Catalog {
	return &Catalog{
		hasCalendar:   map[string]bool{},
		stops:         map[string]*model.Stop{},
		routes:        map[string]*model.Route{},
		trips:         map[string]*model.Trip{},
		stopTimes:     map[string][]model.StopTime{},
		calendars:     map[string]model.Calendar{},
		calendarDates: map[string][]model.CalendarDate{},
		tripIDsByMode: map[string][]string{},
		stopIDsByMode: map[string][]string{},
	}
}

func (c *Catalog) merge(mode, source string, feed *parse.Feed, logger *slog.Logger) {
	if !contains(c.modes, mode) {
		c.modes = append(c.modes, mode)
	}
	if feed.HasCalendar {
		c.hasCalendar[mode] = true
	}

	dup := func(kind, id string) {
		logger.Warn("DuplicateId: earlier record wins",
			"kind", kind, "id", id, "dropped_source", source)
	}

	for i := range feed.Stops {
		s := feed.Stops[i]
		s.ID = GlobalID(mode, s.ID)
		s.Mode = mode
		if prev, ok := c.stops[s.ID]; ok {
			if !reflect.DeepEqual(*prev, s) {
				dup("stop", s.ID)
			}
			continue
		}
		c.stops[s.ID] = &s
		c.stopIDsByMode[mode] = append(c.stopIDsByMode[mode], s.ID)
	}

	for i := range feed.Routes {
		r := feed.Routes[i]
		r.ID = GlobalID(mode, r.ID)
		if r.AgencyID != "" {
			r.AgencyID = GlobalID(mode, r.AgencyID)
		}
		if prev, ok := c.routes[r.ID]; ok {
			if !reflect.DeepEqual(*prev, r) {
				dup("route", r.ID)
			}
			continue
		}
		c.routes[r.ID] = &r
	}

	for i := range feed.Trips {
		t := feed.Trips[i]
		t.ID = GlobalID(mode, t.ID)
		t.RouteID = GlobalID(mode, t.RouteID)
		if t.ServiceID != "" {
			t.ServiceID = GlobalID(mode, t.ServiceID)
		}
		if prev, ok := c.trips[t.ID]; ok {
			if !reflect.DeepEqual(*prev, t) {
				dup("trip", t.ID)
			}
			continue
		}
		c.trips[t.ID] = &t
		c.tripIDsByMode[mode] = append(c.tripIDsByMode[mode], t.ID)
	}

	for _, st := range feed.StopTimes {
		st.TripID = GlobalID(mode, st.TripID)
		st.StopID = GlobalID(mode, st.StopID)
		if _, ok := c.trips[st.TripID]; !ok {
			continue
		}
		c.stopTimes[st.TripID] = append(c.stopTimes[st.TripID], st)
	}

	for _, cal := range feed.Calendars {
		cal.ServiceID = GlobalID(mode, cal.ServiceID)
		if prev, ok := c.calendars[cal.ServiceID]; ok {
			if !reflect.DeepEqual(prev, cal) {
				dup("calendar", cal.ServiceID)
			}
			continue
		}
		c.calendars[cal.ServiceID] = cal
	}

	for _, cd := range feed.CalendarDates {
		cd.ServiceID = GlobalID(mode, cd.ServiceID)
		c.calendarDates[cd.ServiceID] = append(c.calendarDates[cd.ServiceID], cd)
	}

	for _, tr := range feed.Transfers {
		tr.FromStopID = GlobalID(mode, tr.FromStopID)
		tr.ToStopID = GlobalID(mode, tr.ToStopID)
		c.transfers = append(c.transfers, tr)
	}
}

// finalize sorts everything that callers iterate, so results are
// deterministic regardless of map order.
func (c *Catalog) finalize() {
	for tripID := range c.stopTimes {
		sts := c.stopTimes[tripID]
		sort.Slice(sts, func(i, j int) bool {
			return sts[i].StopSequence < sts[j].StopSequence
		})
		c.stopTimes[tripID] = sts
	}
	for mode := range c.tripIDsByMode {
		sort.Strings(c.tripIDsByMode[mode])
	}
	for mode := range c.stopIDsByMode {
		sort.Strings(c.stopIDsByMode[mode])
	}
	sort.Slice(c.transfers, func(i, j int) bool {
		a, b := c.transfers[i], c.transfers[j]
		if a.FromStopID != b.FromStopID {
			return a.FromStopID < b.FromStopID
		}
		return a.ToStopID < b.ToStopID
	})
}

// Modes lists the loaded mode tags in load order.
func (c *Catalog) Modes() []string {
	return c.modes
}

// HasCalendar reports whether the mode's bundle carried calendar data.
func (c *Catalog) HasCalendar(mode string) bool {
	return c.hasCalendar[mode]
}

// Stop looks up a stop by global id.
func (c *Catalog) Stop(id string) (*model.Stop, bool) {
	s, ok := c.stops[id]
	return s, ok
}

// StopIn looks up a stop by (mode, raw id).
func (c *Catalog) StopIn(mode, raw string) (*model.Stop, bool) {
	return c.Stop(GlobalID(mode, raw))
}

// StopName resolves a global stop id to its name, falling back to the
// id itself.
func (c *Catalog) StopName(id string) string {
	if s, ok := c.stops[id]; ok {
		return s.Name
	}
	return id
}

// Route looks up a route by global id.
func (c *Catalog) Route(id string) (*model.Route, bool) {
	r, ok := c.routes[id]
	return r, ok
}

// Trip looks up a trip by global id.
func (c *Catalog) Trip(id string) (*model.Trip, bool) {
	t, ok := c.trips[id]
	return t, ok
}

// StopTimes returns a trip's stop times ordered by stop_sequence.
func (c *Catalog) StopTimes(tripID string) []model.StopTime {
	return c.stopTimes[tripID]
}

// Stops returns all stops, ordered by global id.
func (c *Catalog) Stops() []*model.Stop {
	ids := make([]string, 0, len(c.stops))
	for id := range c.stops {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*model.Stop, len(ids))
	for i, id := range ids {
		out[i] = c.stops[id]
	}
	return out
}

// TripIDs returns the trip ids of one mode, sorted.
func (c *Catalog) TripIDs(mode string) []string {
	return c.tripIDsByMode[mode]
}

// StopIDs returns the stop ids of one mode, sorted.
func (c *Catalog) StopIDs(mode string) []string {
	return c.stopIDsByMode[mode]
}

// Calendars returns all calendar records keyed by global service id.
func (c *Catalog) Calendars() map[string]model.Calendar {
	return c.calendars
}

// CalendarDates returns exception records keyed by global service id.
func (c *Catalog) CalendarDates() map[string][]model.CalendarDate {
	return c.calendarDates
}

// Transfers returns all in-feed transfers with global stop ids.
func (c *Catalog) Transfers() []model.Transfer {
	return c.transfers
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
