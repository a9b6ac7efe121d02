// Package transit plans earliest-arrival journeys over a merged
// multi-mode GTFS catalogue using a connection-scan search.
package transit

import (
	"sort"

	"victransit.dev/transit/catalog"
	"victransit.dev/transit/model"
)

// ConnectionSet holds the scan input for one mode: every elementary
// hop of every trip, time-sorted, plus the in-feed transfers indexed by
// their origin stop. Built once, read-only afterwards.
type ConnectionSet struct {
	// Transit connections sorted by (departure, arrival, from stop,
	// trip).
	conns []model.Connection

	// The subset of conns with departure >= 24:00:00, re-sorted with
	// times shifted back one day. A trip that leaves at 24:04 on
	// service day D is, for the rider, a 00:04 departure on D+1; the
	// scanner merges this slice in when planning D+1, checking the
	// service against D.
	overnight []model.Connection

	// In-feed transfers keyed by from-stop, relaxed inline whenever
	// the scan improves an arrival.
	transfersFrom map[string][]model.Transfer
}

// BuildConnections flattens one mode's trips into a ConnectionSet.
func BuildConnections(cat *catalog.Catalog, mode string) *ConnectionSet {
	set := &ConnectionSet{transfersFrom: map[string][]model.Transfer{}}

	for _, tripID := range cat.TripIDs(mode) {
		trip, _ := cat.Trip(tripID)
		routeType := model.RouteTypeNone
		if route, ok := cat.Route(trip.RouteID); ok {
			routeType = route.Type
		}

		sts := cat.StopTimes(tripID)
		for i := 0; i+1 < len(sts); i++ {
			set.conns = append(set.conns, model.Connection{
				FromStopID: sts[i].StopID,
				ToStopID:   sts[i+1].StopID,
				Departure:  sts[i].Departure,
				Arrival:    sts[i+1].Arrival,
				TripID:     tripID,
				RouteID:    trip.RouteID,
				RouteType:  routeType,
				ServiceID:  trip.ServiceID,
			})
		}
	}

	sortConnections(set.conns)

	for _, c := range set.conns {
		if c.Departure >= model.SecondsPerDay {
			c.Departure -= model.SecondsPerDay
			c.Arrival -= model.SecondsPerDay
			set.overnight = append(set.overnight, c)
		}
	}
	sortConnections(set.overnight)

	for _, tr := range cat.Transfers() {
		if catalog.ModeOf(tr.FromStopID) != mode || catalog.ModeOf(tr.ToStopID) != mode {
			continue
		}
		set.transfersFrom[tr.FromStopID] = append(set.transfersFrom[tr.FromStopID], tr)
	}

	return set
}

// Connections returns the sorted transit connections.
func (s *ConnectionSet) Connections() []model.Connection {
	return s.conns
}

// Overnight returns the normalised previous-day wrap connections.
func (s *ConnectionSet) Overnight() []model.Connection {
	return s.overnight
}

// TransfersFrom returns the in-feed transfers departing a stop.
func (s *ConnectionSet) TransfersFrom(stopID string) []model.Transfer {
	return s.transfersFrom[stopID]
}

func sortConnections(conns []model.Connection) {
	sort.Slice(conns, func(i, j int) bool {
		a, b := conns[i], conns[j]
		if a.Departure != b.Departure {
			return a.Departure < b.Departure
		}
		if a.Arrival != b.Arrival {
			return a.Arrival < b.Arrival
		}
		if a.FromStopID != b.FromStopID {
			return a.FromStopID < b.FromStopID
		}
		return a.TripID < b.TripID
	})
}
