package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"victransit.dev/transit/model"
)

type TripCSV struct {
	ID          string `csv:"trip_id"`
	RouteID     string `csv:"route_id"`
	ServiceID   string `csv:"service_id"`
	Headsign    string `csv:"trip_headsign"`
	DirectionID int8   `csv:"direction_id"`
}

func ParseTrips(data io.Reader, routes map[string]bool) ([]model.Trip, error) {
	tripCsv := []*TripCSV{}
	if err := gocsv.Unmarshal(data, &tripCsv); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling trips csv: %v", ErrMalformedFeed, err)
	}

	trips := make([]model.Trip, 0, len(tripCsv))
	seen := map[string]bool{}
	var offenders []string
	unresolved := 0

	for _, t := range tripCsv {
		if t.ID == "" {
			return nil, fmt.Errorf("%w: empty trip_id", ErrMalformedFeed)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("%w: repeated trip_id '%s'", ErrMalformedFeed, t.ID)
		}
		seen[t.ID] = true

		if t.RouteID == "" {
			return nil, fmt.Errorf("%w: trip_id '%s' has empty route_id", ErrMalformedFeed, t.ID)
		}
		if !routes[t.RouteID] {
			unresolved++
			if len(offenders) < maxReportedOffenders {
				offenders = append(offenders, fmt.Sprintf("trip '%s' -> route '%s'", t.ID, t.RouteID))
			}
			continue
		}

		if t.DirectionID != 0 && t.DirectionID != 1 {
			return nil, fmt.Errorf("%w: trip_id '%s' has invalid direction_id '%d'", ErrMalformedFeed, t.ID, t.DirectionID)
		}

		trips = append(trips, model.Trip{
			ID:          t.ID,
			RouteID:     t.RouteID,
			ServiceID:   t.ServiceID,
			Headsign:    t.Headsign,
			DirectionID: t.DirectionID,
		})
	}

	if unresolved > 0 {
		return nil, offenderError("route references in trips.txt", offenders, unresolved)
	}

	return trips, nil
}
