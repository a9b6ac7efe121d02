package parse

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gocarina/gocsv"

	"victransit.dev/transit/model"
)

type RouteCSV struct {
	ID        string `csv:"route_id"`
	AgencyID  string `csv:"agency_id"`
	ShortName string `csv:"route_short_name"`
	LongName  string `csv:"route_long_name"`
	Type      string `csv:"route_type"`
}

func legalRouteType(t model.RouteType) bool {
	switch t {
	case model.RouteTypeTram,
		model.RouteTypeRail,
		model.RouteTypeBus,
		model.RouteTypeLongDistanceRail,
		model.RouteTypeExpressBus,
		model.RouteTypeMetro,
		model.RouteTypeBusService,
		model.RouteTypeRegionalBus,
		model.RouteTypeTramService:
		return true
	}
	// Basic GTFS types outside the extended set still load; mode
	// display falls back to "Unknown".
	return t >= 0 && t <= 12
}

func ParseRoutes(data io.Reader) ([]model.Route, error) {
	routeCsv := []*RouteCSV{}
	if err := gocsv.Unmarshal(data, &routeCsv); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling routes csv: %v", ErrMalformedFeed, err)
	}

	routes := make([]model.Route, 0, len(routeCsv))
	seen := map[string]bool{}
	for _, r := range routeCsv {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: route has no route_id", ErrMalformedFeed)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("%w: repeated route_id '%s'", ErrMalformedFeed, r.ID)
		}
		seen[r.ID] = true

		if r.ShortName == "" && r.LongName == "" {
			return nil, fmt.Errorf("%w: route_id '%s' has no short_name or long_name", ErrMalformedFeed, r.ID)
		}

		if r.Type == "" {
			return nil, fmt.Errorf("%w: route_id '%s' has no route_type", ErrMalformedFeed, r.ID)
		}
		routeType, err := strconv.Atoi(r.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: route_id '%s' has non-integer route_type '%s'", ErrMalformedFeed, r.ID, r.Type)
		}
		if !legalRouteType(model.RouteType(routeType)) {
			return nil, fmt.Errorf("%w: route_id '%s' has unknown route_type %d", ErrMalformedFeed, r.ID, routeType)
		}

		routes = append(routes, model.Route{
			ID:        r.ID,
			AgencyID:  r.AgencyID,
			ShortName: r.ShortName,
			LongName:  r.LongName,
			Type:      model.RouteType(routeType),
		})
	}

	return routes, nil
}
