package transit

import (
	"victransit.dev/transit/model"
)

// reconstruct turns a connection path into a journey: consecutive
// connections on the same trip collapse into one transit leg, in-feed
// walks become transfer legs, and a dwell transfer leg is synthesised
// between back-to-back trips at the same stop.
func (p *Planner) reconstruct(originID, destID string, path []model.Connection) *model.Journey {
	var legs []model.Leg

	for i := 0; i < len(path); {
		c := path[i]

		if c.IsTransfer() {
			legs = append(legs, model.Leg{
				FromStopID:         c.FromStopID,
				FromStop:           p.cat.StopName(c.FromStopID),
				ToStopID:           c.ToStopID,
				ToStop:             p.cat.StopName(c.ToStopID),
				Departure:          c.Departure,
				Arrival:            c.Arrival,
				RouteType:          model.RouteTypeNone,
				IsTransfer:         true,
				ScheduledDeparture: c.Departure,
				ScheduledArrival:   c.Arrival,
				ActualDeparture:    c.Departure,
				ActualArrival:      c.Arrival,
			})
			i++
			continue
		}

		// Extend the run of connections on this trip.
		j := i
		for j+1 < len(path) && path[j+1].TripID == c.TripID {
			j++
		}

		var intermediate []string
		for k := i; k < j; k++ {
			intermediate = append(intermediate, p.cat.StopName(path[k].ToStopID))
		}

		leg := model.Leg{
			FromStopID:         c.FromStopID,
			FromStop:           p.cat.StopName(c.FromStopID),
			ToStopID:           path[j].ToStopID,
			ToStop:             p.cat.StopName(path[j].ToStopID),
			Departure:          c.Departure,
			Arrival:            path[j].Arrival,
			TripID:             c.TripID,
			RouteID:            c.RouteID,
			RouteType:          c.RouteType,
			IntermediateStops:  intermediate,
			NumStops:           j - i + 2,
			ScheduledDeparture: c.Departure,
			ScheduledArrival:   path[j].Arrival,
			ActualDeparture:    c.Departure,
			ActualArrival:      path[j].Arrival,
		}
		if route, ok := p.cat.Route(c.RouteID); ok {
			leg.RouteShortName = route.ShortName
		}
		if stop, ok := p.cat.Stop(c.FromStopID); ok {
			leg.Platform = stop.Platform
		}
		legs = append(legs, leg)
		i = j + 1
	}

	legs = insertDwellLegs(legs)

	journey := &model.Journey{
		OriginStopID:       originID,
		OriginStop:         p.cat.StopName(originID),
		DestinationStopID:  destID,
		DestinationStop:    p.cat.StopName(destID),
		Legs:               legs,
		ValidAfterRealtime: true,
	}

	transitLegs := 0
	for _, l := range legs {
		if !l.IsTransfer {
			transitLegs++
		}
	}
	if transitLegs > 0 {
		journey.NumTransfers = transitLegs - 1
	}

	// The envelope comes from the first and last vehicle legs, never
	// from a transfer, so a leading or trailing walk can't distort the
	// duration.
	first, last := firstLastTransit(legs)
	if first != nil && last != nil {
		journey.Departure = first.Departure
		journey.Arrival = last.Arrival
		d := journey.Arrival - journey.Departure
		if d < 0 {
			d += model.SecondsPerDay
		}
		journey.DurationSeconds = d
	}

	return journey
}

// insertDwellLegs places a same-stop transfer leg between adjacent
// transit legs so every trip change is visible in the output.
func insertDwellLegs(legs []model.Leg) []model.Leg {
	out := make([]model.Leg, 0, len(legs))
	for i, leg := range legs {
		if i > 0 && !leg.IsTransfer {
			prev := out[len(out)-1]
			if !prev.IsTransfer {
				out = append(out, model.Leg{
					FromStopID:         prev.ToStopID,
					FromStop:           prev.ToStop,
					ToStopID:           prev.ToStopID,
					ToStop:             prev.ToStop,
					Departure:          prev.Arrival,
					Arrival:            leg.Departure,
					RouteType:          model.RouteTypeNone,
					IsTransfer:         true,
					ScheduledDeparture: prev.Arrival,
					ScheduledArrival:   leg.Departure,
					ActualDeparture:    prev.Arrival,
					ActualArrival:      leg.Departure,
				})
			}
		}
		out = append(out, leg)
	}
	return out
}

// shiftJourney moves every absolute time on the journey by delta
// seconds.
func shiftJourney(j *model.Journey, delta int) {
	j.Departure += delta
	j.Arrival += delta
	for i := range j.Legs {
		leg := &j.Legs[i]
		leg.Departure += delta
		leg.Arrival += delta
		leg.ScheduledDeparture += delta
		leg.ScheduledArrival += delta
		leg.ActualDeparture += delta
		leg.ActualArrival += delta
	}
}

func firstLastTransit(legs []model.Leg) (first, last *model.Leg) {
	for i := range legs {
		if legs[i].IsTransfer {
			continue
		}
		if first == nil {
			first = &legs[i]
		}
		last = &legs[i]
	}
	return first, last
}
