package transit

import (
	"fmt"

	"victransit.dev/transit/catalog"
	"victransit.dev/transit/model"
	"victransit.dev/transit/parse"
)

// OverlayTripUpdates decodes a raw trip-update feed and applies it to
// the journey. The journey is untouched when the bytes don't decode.
func OverlayTripUpdates(j *model.Journey, blob []byte) error {
	updates, err := parse.ParseTripUpdates(blob)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRealtime, err)
	}
	ApplyTripUpdates(j, updates)
	return nil
}

// ApplyTripUpdates overlays realtime trip updates onto a journey. The
// updates map is keyed by raw (unprefixed) trip id as decoded from the
// feed. Scheduled fields are never touched; only the actual times,
// delay, cancellation flag and platform change, so applying the same
// update set twice is a no-op. Trips absent from the map count as on
// time.
func ApplyTripUpdates(j *model.Journey, updates map[string]*parse.TripUpdate) {
	j.HasRealtime = true
	j.ValidAfterRealtime = true
	j.BrokenTransfers = nil

	for i := range j.Legs {
		leg := &j.Legs[i]
		if leg.IsTransfer {
			continue
		}

		leg.ActualDeparture = leg.ScheduledDeparture
		leg.ActualArrival = leg.ScheduledArrival
		leg.DelaySeconds = 0
		leg.Cancelled = false

		tu, ok := updates[catalog.RawID(leg.TripID)]
		if !ok {
			continue
		}
		if tu.Cancelled {
			leg.Cancelled = true
			continue
		}

		if su, ok := tu.Update(catalog.RawID(leg.FromStopID)); ok {
			leg.ActualDeparture = leg.ScheduledDeparture + su.DepartureDelay
			if su.Platform != "" {
				leg.Platform = su.Platform
			}
		}
		if su, ok := tu.Update(catalog.RawID(leg.ToStopID)); ok {
			leg.ActualArrival = leg.ScheduledArrival + su.ArrivalDelay
			leg.DelaySeconds = su.ArrivalDelay
		}
	}

	revalidateTransfers(j)
}

// revalidateTransfers re-checks every trip change against the adjusted
// times. The onward trip must still be catchable: a same-stop change
// needs a non-negative gap, a walk between stops needs at least the
// walk itself. A shortfall flags the journey rather than rejecting it;
// the rider gets the itinerary plus the warning.
func revalidateTransfers(j *model.Journey) {
	var prev *model.Leg
	needed := 0
	for i := range j.Legs {
		leg := &j.Legs[i]
		if leg.IsTransfer {
			// Dwell legs (same stop) cost nothing; in-feed walks
			// cost their scheduled duration.
			if leg.FromStopID != leg.ToStopID {
				needed = leg.DurationSeconds()
			}
			continue
		}

		if prev != nil && leg.ActualDeparture-prev.ActualArrival < needed {
			j.ValidAfterRealtime = false
			j.BrokenTransfers = append(j.BrokenTransfers, prev.ToStop)
		}
		prev = leg
		needed = 0
	}
}
