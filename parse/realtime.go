package parse

import (
	"fmt"

	gtfsproto "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	proto "google.golang.org/protobuf/proto"
)

// StopUpdate carries the realtime adjustment for one stop of one trip.
// Delays are in seconds; positive means late.
type StopUpdate struct {
	StopID         string
	StopSequence   uint32
	ArrivalDelay   int
	DepartureDelay int
	Platform       string
}

// TripUpdate aggregates the realtime state of one trip.
type TripUpdate struct {
	TripID      string
	Cancelled   bool
	StopUpdates []StopUpdate
}

// Update returns the stop update for a stop id, if present.
func (tu *TripUpdate) Update(stopID string) (StopUpdate, bool) {
	for _, su := range tu.StopUpdates {
		if su.StopID == stopID {
			return su, true
		}
	}
	return StopUpdate{}, false
}

// ParseTripUpdates decodes a GTFS Realtime trip-update feed into a map
// keyed by trip id. Added, unscheduled and duplicated trips are not
// supported and are ignored.
func ParseTripUpdates(feed []byte) (map[string]*TripUpdate, error) {
	f := &gtfsproto.FeedMessage{}
	if err := proto.Unmarshal(feed, f); err != nil {
		return nil, fmt.Errorf("unmarshaling protobuf: %w", err)
	}

	header := f.GetHeader()
	version := header.GetGtfsRealtimeVersion()
	if version != "2.0" && version != "1.0" {
		return nil, fmt.Errorf("version %s not supported", version)
	}
	if header.GetIncrementality() != gtfsproto.FeedHeader_FULL_DATASET {
		return nil, fmt.Errorf("feed incrementality %s not supported", header.GetIncrementality())
	}

	updates := map[string]*TripUpdate{}

	for _, entity := range f.GetEntity() {
		// We only care about TripUpdates.
		if entity.TripUpdate == nil {
			continue
		}

		trip := entity.TripUpdate.Trip
		if trip == nil {
			return nil, fmt.Errorf("trip_update missing trip")
		}
		if trip.GetTripId() == "" {
			// Blank trip ID is allowed when the trip is uniquely
			// identified by route/direction/start. We don't
			// support that.
			continue
		}

		switch trip.GetScheduleRelationship() {

		case gtfsproto.TripDescriptor_SCHEDULED:
			tu := &TripUpdate{TripID: trip.GetTripId()}
			for _, stup := range entity.TripUpdate.GetStopTimeUpdate() {
				if stup.GetScheduleRelationship() != gtfsproto.TripUpdate_StopTimeUpdate_SCHEDULED {
					continue
				}
				su := StopUpdate{
					StopID:       stup.GetStopId(),
					StopSequence: stup.GetStopSequence(),
					Platform:     stup.GetStopTimeProperties().GetAssignedStopId(),
				}
				if stup.Arrival != nil {
					su.ArrivalDelay = int(stup.GetArrival().GetDelay())
				}
				if stup.Departure != nil {
					su.DepartureDelay = int(stup.GetDeparture().GetDelay())
				} else if stup.Arrival != nil {
					// Lacking departure data, the arrival delay
					// carries over.
					su.DepartureDelay = su.ArrivalDelay
				}
				if stup.Arrival == nil && stup.Departure != nil {
					su.ArrivalDelay = su.DepartureDelay
				}
				tu.StopUpdates = append(tu.StopUpdates, su)
			}
			updates[tu.TripID] = tu

		case gtfsproto.TripDescriptor_CANCELED:
			updates[trip.GetTripId()] = &TripUpdate{
				TripID:    trip.GetTripId(),
				Cancelled: true,
			}
		}
	}

	return updates, nil
}
