package parse

import (
	"testing"

	gtfsproto "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	proto "google.golang.org/protobuf/proto"
)

func marshalFeed(t *testing.T, f *gtfsproto.FeedMessage) []byte {
	t.Helper()
	blob, err := proto.Marshal(f)
	require.NoError(t, err)
	return blob
}

func feedHeader() *gtfsproto.FeedHeader {
	return &gtfsproto.FeedHeader{
		GtfsRealtimeVersion: proto.String("2.0"),
		Incrementality:      gtfsproto.FeedHeader_FULL_DATASET.Enum(),
	}
}

func TestParseTripUpdatesDelays(t *testing.T) {
	blob := marshalFeed(t, &gtfsproto.FeedMessage{
		Header: feedHeader(),
		Entity: []*gtfsproto.FeedEntity{
			{
				Id: proto.String("1"),
				TripUpdate: &gtfsproto.TripUpdate{
					Trip: &gtfsproto.TripDescriptor{
						TripId:               proto.String("T1"),
						ScheduleRelationship: gtfsproto.TripDescriptor_SCHEDULED.Enum(),
					},
					StopTimeUpdate: []*gtfsproto.TripUpdate_StopTimeUpdate{
						{
							StopId:    proto.String("GEL"),
							Arrival:   &gtfsproto.TripUpdate_StopTimeEvent{Delay: proto.Int32(120)},
							Departure: &gtfsproto.TripUpdate_StopTimeEvent{Delay: proto.Int32(90)},
						},
						{
							StopId:  proto.String("WPD"),
							Arrival: &gtfsproto.TripUpdate_StopTimeEvent{Delay: proto.Int32(60)},
							StopTimeProperties: &gtfsproto.TripUpdate_StopTimeUpdate_StopTimeProperties{
								AssignedStopId: proto.String("3"),
							},
						},
					},
				},
			},
		},
	})

	updates, err := ParseTripUpdates(blob)
	require.NoError(t, err)
	require.Len(t, updates, 1)

	tu := updates["T1"]
	require.NotNil(t, tu)
	assert.False(t, tu.Cancelled)

	su, ok := tu.Update("GEL")
	require.True(t, ok)
	assert.Equal(t, 120, su.ArrivalDelay)
	assert.Equal(t, 90, su.DepartureDelay)

	// Missing departure inherits the arrival delay; platform comes
	// from the assigned stop.
	su, ok = tu.Update("WPD")
	require.True(t, ok)
	assert.Equal(t, 60, su.ArrivalDelay)
	assert.Equal(t, 60, su.DepartureDelay)
	assert.Equal(t, "3", su.Platform)

	_, ok = tu.Update("NOPE")
	assert.False(t, ok)
}

func TestParseTripUpdatesCancelledTrip(t *testing.T) {
	blob := marshalFeed(t, &gtfsproto.FeedMessage{
		Header: feedHeader(),
		Entity: []*gtfsproto.FeedEntity{
			{
				Id: proto.String("1"),
				TripUpdate: &gtfsproto.TripUpdate{
					Trip: &gtfsproto.TripDescriptor{
						TripId:               proto.String("T1"),
						ScheduleRelationship: gtfsproto.TripDescriptor_CANCELED.Enum(),
					},
				},
			},
		},
	})

	updates, err := ParseTripUpdates(blob)
	require.NoError(t, err)
	require.NotNil(t, updates["T1"])
	assert.True(t, updates["T1"].Cancelled)
}

func TestParseTripUpdatesSkipsUnsupported(t *testing.T) {
	blob := marshalFeed(t, &gtfsproto.FeedMessage{
		Header: feedHeader(),
		Entity: []*gtfsproto.FeedEntity{
			{
				// Blank trip id.
				Id: proto.String("1"),
				TripUpdate: &gtfsproto.TripUpdate{
					Trip: &gtfsproto.TripDescriptor{
						ScheduleRelationship: gtfsproto.TripDescriptor_SCHEDULED.Enum(),
					},
				},
			},
			{
				// Added trips are unsupported.
				Id: proto.String("2"),
				TripUpdate: &gtfsproto.TripUpdate{
					Trip: &gtfsproto.TripDescriptor{
						TripId:               proto.String("T9"),
						ScheduleRelationship: gtfsproto.TripDescriptor_ADDED.Enum(),
					},
				},
			},
		},
	})

	updates, err := ParseTripUpdates(blob)
	require.NoError(t, err)
	assert.Empty(t, updates)
}

func TestParseTripUpdatesBadVersion(t *testing.T) {
	blob := marshalFeed(t, &gtfsproto.FeedMessage{
		Header: &gtfsproto.FeedHeader{
			GtfsRealtimeVersion: proto.String("3.0"),
		},
	})

	_, err := ParseTripUpdates(blob)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3.0")
}

func TestParseTripUpdatesMalformedBytes(t *testing.T) {
	_, err := ParseTripUpdates([]byte("this is not a protobuf"))
	require.Error(t, err)
}
