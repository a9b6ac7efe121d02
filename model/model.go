package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Holds all external facing types and constants.

// SecondsPerDay is the length of a GTFS service day. Stop times past
// midnight carry values >= SecondsPerDay and belong to the previous
// service day.
const SecondsPerDay = 86400

type RouteType int

const (
	// RouteTypeNone marks transfer legs, which have no vehicle.
	RouteTypeNone RouteType = -1

	RouteTypeTram             RouteType = 0
	RouteTypeRail             RouteType = 2
	RouteTypeBus              RouteType = 3
	RouteTypeLongDistanceRail RouteType = 102
	RouteTypeExpressBus       RouteType = 204
	RouteTypeMetro            RouteType = 400
	RouteTypeBusService       RouteType = 700
	RouteTypeRegionalBus      RouteType = 701
	RouteTypeTramService      RouteType = 900
)

// Display returns the rider-facing mode name for a route type.
func (rt RouteType) Display() string {
	switch rt {
	case RouteTypeTram, RouteTypeTramService:
		return "Tram"
	case RouteTypeRail:
		return "Regional Train"
	case RouteTypeLongDistanceRail:
		return "Long Distance Train"
	case RouteTypeMetro:
		return "Metro Train"
	case RouteTypeBus, RouteTypeBusService:
		return "Bus"
	case RouteTypeExpressBus:
		return "Express Bus"
	case RouteTypeRegionalBus:
		return "Regional Bus"
	case RouteTypeNone:
		return "Transfer"
	}
	return "Unknown"
}

type Agency struct {
	ID       string
	Name     string
	URL      string
	Timezone string
}

type Stop struct {
	ID       string
	Name     string
	Lat      float64
	Lon      float64
	Platform string

	// Mode tag of the bundle the stop was loaded from.
	Mode string
}

type Route struct {
	ID        string
	AgencyID  string
	ShortName string
	LongName  string
	Type      RouteType
}

type Trip struct {
	ID          string
	RouteID     string
	ServiceID   string
	Headsign    string
	DirectionID int8
}

// StopTime records one scheduled call of a trip at a stop. Arrival and
// Departure are seconds from midnight of the trip's service day and may
// exceed SecondsPerDay for next-day wrap.
type StopTime struct {
	TripID       string
	StopID       string
	StopSequence uint32
	Arrival      int
	Departure    int
}

type Calendar struct {
	ServiceID string
	StartDate string // YYYYMMDD
	EndDate   string // YYYYMMDD
	Weekday   int8   // bitmap, bit n set when service runs on time.Weekday(n)
}

const (
	ExceptionAdded   int8 = 1
	ExceptionRemoved int8 = 2
)

type CalendarDate struct {
	ServiceID     string
	Date          string // YYYYMMDD
	ExceptionType int8
}

type Transfer struct {
	FromStopID      string
	ToStopID        string
	TransferType    int8
	MinTransferTime int // seconds
}

// Connection is one timetabled hop between two consecutive stops of a
// trip, the planner's atomic unit. Transfer connections have TripID ==
// "" and ServiceID == "", with Arrival - Departure equal to the minimum
// transfer time; their absolute times are assigned during the scan.
type Connection struct {
	FromStopID string
	ToStopID   string
	Departure  int
	Arrival    int
	TripID     string
	RouteID    string
	RouteType  RouteType
	ServiceID  string
}

func (c Connection) IsTransfer() bool {
	return c.TripID == ""
}

// Leg is one contiguous segment of a journey: either a ride on a single
// trip, or a transfer between trips.
type Leg struct {
	FromStopID string
	FromStop   string
	ToStopID   string
	ToStop     string

	Departure int
	Arrival   int

	TripID         string
	RouteID        string
	RouteShortName string
	RouteType      RouteType
	IsTransfer     bool

	// Intermediate stop names, excluding the leg's own endpoints.
	IntermediateStops []string
	NumStops          int

	ScheduledDeparture int
	ScheduledArrival   int
	ActualDeparture    int
	ActualArrival      int
	DelaySeconds       int
	Cancelled          bool

	Platform string
}

func (l Leg) DurationSeconds() int {
	d := l.Arrival - l.Departure
	if d < 0 {
		d += SecondsPerDay
	}
	return d
}

type Journey struct {
	OriginStopID       string
	OriginStop         string
	DestinationStopID  string
	DestinationStop    string
	Departure          int
	Arrival            int
	DurationSeconds    int
	NumTransfers       int
	Legs               []Leg
	DateShiftedByDays  int
	HasRealtime        bool
	ValidAfterRealtime bool

	// Interchange names whose transfer no longer holds after the
	// realtime overlay. The journey is still returned.
	BrokenTransfers []string
}

// ParseTime parses a GTFS HH:MM:SS time into seconds from midnight.
// Hours up to 47 are accepted; values past 24:00:00 are preserved, not
// normalised.
func ParseTime(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("found %d parts in '%s'", len(parts), s)
	}

	hms := [3]int{}
	for i, str := range parts {
		j, err := strconv.Atoi(strings.TrimSpace(str))
		if err != nil {
			return 0, fmt.Errorf("non-integer in '%s' pos %d", s, i)
		}
		hms[i] = j
	}

	if hms[0] < 0 || hms[0] > 47 {
		return 0, fmt.Errorf("invalid hour in '%s'", s)
	}
	if hms[1] < 0 || hms[1] > 59 {
		return 0, fmt.Errorf("invalid minute in '%s'", s)
	}
	if hms[2] < 0 || hms[2] > 59 {
		return 0, fmt.Errorf("invalid second in '%s'", s)
	}

	return hms[0]*3600 + hms[1]*60 + hms[2], nil
}

// FormatTime renders seconds from midnight as HH:MM:SS on a 24 hour
// clock. Next-day wrap values are folded back into [0, 24h).
func FormatTime(secs int) string {
	secs %= SecondsPerDay
	if secs < 0 {
		secs += SecondsPerDay
	}
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}
