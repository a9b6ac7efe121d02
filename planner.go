package transit

import (
	"context"
	stderrors "errors"
	"time"

	"victransit.dev/transit/catalog"
	"victransit.dev/transit/model"
)

const (
	// DefaultMinTransferSecs is the floor applied when changing trips
	// at a stop without an in-feed transfer record.
	DefaultMinTransferSecs = 120

	// DefaultMaxNextDaySearch bounds how many extra days the planner
	// tries when the requested date has no reachable service.
	DefaultMaxNextDaySearch = 7

	// Cancellation is polled between scan iterations at this stride.
	cancelCheckStride = 4096
)

const unreachable = int(^uint(0) >> 1)

// Planner runs earliest-arrival searches over one mode's connections.
// All fields are read-only after construction; Plan is safe for
// concurrent use.
type Planner struct {
	cat *catalog.Catalog
	set *ConnectionSet
	cal *ServiceCalendar

	MinTransferSecs  int
	MaxNextDaySearch int
}

// NewPlanner wires a planner over a built connection set.
func NewPlanner(cat *catalog.Catalog, set *ConnectionSet, cal *ServiceCalendar) *Planner {
	return &Planner{
		cat:              cat,
		set:              set,
		cal:              cal,
		MinTransferSecs:  DefaultMinTransferSecs,
		MaxNextDaySearch: DefaultMaxNextDaySearch,
	}
}

// Plan finds the earliest-arrival journey from origin to destination
// departing at or after departSecs on date. When the requested date has
// no reachable service the search advances a day at a time, up to
// MaxNextDaySearch days, reporting the shift on the journey. Returns
// ErrNoRoute when the timetable never links the stops at all, and
// ErrNoServiceIn7Days when it does but nothing runs inside the window.
func (p *Planner) Plan(ctx context.Context, originID, destID string, departSecs int, date time.Time) (*model.Journey, error) {
	if originID == destID {
		return p.zeroLegJourney(originID), nil
	}

	for shift := 0; shift <= p.MaxNextDaySearch; shift++ {
		depart := departSecs
		if shift > 0 {
			depart = 0
		}

		path, err := p.scan(ctx, originID, destID, depart, date.AddDate(0, 0, shift), false)
		if err != nil {
			return nil, err
		}
		if path != nil {
			journey := p.reconstruct(originID, destID, path)
			journey.DateShiftedByDays = shift
			// A raw past-24:00 departure means the rider boards after
			// midnight: restate the journey on the next day's clock so
			// the shift matches the formatted times.
			if days := journey.Departure / model.SecondsPerDay; days > 0 {
				journey.DateShiftedByDays += days
				shiftJourney(journey, -days*model.SecondsPerDay)
			}
			return journey, nil
		}
	}

	// Nothing in the window. Distinguish "the timetable never links
	// these stops" from "it does, just not soon": rescan with the
	// service filter off.
	path, err := p.scan(ctx, originID, destID, 0, date, true)
	if err != nil {
		return nil, err
	}
	if path != nil {
		return nil, ErrNoServiceIn7Days
	}
	return nil, ErrNoRoute
}

// scan runs one connection-scan pass for a single service date. It
// merges the regular connections (services checked against date) with
// the previous day's past-midnight connections (services checked
// against date-1), both pre-sorted by departure. Returns the connection
// path to the destination, or nil. With ignoreService set every trip
// counts as running, which turns the scan into a pure reachability
// check.
func (p *Planner) scan(ctx context.Context, originID, destID string, departSecs int, date time.Time, ignoreService bool) ([]model.Connection, error) {
	earliest := map[string]int{originID: departSecs}
	incoming := map[string]model.Connection{}

	arrivalAt := func(stopID string) int {
		if a, ok := earliest[stopID]; ok {
			return a
		}
		return unreachable
	}

	regular := p.set.Connections()
	overnight := p.set.Overnight()
	prevDate := date.AddDate(0, 0, -1)

	ri, oi := 0, 0
	for iter := 0; ri < len(regular) || oi < len(overnight); iter++ {
		if iter%cancelCheckStride == 0 && ctx.Err() != nil {
			if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrTimeout
			}
			return nil, ErrCancelled
		}

		var c model.Connection
		var serviceDate time.Time
		if oi >= len(overnight) || (ri < len(regular) && lessConnection(regular[ri], overnight[oi])) {
			c = regular[ri]
			serviceDate = date
			ri++
		} else {
			c = overnight[oi]
			serviceDate = prevDate
			oi++
		}

		// Early exit: connections now depart later than the best
		// known arrival; nothing can improve.
		if best := arrivalAt(destID); c.Departure > best {
			break
		}

		if c.Departure < arrivalAt(c.FromStopID) {
			continue
		}
		if !ignoreService && !p.cal.IsActive(c.ServiceID, serviceDate) {
			continue
		}

		// Trip changes at a bare stop need the transfer-time floor.
		// Arrivals via an in-feed transfer already paid the walk.
		if in, ok := incoming[c.FromStopID]; ok && !in.IsTransfer() && in.TripID != c.TripID {
			if c.Departure-arrivalAt(c.FromStopID) < p.MinTransferSecs {
				continue
			}
		}

		if c.Arrival < arrivalAt(c.ToStopID) {
			earliest[c.ToStopID] = c.Arrival
			incoming[c.ToStopID] = c
			p.relaxTransfers(c, earliest, incoming)
		}
	}

	if _, ok := incoming[destID]; !ok {
		return nil, nil
	}

	var path []model.Connection
	for at := destID; at != originID; {
		c := incoming[at]
		path = append(path, c)
		at = c.FromStopID
	}
	reverse(path)
	return path, nil
}

// relaxTransfers follows the in-feed walks out of a freshly improved
// stop, synthesising transfer connections with absolute times.
func (p *Planner) relaxTransfers(c model.Connection, earliest map[string]int, incoming map[string]model.Connection) {
	for _, tr := range p.set.TransfersFrom(c.ToStopID) {
		arr := c.Arrival + tr.MinTransferTime
		if prev, ok := earliest[tr.ToStopID]; ok && arr >= prev {
			continue
		}
		earliest[tr.ToStopID] = arr
		incoming[tr.ToStopID] = model.Connection{
			FromStopID: tr.FromStopID,
			ToStopID:   tr.ToStopID,
			Departure:  c.Arrival,
			Arrival:    arr,
			RouteType:  model.RouteTypeNone,
		}
	}
}

func (p *Planner) zeroLegJourney(stopID string) *model.Journey {
	return &model.Journey{
		OriginStopID:       stopID,
		OriginStop:         p.cat.StopName(stopID),
		DestinationStopID:  stopID,
		DestinationStop:    p.cat.StopName(stopID),
		ValidAfterRealtime: true,
	}
}

func lessConnection(a, b model.Connection) bool {
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
}

func reverse(conns []model.Connection) {
	for i, j := 0, len(conns)-1; i < j; i, j = i+1, j-1 {
		conns[i], conns[j] = conns[j], conns[i]
	}
}
