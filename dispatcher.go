package transit

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"victransit.dev/transit/catalog"
	"victransit.dev/transit/fetch"
	"victransit.dev/transit/model"
	"victransit.dev/transit/stopindex"
)

const (
	// DefaultRequestTimeout is the wall-clock budget for one request
	// across all mode planners.
	DefaultRequestTimeout = 10 * time.Second

	// suggestionFloor is the looser fuzzy cutoff used to produce
	// suggestions once the real lookup has failed.
	suggestionFloor = 40
)

// RealtimeSource supplies raw trip-update bytes for a mode. The
// planner core never fetches; fetch.Fetcher satisfies this.
type RealtimeSource interface {
	TripUpdates(ctx context.Context, mode string) ([]byte, error)
}

// Options tunes a Dispatcher. Zero values select the defaults.
type Options struct {
	MinTransferSecs  int
	MaxNextDaySearch int
	FuzzyMinScore    int
	RequestTimeout   time.Duration
	Realtime         RealtimeSource
	Logger           *slog.Logger
	TimeNow          func() time.Time
}

// Dispatcher answers journey requests by resolving stop queries and
// running one planner per mode concurrently. Construction does all the
// heavy lifting (connection arrays, calendar index); a built Dispatcher
// is read-only and safe for concurrent requests.
type Dispatcher struct {
	cat      *catalog.Catalog
	index    *stopindex.Index
	planners map[string]*Planner

	fuzzyMinScore int
	timeout       time.Duration
	realtime      RealtimeSource
	timeNow       func() time.Time
	logger        *slog.Logger
}

func NewDispatcher(cat *catalog.Catalog, index *stopindex.Index, opts Options) *Dispatcher {
	if opts.MinTransferSecs <= 0 {
		opts.MinTransferSecs = DefaultMinTransferSecs
	}
	if opts.MaxNextDaySearch <= 0 {
		opts.MaxNextDaySearch = DefaultMaxNextDaySearch
	}
	if opts.FuzzyMinScore <= 0 {
		opts.FuzzyMinScore = stopindex.DefaultMinScore
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TimeNow == nil {
		opts.TimeNow = time.Now
	}

	cal := NewServiceCalendar(cat, opts.Logger)
	planners := map[string]*Planner{}
	for _, mode := range cat.Modes() {
		p := NewPlanner(cat, BuildConnections(cat, mode), cal)
		p.MinTransferSecs = opts.MinTransferSecs
		p.MaxNextDaySearch = opts.MaxNextDaySearch
		planners[mode] = p
	}

	return &Dispatcher{
		cat:           cat,
		index:         index,
		planners:      planners,
		fuzzyMinScore: opts.FuzzyMinScore,
		timeout:       opts.RequestTimeout,
		realtime:      opts.Realtime,
		timeNow:       opts.TimeNow,
		logger:        opts.Logger,
	}
}

// Plan resolves the request's stop queries and plans one journey per
// mode. Per-mode failures land in that mode's slot; only unresolvable
// input (bad time, bad date, unknown stop) fails the whole request.
func (d *Dispatcher) Plan(ctx context.Context, req Request) (*Response, error) {
	requestID := uuid.NewString()
	logger := d.logger.With("request_id", requestID)

	now := d.timeNow()
	depart, err := parseDepartureTime(req.DepartureTime, now)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(req.Date, now)
	if err != nil {
		return nil, err
	}

	modes := req.Modes
	if len(modes) == 0 {
		modes = d.cat.Modes()
	}
	for _, mode := range modes {
		if _, ok := d.planners[mode]; !ok {
			return nil, fmt.Errorf("unknown mode '%s'", mode)
		}
	}

	origin, err := d.resolveStops(req.OriginQuery)
	if err != nil {
		return nil, err
	}
	dest, err := d.resolveStops(req.DestinationQuery)
	if err != nil {
		return nil, err
	}

	logger.Info("planning journey",
		"origin", req.OriginQuery,
		"destination", req.DestinationQuery,
		"date", date.Format("2006-01-02"),
		"depart", model.FormatTime(depart),
		"modes", modes)

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	results := map[string]*ModeResult{}
	journeys := map[string]*model.Journey{}

	// Settle the null slots first: once the planner goroutines are
	// running, results is only written under mu.
	var planned []string
	for _, mode := range modes {
		_, okO := origin[mode]
		_, okD := dest[mode]
		if !okO || !okD {
			// The mode doesn't serve both endpoints; report null
			// without scanning.
			results[mode] = &ModeResult{}
			continue
		}
		planned = append(planned, mode)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, mode := range planned {
		wg.Add(1)
		go func(mode, originID, destID string) {
			defer wg.Done()
			journey, err := d.planners[mode].Plan(ctx, originID, destID, depart, date)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				journeys[mode] = journey
				results[mode] = &ModeResult{}
			case stderrors.Is(err, ErrTimeout):
				results[mode] = &ModeResult{Note: "Timeout"}
			case stderrors.Is(err, ErrCancelled):
				results[mode] = &ModeResult{Note: "Cancelled"}
			case stderrors.Is(err, ErrNoRoute):
				results[mode] = &ModeResult{Error: "No route available"}
			case stderrors.Is(err, ErrNoServiceIn7Days):
				results[mode] = &ModeResult{Error: "No service within 7 days"}
			default:
				results[mode] = &ModeResult{Error: err.Error()}
			}
		}(mode, origin[mode], dest[mode])
	}
	wg.Wait()

	if req.Realtime {
		d.overlay(ctx, logger, journeys, results)
	}

	for mode, journey := range journeys {
		results[mode].Journey = d.buildJourneyResponse(journey)
	}

	return &Response{
		RequestID: requestID,
		Date:      date.Format("2006-01-02"),
		Results:   results,
	}, nil
}

// resolveStops turns a free-text query into one stop id per mode. An
// exact name match wins; otherwise the best fuzzy match is taken and
// widened back to every stop sharing its name, so the same station
// resolves in every mode that serves it.
func (d *Dispatcher) resolveStops(query string) (map[string]string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, &UnknownStopError{Query: query}
	}

	ids := d.index.LookupExact(q)
	if len(ids) == 0 {
		matches := d.index.LookupFuzzy(q, 5, d.fuzzyMinScore)
		if len(matches) == 0 {
			var suggestions []string
			seen := map[string]bool{}
			for _, m := range d.index.LookupFuzzy(q, 10, suggestionFloor) {
				if seen[m.Name] {
					continue
				}
				seen[m.Name] = true
				suggestions = append(suggestions, m.Name)
				if len(suggestions) == 5 {
					break
				}
			}
			return nil, &UnknownStopError{Query: query, Suggestions: suggestions}
		}
		ids = d.index.LookupExact(matches[0].Name)
	}

	byMode := map[string]string{}
	for _, id := range ids {
		mode := catalog.ModeOf(id)
		if _, ok := byMode[mode]; !ok {
			byMode[mode] = id
		}
	}
	return byMode, nil
}

// overlay fetches and applies trip updates per mode. Overlay failures
// only annotate the result; the scheduled journey always survives.
func (d *Dispatcher) overlay(ctx context.Context, logger *slog.Logger, journeys map[string]*model.Journey, results map[string]*ModeResult) {
	if d.realtime == nil {
		return
	}

	for mode, journey := range journeys {
		blob, err := d.realtime.TripUpdates(ctx, mode)
		switch {
		case err == nil:
		case stderrors.Is(err, fetch.ErrRateLimited):
			results[mode].Note = "RateLimited"
			continue
		case stderrors.Is(err, fetch.ErrMissingAPIKey):
			results[mode].Note = "RealtimeDisabled"
			continue
		default:
			logger.Warn("realtime fetch failed", "mode", mode, "error", err)
			results[mode].Note = "UpstreamUnavailable"
			continue
		}

		if err := OverlayTripUpdates(journey, blob); err != nil {
			logger.Warn("skipping malformed realtime feed", "mode", mode, "error", err)
			results[mode].Note = "MalformedRealtime"
		}
	}
}

func (d *Dispatcher) buildJourneyResponse(j *model.Journey) *JourneyResponse {
	resp := &JourneyResponse{
		Origin:             d.stopRef(j.OriginStopID),
		Destination:        d.stopRef(j.DestinationStopID),
		DepartureTime:      model.FormatTime(j.Departure),
		ArrivalTime:        model.FormatTime(j.Arrival),
		DurationSeconds:    j.DurationSeconds,
		NumTransfers:       j.NumTransfers,
		HasRealtime:        j.HasRealtime,
		ValidAfterRealtime: j.ValidAfterRealtime,
		BrokenTransfers:    j.BrokenTransfers,
		DateShiftedByDays:  j.DateShiftedByDays,
	}

	for _, leg := range j.Legs {
		lr := LegResponse{
			FromStop:           leg.FromStop,
			ToStop:             leg.ToStop,
			DepartureTime:      model.FormatTime(leg.Departure),
			ArrivalTime:        model.FormatTime(leg.Arrival),
			DurationSeconds:    leg.DurationSeconds(),
			RouteShortName:     leg.RouteShortName,
			RouteType:          int(leg.RouteType),
			ModeDisplay:        leg.RouteType.Display(),
			NumStops:           leg.NumStops,
			IntermediateStops:  leg.IntermediateStops,
			IsTransfer:         leg.IsTransfer,
			ScheduledDeparture: model.FormatTime(leg.ScheduledDeparture),
			ScheduledArrival:   model.FormatTime(leg.ScheduledArrival),
			DelaySeconds:       leg.DelaySeconds,
			Cancelled:          leg.Cancelled,
			Platform:           leg.Platform,
		}
		if j.HasRealtime && !leg.IsTransfer {
			lr.ActualDeparture = model.FormatTime(leg.ActualDeparture)
			lr.ActualArrival = model.FormatTime(leg.ActualArrival)
		}
		resp.Legs = append(resp.Legs, lr)
	}

	return resp
}

func (d *Dispatcher) stopRef(id string) StopRef {
	stop, ok := d.cat.Stop(id)
	if !ok {
		return StopRef{ID: id, Name: id}
	}
	return StopRef{
		ID:       stop.ID,
		Name:     stop.Name,
		Lat:      stop.Lat,
		Lon:      stop.Lon,
		Platform: stop.Platform,
	}
}
