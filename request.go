package transit

import (
	"fmt"
	"strings"
	"time"

	"victransit.dev/transit/model"
)

// Request is the shape consumed by the HTTP façade and the CLI. Their
// transport is out of scope; only the structure is defined here.
type Request struct {
	OriginQuery      string   `json:"origin_query"`
	DestinationQuery string   `json:"destination_query"`
	DepartureTime    string   `json:"departure_time"` // HH:MM[:SS] or "now"
	Date             string   `json:"date"`           // YYYY-MM-DD or "today"
	Realtime         bool     `json:"realtime"`
	Modes            []string `json:"modes,omitempty"` // empty means all
}

// StopRef identifies one endpoint of a journey in a response.
type StopRef struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Platform string  `json:"platform,omitempty"`
}

type LegResponse struct {
	FromStop          string   `json:"from_stop"`
	ToStop            string   `json:"to_stop"`
	DepartureTime     string   `json:"departure_time"`
	ArrivalTime       string   `json:"arrival_time"`
	DurationSeconds   int      `json:"duration_seconds"`
	RouteShortName    string   `json:"route_short_name,omitempty"`
	RouteType         int      `json:"route_type"`
	ModeDisplay       string   `json:"mode_display"`
	NumStops          int      `json:"num_stops"`
	IntermediateStops []string `json:"intermediate_stops,omitempty"`
	IsTransfer        bool     `json:"is_transfer"`

	ScheduledDeparture string `json:"scheduled_departure"`
	ScheduledArrival   string `json:"scheduled_arrival"`
	ActualDeparture    string `json:"actual_departure,omitempty"`
	ActualArrival      string `json:"actual_arrival,omitempty"`
	DelaySeconds       int    `json:"delay_seconds"`
	Cancelled          bool   `json:"cancelled"`
	Platform           string `json:"platform,omitempty"`
}

type JourneyResponse struct {
	Origin      StopRef `json:"origin"`
	Destination StopRef `json:"destination"`

	DepartureTime   string `json:"departure_time"`
	ArrivalTime     string `json:"arrival_time"`
	DurationSeconds int    `json:"duration_seconds"`
	NumTransfers    int    `json:"num_transfers"`

	Legs []LegResponse `json:"legs"`

	HasRealtime        bool     `json:"has_realtime"`
	ValidAfterRealtime bool     `json:"valid_after_realtime"`
	BrokenTransfers    []string `json:"broken_transfers,omitempty"`
	DateShiftedByDays  int      `json:"date_shifted_by_days"`
}

// ModeResult is one mode's slot in a response. Journey is null when
// the mode can't serve the request; Error carries the per-mode error
// shape and Note carries overlay or lifecycle warnings (Timeout,
// RateLimited and friends).
type ModeResult struct {
	Journey *JourneyResponse `json:"journey"`
	Error   string           `json:"error,omitempty"`
	Note    string           `json:"note,omitempty"`
}

// Response maps each requested mode to its result. A success response
// is HTTP 200 even when every mode is null; the façade maps UnknownStop
// to 400, an all-mode NoRoute to 404, and upstream feed outage to 503.
type Response struct {
	RequestID string                 `json:"request_id"`
	Date      string                 `json:"date"`
	Results   map[string]*ModeResult `json:"results"`
}

// UnknownStopError reports a query that resolved to no stop, with
// near-miss suggestions for the caller to surface.
type UnknownStopError struct {
	Query       string
	Suggestions []string
}

func (e *UnknownStopError) Error() string {
	return fmt.Sprintf("no stop matching '%s'", e.Query)
}

func (e *UnknownStopError) Unwrap() error {
	return ErrUnknownStop
}

// parseDepartureTime accepts HH:MM, HH:MM:SS or the literal "now".
func parseDepartureTime(s string, now time.Time) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "now") {
		return now.Hour()*3600 + now.Minute()*60 + now.Second(), nil
	}
	if strings.Count(s, ":") == 1 {
		s += ":00"
	}
	secs, err := model.ParseTime(s)
	if err != nil {
		return 0, fmt.Errorf("invalid departure time '%s': %w", s, err)
	}
	return secs, nil
}

// parseDate accepts YYYY-MM-DD or the literal "today".
func parseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "today") {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	}
	d, err := time.ParseInLocation("2006-01-02", s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date '%s'", s)
	}
	return d, nil
}
