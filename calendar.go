package transit

import (
	"log/slog"
	"sync"
	"time"

	"victransit.dev/transit/catalog"
	"victransit.dev/transit/model"
)

const dateLayout = "20060102"

// ServiceCalendar answers whether a service runs on a given date.
// Lookups are O(1) plus a short scan of that service's exceptions.
type ServiceCalendar struct {
	calendars   map[string]model.Calendar
	exceptions  map[string]map[string]int8 // service id -> YYYYMMDD -> exception type
	hasCalendar map[string]bool            // by mode tag

	warnOnce sync.Once
	logger   *slog.Logger
}

// NewServiceCalendar indexes the catalogue's calendar data.
func NewServiceCalendar(cat *catalog.Catalog, logger *slog.Logger) *ServiceCalendar {
	if logger == nil {
		logger = slog.Default()
	}

	sc := &ServiceCalendar{
		calendars:   cat.Calendars(),
		exceptions:  map[string]map[string]int8{},
		hasCalendar: map[string]bool{},
		logger:      logger,
	}
	for _, mode := range cat.Modes() {
		sc.hasCalendar[mode] = cat.HasCalendar(mode)
	}
	for serviceID, dates := range cat.CalendarDates() {
		byDate := map[string]int8{}
		for _, cd := range dates {
			byDate[cd.Date] = cd.ExceptionType
		}
		sc.exceptions[serviceID] = byDate
	}
	return sc
}

// IsActive reports whether serviceID runs on date. Bundles loaded
// without calendar data fail open: every service is considered active,
// with a once-only warning.
func (sc *ServiceCalendar) IsActive(serviceID string, date time.Time) bool {
	if !sc.hasCalendar[catalog.ModeOf(serviceID)] {
		sc.warnOnce.Do(func() {
			sc.logger.Warn("no calendar data loaded, treating all services as active",
				"mode", catalog.ModeOf(serviceID))
		})
		return true
	}

	cal, ok := sc.calendars[serviceID]
	if !ok {
		return false
	}

	day := date.Format(dateLayout)
	if day < cal.StartDate || day > cal.EndDate {
		return false
	}

	switch sc.exceptions[serviceID][day] {
	case model.ExceptionRemoved:
		return false
	case model.ExceptionAdded:
		return true
	}

	return cal.Weekday&(1<<date.Weekday()) != 0
}
