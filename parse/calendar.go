package parse

import (
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"victransit.dev/transit/model"
)

type CalendarCSV struct {
	ServiceID string `csv:"service_id"`
	StartDate string `csv:"start_date"`
	EndDate   string `csv:"end_date"`
	Monday    int8   `csv:"monday"`
	Tuesday   int8   `csv:"tuesday"`
	Wednesday int8   `csv:"wednesday"`
	Thursday  int8   `csv:"thursday"`
	Friday    int8   `csv:"friday"`
	Saturday  int8   `csv:"saturday"`
	Sunday    int8   `csv:"sunday"`
}

func ParseCalendars(data io.Reader) ([]model.Calendar, error) {
	calendarCsv := []*CalendarCSV{}
	if err := gocsv.Unmarshal(data, &calendarCsv); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling calendar csv: %v", ErrMalformedFeed, err)
	}

	calendars := make([]model.Calendar, 0, len(calendarCsv))
	seen := map[string]bool{}

	for _, c := range calendarCsv {
		if c.ServiceID == "" {
			return nil, fmt.Errorf("%w: empty service_id", ErrMalformedFeed)
		}
		if seen[c.ServiceID] {
			return nil, fmt.Errorf("%w: repeated service_id '%s'", ErrMalformedFeed, c.ServiceID)
		}
		seen[c.ServiceID] = true

		var weekday int8
		days := []struct {
			val int8
			day time.Weekday
		}{
			{c.Monday, time.Monday},
			{c.Tuesday, time.Tuesday},
			{c.Wednesday, time.Wednesday},
			{c.Thursday, time.Thursday},
			{c.Friday, time.Friday},
			{c.Saturday, time.Saturday},
			{c.Sunday, time.Sunday},
		}
		for _, d := range days {
			if d.val == 1 {
				weekday |= 1 << d.day
			} else if d.val != 0 {
				return nil, fmt.Errorf("%w: invalid %s value '%d' for service '%s'", ErrMalformedFeed, d.day, d.val, c.ServiceID)
			}
		}

		if _, err := time.ParseInLocation("20060102", c.StartDate, time.UTC); err != nil {
			return nil, fmt.Errorf("%w: parsing start_date '%s': %v", ErrMalformedFeed, c.StartDate, err)
		}
		if _, err := time.ParseInLocation("20060102", c.EndDate, time.UTC); err != nil {
			return nil, fmt.Errorf("%w: parsing end_date '%s': %v", ErrMalformedFeed, c.EndDate, err)
		}

		calendars = append(calendars, model.Calendar{
			ServiceID: c.ServiceID,
			StartDate: c.StartDate,
			EndDate:   c.EndDate,
			Weekday:   weekday,
		})
	}

	return calendars, nil
}
