package parse

import (
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"victransit.dev/transit/model"
)

type CalendarDateCSV struct {
	ServiceID     string `csv:"service_id"`
	Date          string `csv:"date"`
	ExceptionType int8   `csv:"exception_type"`
}

func ParseCalendarDates(data io.Reader) ([]model.CalendarDate, error) {
	calendarDateCsv := []*CalendarDateCSV{}
	if err := gocsv.Unmarshal(data, &calendarDateCsv); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling calendar_dates csv: %v", ErrMalformedFeed, err)
	}

	dates := make([]model.CalendarDate, 0, len(calendarDateCsv))
	seen := map[string]bool{}

	for _, cd := range calendarDateCsv {
		if cd.ServiceID == "" {
			return nil, fmt.Errorf("%w: empty service_id in calendar_dates", ErrMalformedFeed)
		}
		if cd.ExceptionType != model.ExceptionAdded && cd.ExceptionType != model.ExceptionRemoved {
			return nil, fmt.Errorf("%w: illegal exception_type '%d'", ErrMalformedFeed, cd.ExceptionType)
		}
		if _, err := time.ParseInLocation("20060102", cd.Date, time.UTC); err != nil {
			return nil, fmt.Errorf("%w: parsing date '%s': %v", ErrMalformedFeed, cd.Date, err)
		}

		serviceDate := fmt.Sprintf("%s-%s", cd.Date, cd.ServiceID)
		if seen[serviceDate] {
			return nil, fmt.Errorf("%w: duplicate service/date '%s'", ErrMalformedFeed, serviceDate)
		}
		seen[serviceDate] = true

		dates = append(dates, model.CalendarDate{
			ServiceID:     cd.ServiceID,
			Date:          cd.Date,
			ExceptionType: cd.ExceptionType,
		})
	}

	return dates, nil
}
