package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"victransit.dev/transit/model"
)

type StopTimeCSV struct {
	TripID        string `csv:"trip_id"`
	StopID        string `csv:"stop_id"`
	StopSequence  uint32 `csv:"stop_sequence"`
	ArrivalTime   string `csv:"arrival_time"`
	DepartureTime string `csv:"departure_time"`
}

func ParseStopTimes(
	data io.Reader,
	trips map[string]bool,
	stops map[string]bool,
) ([]model.StopTime, error) {

	stopTimes := []model.StopTime{}

	var offenders []string
	unresolved := 0

	i := -1
	err := gocsv.UnmarshalToCallbackWithError(data, func(st *StopTimeCSV) error {
		i += 1
		if st.TripID == "" {
			return fmt.Errorf("missing trip_id (row %d)", i+1)
		}
		if st.StopID == "" {
			return fmt.Errorf("missing stop_id (row %d)", i+1)
		}

		if !trips[st.TripID] {
			unresolved++
			if len(offenders) < maxReportedOffenders {
				offenders = append(offenders, fmt.Sprintf("stop_time row %d -> trip '%s'", i+1, st.TripID))
			}
			return nil
		}
		if !stops[st.StopID] {
			unresolved++
			if len(offenders) < maxReportedOffenders {
				offenders = append(offenders, fmt.Sprintf("stop_time row %d -> stop '%s'", i+1, st.StopID))
			}
			return nil
		}

		arrival, err := model.ParseTime(st.ArrivalTime)
		if err != nil {
			return errors.Wrapf(err, "parsing arrival_time (row %d)", i+1)
		}
		departure, err := model.ParseTime(st.DepartureTime)
		if err != nil {
			return errors.Wrapf(err, "parsing departure_time (row %d)", i+1)
		}

		stopTimes = append(stopTimes, model.StopTime{
			TripID:       st.TripID,
			StopID:       st.StopID,
			StopSequence: st.StopSequence,
			Arrival:      arrival,
			Departure:    departure,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}

	if unresolved > 0 {
		return nil, offenderError("references in stop_times.txt", offenders, unresolved)
	}

	return stopTimes, nil
}
