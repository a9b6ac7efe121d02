package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"victransit.dev/transit/model"
)

type StopCSV struct {
	ID           string  `csv:"stop_id"`
	Name         string  `csv:"stop_name"`
	Lat          float64 `csv:"stop_lat"`
	Lon          float64 `csv:"stop_lon"`
	PlatformCode string  `csv:"platform_code"`
}

func ParseStops(data io.Reader) ([]model.Stop, error) {
	stopCsv := []*StopCSV{}
	if err := gocsv.Unmarshal(data, &stopCsv); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling stops csv: %v", ErrMalformedFeed, err)
	}

	stops := make([]model.Stop, 0, len(stopCsv))
	seen := map[string]bool{}
	for _, st := range stopCsv {
		if st.ID == "" {
			return nil, fmt.Errorf("%w: empty stop_id", ErrMalformedFeed)
		}
		if seen[st.ID] {
			return nil, fmt.Errorf("%w: repeated stop_id '%s'", ErrMalformedFeed, st.ID)
		}
		seen[st.ID] = true

		if st.Name == "" {
			return nil, fmt.Errorf("%w: empty stop_name for stop_id '%s'", ErrMalformedFeed, st.ID)
		}

		stops = append(stops, model.Stop{
			ID:       st.ID,
			Name:     st.Name,
			Lat:      st.Lat,
			Lon:      st.Lon,
			Platform: st.PlatformCode,
		})
	}

	return stops, nil
}
