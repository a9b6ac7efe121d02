package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"victransit.dev/transit/model"
)

type AgencyCSV struct {
	ID       string `csv:"agency_id"`
	Name     string `csv:"agency_name"`
	URL      string `csv:"agency_url"`
	Timezone string `csv:"agency_timezone"`
}

func ParseAgencies(data io.Reader) ([]model.Agency, error) {
	agencyCsv := []*AgencyCSV{}
	if err := gocsv.Unmarshal(data, &agencyCsv); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling agency csv: %v", ErrMalformedFeed, err)
	}

	agencies := make([]model.Agency, 0, len(agencyCsv))
	seen := map[string]bool{}
	for _, a := range agencyCsv {
		if a.Name == "" {
			return nil, fmt.Errorf("%w: agency has no agency_name", ErrMalformedFeed)
		}
		if seen[a.ID] {
			return nil, fmt.Errorf("%w: repeated agency_id '%s'", ErrMalformedFeed, a.ID)
		}
		seen[a.ID] = true

		agencies = append(agencies, model.Agency{
			ID:       a.ID,
			Name:     a.Name,
			URL:      a.URL,
			Timezone: a.Timezone,
		})
	}

	return agencies, nil
}
