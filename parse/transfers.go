package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"victransit.dev/transit/model"
)

type TransferCSV struct {
	FromStopID      string `csv:"from_stop_id"`
	ToStopID        string `csv:"to_stop_id"`
	TransferType    int8   `csv:"transfer_type"`
	MinTransferTime int    `csv:"min_transfer_time"`
}

func ParseTransfers(data io.Reader, stops map[string]bool) ([]model.Transfer, error) {
	transferCsv := []*TransferCSV{}
	if err := gocsv.Unmarshal(data, &transferCsv); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling transfers csv: %v", ErrMalformedFeed, err)
	}

	transfers := make([]model.Transfer, 0, len(transferCsv))
	var offenders []string
	unresolved := 0

	for i, tr := range transferCsv {
		if tr.FromStopID == "" || tr.ToStopID == "" {
			return nil, fmt.Errorf("%w: transfer row %d missing stop id", ErrMalformedFeed, i+1)
		}
		if tr.TransferType < 0 || tr.TransferType > 3 {
			return nil, fmt.Errorf("%w: transfer row %d has illegal transfer_type '%d'", ErrMalformedFeed, i+1, tr.TransferType)
		}
		if tr.MinTransferTime < 0 {
			return nil, fmt.Errorf("%w: transfer row %d has negative min_transfer_time", ErrMalformedFeed, i+1)
		}

		if !stops[tr.FromStopID] || !stops[tr.ToStopID] {
			unresolved++
			if len(offenders) < maxReportedOffenders {
				offenders = append(offenders, fmt.Sprintf("transfer row %d -> '%s'/'%s'", i+1, tr.FromStopID, tr.ToStopID))
			}
			continue
		}

		// transfer_type 3 means transfers are not possible between
		// the pair; nothing to plan with.
		if tr.TransferType == 3 {
			continue
		}

		transfers = append(transfers, model.Transfer{
			FromStopID:      tr.FromStopID,
			ToStopID:        tr.ToStopID,
			TransferType:    tr.TransferType,
			MinTransferTime: tr.MinTransferTime,
		})
	}

	if unresolved > 0 {
		return nil, offenderError("stop references in transfers.txt", offenders, unresolved)
	}

	return transfers, nil
}
