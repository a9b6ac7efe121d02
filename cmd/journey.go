package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"victransit.dev/transit"
)

var (
	departFlag   string
	dateFlag     string
	realtimeFlag bool
	modesFlag    []string
)

func init() {
	journeyCmd.Flags().StringVarP(&departFlag, "time", "t", "now", "departure time (HH:MM[:SS] or 'now')")
	journeyCmd.Flags().StringVarP(&dateFlag, "date", "d", "today", "travel date (YYYY-MM-DD or 'today')")
	journeyCmd.Flags().BoolVarP(&realtimeFlag, "realtime", "r", false, "overlay live trip updates")
	journeyCmd.Flags().StringSliceVarP(&modesFlag, "modes", "m", []string{}, "modes to plan (default all)")
}

var journeyCmd = &cobra.Command{
	Use:   "journey <origin> <destination>",
	Short: "Plan the earliest journey between two stops",
	Args:  cobra.ExactArgs(2),

	RunE: func(cmd *cobra.Command, args []string) error {
		dispatcher, _, _, err := loadPlanner()
		if err != nil {
			return err
		}

		resp, err := dispatcher.Plan(cmd.Context(), transit.Request{
			OriginQuery:      args[0],
			DestinationQuery: args[1],
			DepartureTime:    departFlag,
			Date:             dateFlag,
			Realtime:         realtimeFlag,
			Modes:            modesFlag,
		})

		var unknown *transit.UnknownStopError
		if errors.As(err, &unknown) {
			fmt.Printf("%s\n", unknown.Error())
			if len(unknown.Suggestions) > 0 {
				fmt.Printf("did you mean: %s\n", strings.Join(unknown.Suggestions, ", "))
			}
			return nil
		}
		if err != nil {
			return err
		}

		for mode, result := range resp.Results {
			fmt.Printf("== %s ==\n", mode)
			printModeResult(result)
			fmt.Println()
		}
		return nil
	},
}

func printModeResult(result *transit.ModeResult) {
	if result.Error != "" {
		fmt.Printf("  %s\n", result.Error)
		return
	}
	if result.Journey == nil {
		if result.Note != "" {
			fmt.Printf("  no journey (%s)\n", result.Note)
		} else {
			fmt.Println("  no journey")
		}
		return
	}

	j := result.Journey
	fmt.Printf("  %s -> %s\n", j.Origin.Name, j.Destination.Name)
	fmt.Printf("  depart %s, arrive %s (%dm, %d transfer(s))\n",
		j.DepartureTime, j.ArrivalTime, j.DurationSeconds/60, j.NumTransfers)
	if j.DateShiftedByDays > 0 {
		fmt.Printf("  note: first service is %d day(s) later than requested\n", j.DateShiftedByDays)
	}

	for _, leg := range j.Legs {
		if leg.IsTransfer {
			fmt.Printf("    transfer at %s (%dm)\n", leg.FromStop, leg.DurationSeconds/60)
			continue
		}

		line := fmt.Sprintf("    %s %s -> %s, %s-%s (%d stops)",
			leg.ModeDisplay, leg.FromStop, leg.ToStop,
			leg.DepartureTime, leg.ArrivalTime, leg.NumStops)
		if leg.Cancelled {
			line += " CANCELLED"
		} else if leg.DelaySeconds != 0 {
			line += fmt.Sprintf(" (%+ds)", leg.DelaySeconds)
		}
		fmt.Println(line)
	}

	if !j.ValidAfterRealtime {
		fmt.Printf("  warning: transfer(s) at risk: %s\n", strings.Join(j.BrokenTransfers, ", "))
	}
}
