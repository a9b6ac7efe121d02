package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"victransit.dev/transit/catalog"
	"victransit.dev/transit/stopindex"
)

var (
	nearbyLat  float64
	nearbyLon  float64
	stopsLimit int
	stopsScore int
)

func init() {
	stopsCmd.Flags().Float64VarP(&nearbyLat, "lat", "", 0, "latitude for nearby search")
	stopsCmd.Flags().Float64VarP(&nearbyLon, "lon", "", 0, "longitude for nearby search")
	stopsCmd.Flags().IntVarP(&stopsLimit, "limit", "l", 10, "max results")
	stopsCmd.Flags().IntVarP(&stopsScore, "min-score", "s", stopindex.DefaultMinScore, "fuzzy match cutoff")
}

var stopsCmd = &cobra.Command{
	Use:   "stops [query]",
	Short: "Search stops by name, or by location with --lat/--lon",
	Args:  cobra.MaximumNArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		_, cat, index, err := loadPlanner()
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
			for _, n := range index.Nearby(nearbyLat, nearbyLon, stopsLimit) {
				fmt.Printf("%-40s %-8s %6.0fm\n", n.Stop.Name, n.Stop.Mode, n.Distance)
			}
			return nil
		}

		if len(args) == 0 {
			return fmt.Errorf("pass a query, or --lat/--lon for nearby search")
		}

		matches := index.LookupFuzzy(args[0], stopsLimit, stopsScore)
		if len(matches) == 0 {
			fmt.Println("no matching stops")
			return nil
		}
		for _, m := range matches {
			stop, ok := cat.Stop(m.StopID)
			mode := catalog.ModeOf(m.StopID)
			loc := ""
			if ok {
				loc = fmt.Sprintf("%.5f,%.5f", stop.Lat, stop.Lon)
			}
			fmt.Printf("%3d  %-40s %-8s %s\n", m.Score, m.Name, mode, loc)
		}

		return nil
	},
}
