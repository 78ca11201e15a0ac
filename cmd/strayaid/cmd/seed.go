package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/strayaid-systems/strayaid/internal/seeder"
)

var (
	seedURL        string
	seedCount      int
	seedInterval   time.Duration
	seedLat        float64
	seedLon        float64
	seedResponders int
	seedOut        string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Submit fake reports for development",
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedResponders > 0 {
			responders := seeder.GenerateResponders(seedResponders, seedLat, seedLon)
			data, err := json.MarshalIndent(responders, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(seedOut, data, 0o644); err != nil {
				return fmt.Errorf("write responders file: %w", err)
			}
			fmt.Printf("Wrote %d responders to %s\n", seedResponders, seedOut)
		}

		if seedCount <= 0 {
			return nil
		}
		runner := seeder.NewRunner(seeder.Config{
			APIURL:    seedURL,
			Count:     seedCount,
			Interval:  seedInterval,
			CenterLat: seedLat,
			CenterLon: seedLon,
		})
		return runner.Run()
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(&seedURL, "url", "http://localhost:8080", "coordination API base URL")
	seedCmd.Flags().IntVar(&seedCount, "count", 20, "number of reports to submit")
	seedCmd.Flags().DurationVar(&seedInterval, "interval", 200*time.Millisecond, "delay between reports")
	seedCmd.Flags().Float64Var(&seedLat, "lat", 28.6139, "city center latitude")
	seedCmd.Flags().Float64Var(&seedLon, "lon", 77.2090, "city center longitude")
	seedCmd.Flags().IntVar(&seedResponders, "responders", 0, "also generate a responder directory fixture")
	seedCmd.Flags().StringVar(&seedOut, "responders-out", "responders.json", "responder fixture output path")
}
