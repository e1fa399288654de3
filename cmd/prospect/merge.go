package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/FranksOps/prospect/internal/dedupe"
	"github.com/FranksOps/prospect/internal/export"
	"github.com/FranksOps/prospect/internal/storage"
	"github.com/FranksOps/prospect/internal/storage/csvbackend"
)

// newMergeCmd combines checkpoint CSV files from earlier runs into one
// deduplicated export. Web leads keep precedence over maps leads no matter
// which file they came from.
func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <checkpoint.csv> [more.csv ...]",
		Short: "Merge and deduplicate leads from checkpoint files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var web, maps []*storage.Lead

			for _, path := range args {
				if _, err := os.Stat(path); err != nil {
					return err
				}
				backend, err := csvbackend.New(path)
				if err != nil {
					return err
				}
				leads, err := backend.Query(cmd.Context(), storage.Filter{})
				backend.Close()
				if err != nil {
					return err
				}
				// Query returns newest first; first-seen-wins needs
				// collection order.
				for i, j := 0, len(leads)-1; i < j; i, j = i+1, j-1 {
					leads[i], leads[j] = leads[j], leads[i]
				}
				for _, l := range leads {
					if l.Source == "maps" {
						maps = append(maps, l)
					} else {
						web = append(web, l)
					}
				}
			}

			if len(web)+len(maps) == 0 {
				return errors.New("no leads found in the given files")
			}

			merged := dedupe.Merge(web, maps)
			path, err := export.New(cfg.ResultsDir).Leads(merged)
			if err != nil {
				return err
			}

			log.WithFields(map[string]interface{}{
				"input":  len(web) + len(maps),
				"merged": len(merged),
				"file":   path,
			}).Info("merge complete")
			return nil
		},
	}
	return cmd
}
