package main

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/bookit/internal/app"
	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert a sample catalog into an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}

			rt, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.db.Migrate(cmd.Context(), rt.logger); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			today := time.Now().In(rt.cfg.Location())
			created, err := app.Seed(cmd.Context(), rt.db.Experiences, today, days, rt.logger)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d experience(s)\n", created)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "number of days of slots to generate, starting today")
	return cmd
}
