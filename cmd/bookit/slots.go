package main

import (
	"fmt"
	"io"

	"github.com/Freeeeeet/bookit/internal/model"
	"github.com/Freeeeeet/bookit/internal/service"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newExperiencesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "experiences",
		Short: "List experiences in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			experiences, err := service.NewCatalogService(rt.db.Experiences, rt.db.Bookings).List(cmd.Context())
			if err != nil {
				return err
			}

			renderExperiences(cmd.OutOrStdout(), experiences)
			return nil
		},
	}
}

func newSlotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slots <experience-id>",
		Short: "Show remaining and booked spots per time slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid experience id %q: %w", args[0], err)
			}

			rt, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			catalog := service.NewCatalogService(rt.db.Experiences, rt.db.Bookings)
			exp, usage, err := catalog.SlotUsage(cmd.Context(), id)
			if err != nil {
				return err
			}

			renderSlotUsage(cmd.OutOrStdout(), exp, usage)
			return nil
		},
	}
}

func renderExperiences(out io.Writer, experiences []*model.Experience) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"ID", "Title", "Location", "Price", "Days"})

	for _, exp := range experiences {
		t.AppendRow(table.Row{exp.ID, exp.Title, exp.Location, fmt.Sprintf("%.2f", exp.Price), len(exp.AvailableSlots)})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(experiences)})
	t.Render()
}

func renderSlotUsage(out io.Writer, exp *model.Experience, usage []service.SlotUsage) {
	rowConfigAutoMerge := table.RowConfig{AutoMerge: true}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle(exp.Title)
	t.AppendHeader(table.Row{"Date", "Time", "Spots left", "Booked"}, rowConfigAutoMerge)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true},
	})
	t.Style().Options.SeparateRows = true

	for _, u := range usage {
		t.AppendRow(table.Row{u.Date, u.Time, u.SpotsLeft, u.Booked}, rowConfigAutoMerge)
	}
	t.Render()
}
