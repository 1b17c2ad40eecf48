package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dvloznov/receipts-web/internal/views"
	"github.com/spf13/cobra"
)

func dashboardCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show this month's spending, categories and recent receipts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := views.NewDashboard(a.api, a.log)
			d.RecentLimit = limit
			defer d.Close()

			d.Load(cmd.Context())
			printDashboard(cmd.OutOrStdout(), d.Snapshot(), d.Chart())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", views.DefaultRecentLimit, "number of recent receipts")
	return cmd
}

func printDashboard(w io.Writer, s views.DashboardState, arcs []views.Arc) {
	if s.Profile.Phase == views.PhaseSuccess {
		fmt.Fprintf(w, "Signed in as %s\n\n", s.Profile.Data.DisplayName())
	}

	switch s.Monthly.Phase {
	case views.PhaseSuccess:
		m := s.Monthly.Data
		fmt.Fprintf(w, "This month: %s %s across %d receipts\n", m.TotalSpent.StringFixed(2), m.Currency, m.ReceiptCount)
	case views.PhaseError:
		fmt.Fprintf(w, "This month: %s\n", s.Monthly.Err)
	}

	fmt.Fprintln(w)
	switch s.Categories.Phase {
	case views.PhaseSuccess:
		printCategories(w, arcs, s.Categories.Data.Currency)
	case views.PhaseError:
		fmt.Fprintf(w, "Categories: %s\n", s.Categories.Err)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Recent receipts")
	switch s.Receipts.Phase {
	case views.PhaseSuccess:
		printReceipts(w, s.Receipts.Data)
	case views.PhaseError:
		fmt.Fprintln(w, s.Receipts.Err)
	}
}

// printCategories draws each arc as a bar of up to 36 cells, one per 10 degrees.
func printCategories(w io.Writer, arcs []views.Arc, currency string) {
	if len(arcs) == 1 && arcs[0].Color == views.NeutralColor {
		fmt.Fprintln(w, "No spending by category yet")
		return
	}
	tw := newTable(w)
	for _, arc := range arcs {
		cells := int(arc.SweepDeg/10 + 0.5)
		pct := arc.SweepDeg / 360 * 100
		fmt.Fprintf(tw, "%s\t%s %s\t%5.1f%%\t%s\n", arc.Category, arc.Amount.StringFixed(2), currency, pct, strings.Repeat("#", cells))
	}
	tw.Flush()
}
