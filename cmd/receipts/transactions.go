package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/receipts-web/internal/failure"
	"github.com/dvloznov/receipts-web/internal/views"
	"github.com/spf13/cobra"
)

func transactionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "List, export and bulk-delete receipts",
	}
	cmd.AddCommand(transactionsListCmd(a))
	cmd.AddCommand(transactionsExportCmd(a))
	cmd.AddCommand(transactionsDeleteCmd(a))
	return cmd
}

// loadTransactions loads every receipt and applies scope.
func loadTransactions(ctx context.Context, a *app, scope string) (*views.Transactions, error) {
	sc, err := views.ParseScope(scope)
	if err != nil {
		return nil, err
	}
	t := views.NewTransactions(a.api, a.log)
	t.Load(ctx)
	if rows := t.Rows(); rows.Phase == views.PhaseError {
		t.Close()
		return nil, errors.New(rows.Err)
	}
	t.SetScope(sc)
	return t, nil
}

// selectIDs selects ids, or every visible row when all is set. Unknown ids are
// an error so nothing is acted on by mistake.
func selectIDs(t *views.Transactions, ids []string, all bool) error {
	if all {
		t.SelectAll()
		return nil
	}
	visible := map[string]bool{}
	for _, r := range t.Visible() {
		visible[r.ID] = true
	}
	var missing []string
	seen := map[string]bool{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if seen[id] {
			continue
		}
		seen[id] = true
		if !visible[id] {
			missing = append(missing, id)
			continue
		}
		t.Toggle(id)
	}
	if len(missing) > 0 {
		return fmt.Errorf("no receipt in scope with id %s", strings.Join(missing, ", "))
	}
	return nil
}

func transactionsListCmd(a *app) *cobra.Command {
	var (
		scope   string
		grouped bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List receipts for this month or all time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := loadTransactions(cmd.Context(), a, scope)
			if err != nil {
				return err
			}
			defer t.Close()

			rows := t.Visible()
			if grouped {
				printGroups(cmd.OutOrStdout(), views.Group(rows))
				return nil
			}
			printReceipts(cmd.OutOrStdout(), rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&scope, "scope", string(views.ScopeMonth), "month or all")
	cmd.Flags().BoolVarP(&grouped, "group", "g", false, "group by year and month")
	return cmd
}

func transactionsExportCmd(a *app) *cobra.Command {
	var (
		scope    string
		format   string
		all      bool
		dir      string
		shareCmd string
	)

	cmd := &cobra.Command{
		Use:   "export [ids...]",
		Short: "Export selected receipts to CSV or XLSX",
		Long: `Export selected receipts. With --share-cmd the file is handed to that
command first; if it is missing or fails the file is written to --dir.`,
		Example: `  receipts transactions export --all --format xlsx
  receipts transactions export 12 15 --share-cmd xdg-open`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "csv" && format != "xlsx" {
				return fmt.Errorf("unknown format %q, want csv or xlsx", format)
			}
			if dir == "" {
				dir = a.cfg.ExportDir
			}

			t, err := loadTransactions(cmd.Context(), a, scope)
			if err != nil {
				return err
			}
			defer t.Close()
			if err := selectIDs(t, args, all); err != nil {
				return err
			}

			sink := views.Sink{
				Sharer:     views.CommandSharer{Command: shareCmd},
				Downloader: views.DirDownloader{Dir: dir},
				Log:        a.log,
			}

			var where string
			if format == "csv" {
				where, err = t.Export(cmd.Context(), sink)
			} else {
				where, err = exportXLSX(cmd.Context(), t, sink)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d receipts: %s\n", len(t.Selected()), where)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&scope, "scope", string(views.ScopeMonth), "month or all")
	f.StringVarP(&format, "format", "f", "csv", "csv or xlsx")
	f.BoolVar(&all, "all", false, "export every receipt in scope")
	f.StringVar(&dir, "dir", "", "directory for exported files (or set EXPORT_DIR env)")
	f.StringVar(&shareCmd, "share-cmd", "", "command that receives the exported file path")
	return cmd
}

func exportXLSX(ctx context.Context, t *views.Transactions, sink views.Sink) (string, error) {
	rows := t.SelectedRows()
	if len(rows) == 0 {
		return "", failure.Validation("Select at least one receipt to export")
	}
	f, err := views.ExportXLSX(rows, t.Now())
	if err != nil {
		return "", err
	}
	return sink.Deliver(ctx, f)
}

func transactionsDeleteCmd(a *app) *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "delete <ids...>",
		Short: "Delete several receipts in one request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTransactions(cmd.Context(), a, scope)
			if err != nil {
				return err
			}
			defer t.Close()
			if err := selectIDs(t, args, false); err != nil {
				return err
			}

			n := len(t.Selected())
			if err := t.DeleteSelected(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d receipts\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&scope, "scope", string(views.ScopeAll), "month or all")
	return cmd
}
