package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/receipts-web/internal/views"
	"github.com/spf13/cobra"
)

func receiptsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipts",
		Short: "Inspect, edit and delete single receipts",
	}
	cmd.AddCommand(receiptShowCmd(a))
	cmd.AddCommand(receiptEditCmd(a))
	cmd.AddCommand(receiptDeleteCmd(a))
	return cmd
}

// loadDetail loads receipt id and fails with the view's error message.
func loadDetail(cmd *cobra.Command, a *app, id string) (*views.Detail, error) {
	v := views.NewDetail(a.api, a.log)
	v.Load(cmd.Context(), id)
	if s := v.Snapshot(); s.Receipt.Phase == views.PhaseError {
		v.Close()
		return nil, errors.New(s.Receipt.Err)
	}
	return v, nil
}

func receiptShowCmd(a *app) *cobra.Command {
	var withImage bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a receipt and its line items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadDetail(cmd, a, args[0])
			if err != nil {
				return err
			}
			defer v.Close()

			out := cmd.OutOrStdout()
			printDetail(out, v.Snapshot().Receipt.Data)
			if !withImage {
				return nil
			}
			url, err := v.ResolveImage(cmd.Context())
			if err != nil {
				a.log.Warn().Err(err).Str("receipt_id", args[0]).Msg("Could not resolve receipt image")
				fmt.Fprintln(out, "\nImage: unavailable")
				return nil
			}
			fmt.Fprintf(out, "\nImage: %s\n", orDash(url))
			return nil
		},
	}

	cmd.Flags().BoolVar(&withImage, "image", true, "resolve a link to the receipt image")
	return cmd
}

func receiptEditCmd(a *app) *cobra.Command {
	var (
		merchant, date, currency string
		subtotal, tax, total     string
		reviewed                 bool
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a receipt",
		Long: `Change fields of a receipt. Only the flags given are changed; the rest are
sent back as they were loaded. Pass an empty value to clear a number.`,
		Example: `  receipts receipts edit 42 --merchant "Corner Shop" --total 12.40 --reviewed`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadDetail(cmd, a, args[0])
			if err != nil {
				return err
			}
			defer v.Close()

			form, ok := v.BeginEdit()
			if !ok {
				return fmt.Errorf("receipt %s is not loaded", args[0])
			}

			flags := cmd.Flags()
			set := func(name string, dst *string, val string) {
				if flags.Changed(name) {
					*dst = val
				}
			}
			set("merchant", &form.Merchant, merchant)
			set("date", &form.Date, date)
			set("currency", &form.Currency, strings.ToUpper(currency))
			set("subtotal", &form.Subtotal, subtotal)
			set("tax", &form.Tax, tax)
			set("total", &form.Total, total)
			if flags.Changed("reviewed") {
				form.Reviewed = reviewed
			}

			if !v.Dirty(form) {
				v.CancelEdit()
				fmt.Fprintln(cmd.OutOrStdout(), "No changes")
				return nil
			}
			if err := v.Save(cmd.Context(), form); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Saved")
			printDetail(cmd.OutOrStdout(), v.Snapshot().Receipt.Data)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&merchant, "merchant", "", "merchant name")
	f.StringVar(&date, "date", "", "receipt date, YYYY-MM-DD")
	f.StringVar(&currency, "currency", "", "currency code")
	f.StringVar(&subtotal, "subtotal", "", "subtotal")
	f.StringVar(&tax, "tax", "", "tax")
	f.StringVar(&total, "total", "", "total")
	f.BoolVar(&reviewed, "reviewed", false, "mark as reviewed (--reviewed=false to unmark)")
	return cmd
}

func receiptDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a receipt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadDetail(cmd, a, args[0])
			if err != nil {
				return err
			}
			defer v.Close()

			if err := v.Delete(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted receipt %s\n", args[0])
			return nil
		},
	}
}
