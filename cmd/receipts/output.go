package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dvloznov/receipts-web/internal/normalize"
	"github.com/dvloznov/receipts-web/internal/views"
	"github.com/shopspring/decimal"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func money(d decimal.NullDecimal, currency string) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.StringFixed(2) + " " + currency
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printReceipts(w io.Writer, rows []normalize.Receipt) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No receipts")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tMERCHANT\tAMOUNT\tDATE\tSTATUS")
	for _, r := range rows {
		amount := "-"
		if r.Amount.Valid {
			amount = r.Amount.Decimal.StringFixed(2)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Merchant, amount, normalize.DisplayDate(r.Date), r.Status)
	}
	tw.Flush()
}

func printGroups(w io.Writer, groups []views.YearGroup) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No receipts")
		return
	}
	for _, y := range groups {
		fmt.Fprintln(w, y.Year)
		for _, m := range y.Months {
			fmt.Fprintf(w, "  %s\n", m.Month)
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			for _, r := range m.Receipts {
				amount := "-"
				if r.Amount.Valid {
					amount = r.Amount.Decimal.StringFixed(2)
				}
				fmt.Fprintf(tw, "    %s\t%s\t%s\t%s\n", r.ID, r.Merchant, amount, normalize.DisplayDate(r.Date))
			}
			tw.Flush()
		}
	}
}

func printDetail(w io.Writer, d normalize.ReceiptDetail) {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID\t%s\n", d.ID)
	fmt.Fprintf(tw, "Merchant\t%s\n", d.Merchant)
	fmt.Fprintf(tw, "Date\t%s\n", normalize.DisplayDate(d.Date))
	fmt.Fprintf(tw, "Status\t%s\n", orDash(d.Status))
	fmt.Fprintf(tw, "Subtotal\t%s\n", money(d.Subtotal, d.Currency))
	fmt.Fprintf(tw, "Tax\t%s\n", money(d.Tax, d.Currency))
	fmt.Fprintf(tw, "Total\t%s\n", money(d.Total, d.Currency))
	tw.Flush()

	if len(d.Items) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw = newTable(w)
	fmt.Fprintln(tw, "ITEM\tQTY\tUNIT\tTOTAL")
	for _, it := range d.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.Description, number(it.Quantity), number(it.UnitPrice), number(it.TotalPrice))
	}
	tw.Flush()
}

func number(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.String()
}
