package views

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/receipts-web/internal/failure"
	"github.com/dvloznov/receipts-web/internal/normalize"
	"github.com/rs/zerolog"
)

// Scope limits which transactions are visible.
type Scope string

const (
	// ScopeMonth shows receipts dated in the current local month.
	ScopeMonth Scope = "month"
	// ScopeAll shows every receipt.
	ScopeAll Scope = "all"
)

// ParseScope maps user input to a Scope.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "month", "this-month":
		return ScopeMonth, nil
	case "all":
		return ScopeAll, nil
	}
	return "", failure.Validation(fmt.Sprintf("Unknown scope %q", s))
}

// TransactionsAPI is the part of the backend the transactions view uses.
type TransactionsAPI interface {
	ListReceipts(ctx context.Context) (any, error)
	BulkDeleteReceipts(ctx context.Context, ids []int64) error
}

// Transactions is the receipt list with scope, selection, bulk delete and export.
type Transactions struct {
	api TransactionsAPI
	log zerolog.Logger

	// Now is the clock used for ScopeMonth and export file names.
	Now func() time.Time

	mount
	scope    Scope
	rows     Resource[[]normalize.Receipt]
	selected map[string]bool
}

// NewTransactions creates a transactions view scoped to the current month.
func NewTransactions(api TransactionsAPI, log zerolog.Logger) *Transactions {
	return &Transactions{
		api:      api,
		log:      log,
		Now:      time.Now,
		scope:    ScopeMonth,
		rows:     loading[[]normalize.Receipt](),
		selected: map[string]bool{},
	}
}

// Load fetches every receipt. Filtering by scope happens locally.
func (t *Transactions) Load(ctx context.Context) {
	payload, err := t.api.ListReceipts(ctx)
	t.update(func() {
		if err != nil {
			t.log.Error().Err(err).Msg("Failed to load transactions")
			t.rows = failed[[]normalize.Receipt](failure.UserMessage(err, "Failed to load transactions"))
			return
		}
		t.rows = loaded(normalize.Receipts(payload))
		t.selected = map[string]bool{}
	})
}

// Rows returns the load state of the full list.
func (t *Transactions) Rows() Resource[[]normalize.Receipt] {
	var r Resource[[]normalize.Receipt]
	t.read(func() {
		r = t.rows
		r.Data = append([]normalize.Receipt(nil), t.rows.Data...)
	})
	return r
}

// SetScope changes the visible scope and drops selections that fall outside it.
func (t *Transactions) SetScope(s Scope) {
	t.update(func() {
		t.scope = s
		visible := map[string]bool{}
		for _, r := range t.visibleLocked() {
			visible[r.ID] = true
		}
		for id := range t.selected {
			if !visible[id] {
				delete(t.selected, id)
			}
		}
	})
}

// Scope returns the current scope.
func (t *Transactions) Scope() Scope {
	var s Scope
	t.read(func() { s = t.scope })
	return s
}

// Visible returns the rows in the current scope, newest first.
func (t *Transactions) Visible() []normalize.Receipt {
	var out []normalize.Receipt
	t.read(func() { out = t.visibleLocked() })
	return out
}

func (t *Transactions) visibleLocked() []normalize.Receipt {
	out := make([]normalize.Receipt, 0, len(t.rows.Data))
	if t.scope == ScopeAll {
		return append(out, t.rows.Data...)
	}
	now := t.Now()
	for _, r := range t.rows.Data {
		d, ok := normalize.ParseDate(r.Date)
		if !ok {
			continue
		}
		d = d.In(now.Location())
		if d.Year() == now.Year() && d.Month() == now.Month() {
			out = append(out, r)
		}
	}
	return out
}

// Toggle flips the selection of row id.
func (t *Transactions) Toggle(id string) {
	t.update(func() {
		if t.selected[id] {
			delete(t.selected, id)
			return
		}
		for _, r := range t.visibleLocked() {
			if r.ID == id {
				t.selected[id] = true
				return
			}
		}
	})
}

// SelectAll selects every visible row.
func (t *Transactions) SelectAll() {
	t.update(func() {
		for _, r := range t.visibleLocked() {
			t.selected[r.ID] = true
		}
	})
}

// ClearSelection deselects everything.
func (t *Transactions) ClearSelection() {
	t.update(func() { t.selected = map[string]bool{} })
}

// Selected returns the selected ids in display order.
func (t *Transactions) Selected() []string {
	rows := t.SelectedRows()
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

// SelectedRows returns the selected rows in display order.
func (t *Transactions) SelectedRows() []normalize.Receipt {
	var out []normalize.Receipt
	t.read(func() {
		for _, r := range t.visibleLocked() {
			if t.selected[r.ID] {
				out = append(out, r)
			}
		}
	})
	return out
}

// DeleteSelected deletes the selected receipts in one call. Every id has to be
// a positive integer; otherwise nothing is sent and nothing is deleted.
func (t *Transactions) DeleteSelected(ctx context.Context) error {
	selected := t.Selected()
	if len(selected) == 0 {
		return failure.Validation("Select at least one receipt")
	}

	ids := make([]int64, 0, len(selected))
	for _, s := range selected {
		id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil || id <= 0 {
			return failure.Validation("Some selected receipts cannot be deleted")
		}
		ids = append(ids, id)
	}

	if err := t.api.BulkDeleteReceipts(ctx, ids); err != nil {
		t.log.Error().Err(err).Int("count", len(ids)).Msg("Failed to delete receipts")
		return fmt.Errorf("DeleteSelected: %w", err)
	}

	t.update(func() {
		gone := make(map[string]bool, len(selected))
		for _, id := range selected {
			gone[id] = true
		}
		kept := make([]normalize.Receipt, 0, len(t.rows.Data))
		for _, r := range t.rows.Data {
			if !gone[r.ID] {
				kept = append(kept, r)
			}
		}
		t.rows.Data = kept
		t.selected = map[string]bool{}
	})
	return nil
}

// Export delivers the selected rows as CSV through sink.
func (t *Transactions) Export(ctx context.Context, sink Sink) (string, error) {
	rows := t.SelectedRows()
	if len(rows) == 0 {
		return "", failure.Validation("Select at least one receipt to export")
	}
	return sink.Deliver(ctx, ExportCSV(rows, t.Now()))
}
