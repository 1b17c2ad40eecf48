package views

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/receipts-web/internal/failure"
	"github.com/dvloznov/receipts-web/internal/normalize"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DetailAPI is the part of the backend the receipt detail view uses.
type DetailAPI interface {
	GetReceipt(ctx context.Context, id string) (any, error)
	UpdateReceipt(ctx context.Context, id string, body any) (any, error)
	DeleteReceipt(ctx context.Context, id string) error
	ImageURL(ctx context.Context, imageID string) (string, error)
}

// EditForm holds the editable fields of a receipt as typed by the user.
type EditForm struct {
	Merchant string
	Date     string
	Currency string
	Subtotal string
	Tax      string
	Total    string
	Reviewed bool
	Items    []EditItem
}

// EditItem is one editable line item.
type EditItem struct {
	Description string
	Quantity    string
	UnitPrice   string
	TotalPrice  string
}

func (f EditForm) clone() EditForm {
	f.Items = append([]EditItem(nil), f.Items...)
	return f
}

// FormFrom fills a form from a receipt.
func FormFrom(d normalize.ReceiptDetail) EditForm {
	f := EditForm{
		Merchant: d.Merchant,
		Date:     normalize.DisplayDate(d.Date),
		Currency: d.Currency,
		Subtotal: decimalText(d.Subtotal),
		Tax:      decimalText(d.Tax),
		Total:    decimalText(d.Total),
		Reviewed: isReviewed(d),
		Items:    make([]EditItem, 0, len(d.Items)),
	}
	for _, it := range d.Items {
		f.Items = append(f.Items, EditItem{
			Description: it.Description,
			Quantity:    decimalText(it.Quantity),
			UnitPrice:   decimalText(it.UnitPrice),
			TotalPrice:  decimalText(it.TotalPrice),
		})
	}
	return f
}

func isReviewed(d normalize.ReceiptDetail) bool {
	if d.Reviewed != nil {
		return *d.Reviewed
	}
	return d.Status == normalize.StatusReviewed
}

func decimalText(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

// DetailState is a copy of the detail view.
type DetailState struct {
	Receipt Resource[normalize.ReceiptDetail]
	// Editing is nil in read mode.
	Editing *EditForm
	SaveErr string
}

// Detail is the receipt detail view with inline editing.
type Detail struct {
	api DetailAPI
	log zerolog.Logger

	mount
	receipt Resource[normalize.ReceiptDetail]
	editing *EditForm
	saveErr string
}

// NewDetail creates a detail view in the loading phase.
func NewDetail(api DetailAPI, log zerolog.Logger) *Detail {
	return &Detail{api: api, log: log, receipt: loading[normalize.ReceiptDetail]()}
}

// Load fetches receipt id.
func (v *Detail) Load(ctx context.Context, id string) {
	v.update(func() {
		v.receipt = loading[normalize.ReceiptDetail]()
		v.editing = nil
	})

	payload, err := v.api.GetReceipt(ctx, id)
	v.update(func() {
		if err != nil {
			v.log.Error().Err(err).Str("receipt_id", id).Msg("Failed to load receipt")
			v.receipt = failed[normalize.ReceiptDetail](failure.UserMessage(err, "Failed to load receipt"))
			return
		}
		d, ok := normalize.Detail(payload)
		if !ok {
			v.receipt = failed[normalize.ReceiptDetail]("Receipt not found")
			return
		}
		v.receipt = loaded(d)
	})
}

// Snapshot returns a copy of the view state.
func (v *Detail) Snapshot() DetailState {
	var s DetailState
	v.read(func() {
		s = DetailState{Receipt: v.receipt, SaveErr: v.saveErr}
		s.Receipt.Data.Items = append([]normalize.LineItem(nil), v.receipt.Data.Items...)
		if v.editing != nil {
			f := v.editing.clone()
			s.Editing = &f
		}
	})
	return s
}

func (v *Detail) current() (normalize.ReceiptDetail, bool) {
	var d normalize.ReceiptDetail
	var ok bool
	v.read(func() {
		d, ok = v.receipt.Data, v.receipt.Phase == PhaseSuccess
	})
	return d, ok
}

// ResolveImage returns a usable image address: the direct URL when the receipt
// has one, else one looked up by image id. A receipt without an image yields "".
func (v *Detail) ResolveImage(ctx context.Context) (string, error) {
	d, ok := v.current()
	if !ok {
		return "", nil
	}
	if d.ImageURL != "" {
		return d.ImageURL, nil
	}
	if d.ImageID == "" {
		return "", nil
	}
	u, err := v.api.ImageURL(ctx, d.ImageID)
	if err != nil {
		return "", fmt.Errorf("ResolveImage: %w", err)
	}
	return u, nil
}

// BeginEdit switches to edit mode with a form filled from the loaded receipt.
func (v *Detail) BeginEdit() (EditForm, bool) {
	var f EditForm
	var ok bool
	v.update(func() {
		if v.receipt.Phase != PhaseSuccess {
			return
		}
		f, ok = FormFrom(v.receipt.Data), true
		edit := f.clone()
		v.editing = &edit
		v.saveErr = ""
	})
	return f, ok
}

// CancelEdit drops the form and returns to read mode.
func (v *Detail) CancelEdit() {
	v.update(func() {
		v.editing = nil
		v.saveErr = ""
	})
}

// Dirty reports whether form differs from the loaded receipt. Text is compared
// trimmed and numbers by value, so "12" and "12.00" are equal.
func (v *Detail) Dirty(form EditForm) bool {
	d, ok := v.current()
	if !ok {
		return false
	}
	return formsDiffer(FormFrom(d), form)
}

func formsDiffer(a, b EditForm) bool {
	if !sameText(a.Merchant, b.Merchant) || !sameText(a.Date, b.Date) || !sameText(a.Currency, b.Currency) {
		return true
	}
	if !sameNumber(a.Subtotal, b.Subtotal) || !sameNumber(a.Tax, b.Tax) || !sameNumber(a.Total, b.Total) {
		return true
	}
	if a.Reviewed != b.Reviewed || len(a.Items) != len(b.Items) {
		return true
	}
	for i := range a.Items {
		x, y := a.Items[i], b.Items[i]
		if !sameText(x.Description, y.Description) ||
			!sameNumber(x.Quantity, y.Quantity) ||
			!sameNumber(x.UnitPrice, y.UnitPrice) ||
			!sameNumber(x.TotalPrice, y.TotalPrice) {
			return true
		}
	}
	return false
}

func sameText(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

func sameNumber(a, b string) bool {
	x, y := normalize.ParseDecimal(a), normalize.ParseDecimal(b)
	if x.Valid && y.Valid {
		return x.Decimal.Equal(y.Decimal)
	}
	if x.Valid != y.Valid {
		return false
	}
	return sameText(a, b)
}

// Validate checks the form before it is sent.
func Validate(form EditForm) error {
	if strings.TrimSpace(form.Merchant) == "" {
		return failure.Validation("Merchant is required")
	}
	for _, f := range []struct{ name, value string }{
		{"Subtotal", form.Subtotal},
		{"Tax", form.Tax},
		{"Total", form.Total},
	} {
		if !validNumber(f.value) {
			return failure.Validation(f.name + " must be a number")
		}
	}
	for i, it := range form.Items {
		for _, f := range []struct{ name, value string }{
			{"quantity", it.Quantity},
			{"unit price", it.UnitPrice},
			{"total", it.TotalPrice},
		} {
			if !validNumber(f.value) {
				return failure.Validation(fmt.Sprintf("Item %d %s must be a number", i+1, f.name))
			}
		}
	}
	return nil
}

func validNumber(s string) bool {
	return strings.TrimSpace(s) == "" || normalize.ParseDecimal(s).Valid
}

// Save validates form and sends it when it differs from the loaded receipt.
// On success the receipt is replaced by the server's copy and the view
// returns to read mode; an unchanged form returns to read mode without a request.
func (v *Detail) Save(ctx context.Context, form EditForm) error {
	d, ok := v.current()
	if !ok {
		return failure.Validation("Receipt is not loaded")
	}

	if err := Validate(form); err != nil {
		v.update(func() { v.saveErr = failure.UserMessage(err, "") })
		return err
	}

	if !formsDiffer(FormFrom(d), form) {
		v.CancelEdit()
		return nil
	}

	payload, err := v.api.UpdateReceipt(ctx, d.ID, requestBody(form))
	if err != nil {
		v.log.Error().Err(err).Str("receipt_id", d.ID).Msg("Failed to save receipt")
		v.update(func() { v.saveErr = failure.UserMessage(err, "Failed to save receipt") })
		return fmt.Errorf("Save: %w", err)
	}

	updated, ok := normalize.Detail(payload)
	if !ok {
		// No body in the response; read the receipt back.
		payload, err = v.api.GetReceipt(ctx, d.ID)
		if err == nil {
			updated, ok = normalize.Detail(payload)
		}
		if !ok {
			v.update(func() { v.saveErr = "Receipt saved, but could not be reloaded" })
			return fmt.Errorf("Save: reload: %w", failure.Shape("Receipt saved, but could not be reloaded", err))
		}
	}

	v.update(func() {
		v.receipt = loaded(updated)
		v.editing = nil
		v.saveErr = ""
	})
	return nil
}

// Delete deletes the loaded receipt.
func (v *Detail) Delete(ctx context.Context) error {
	d, ok := v.current()
	if !ok {
		return failure.Validation("Receipt is not loaded")
	}
	if err := v.api.DeleteReceipt(ctx, d.ID); err != nil {
		v.log.Error().Err(err).Str("receipt_id", d.ID).Msg("Failed to delete receipt")
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

type itemBody struct {
	Description string `json:"description"`
	Quantity    any    `json:"quantity"`
	UnitPrice   any    `json:"unitPrice"`
	TotalPrice  any    `json:"totalPrice"`
}

type receiptBody struct {
	Merchant string     `json:"merchant"`
	Date     string     `json:"date,omitempty"`
	Currency string     `json:"currency,omitempty"`
	Subtotal any        `json:"subtotal"`
	Tax      any        `json:"tax"`
	Total    any        `json:"total"`
	Reviewed bool       `json:"reviewed"`
	Items    []itemBody `json:"items"`
}

func requestBody(f EditForm) receiptBody {
	body := receiptBody{
		Merchant: strings.TrimSpace(f.Merchant),
		Date:     strings.TrimSpace(f.Date),
		Currency: strings.TrimSpace(f.Currency),
		Subtotal: jsonNumber(f.Subtotal),
		Tax:      jsonNumber(f.Tax),
		Total:    jsonNumber(f.Total),
		Reviewed: f.Reviewed,
		Items:    make([]itemBody, 0, len(f.Items)),
	}
	for _, it := range f.Items {
		desc := strings.TrimSpace(it.Description)
		if desc == "" {
			desc = normalize.DefaultItemDescription
		}
		body.Items = append(body.Items, itemBody{
			Description: desc,
			Quantity:    jsonNumber(it.Quantity),
			UnitPrice:   jsonNumber(it.UnitPrice),
			TotalPrice:  jsonNumber(it.TotalPrice),
		})
	}
	return body
}

// jsonNumber encodes a decimal as a bare JSON number, or null when blank.
func jsonNumber(s string) any {
	d := normalize.ParseDecimal(s)
	if !d.Valid {
		return nil
	}
	return json.Number(d.Decimal.String())
}
