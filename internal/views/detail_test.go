package views

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/dvloznov/receipts-web/internal/failure"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

const receiptJSON = `{"data":{
	"id": 12,
	"merchant": "Corner Shop",
	"currency": "EUR",
	"date": "2024-03-09T10:15:00Z",
	"imageId": "img-9",
	"reviewed": false,
	"subtotal": 10,
	"tax": "2.00",
	"total": 12,
	"items": [
		{"description": "Milk", "quantity": 2, "unitPrice": "1.50", "totalPrice": 3},
		{"name": "Bread", "qty": 1, "price": 9, "total": 9}
	]
}}`

func loadedDetail(t *testing.T, api *MockAPI) *Detail {
	t.Helper()
	if api.GetReceiptFunc == nil {
		api.GetReceiptFunc = func(context.Context, string) (any, error) { return decode(receiptJSON), nil }
	}
	v := NewDetail(api, zerolog.Nop())
	v.Load(context.Background(), "12")
	if s := v.Snapshot(); s.Receipt.Phase != PhaseSuccess {
		t.Fatalf("load failed: %+v", s.Receipt)
	}
	return v
}

func TestDetailLoad(t *testing.T) {
	v := loadedDetail(t, &MockAPI{})
	d := v.Snapshot().Receipt.Data

	if d.ID != "12" || d.Merchant != "Corner Shop" || d.Currency != "EUR" || len(d.Items) != 2 {
		t.Errorf("detail = %+v", d)
	}
}

func TestDetailLoadError(t *testing.T) {
	api := &MockAPI{
		GetReceiptFunc: func(context.Context, string) (any, error) {
			return nil, failure.Status(404, "Receipt not found")
		},
	}
	v := NewDetail(api, zerolog.Nop())
	v.Load(context.Background(), "99")

	if r := v.Snapshot().Receipt; r.Phase != PhaseError || r.Err != "Receipt not found" {
		t.Errorf("receipt = %+v", r)
	}
}

func TestResolveImage(t *testing.T) {
	var asked string
	api := &MockAPI{
		ImageURLFunc: func(ctx context.Context, id string) (string, error) {
			asked = id
			return "https://img/9", nil
		},
	}
	v := loadedDetail(t, api)

	got, err := v.ResolveImage(context.Background())
	if err != nil {
		t.Fatalf("ResolveImage: %v", err)
	}
	if got != "https://img/9" || asked != "img-9" {
		t.Errorf("got %q for id %q", got, asked)
	}

	direct := loadedDetail(t, &MockAPI{
		GetReceiptFunc: func(context.Context, string) (any, error) {
			return decode(`{"id":1,"imageUrl":"https://direct/1.jpg"}`), nil
		},
	})
	if got, _ := direct.ResolveImage(context.Background()); got != "https://direct/1.jpg" {
		t.Errorf("direct image = %q", got)
	}
}

func TestDirty(t *testing.T) {
	v := loadedDetail(t, &MockAPI{})
	base, ok := v.BeginEdit()
	if !ok {
		t.Fatal("BeginEdit failed")
	}

	tests := []struct {
		name   string
		change func(f *EditForm)
		want   bool
	}{
		{"unchanged", func(f *EditForm) {}, false},
		{"same total with decimals", func(f *EditForm) { f.Total = "12.00" }, false},
		{"same tax without decimals", func(f *EditForm) { f.Tax = " 2 " }, false},
		{"merchant padded", func(f *EditForm) { f.Merchant = "  Corner Shop " }, false},
		{"merchant changed", func(f *EditForm) { f.Merchant = "Corner Store" }, true},
		{"total changed", func(f *EditForm) { f.Total = "12.01" }, true},
		{"total cleared", func(f *EditForm) { f.Total = "" }, true},
		{"reviewed toggled", func(f *EditForm) { f.Reviewed = true }, true},
		{"item description", func(f *EditForm) { f.Items[0].Description = "Oat milk" }, true},
		{"item quantity same value", func(f *EditForm) { f.Items[1].Quantity = "1.0" }, false},
		{"item removed", func(f *EditForm) { f.Items = f.Items[:1] }, true},
		{"item added", func(f *EditForm) { f.Items = append(f.Items, EditItem{Description: "Eggs"}) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := base.clone()
			tt.change(&f)
			if got := v.Dirty(f); got != tt.want {
				t.Errorf("Dirty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		form EditForm
		want string
	}{
		{"ok", EditForm{Merchant: "A", Total: "1.5", Items: []EditItem{{Quantity: "2"}}}, ""},
		{"blank merchant", EditForm{Merchant: "  "}, "Merchant is required"},
		{"bad total", EditForm{Merchant: "A", Total: "twelve"}, "Total must be a number"},
		{"bad item", EditForm{Merchant: "A", Items: []EditItem{{}, {UnitPrice: "x"}}}, "Item 2 unit price must be a number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.form)
			if got := failure.UserMessage(err, ""); got != tt.want {
				t.Errorf("Validate() = %q, want %q", got, tt.want)
			}
			if err != nil && !errors.Is(err, failure.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSaveUnchangedMakesNoRequest(t *testing.T) {
	api := &MockAPI{}
	v := loadedDetail(t, api)
	form, _ := v.BeginEdit()
	form.Total = "12.00"

	if err := v.Save(context.Background(), form); err != nil {
		t.Fatalf("Save: %v", err)
	}
	for _, c := range api.Calls() {
		if c == "UpdateReceipt" {
			t.Error("unchanged form should not be sent")
		}
	}
	if v.Snapshot().Editing != nil {
		t.Error("expected read mode after save")
	}
}

func TestSaveInvalidMakesNoRequest(t *testing.T) {
	api := &MockAPI{}
	v := loadedDetail(t, api)
	form, _ := v.BeginEdit()
	form.Merchant = ""

	if err := v.Save(context.Background(), form); !errors.Is(err, failure.ErrValidation) {
		t.Fatalf("Save: %v", err)
	}
	if s := v.Snapshot(); s.SaveErr != "Merchant is required" || s.Editing == nil {
		t.Errorf("state = %+v", s)
	}
	if diff := cmp.Diff([]string{"GetReceipt"}, api.Calls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveReplacesDetail(t *testing.T) {
	var sent map[string]any
	api := &MockAPI{
		UpdateReceiptFunc: func(ctx context.Context, id string, body any) (any, error) {
			if id != "12" {
				t.Errorf("id = %q", id)
			}
			data, _ := json.Marshal(body)
			json.Unmarshal(data, &sent)
			return decode(`{"receipt":{"id":12,"merchant":"Corner Store","total":"15.25","items":[]}}`), nil
		},
	}
	v := loadedDetail(t, api)
	form, _ := v.BeginEdit()
	form.Merchant = "Corner Store"
	form.Total = "15.25"
	form.Items = nil

	if err := v.Save(context.Background(), form); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if sent["merchant"] != "Corner Store" || sent["total"] != 15.25 || sent["tax"] != float64(2) {
		t.Errorf("sent %v", sent)
	}
	s := v.Snapshot()
	if s.Editing != nil {
		t.Error("expected read mode after save")
	}
	d := s.Receipt.Data
	if d.Merchant != "Corner Store" || d.Total.Decimal.String() != "15.25" || len(d.Items) != 0 || d.Currency != "" {
		t.Errorf("detail not replaced: %+v", d)
	}
}

func TestSaveServerError(t *testing.T) {
	api := &MockAPI{
		UpdateReceiptFunc: func(context.Context, string, any) (any, error) {
			return nil, failure.Status(400, "Total does not match items")
		},
	}
	v := loadedDetail(t, api)
	form, _ := v.BeginEdit()
	form.Total = "99"

	if err := v.Save(context.Background(), form); !errors.Is(err, failure.ErrStatus) {
		t.Fatalf("Save: %v", err)
	}
	s := v.Snapshot()
	if s.SaveErr != "Total does not match items" || s.Editing == nil {
		t.Errorf("state = %+v", s)
	}
	if s.Receipt.Data.Total.Decimal.String() != "12" {
		t.Errorf("detail changed on failure: %v", s.Receipt.Data.Total)
	}
}

func TestDelete(t *testing.T) {
	var deleted string
	api := &MockAPI{
		DeleteReceiptFunc: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	v := loadedDetail(t, api)
	if err := v.Delete(context.Background()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted != "12" {
		t.Errorf("deleted %q", deleted)
	}
}
