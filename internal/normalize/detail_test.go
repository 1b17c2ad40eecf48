package normalize

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDetail(t *testing.T) {
	d, ok := Detail(decode(t, `{"data":{
		"id": 42,
		"merchantName": "Corner Store",
		"currency": "EUR",
		"date": "2024-02-10",
		"imageId": "img-9",
		"reviewed": false,
		"subtotal": "10.00",
		"tax": 0.8,
		"totalAmount": "10.80",
		"lineItems": [
			{"name": "Milk", "qty": 2, "unit_price": "1.50", "total": 3},
			{"quantity": "x"},
			"junk"
		]
	}}`))
	if !ok {
		t.Fatal("expected detail")
	}

	if d.ID != "42" || d.Merchant != "Corner Store" || d.Currency != "EUR" {
		t.Errorf("unexpected identity fields: %+v", d)
	}
	if d.ImageID != "img-9" || d.ImageURL != "" {
		t.Errorf("unexpected image fields: url=%q id=%q", d.ImageURL, d.ImageID)
	}
	if d.Reviewed == nil || *d.Reviewed {
		t.Errorf("Reviewed = %v, want false", d.Reviewed)
	}
	if d.Status != StatusUnreviewed {
		t.Errorf("Status = %q, want %q", d.Status, StatusUnreviewed)
	}
	if !d.Total.Valid || !d.Total.Decimal.Equal(decimal.RequireFromString("10.8")) {
		t.Errorf("Total = %v", d.Total)
	}
	if len(d.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(d.Items))
	}
	milk := d.Items[0]
	if milk.Description != "Milk" || !milk.Quantity.Decimal.Equal(decimal.NewFromInt(2)) ||
		!milk.UnitPrice.Decimal.Equal(decimal.RequireFromString("1.5")) || !milk.TotalPrice.Decimal.Equal(decimal.NewFromInt(3)) {
		t.Errorf("unexpected first item: %+v", milk)
	}
	blank := d.Items[1]
	if blank.Description != DefaultItemDescription || blank.Quantity.Valid || blank.UnitPrice.Valid || blank.TotalPrice.Valid {
		t.Errorf("unexpected second item: %+v", blank)
	}
}

func TestDetailReviewedUnknown(t *testing.T) {
	d, ok := Detail(decode(t, `{"receipt":{"id":"r1","imageUrl":"https://cdn/x.jpg"}}`))
	if !ok {
		t.Fatal("expected detail")
	}
	if d.Reviewed != nil {
		t.Errorf("Reviewed = %v, want nil", *d.Reviewed)
	}
	if d.ImageURL != "https://cdn/x.jpg" {
		t.Errorf("ImageURL = %q", d.ImageURL)
	}
	if d.Items == nil || len(d.Items) != 0 {
		t.Errorf("Items = %v, want empty slice", d.Items)
	}
}

func TestDetailRejectsNonObject(t *testing.T) {
	if _, ok := Detail(decode(t, `[1,2]`)); ok {
		t.Error("expected array payload to be rejected")
	}
}
