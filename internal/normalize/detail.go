package normalize

import (
	"github.com/shopspring/decimal"
)

// DefaultItemDescription is used for line items without any description alias.
const DefaultItemDescription = "Item"

var (
	currencyKeys  = []string{"currency", "currencyCode", "currency_code"}
	imageURLKeys  = []string{"imageUrl", "imageURL", "image_url", "image"}
	imageIDKeys   = []string{"imageId", "image_id", "imageKey", "objectKey", "object_key"}
	subtotalKeys  = []string{"subtotal", "subTotal", "sub_total"}
	taxKeys       = []string{"tax", "taxAmount", "tax_amount"}
	totalKeys     = []string{"total", "totalAmount", "total_amount", "amount"}
	itemsKeys     = []string{"items", "lineItems", "line_items", "products"}
	itemDescKeys  = []string{"description", "name", "item", "desc", "title"}
	quantityKeys  = []string{"quantity", "qty", "count"}
	unitPriceKeys = []string{"unitPrice", "unit_price", "price"}
	itemTotalKeys = []string{"totalPrice", "total_price", "total", "amount"}
)

// ReceiptDetail is the full projection of one receipt.
type ReceiptDetail struct {
	ID       string
	Merchant string
	Currency string
	Date     string

	// ImageURL is a directly usable address. When only ImageID is set the
	// address has to be requested from the backend.
	ImageURL string
	ImageID  string

	// Reviewed is nil when the backend did not say.
	Reviewed *bool
	Status   string

	Subtotal decimal.NullDecimal
	Tax      decimal.NullDecimal
	Total    decimal.NullDecimal
	Items    []LineItem
}

// LineItem is one purchased item on a receipt.
type LineItem struct {
	Description string
	Quantity    decimal.NullDecimal
	UnitPrice   decimal.NullDecimal
	TotalPrice  decimal.NullDecimal
}

// Detail normalizes a single-receipt payload, unwrapping a "data" or "receipt"
// envelope. It reports false when there is no object to read.
func Detail(payload any) (ReceiptDetail, bool) {
	root, ok := asObject(payload)
	if !ok {
		return ReceiptDetail{}, false
	}
	m := unwrap(root, "data", "receipt")

	id := firstIdentifier(m, idKeys...)
	if id == "" {
		id = "receipt-0"
	}
	merchant := firstString(m, merchantKeys...)
	if merchant == "" {
		merchant = UnknownMerchant
	}

	d := ReceiptDetail{
		ID:       id,
		Merchant: merchant,
		Currency: firstString(m, currencyKeys...),
		Date:     firstString(m, dateKeys...),
		ImageURL: firstString(m, imageURLKeys...),
		ImageID:  firstIdentifier(m, imageIDKeys...),
		Reviewed: firstBool(m, "reviewed"),
		Status:   deriveStatus(m),
		Subtotal: firstDecimal(m, subtotalKeys...),
		Tax:      firstDecimal(m, taxKeys...),
		Total:    firstDecimal(m, totalKeys...),
	}
	if v, ok := firstValue(m, itemsKeys...); ok {
		d.Items = LineItems(v)
	}
	if d.Items == nil {
		d.Items = []LineItem{}
	}
	return d, true
}

// LineItems normalizes an array of raw items, dropping non-objects.
func LineItems(raw any) []LineItem {
	arr, ok := raw.([]any)
	if !ok {
		return []LineItem{}
	}
	out := make([]LineItem, 0, len(arr))
	for _, entry := range arr {
		m, ok := asObject(entry)
		if !ok {
			continue
		}
		desc := firstString(m, itemDescKeys...)
		if desc == "" {
			desc = DefaultItemDescription
		}
		out = append(out, LineItem{
			Description: desc,
			Quantity:    firstDecimal(m, quantityKeys...),
			UnitPrice:   firstDecimal(m, unitPriceKeys...),
			TotalPrice:  firstDecimal(m, itemTotalKeys...),
		})
	}
	return out
}
