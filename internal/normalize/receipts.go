package normalize

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

const (
	// UnknownMerchant is shown when no merchant alias is present.
	UnknownMerchant = "Unknown Merchant"

	// StatusReviewed and StatusUnreviewed are the two labels derived from a
	// boolean "reviewed" field. The UI branches on the exact "Reviewed" string.
	StatusReviewed   = "Reviewed"
	StatusUnreviewed = "Unreview"

	// StatusUnknown is used when there is neither a reviewed flag nor a status.
	StatusUnknown = "Unknown"
)

// Receipt is one row of a receipt list.
type Receipt struct {
	ID       string
	Merchant string
	Amount   decimal.NullDecimal
	Status   string
	Date     string
}

// ExtractCollection returns the payload when it is an array, otherwise the
// first array found under "data", "items" or "receipts".
func ExtractCollection(payload any) []any {
	return extractUnder(payload, "data", "items", "receipts")
}

func extractUnder(payload any, keys ...string) []any {
	if arr, ok := payload.([]any); ok {
		return arr
	}
	m, ok := asObject(payload)
	if !ok {
		return []any{}
	}
	for _, k := range keys {
		if arr, ok := m[k].([]any); ok {
			return arr
		}
	}
	return []any{}
}

// CoerceReceipt builds a Receipt from one raw entry. It reports false when the
// entry is not an object.
func CoerceReceipt(raw any, index int) (Receipt, bool) {
	m, ok := asObject(raw)
	if !ok {
		return Receipt{}, false
	}

	id := firstIdentifier(m, idKeys...)
	if id == "" {
		id = fmt.Sprintf("receipt-%d", index)
	}

	merchant := firstString(m, merchantKeys...)
	if merchant == "" {
		merchant = UnknownMerchant
	}

	return Receipt{
		ID:       id,
		Merchant: merchant,
		Amount:   firstDecimal(m, amountKeys...),
		Status:   deriveStatus(m),
		Date:     firstString(m, dateKeys...),
	}, true
}

// deriveStatus gives a boolean "reviewed" field priority over any status text.
func deriveStatus(m map[string]any) string {
	if reviewed, ok := m["reviewed"].(bool); ok {
		if reviewed {
			return StatusReviewed
		}
		return StatusUnreviewed
	}
	if s := firstString(m, statusKeys...); s != "" {
		return s
	}
	return StatusUnknown
}

// Receipts normalizes a list payload: non-object entries are dropped, ids are
// made unique and the result is sorted newest first.
func Receipts(payload any) []Receipt {
	raw := ExtractCollection(payload)
	out := make([]Receipt, 0, len(raw))
	seen := make(map[string]bool, len(raw))

	for i, entry := range raw {
		r, ok := CoerceReceipt(entry, i)
		if !ok {
			continue
		}
		for seen[r.ID] {
			r.ID = fmt.Sprintf("%s-%d", r.ID, i)
		}
		seen[r.ID] = true
		out = append(out, r)
	}

	SortByDateDesc(out)
	return out
}

// SortByDateDesc orders receipts newest first. Equal dates keep their relative
// order and undated receipts go last.
func SortByDateDesc(rs []Receipt) {
	sort.SliceStable(rs, func(i, j int) bool {
		return sortKey(rs[i].Date) > sortKey(rs[j].Date)
	})
}
