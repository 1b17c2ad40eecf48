// Package normalize turns loosely shaped backend JSON into the typed view
// records used by the controllers. Payloads are walked as generic JSON trees
// (map[string]any / []any as produced by encoding/json) and every field is read
// through an ordered list of alias keys, so renamed backend fields keep working.
// Nothing in this package returns an error: malformed entries are dropped and
// malformed fields become zero values.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Alias lists, highest priority first.
var (
	idKeys       = []string{"id", "receiptId", "receipt_id", "_id", "uuid"}
	merchantKeys = []string{"merchant", "merchantName", "store", "vendor", "name", "title"}
	amountKeys   = []string{"amount", "total", "totalAmount", "price", "sum"}
	statusKeys   = []string{"status", "state"}
	dateKeys     = []string{"date", "purchaseDate", "transactionDate", "receiptDate", "createdAt", "created_at"}
)

// asObject returns v as a JSON object.
func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// firstValue returns the value of the first key present with a non-null value.
func firstValue(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// firstString returns the first non-blank string among keys, trimmed.
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// firstIdentifier returns the first key whose value is a non-blank string or a number,
// rendered as a string.
func firstIdentifier(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := identifier(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func identifier(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return ""
}

// firstDecimal coerces the first non-null value among keys. A present value that
// is not numeric yields null rather than falling through to the next alias.
func firstDecimal(m map[string]any, keys ...string) decimal.NullDecimal {
	v, ok := firstValue(m, keys...)
	if !ok {
		return decimal.NullDecimal{}
	}
	return ToDecimal(v)
}

// firstBool returns the first boolean among keys.
func firstBool(m map[string]any, keys ...string) *bool {
	for _, k := range keys {
		if b, ok := m[k].(bool); ok {
			return &b
		}
	}
	return nil
}

// ToDecimal coerces a JSON number or numeric string. Anything else, including
// NaN and infinities, is null.
func ToDecimal(v any) decimal.NullDecimal {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(decimal.NewFromFloat(x))
	case float32:
		return ToDecimal(float64(x))
	case int:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(x)))
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(x))
	case json.Number:
		return ParseDecimal(x.String())
	case string:
		return ParseDecimal(x)
	}
	return decimal.NullDecimal{}
}

// ParseDecimal parses a numeric string, trimming whitespace. Blank or
// non-numeric input is null.
func ParseDecimal(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// unwrap returns the object nested under the first wrapper key, or m itself.
func unwrap(m map[string]any, wrappers ...string) map[string]any {
	for _, k := range wrappers {
		if inner, ok := asObject(m[k]); ok {
			return inner
		}
	}
	return m
}
