package normalize

import (
	"github.com/shopspring/decimal"
)

const (
	// DefaultCategory labels category entries without a name.
	DefaultCategory = "Other"
	// DefaultCurrency is assumed when a stats payload names none.
	DefaultCurrency = "USD"
)

var (
	categoryNameKeys   = []string{"category", "name", "label", "categoryName"}
	categoryAmountKeys = []string{"amount", "total", "sum", "value"}
	statsTotalKeys     = []string{"total", "totalAmount", "totalSpent"}
	spentKeys          = []string{"totalSpent", "total_spent", "total", "totalAmount", "amount"}
	countKeys          = []string{"receiptCount", "receipt_count", "count", "receipts"}
)

// CategoryStat is one slice of the category breakdown.
type CategoryStat struct {
	Category string
	Amount   decimal.Decimal
}

// CategoryStats is the category breakdown for the current period.
type CategoryStats struct {
	Currency string
	Total    decimal.NullDecimal
	Items    []CategoryStat
}

// MonthlyStats is the current-month summary.
type MonthlyStats struct {
	TotalSpent   decimal.Decimal
	ReceiptCount int
	Currency     string
}

// Categories normalizes a category breakdown. Entries with a zero, negative or
// non-numeric amount are dropped.
func Categories(payload any) CategoryStats {
	stats := CategoryStats{Currency: DefaultCurrency, Items: []CategoryStat{}}

	var raw []any
	if m, ok := asObject(payload); ok {
		m = unwrap(m, "data")
		if c := firstString(m, currencyKeys...); c != "" {
			stats.Currency = c
		}
		stats.Total = firstDecimal(m, statsTotalKeys...)
		raw = extractUnder(m, "categories", "breakdown", "items", "data")
	} else {
		raw = extractUnder(payload)
	}

	for _, entry := range raw {
		m, ok := asObject(entry)
		if !ok {
			continue
		}
		amount := firstDecimal(m, categoryAmountKeys...)
		if !amount.Valid || !amount.Decimal.IsPositive() {
			continue
		}
		name := firstString(m, categoryNameKeys...)
		if name == "" {
			name = DefaultCategory
		}
		stats.Items = append(stats.Items, CategoryStat{Category: name, Amount: amount.Decimal})
	}
	return stats
}

// Sum is the total of all category amounts.
func (s CategoryStats) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.Amount)
	}
	return total
}

// Monthly normalizes the monthly summary payload.
func Monthly(payload any) MonthlyStats {
	out := MonthlyStats{TotalSpent: decimal.Zero, Currency: DefaultCurrency}
	m, ok := asObject(payload)
	if !ok {
		return out
	}
	m = unwrap(m, "data", "stats")

	if spent := firstDecimal(m, spentKeys...); spent.Valid {
		out.TotalSpent = spent.Decimal
	}
	if count := firstDecimal(m, countKeys...); count.Valid && !count.Decimal.IsNegative() {
		out.ReceiptCount = int(count.Decimal.IntPart())
	}
	if c := firstString(m, currencyKeys...); c != "" {
		out.Currency = c
	}
	return out
}
