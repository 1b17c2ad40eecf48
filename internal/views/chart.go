package views

import (
	"github.com/dvloznov/receipts-web/internal/normalize"
	"github.com/shopspring/decimal"
)

// Palette colors chart arcs by category index, wrapping around.
var Palette = []string{
	"#4F46E5",
	"#10B981",
	"#F59E0B",
	"#EF4444",
	"#3B82F6",
	"#8B5CF6",
	"#EC4899",
	"#14B8A6",
}

// NeutralColor fills the chart when there is nothing to show.
const NeutralColor = "#E5E7EB"

// Arc is one slice of the category chart, in degrees clockwise from the top.
type Arc struct {
	Category string
	Amount   decimal.Decimal
	StartDeg float64
	SweepDeg float64
	Color    string
}

var fullCircle = decimal.NewFromInt(360)

// Arcs lays out stats as proportional arcs. A zero total yields a single
// neutral full circle.
func Arcs(stats normalize.CategoryStats) []Arc {
	total := stats.Sum()
	if !total.IsPositive() {
		return []Arc{{SweepDeg: 360, Color: NeutralColor}}
	}

	arcs := make([]Arc, 0, len(stats.Items))
	start := decimal.Zero
	for i, item := range stats.Items {
		sweep := item.Amount.Div(total).Mul(fullCircle)
		arcs = append(arcs, Arc{
			Category: item.Category,
			Amount:   item.Amount,
			StartDeg: start.InexactFloat64(),
			SweepDeg: sweep.InexactFloat64(),
			Color:    Palette[i%len(Palette)],
		})
		start = start.Add(sweep)
	}
	return arcs
}
