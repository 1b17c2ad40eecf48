package views

import (
	"sort"
	"strconv"
	"time"

	"github.com/dvloznov/receipts-web/internal/normalize"
)

// UnknownPeriod labels receipts whose date cannot be read.
const UnknownPeriod = "Unknown"

// MonthGroup is the receipts of one calendar month.
type MonthGroup struct {
	Month    string
	Receipts []normalize.Receipt
}

// YearGroup is the receipts of one year, split by month.
type YearGroup struct {
	Year   string
	Months []MonthGroup
}

// Group buckets rows by local calendar year and month. Years run newest first
// and months January to December; undated rows go in a trailing Unknown group.
// Rows keep their input order within a month.
func Group(rows []normalize.Receipt) []YearGroup {
	type bucket struct {
		year, month int // 0 means unknown
	}
	buckets := map[bucket][]normalize.Receipt{}
	years := map[int]map[int]bool{}

	for _, r := range rows {
		var b bucket
		if t, ok := normalize.ParseDate(r.Date); ok {
			t = t.In(time.Local)
			b = bucket{t.Year(), int(t.Month())}
		}
		buckets[b] = append(buckets[b], r)
		if years[b.year] == nil {
			years[b.year] = map[int]bool{}
		}
		years[b.year][b.month] = true
	}

	yearKeys := make([]int, 0, len(years))
	for y := range years {
		yearKeys = append(yearKeys, y)
	}
	sort.Slice(yearKeys, func(i, j int) bool {
		a, b := yearKeys[i], yearKeys[j]
		if a == 0 || b == 0 {
			return b == 0 && a != 0
		}
		return a > b
	})

	out := make([]YearGroup, 0, len(yearKeys))
	for _, y := range yearKeys {
		months := make([]int, 0, len(years[y]))
		for m := range years[y] {
			months = append(months, m)
		}
		sort.Slice(months, func(i, j int) bool {
			a, b := months[i], months[j]
			if a == 0 || b == 0 {
				return b == 0 && a != 0
			}
			return a < b
		})

		g := YearGroup{Year: UnknownPeriod}
		if y != 0 {
			g.Year = strconv.Itoa(y)
		}
		for _, m := range months {
			label := UnknownPeriod
			if m != 0 {
				label = time.Month(m).String()
			}
			g.Months = append(g.Months, MonthGroup{Month: label, Receipts: buckets[bucket{y, m}]})
		}
		out = append(out, g)
	}
	return out
}
