package core

import "sort"

// CategoryTotal is an amount aggregated under one category tag.
type CategoryTotal struct {
	Category Category `json:"category"`
	Amount   Money    `json:"amount_cents"`
}

// DayTotal is the spend attributed to a single calendar day.
type DayTotal struct {
	Date   Date  `json:"date"`
	Amount Money `json:"amount_cents"`
}

// CategoryTotals sums amounts grouped by category, ordered by descending
// total. Ties keep the order the category was first encountered in.
func CategoryTotals(expenses []Expense) []CategoryTotal {
	totals := make(map[Category]int64)
	var order []Category
	for _, e := range expenses {
		if _, seen := totals[e.Category]; !seen {
			order = append(order, e.Category)
		}
		totals[e.Category] += e.Amount.Cents
	}

	out := make([]CategoryTotal, 0, len(order))
	for _, c := range order {
		out = append(out, CategoryTotal{Category: c, Amount: Money{Cents: totals[c]}})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Cents > out[j].Amount.Cents
	})
	return out
}

// DailySeries returns one entry per calendar day for the window of the six
// days before ref through ref inclusive, in chronological order. Days with
// no matching expense contribute zero. An expense belongs to a day exactly
// when its date label equals the day's label.
func DailySeries(expenses []Expense, ref Date) []DayTotal {
	byDay := make(map[string]int64)
	for _, e := range expenses {
		byDay[e.Date.ISO()] += e.Amount.Cents
	}

	out := make([]DayTotal, 0, 7)
	for offset := -6; offset <= 0; offset++ {
		day := ref.AddDays(offset)
		out = append(out, DayTotal{Date: day, Amount: Money{Cents: byDay[day.ISO()]}})
	}
	return out
}

// Total sums every amount in the collection.
func Total(expenses []Expense) Money {
	var cents int64
	for _, e := range expenses {
		cents += e.Amount.Cents
	}
	return Money{Cents: cents}
}

// DailyAverage is the mean of the series' daily totals, zero for an empty
// series.
func DailyAverage(series []DayTotal) Money {
	if len(series) == 0 {
		return Money{}
	}
	var cents int64
	for _, d := range series {
		cents += d.Amount.Cents
	}
	return Money{Cents: cents / int64(len(series))}
}
