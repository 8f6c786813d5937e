package core

import "testing"

func expense(title string, cents int64, cat Category, date string) Expense {
	d, _ := ParseDate(date)
	return Expense{ID: title, Title: title, Amount: Money{Cents: cents}, Category: cat, Date: d}
}

func TestCategoryTotalsOrdering(t *testing.T) {
	expenses := []Expense{
		expense("a", 1000, CategoryFood, "2024-01-05"),
		expense("b", 500, CategoryFood, "2024-01-06"),
		expense("c", 2000, CategoryTransportation, "2024-01-07"),
	}
	got := CategoryTotals(expenses)
	if len(got) != 2 {
		t.Fatalf("got %d totals, want 2", len(got))
	}
	if got[0].Category != CategoryTransportation || got[0].Amount.Cents != 2000 {
		t.Fatalf("first = %+v", got[0])
	}
	if got[1].Category != CategoryFood || got[1].Amount.Cents != 1500 {
		t.Fatalf("second = %+v", got[1])
	}
}

func TestCategoryTotalsStableTies(t *testing.T) {
	expenses := []Expense{
		expense("a", 700, CategoryShopping, "2024-01-05"),
		expense("b", 700, CategoryHealth, "2024-01-05"),
		expense("c", 700, CategoryPersonal, "2024-01-05"),
	}
	got := CategoryTotals(expenses)
	want := []Category{CategoryShopping, CategoryHealth, CategoryPersonal}
	for i, w := range want {
		if got[i].Category != w {
			t.Fatalf("position %d = %q, want %q (ties must keep first-encountered order)", i, got[i].Category, w)
		}
	}
}

func TestDailySeriesWindow(t *testing.T) {
	ref, _ := ParseDate("2024-01-10")
	expenses := []Expense{
		expense("outside", 9900, CategoryFood, "2024-01-03"), // before window
		expense("edge", 1100, CategoryFood, "2024-01-04"),    // first in-window day
		expense("inside", 2500, CategoryHousing, "2024-01-07"),
		expense("today", 300, CategoryFood, "2024-01-10"),
	}
	series := DailySeries(expenses, ref)
	if len(series) != 7 {
		t.Fatalf("series length = %d, want 7", len(series))
	}
	if series[0].Date.ISO() != "2024-01-04" || series[6].Date.ISO() != "2024-01-10" {
		t.Fatalf("window = %s..%s", series[0].Date.ISO(), series[6].Date.ISO())
	}
	wantCents := map[string]int64{
		"2024-01-04": 1100,
		"2024-01-05": 0,
		"2024-01-06": 0,
		"2024-01-07": 2500,
		"2024-01-08": 0,
		"2024-01-09": 0,
		"2024-01-10": 300,
	}
	for _, day := range series {
		if day.Amount.Cents != wantCents[day.Date.ISO()] {
			t.Fatalf("%s = %d, want %d", day.Date.ISO(), day.Amount.Cents, wantCents[day.Date.ISO()])
		}
	}
}

func TestTotalAndDailyAverage(t *testing.T) {
	expenses := []Expense{
		expense("a", 100, CategoryFood, "2024-01-08"),
		expense("b", 600, CategoryFood, "2024-01-09"),
	}
	if got := Total(expenses); got.Cents != 700 {
		t.Fatalf("Total = %d", got.Cents)
	}
	ref, _ := ParseDate("2024-01-10")
	avg := DailyAverage(DailySeries(expenses, ref))
	if avg.Cents != 100 { // 700 cents over 7 days
		t.Fatalf("DailyAverage = %d", avg.Cents)
	}
	if got := DailyAverage(nil); got.Cents != 0 {
		t.Fatalf("empty series average = %d", got.Cents)
	}
}
