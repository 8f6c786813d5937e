package http

import (
	"fmt"

	"spendlog/internal/core"
	"spendlog/internal/services"
)

// expenseView is the wire shape of an expense. Amounts leave the API both as
// raw cents and as a formatted decimal string; formatting happens only here,
// at the edge.
type expenseView struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Amount        string `json:"amount"`
	AmountCents   int64  `json:"amount_cents"`
	Category      string `json:"category"`
	CategoryLabel string `json:"category_label"`
	Date          string `json:"date"`
	Notes         string `json:"notes,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	Synced        bool   `json:"synced"`
}

// formatCents renders integer cents as a two-decimal string without going
// through floating point.
func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func presentExpense(e core.Expense) expenseView {
	v := expenseView{
		ID:            e.ID,
		Title:         e.Title,
		Amount:        formatCents(e.Amount.Cents),
		AmountCents:   e.Amount.Cents,
		Category:      string(e.Category),
		CategoryLabel: string(e.Category.Display()),
		Date:          e.Date.ISO(),
		Notes:         e.Notes,
		Synced:        e.Synced,
	}
	if !e.CreatedAt.IsZero() {
		v.CreatedAt = e.CreatedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return v
}

func presentExpenses(expenses []core.Expense) []expenseView {
	views := make([]expenseView, 0, len(expenses))
	for _, e := range expenses {
		views = append(views, presentExpense(e))
	}
	return views
}

type categoryTotalView struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Amount   string `json:"amount"`
	Cents    int64  `json:"amount_cents"`
}

type dayTotalView struct {
	Date   string `json:"date"`
	Amount string `json:"amount"`
	Cents  int64  `json:"amount_cents"`
}

type summaryView struct {
	Total         string              `json:"total"`
	TotalCents    int64               `json:"total_cents"`
	DailyAverage  string              `json:"daily_average"`
	ByCategory    []categoryTotalView `json:"by_category"`
	Last7Days     []dayTotalView      `json:"last_7_days"`
	ReferenceDate string              `json:"reference_date"`
	Count         int                 `json:"count"`
}

func presentSummary(s services.Summary) summaryView {
	byCategory := make([]categoryTotalView, 0, len(s.ByCategory))
	for _, ct := range s.ByCategory {
		byCategory = append(byCategory, categoryTotalView{
			Category: string(ct.Category),
			Label:    string(ct.Category.Display()),
			Amount:   formatCents(ct.Amount.Cents),
			Cents:    ct.Amount.Cents,
		})
	}
	days := make([]dayTotalView, 0, len(s.Last7Days))
	for _, dt := range s.Last7Days {
		days = append(days, dayTotalView{
			Date:   dt.Date.ISO(),
			Amount: formatCents(dt.Amount.Cents),
			Cents:  dt.Amount.Cents,
		})
	}
	return summaryView{
		Total:         formatCents(s.Total.Cents),
		TotalCents:    s.Total.Cents,
		DailyAverage:  formatCents(s.DailyAverage.Cents),
		ByCategory:    byCategory,
		Last7Days:     days,
		ReferenceDate: s.ReferenceDate.ISO(),
		Count:         s.Count,
	}
}
