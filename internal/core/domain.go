package core

import (
	"errors"
	"strings"
	"time"
)

const (
	CategoryFood           Category = "Food"
	CategoryTransportation Category = "Transportation"
	CategoryHousing        Category = "Housing"
	CategoryUtilities      Category = "Utilities"
	CategoryEntertainment  Category = "Entertainment"
	CategoryShopping       Category = "Shopping"
	CategoryHealth         Category = "Health"
	CategoryEducation      Category = "Education"
	CategoryPersonal       Category = "Personal"
	CategoryOther          Category = "Other"
)

type (
	// Category is one of the fixed classification tags for an expense.
	// Unknown values read back from storage are tolerated and rendered
	// with a default, never rejected.
	Category string

	// Date is a calendar date with no time component. All comparisons go
	// through the YYYY-MM-DD string form so two dates are equal exactly
	// when their labels are equal, independent of wall-clock instants.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Expense is one recorded transaction. The whole collection is
	// persisted as a unit on every mutation; an expense is never edited
	// in place, only added or removed.
	Expense struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		Amount    Money     `json:"amount_cents"`
		Category  Category  `json:"category"`
		Date      Date      `json:"date"`
		Notes     string    `json:"notes,omitempty"`
		CreatedAt time.Time `json:"created_at"`
		UserID    string    `json:"user_id,omitempty"`
		Synced    bool      `json:"synced,omitempty"`
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyTitle    = errors.New("empty title")
	ErrTitleTooLong  = errors.New("title too long (max 200 characters)")
	ErrEmptyID       = errors.New("empty id")
)

// Categories returns the fixed taxonomy in display order.
func Categories() []Category {
	return []Category{
		CategoryFood,
		CategoryTransportation,
		CategoryHousing,
		CategoryUtilities,
		CategoryEntertainment,
		CategoryShopping,
		CategoryHealth,
		CategoryEducation,
		CategoryPersonal,
		CategoryOther,
	}
}

// Known reports whether c is part of the fixed taxonomy.
func (c Category) Known() bool {
	for _, k := range Categories() {
		if c == k {
			return true
		}
	}
	return false
}

// Display returns c for known categories and the default tag otherwise.
func (c Category) Display() Category {
	if c.Known() {
		return c
	}
	return CategoryOther
}

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day, normalized to midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD label.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Today returns the current calendar date in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ISO returns the YYYY-MM-DD label.
func (d Date) ISO() string {
	return d.Format(dateLayout)
}

// AddDays returns the calendar date n days after d (negative n goes back).
func (d Date) AddDays(n int) Date {
	t := d.AddDate(0, 0, n)
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.ISO() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return ErrTitleTooLong
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return nil
}
