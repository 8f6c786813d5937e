package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2024-01-10")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := d.ISO(); got != "2024-01-10" {
		t.Fatalf("ISO = %q", got)
	}
	if got := d.AddDays(-6).ISO(); got != "2024-01-04" {
		t.Fatalf("AddDays(-6) = %q", got)
	}

	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.ISO() != d.ISO() {
		t.Fatalf("round trip %q != %q", back.ISO(), d.ISO())
	}
}

func TestCategoryKnown(t *testing.T) {
	if !CategoryFood.Known() {
		t.Fatal("Food should be a known category")
	}
	if Category("Cryptocurrency").Known() {
		t.Fatal("unexpected known category")
	}
	if got := Category("Cryptocurrency").Display(); got != CategoryOther {
		t.Fatalf("Display = %q, want %q", got, CategoryOther)
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		ID:       "a",
		Title:    "coffee",
		Amount:   Money{Cents: 350},
		Category: CategoryFood,
		Date:     NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Title: "a", Amount: Money{Cents: 1}},                            // zero date
		{Title: "", Amount: Money{Cents: 1}, Date: NewDate(2025, 1, 1)},  // empty title
		{Title: "  ", Amount: Money{Cents: 1}, Date: NewDate(2025, 1, 1)},
		{Title: "a", Amount: Money{Cents: 0}, Date: NewDate(2025, 1, 1)}, // zero amount
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}

	long := good
	long.Title = strings.Repeat("x", 201)
	if err := long.Validate(); !errors.Is(err, ErrTitleTooLong) {
		t.Fatalf("over-long title = %v, want ErrTitleTooLong", err)
	}
	long.Title = strings.Repeat("x", 200)
	if err := long.Validate(); err != nil {
		t.Fatalf("200-char title should validate, got %v", err)
	}

	// Unknown categories are tolerated, not rejected.
	odd := good
	odd.Category = "Llamas"
	if err := odd.Validate(); err != nil {
		t.Fatalf("unknown category should validate, got %v", err)
	}
}

func TestExpenseJSONRoundTrip(t *testing.T) {
	e := Expense{
		ID:        "e1",
		Title:     "groceries",
		Amount:    Money{Cents: 4599},
		Category:  CategoryFood,
		Date:      NewDate(2024, 3, 15),
		Notes:     "weekly run",
		CreatedAt: time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC),
		UserID:    "u1",
	}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Expense
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.ID != e.ID || back.Amount.Cents != e.Amount.Cents || back.Date.ISO() != e.Date.ISO() {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestUserSanitized(t *testing.T) {
	u := User{ID: "u1", Email: "a@b.c", PasswordHash: "$2a$10$x"}
	if got := u.Sanitized(); got.PasswordHash != "" {
		t.Fatal("Sanitized should strip the password hash")
	}
	if u.PasswordHash == "" {
		t.Fatal("Sanitized should not mutate the receiver")
	}
}
