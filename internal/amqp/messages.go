package amqp

import (
	"encoding/json"
	"time"
)

const (
	EventExpenseCreated = "expense.created"
	EventExpenseDeleted = "expense.deleted"
)

// ExpenseEvent is a lightweight sync message. It carries only the expense id;
// the worker fetches the full record from the database.
type ExpenseEvent struct {
	Kind      string    `json:"kind"`
	ExpenseID string    `json:"expense_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseEvent creates an event of the given kind for an expense id
func NewExpenseEvent(kind, expenseID string) *ExpenseEvent {
	return &ExpenseEvent{
		Kind:      kind,
		ExpenseID: expenseID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseEventFromJSON creates an event from JSON bytes
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var e ExpenseEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
