package expenses

import (
	"time"

	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/pages"
)

// Expense is one outgoing payment of the institute.
type Expense struct {
	ID       int64   `json:"id" validate:"required"`
	Title    string  `json:"title" validate:"required"`
	Category string  `json:"category" validate:"required"`
	Amount   float64 `json:"amount" validate:"gte=0"`
	Date     string  `json:"date" validate:"required,datetime=2006-01-02"`
	PaidTo   string  `json:"paid_to"`
	Notes    string  `json:"notes"`
}

// RecordID implements collection.Record.
func (e Expense) RecordID() int64 { return e.ID }

// ListConfig describes the expenses collection over the trailing week by default.
var ListConfig = collection.Config[Expense]{
	Name:     "expenses",
	Label:    "expenses",
	Endpoint: "/expenses",
	ItemsKey: "expenses",
	Defaults: func(now time.Time) collection.Filters {
		from, to := collection.TrailingWeek(now)
		return collection.Filters{"start_date": from, "end_date": to, "category": collection.AllValue}
	},
	Ranges: []collection.DateRange{{From: "start_date", To: "end_date"}},
}

var categoryOptions = []pages.Option{
	{Value: collection.AllValue, Label: "All categories"},
	{Value: "rent", Label: "Rent"},
	{Value: "salary", Label: "Salary"},
	{Value: "utilities", Label: "Utilities"},
	{Value: "marketing", Label: "Marketing"},
	{Value: "stationery", Label: "Stationery"},
	{Value: "maintenance", Label: "Maintenance"},
	{Value: "other", Label: "Other"},
}

type expenseForm struct {
	Title    string  `json:"title" validate:"required"`
	Category string  `json:"category" validate:"required,oneof=rent salary utilities marketing stationery maintenance other"`
	Amount   float64 `json:"amount" validate:"gt=0"`
	Date     string  `json:"date" validate:"required,datetime=2006-01-02"`
	PaidTo   string  `json:"paid_to,omitempty"`
	Notes    string  `json:"notes,omitempty"`
}
