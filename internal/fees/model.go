package fees

import (
	"fmt"
	"time"

	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/pages"
)

// MonthLayout is the format of the month filter.
const MonthLayout = "2006-01"

// Fee is one monthly fee installment of a student.
type Fee struct {
	ID          int64   `json:"id" validate:"required"`
	StudentID   int64   `json:"student_id" validate:"required"`
	StudentName string  `json:"student_name" validate:"required"`
	Batch       string  `json:"batch"`
	Month       string  `json:"month" validate:"required"`
	Amount      float64 `json:"amount" validate:"gte=0"`
	PaidAmount  float64 `json:"paid_amount" validate:"gte=0"`
	DueDate     string  `json:"due_date"`
	Status      string  `json:"status" validate:"required,oneof=paid pending partial overdue"`
	PaidOn      string  `json:"paid_on"`
	PaymentMode string  `json:"payment_mode"`
}

// RecordID implements collection.Record.
func (f Fee) RecordID() int64 { return f.ID }

// Balance is the amount still owed.
func (f Fee) Balance() float64 {
	if f.PaidAmount >= f.Amount {
		return 0
	}
	return f.Amount - f.PaidAmount
}

// Settled reports whether any payment was received, so a receipt exists.
func (f Fee) Settled() bool {
	return f.Status == "paid" || f.Status == "partial"
}

// ReceiptNumber formats the printable receipt identifier.
func (f Fee) ReceiptNumber() string {
	return fmt.Sprintf("FEE-%06d", f.ID)
}

// ListConfig describes the fees collection. The month defaults to the current one.
var ListConfig = collection.Config[Fee]{
	Name:     "fees",
	Label:    "fees",
	Endpoint: "/fees",
	ItemsKey: "fees",
	Defaults: func(now time.Time) collection.Filters {
		return collection.Filters{
			"month":  now.Format(MonthLayout),
			"status": collection.AllValue,
			"search": "",
		}
	},
}

var statusOptions = []pages.Option{
	{Value: collection.AllValue, Label: "All statuses"},
	{Value: "pending", Label: "Pending"},
	{Value: "partial", Label: "Partially paid"},
	{Value: "paid", Label: "Paid"},
	{Value: "overdue", Label: "Overdue"},
}

var paymentModes = []pages.Option{
	{Value: "cash", Label: "Cash"},
	{Value: "upi", Label: "UPI"},
	{Value: "card", Label: "Card"},
	{Value: "bank_transfer", Label: "Bank transfer"},
	{Value: "cheque", Label: "Cheque"},
}

type feeForm struct {
	StudentID int64   `json:"student_id" validate:"required,gt=0"`
	Month     string  `json:"month" validate:"required,datetime=2006-01"`
	Amount    float64 `json:"amount" validate:"gt=0"`
	DueDate   string  `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type paymentForm struct {
	Amount      float64 `json:"amount" validate:"gt=0"`
	PaymentMode string  `json:"payment_mode" validate:"required,oneof=cash upi card bank_transfer cheque"`
	PaidOn      string  `json:"paid_on" validate:"required,datetime=2006-01-02"`
	Reference   string  `json:"reference,omitempty"`
}
