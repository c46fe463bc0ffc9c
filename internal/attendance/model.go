package attendance

import (
	"time"

	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/pages"
)

// Entry is one attendance mark for a student or teacher on a date.
type Entry struct {
	ID         int64  `json:"id" validate:"required"`
	PersonID   int64  `json:"person_id" validate:"required"`
	PersonName string `json:"person_name" validate:"required"`
	Role       string `json:"role" validate:"required,oneof=student teacher"`
	Batch      string `json:"batch"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Status     string `json:"status" validate:"required,oneof=present absent late leave"`
	Remarks    string `json:"remarks"`
	MarkedBy   string `json:"marked_by"`
}

// RecordID implements collection.Record.
func (e Entry) RecordID() int64 { return e.ID }

// Range bounds the attendance window.
var Range = collection.DateRange{From: "start_date", To: "end_date"}

// ListConfig describes the attendance collection. The window defaults to the trailing week.
var ListConfig = collection.Config[Entry]{
	Name:     "attendance",
	Label:    "attendance",
	Endpoint: "/attendance",
	ItemsKey: "attendance",
	PerPage:  25,
	Defaults: func(now time.Time) collection.Filters {
		from, to := collection.TrailingWeek(now)
		return collection.Filters{
			"start_date": from,
			"end_date":   to,
			"role":       collection.AllValue,
			"status":     collection.AllValue,
		}
	},
	Ranges: []collection.DateRange{Range},
}

var roleOptions = []pages.Option{
	{Value: collection.AllValue, Label: "Everyone"},
	{Value: "student", Label: "Students"},
	{Value: "teacher", Label: "Teachers"},
}

var statusOptions = []pages.Option{
	{Value: collection.AllValue, Label: "All statuses"},
	{Value: "present", Label: "Present"},
	{Value: "absent", Label: "Absent"},
	{Value: "late", Label: "Late"},
	{Value: "leave", Label: "On leave"},
}

type markForm struct {
	PersonID int64  `json:"person_id" validate:"required,gt=0"`
	Role     string `json:"role" validate:"required,oneof=student teacher"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Status   string `json:"status" validate:"required,oneof=present absent late leave"`
	Remarks  string `json:"remarks,omitempty"`
}
