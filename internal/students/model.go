package students

import (
	"time"

	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/pages"
)

// Student is one row of the institute roster.
type Student struct {
	ID            int64   `json:"id" validate:"required"`
	Name          string  `json:"name" validate:"required"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	Batch         string  `json:"batch"`
	Course        string  `json:"course"`
	GuardianName  string  `json:"guardian_name"`
	GuardianPhone string  `json:"guardian_phone"`
	Status        string  `json:"status" validate:"required,oneof=active inactive"`
	EnrolledOn    string  `json:"enrolled_on"`
	FeesDue       float64 `json:"fees_due"`
}

// RecordID implements collection.Record.
func (s Student) RecordID() int64 { return s.ID }

// Active reports whether the student is currently enrolled.
func (s Student) Active() bool { return s.Status == "active" }

// ListConfig describes the students collection.
var ListConfig = collection.Config[Student]{
	Name:     "students",
	Label:    "students",
	Endpoint: "/students",
	ItemsKey: "students",
	Defaults: func(time.Time) collection.Filters {
		return collection.Filters{"search": "", "batch": collection.AllValue, "status": collection.AllValue}
	},
}

var statusOptions = []pages.Option{
	{Value: collection.AllValue, Label: "All statuses"},
	{Value: "active", Label: "Active"},
	{Value: "inactive", Label: "Inactive"},
}

var batchOptions = []pages.Option{
	{Value: collection.AllValue, Label: "All batches"},
	{Value: "JEE-2026", Label: "JEE 2026"},
	{Value: "JEE-2027", Label: "JEE 2027"},
	{Value: "NEET-2026", Label: "NEET 2026"},
	{Value: "NEET-2027", Label: "NEET 2027"},
	{Value: "Foundation", Label: "Foundation"},
}

type studentForm struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email,omitempty" validate:"omitempty,email"`
	Phone         string `json:"phone" validate:"required"`
	Batch         string `json:"batch" validate:"required"`
	Course        string `json:"course,omitempty"`
	GuardianName  string `json:"guardian_name,omitempty"`
	GuardianPhone string `json:"guardian_phone,omitempty"`
	EnrolledOn    string `json:"enrolled_on,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type statusForm struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}
