package teachers

import (
	"time"

	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/pages"
)

// Teacher is one member of the institute's faculty.
type Teacher struct {
	ID            int64   `json:"id" validate:"required"`
	Name          string  `json:"name" validate:"required"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	Subject       string  `json:"subject"`
	Qualification string  `json:"qualification"`
	Salary        float64 `json:"salary"`
	Status        string  `json:"status" validate:"required,oneof=active inactive"`
	JoinedOn      string  `json:"joined_on"`
}

// RecordID implements collection.Record.
func (t Teacher) RecordID() int64 { return t.ID }

// Active reports whether the teacher is currently on staff.
func (t Teacher) Active() bool { return t.Status == "active" }

// ListConfig describes the teachers collection.
var ListConfig = collection.Config[Teacher]{
	Name:     "teachers",
	Label:    "teachers",
	Endpoint: "/teachers",
	ItemsKey: "teachers",
	Defaults: func(time.Time) collection.Filters {
		return collection.Filters{"search": "", "subject": collection.AllValue, "status": collection.AllValue}
	},
}

var subjectOptions = []pages.Option{
	{Value: collection.AllValue, Label: "All subjects"},
	{Value: "Physics", Label: "Physics"},
	{Value: "Chemistry", Label: "Chemistry"},
	{Value: "Mathematics", Label: "Mathematics"},
	{Value: "Biology", Label: "Biology"},
	{Value: "English", Label: "English"},
}

var statusOptions = []pages.Option{
	{Value: collection.AllValue, Label: "All statuses"},
	{Value: "active", Label: "Active"},
	{Value: "inactive", Label: "Inactive"},
}

type teacherForm struct {
	Name          string  `json:"name" validate:"required"`
	Email         string  `json:"email" validate:"required,email"`
	Phone         string  `json:"phone" validate:"required"`
	Subject       string  `json:"subject" validate:"required"`
	Qualification string  `json:"qualification,omitempty"`
	Salary        float64 `json:"salary,omitempty" validate:"gte=0"`
	JoinedOn      string  `json:"joined_on,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type statusForm struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}
