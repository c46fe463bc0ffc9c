package activities

import (
	"time"

	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/pages"
)

// Attachment is a file uploaded against a daily activity.
type Attachment struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Activity is a teacher's log of what a batch covered on a day.
type Activity struct {
	ID          int64        `json:"id" validate:"required"`
	Date        string       `json:"date" validate:"required"`
	Batch       string       `json:"batch"`
	Subject     string       `json:"subject"`
	Topic       string       `json:"topic" validate:"required"`
	Description string       `json:"description"`
	Homework    string       `json:"homework"`
	TeacherName string       `json:"teacher_name"`
	Approval    string       `json:"approval" validate:"required,oneof=pending approved rejected"`
	Attachments []Attachment `json:"attachments"`
}

// RecordID implements collection.Record.
func (a Activity) RecordID() int64 { return a.ID }

// Pending reports whether the log awaits review.
func (a Activity) Pending() bool { return a.Approval == "pending" }

// ListConfig describes the daily activity log, one day at a time.
var ListConfig = collection.Config[Activity]{
	Name:     "activities",
	Label:    "activities",
	Endpoint: "/daily-activities",
	ItemsKey: "activities",
	Defaults: func(now time.Time) collection.Filters {
		return collection.Filters{"date": now.Format(collection.DateLayout), "approval": collection.AllValue}
	},
}

var approvalOptions = []pages.Option{
	{Value: collection.AllValue, Label: "Any approval"},
	{Value: "pending", Label: "Pending"},
	{Value: "approved", Label: "Approved"},
	{Value: "rejected", Label: "Rejected"},
}

type activityForm struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Batch       string `json:"batch" validate:"required"`
	Subject     string `json:"subject" validate:"required"`
	Topic       string `json:"topic" validate:"required"`
	Description string `json:"description,omitempty"`
	Homework    string `json:"homework,omitempty"`
}

type approvalForm struct {
	Approval string `json:"approval" validate:"required,oneof=approved rejected"`
}
