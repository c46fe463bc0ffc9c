package assessments

import (
	"time"

	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/pages"
)

// Assessment is a test or assignment set for a batch. Teachers create them; an admin
// approves them before students see results.
type Assessment struct {
	ID          int64   `json:"id" validate:"required"`
	Title       string  `json:"title" validate:"required"`
	Subject     string  `json:"subject" validate:"required"`
	Batch       string  `json:"batch"`
	Date        string  `json:"date"`
	MaxMarks    float64 `json:"max_marks" validate:"gte=0"`
	TeacherName string  `json:"teacher_name"`
	Approval    string  `json:"approval" validate:"required,oneof=pending approved rejected"`
	ApprovedBy  string  `json:"approved_by"`
	Remarks     string  `json:"remarks"`
}

// RecordID implements collection.Record.
func (a Assessment) RecordID() int64 { return a.ID }

// Pending reports whether the assessment awaits an admin decision.
func (a Assessment) Pending() bool { return a.Approval == "pending" }

// ListConfig describes the assessments collection.
var ListConfig = collection.Config[Assessment]{
	Name:     "assessments",
	Label:    "assessments",
	Endpoint: "/assessments",
	ItemsKey: "assessments",
	Defaults: func(time.Time) collection.Filters {
		return collection.Filters{"subject": collection.AllValue, "approval": collection.AllValue}
	},
}

var subjectOptions = []pages.Option{
	{Value: collection.AllValue, Label: "All subjects"},
	{Value: "physics", Label: "Physics"},
	{Value: "chemistry", Label: "Chemistry"},
	{Value: "mathematics", Label: "Mathematics"},
	{Value: "biology", Label: "Biology"},
	{Value: "english", Label: "English"},
}

var approvalOptions = []pages.Option{
	{Value: collection.AllValue, Label: "Any approval"},
	{Value: "pending", Label: "Pending"},
	{Value: "approved", Label: "Approved"},
	{Value: "rejected", Label: "Rejected"},
}

type assessmentForm struct {
	Title    string  `json:"title" validate:"required"`
	Subject  string  `json:"subject" validate:"required,oneof=physics chemistry mathematics biology english"`
	Batch    string  `json:"batch" validate:"required"`
	Date     string  `json:"date" validate:"required,datetime=2006-01-02"`
	MaxMarks float64 `json:"max_marks" validate:"gt=0"`
	Remarks  string  `json:"remarks,omitempty"`
}

type approvalForm struct {
	Approval string `json:"approval" validate:"required,oneof=approved rejected"`
	Remarks  string `json:"remarks,omitempty"`
}
