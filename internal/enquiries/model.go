package enquiries

import (
	"time"

	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/pages"
)

// Communication is one follow-up logged against an enquiry.
type Communication struct {
	ID       int64  `json:"id"`
	Channel  string `json:"channel"`
	Note     string `json:"note"`
	LoggedBy string `json:"logged_by"`
	LoggedAt string `json:"logged_at"`
}

// Enquiry is a prospective student or teacher who contacted the institute.
type Enquiry struct {
	ID             int64           `json:"id" validate:"required"`
	Name           string          `json:"name" validate:"required"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email"`
	Type           string          `json:"type" validate:"required,oneof=student teacher"`
	Status         string          `json:"status" validate:"required,oneof=new contacted follow_up converted closed"`
	Source         string          `json:"source"`
	Interest       string          `json:"interest"`
	FollowUpOn     string          `json:"follow_up_on"`
	CreatedAt      string          `json:"created_at"`
	Communications []Communication `json:"communications"`
}

// RecordID implements collection.Record.
func (e Enquiry) RecordID() int64 { return e.ID }

// LastContact returns the most recent communication, if any.
func (e Enquiry) LastContact() *Communication {
	if len(e.Communications) == 0 {
		return nil
	}
	return &e.Communications[len(e.Communications)-1]
}

// ListConfig describes the enquiries collection.
var ListConfig = collection.Config[Enquiry]{
	Name:     "enquiries",
	Label:    "enquiries",
	Endpoint: "/enquiries",
	ItemsKey: "enquiries",
	Defaults: func(time.Time) collection.Filters {
		return collection.Filters{"status": collection.AllValue, "type": collection.AllValue, "search": ""}
	},
}

var statusOptions = []pages.Option{
	{Value: collection.AllValue, Label: "All statuses"},
	{Value: "new", Label: "New"},
	{Value: "contacted", Label: "Contacted"},
	{Value: "follow_up", Label: "Follow up"},
	{Value: "converted", Label: "Converted"},
	{Value: "closed", Label: "Closed"},
}

var typeOptions = []pages.Option{
	{Value: collection.AllValue, Label: "All types"},
	{Value: "student", Label: "Student"},
	{Value: "teacher", Label: "Teacher"},
}

var channelOptions = []pages.Option{
	{Value: "call", Label: "Call"},
	{Value: "whatsapp", Label: "WhatsApp"},
	{Value: "email", Label: "Email"},
	{Value: "visit", Label: "Walk-in"},
}

type enquiryForm struct {
	Name       string `json:"name" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Type       string `json:"type" validate:"required,oneof=student teacher"`
	Status     string `json:"status" validate:"required,oneof=new contacted follow_up converted closed"`
	Source     string `json:"source,omitempty"`
	Interest   string `json:"interest,omitempty"`
	FollowUpOn string `json:"follow_up_on,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type communicationForm struct {
	Channel string `json:"channel" validate:"required,oneof=call whatsapp email visit"`
	Note    string `json:"note" validate:"required"`
}
