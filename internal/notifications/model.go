package notifications

import (
	"time"

	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/pages"
)

// Notification is a message the institute sent, or tried to send, to a student, guardian
// or teacher. Bodies are Markdown.
type Notification struct {
	ID        int64  `json:"id" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Body      string `json:"body"`
	Channel   string `json:"channel" validate:"required,oneof=sms email whatsapp in_app"`
	Status    string `json:"status" validate:"required,oneof=queued sent failed"`
	Recipient string `json:"recipient"`
	Error     string `json:"error"`
	Attempts  int    `json:"attempts"`
	ReadAt    string `json:"read_at"`
	CreatedAt string `json:"created_at"`
}

// RecordID implements collection.Record.
func (n Notification) RecordID() int64 { return n.ID }

// Unread reports whether the notification has not been opened.
func (n Notification) Unread() bool { return n.ReadAt == "" }

// Failed reports whether delivery gave up.
func (n Notification) Failed() bool { return n.Status == "failed" }

// ListConfig describes the notifications collection.
var ListConfig = collection.Config[Notification]{
	Name:     "notifications",
	Label:    "notifications",
	Endpoint: "/notifications",
	ItemsKey: "notifications",
	Defaults: func(time.Time) collection.Filters {
		return collection.Filters{"status": collection.AllValue, "channel": collection.AllValue}
	},
}

var statusOptions = []pages.Option{
	{Value: collection.AllValue, Label: "All statuses"},
	{Value: "queued", Label: "Queued"},
	{Value: "sent", Label: "Sent"},
	{Value: "failed", Label: "Failed"},
}

var channelOptions = []pages.Option{
	{Value: collection.AllValue, Label: "All channels"},
	{Value: "sms", Label: "SMS"},
	{Value: "email", Label: "Email"},
	{Value: "whatsapp", Label: "WhatsApp"},
	{Value: "in_app", Label: "In app"},
}
