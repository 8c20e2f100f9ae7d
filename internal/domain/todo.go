package domain

import "time"

// TimestampLayout is the fixed-width ISO-8601 layout used for CreatedAt.
// Every value has millisecond precision and a "Z" suffix, so string order
// equals chronological order in stores that sort lexicographically.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// DueDateLayout is the plain calendar date accepted for DueDate.
const DueDateLayout = "2006-01-02"

// TodoItem represents one to-do entry owned by a single user.
// (UserID, TodoID) is the primary key in every repository driver.
type TodoItem struct {
	UserID        string `bson:"userId" dynamodbav:"userId" json:"userId"`
	TodoID        string `bson:"todoId" dynamodbav:"todoId" json:"todoId"`
	CreatedAt     string `bson:"createdAt" dynamodbav:"createdAt" json:"createdAt"` // Set once at creation, never mutated
	Name          string `bson:"name" dynamodbav:"name" json:"name"`
	DueDate       string `bson:"dueDate" dynamodbav:"dueDate" json:"dueDate"`
	Done          bool   `bson:"done" dynamodbav:"done" json:"done"`
	AttachmentURL string `bson:"attachmentUrl,omitempty" dynamodbav:"attachmentUrl,omitempty" json:"attachmentUrl,omitempty"` // Present only once an upload has been linked
}

// TodoUpdate holds the mutable fields of a TodoItem.
type TodoUpdate struct {
	Name    string `bson:"name" dynamodbav:"name" json:"name"`
	DueDate string `bson:"dueDate" dynamodbav:"dueDate" json:"dueDate"`
	Done    bool   `bson:"done" dynamodbav:"done" json:"done"`
}

// HasAttachment reports whether an uploaded image has been linked to the item.
func (t *TodoItem) HasAttachment() bool {
	return t.AttachmentURL != ""
}

// Created parses CreatedAt back into a time.Time.
func (t *TodoItem) Created() (time.Time, error) {
	return time.Parse(TimestampLayout, t.CreatedAt)
}

// FormatTimestamp renders ts in TimestampLayout, normalized to UTC.
func FormatTimestamp(ts time.Time) string {
	return ts.UTC().Format(TimestampLayout)
}
