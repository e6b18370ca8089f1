package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Role is the authorization level of a user account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ValidRoles enumerates the roles accepted at the storage layer.
var ValidRoles = map[Role]struct{}{
	RoleUser:  {},
	RoleAdmin: {},
}

// Status is the board column a task currently sits in.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// ValidTaskStatuses enumerates the statuses supported by the board columns.
var ValidTaskStatuses = map[Status]struct{}{
	StatusTodo:       {},
	StatusInProgress: {},
	StatusCompleted:  {},
}

// Priority ranks tasks within a column.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidTaskPriorities enumerates the accepted priorities.
var ValidTaskPriorities = map[Priority]struct{}{
	PriorityLow:    {},
	PriorityMedium: {},
	PriorityHigh:   {},
}

// Activity labels written to a task's audit trail.
const (
	ActionTaskCreated  = "Task created"
	ActionTaskUpdated  = "Task updated"
	ActionTaskDeleted  = "Task deleted"
	ActionCommentAdded = "Comment added"
)

// User is a registered account. The password hash never leaves the process.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Ref projects the user into a display-friendly reference.
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserRef is a weak reference to a user. Name and Email are only filled once
// the reference has been populated; a dangling reference keeps just the ID.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Task represents a single card on the board.
type Task struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      Status          `json:"status"`
	Priority    Priority        `json:"priority"`
	Assignee    UserRef         `json:"assignee"`
	CreatedBy   UserRef         `json:"createdBy"`
	DueDate     Date            `json:"dueDate"`
	Comments    []Comment       `json:"comments"`
	ActivityLog []ActivityEntry `json:"activityLog"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Comment is a note left on a task.
type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	User      UserRef   `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

// ActivityEntry records one action taken on a task. Entries are never
// rewritten once appended.
type ActivityEntry struct {
	Action    string    `json:"action"`
	User      UserRef   `json:"user"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditRecord is the durable copy of an activity entry. It outlives the task
// it describes.
type AuditRecord struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	TaskTitle string    `json:"taskTitle"`
	Action    string    `json:"action"`
	User      UserRef   `json:"user"`
	Timestamp time.Time `json:"timestamp"`
}

// TaskFilter narrows a task listing. Empty fields are ignored.
type TaskFilter struct {
	Status   Status
	Priority Priority
	Assignee string
	Search   string
}

// DateLayout is the wire and storage format of a calendar date.
const DateLayout = "2006-01-02"

// Date is a calendar day without a time component, kept at UTC midnight.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts either YYYY-MM-DD or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return NewDate(t), nil
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
