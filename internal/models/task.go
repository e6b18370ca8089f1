package models

import (
	"strings"
	"time"
)

// TaskInput carries the client-supplied fields of a new task.
type TaskInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
	Assignee    string   `json:"assignee"`
	DueDate     string   `json:"dueDate"`
}

// TaskPatch carries a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Status      *Status   `json:"status"`
	Priority    *Priority `json:"priority"`
	Assignee    *string   `json:"assignee"`
	DueDate     *string   `json:"dueDate"`
}

// NewTask builds an unsaved task from input, applying the status and
// priority defaults. It does not validate; a malformed due date is left zero
// and reported by CheckDueDate.
func NewTask(id string, in TaskInput, creator UserRef, now time.Time) Task {
	status := in.Status
	if status == "" {
		status = StatusTodo
	}
	priority := in.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	return Task{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Status:      status,
		Priority:    priority,
		Assignee:    UserRef{ID: strings.TrimSpace(in.Assignee)},
		CreatedBy:   creator,
		DueDate:     parseDueDate(in.DueDate),
		Comments:    []Comment{},
		ActivityLog: []ActivityEntry{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Apply returns a copy of t with the patch applied. The creator, comments and
// activity log are not patchable.
func (t Task) Apply(p TaskPatch, now time.Time) Task {
	out := t.clone()
	if p.Title != nil {
		out.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		out.Description = strings.TrimSpace(*p.Description)
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.Assignee != nil {
		id := strings.TrimSpace(*p.Assignee)
		if id != out.Assignee.ID {
			out.Assignee = UserRef{ID: id}
		}
	}
	if p.DueDate != nil {
		out.DueDate = parseDueDate(*p.DueDate)
	}
	out.UpdatedAt = now
	return out
}

func parseDueDate(raw string) Date {
	d, err := ParseDate(raw)
	if err != nil {
		return Date{}
	}
	return d
}

// NewActivity builds an entry for action performed by actor.
func NewActivity(action string, actor UserRef, at time.Time) ActivityEntry {
	return ActivityEntry{Action: action, User: actor, Timestamp: at}
}

// WithActivity returns a copy of t with e appended to its activity log.
func (t Task) WithActivity(e ActivityEntry) Task {
	out := t.clone()
	out.ActivityLog = append(out.ActivityLog, e)
	return out
}

// WithComment returns a copy of t with c appended to its comments.
func (t Task) WithComment(c Comment) Task {
	out := t.clone()
	out.Comments = append(out.Comments, c)
	out.UpdatedAt = c.CreatedAt
	return out
}

// LastActivity returns the most recent activity entry, if any.
func (t Task) LastActivity() (ActivityEntry, bool) {
	if len(t.ActivityLog) == 0 {
		return ActivityEntry{}, false
	}
	return t.ActivityLog[len(t.ActivityLog)-1], true
}

// Audit converts an activity entry of t into its durable form.
func (t Task) Audit(id string, e ActivityEntry) AuditRecord {
	return AuditRecord{
		ID:        id,
		TaskID:    t.ID,
		TaskTitle: t.Title,
		Action:    e.Action,
		User:      UserRef{ID: e.User.ID},
		Timestamp: e.Timestamp,
	}
}

func (t Task) clone() Task {
	out := t
	out.Comments = append(make([]Comment, 0, len(t.Comments)+1), t.Comments...)
	out.ActivityLog = append(make([]ActivityEntry, 0, len(t.ActivityLog)+1), t.ActivityLog...)
	return out
}
