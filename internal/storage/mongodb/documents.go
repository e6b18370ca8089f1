package mongodb

import (
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskboard/internal/models"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password"`
	Role         string    `bson:"role"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

type commentDoc struct {
	ID        string    `bson:"_id"`
	Text      string    `bson:"text"`
	User      string    `bson:"user"`
	CreatedAt time.Time `bson:"createdAt"`
}

type activityDoc struct {
	Action    string    `bson:"action"`
	User      string    `bson:"user"`
	Timestamp time.Time `bson:"timestamp"`
}

type taskDoc struct {
	ID          string        `bson:"_id"`
	Title       string        `bson:"title"`
	Description string        `bson:"description"`
	Status      string        `bson:"status"`
	Priority    string        `bson:"priority"`
	Assignee    string        `bson:"assignee"`
	CreatedBy   string        `bson:"createdBy"`
	DueDate     time.Time     `bson:"dueDate"`
	Comments    []commentDoc  `bson:"comments"`
	ActivityLog []activityDoc `bson:"activityLog"`
	CreatedAt   time.Time     `bson:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt"`
	// Seq orders documents inserted within the same millisecond.
	Seq primitive.ObjectID `bson:"seq"`
}

type auditDoc struct {
	ID        string             `bson:"_id"`
	TaskID    string             `bson:"taskId"`
	TaskTitle string             `bson:"taskTitle"`
	Action    string             `bson:"action"`
	User      string             `bson:"user"`
	Timestamp time.Time          `bson:"timestamp"`
	Seq       primitive.ObjectID `bson:"seq"`
}

func toUserDoc(u models.User) userDoc {
	return userDoc{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

func (d userDoc) model() models.User {
	return models.User{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         models.Role(d.Role),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func toCommentDoc(c models.Comment) commentDoc {
	return commentDoc{ID: c.ID, Text: c.Text, User: c.User.ID, CreatedAt: c.CreatedAt.UTC()}
}

func toActivityDoc(e models.ActivityEntry) activityDoc {
	return activityDoc{Action: e.Action, User: e.User.ID, Timestamp: e.Timestamp.UTC()}
}

func toTaskDoc(t models.Task) taskDoc {
	d := taskDoc{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Assignee:    t.Assignee.ID,
		CreatedBy:   t.CreatedBy.ID,
		DueDate:     t.DueDate.Time,
		Comments:    make([]commentDoc, 0, len(t.Comments)),
		ActivityLog: make([]activityDoc, 0, len(t.ActivityLog)),
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
	for _, c := range t.Comments {
		d.Comments = append(d.Comments, toCommentDoc(c))
	}
	for _, e := range t.ActivityLog {
		d.ActivityLog = append(d.ActivityLog, toActivityDoc(e))
	}
	return d
}

func (d taskDoc) model() models.Task {
	t := models.Task{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Status:      models.Status(d.Status),
		Priority:    models.Priority(d.Priority),
		Assignee:    models.UserRef{ID: d.Assignee},
		CreatedBy:   models.UserRef{ID: d.CreatedBy},
		DueDate:     models.NewDate(d.DueDate.UTC()),
		Comments:    make([]models.Comment, 0, len(d.Comments)),
		ActivityLog: make([]models.ActivityEntry, 0, len(d.ActivityLog)),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	for _, c := range d.Comments {
		t.Comments = append(t.Comments, models.Comment{
			ID: c.ID, Text: c.Text, User: models.UserRef{ID: c.User}, CreatedAt: c.CreatedAt,
		})
	}
	for _, e := range d.ActivityLog {
		t.ActivityLog = append(t.ActivityLog, models.ActivityEntry{
			Action: e.Action, User: models.UserRef{ID: e.User}, Timestamp: e.Timestamp,
		})
	}
	return t
}

func toAuditDoc(r models.AuditRecord) auditDoc {
	return auditDoc{
		ID:        r.ID,
		TaskID:    r.TaskID,
		TaskTitle: r.TaskTitle,
		Action:    r.Action,
		User:      r.User.ID,
		Timestamp: r.Timestamp.UTC(),
	}
}

func (d auditDoc) model() models.AuditRecord {
	return models.AuditRecord{
		ID:        d.ID,
		TaskID:    d.TaskID,
		TaskTitle: d.TaskTitle,
		Action:    d.Action,
		User:      models.UserRef{ID: d.User},
		Timestamp: d.Timestamp,
	}
}

// taskSort lists tasks newest first. BSON dates keep milliseconds only, so
// insertion order breaks ties.
func taskSort() bson.D {
	return bson.D{{Key: "createdAt", Value: -1}, {Key: "seq", Value: -1}}
}

// auditSort lists audit records oldest first, in insertion order within a millisecond.
func auditSort() bson.D {
	return bson.D{{Key: "timestamp", Value: 1}, {Key: "seq", Value: 1}}
}

// taskFilter translates a listing filter into a query document. Search is a
// case-insensitive substring match on title or description.
func taskFilter(f models.TaskFilter) bson.D {
	filter := bson.D{}
	if f.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: string(f.Status)})
	}
	if f.Priority != "" {
		filter = append(filter, bson.E{Key: "priority", Value: string(f.Priority)})
	}
	if f.Assignee != "" {
		filter = append(filter, bson.E{Key: "assignee", Value: f.Assignee})
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: re}},
			bson.D{{Key: "description", Value: re}},
		}})
	}
	return filter
}

// taskFieldsUpdate is the $set document for the scalar fields of a task.
func taskFieldsUpdate(t models.Task) bson.D {
	return bson.D{{Key: "$set", Value: bson.D{
		{Key: "title", Value: t.Title},
		{Key: "description", Value: t.Description},
		{Key: "status", Value: string(t.Status)},
		{Key: "priority", Value: string(t.Priority)},
		{Key: "assignee", Value: t.Assignee.ID},
		{Key: "dueDate", Value: t.DueDate.Time},
		{Key: "updatedAt", Value: t.UpdatedAt.UTC()},
	}}}
}
