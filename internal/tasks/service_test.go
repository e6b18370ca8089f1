package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/models"
	"taskboard/internal/storage/sqlite"
)

// tickingClock advances by a minute on every reading so creation order is
// reflected in timestamps.
type tickingClock struct {
	t time.Time
}

func (c *tickingClock) Now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

type fixture struct {
	svc   *Service
	store *sqlite.Store
	alice *models.User
	bob   *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.Open(sqlite.MemoryPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	clock := &tickingClock{t: time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)}
	svc := NewService(store, nil)
	svc.now = clock.Now

	f := &fixture{svc: svc, store: store}
	f.alice = f.addUser(t, "u-alice", "Alice", "alice@example.com")
	f.bob = f.addUser(t, "u-bob", "Bob", "bob@example.com")
	return f
}

func (f *fixture) addUser(t *testing.T, id, name, email string) *models.User {
	t.Helper()
	now := time.Now().UTC()
	u := models.User{
		ID: id, Name: name, Email: email, PasswordHash: "x",
		Role: models.RoleUser, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return &u
}

func (f *fixture) create(t *testing.T, title string, mutate func(*models.TaskInput)) models.Task {
	t.Helper()
	in := models.TaskInput{
		Title:       title,
		Description: title + " description",
		Assignee:    f.alice.ID,
		DueDate:     "2025-01-01",
	}
	if mutate != nil {
		mutate(&in)
	}
	task, err := f.svc.Create(context.Background(), in, f.bob)
	require.NoError(t, err)
	return task
}

func TestCreateRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.create(t, "Fix bug", func(in *models.TaskInput) {
		in.Description = "NPE on login"
		in.Priority = models.PriorityHigh
	})
	require.NotEmpty(t, created.ID)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Fix bug", got.Title)
	assert.Equal(t, "NPE on login", got.Description)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	assert.Equal(t, models.StatusTodo, got.Status)
	assert.Equal(t, "2025-01-01", got.DueDate.String())
	assert.Equal(t, models.UserRef{ID: f.alice.ID, Name: "Alice", Email: "alice@example.com"}, got.Assignee)
	assert.Equal(t, f.bob.ID, got.CreatedBy.ID)
	assert.Equal(t, "Bob", got.CreatedBy.Name)

	require.Len(t, got.ActivityLog, 1)
	assert.Equal(t, models.ActionTaskCreated, got.ActivityLog[0].Action)
	assert.Equal(t, f.bob.ID, got.ActivityLog[0].User.ID)
}

func TestCreateDefaults(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, "Defaults", nil)
	assert.Equal(t, models.StatusTodo, task.Status)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Empty(t, task.Comments)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		in     models.TaskInput
		fields []string
	}{
		{
			name:   "missing everything",
			in:     models.TaskInput{},
			fields: []string{"title", "description", "assignee", "dueDate"},
		},
		{
			name: "blank title",
			in: models.TaskInput{
				Title: "   ", Description: "d", Assignee: "u-alice", DueDate: "2025-01-01",
			},
			fields: []string{"title"},
		},
		{
			name: "bad enums",
			in: models.TaskInput{
				Title: "t", Description: "d", Assignee: "u-alice", DueDate: "2025-01-01",
				Status: "done", Priority: "urgent",
			},
			fields: []string{"status", "priority"},
		},
		{
			name: "unknown assignee",
			in: models.TaskInput{
				Title: "t", Description: "d", Assignee: "ghost", DueDate: "2025-01-01",
			},
			fields: []string{"assignee"},
		},
		{
			name: "malformed due date",
			in: models.TaskInput{
				Description: "d", Assignee: "u-alice", DueDate: "next friday",
			},
			fields: []string{"title", "dueDate"},
		},
		{
			name: "impossible due date",
			in: models.TaskInput{
				Title: "t", Description: "d", Assignee: "u-alice", DueDate: "2025-02-30",
			},
			fields: []string{"dueDate"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.in, f.bob)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			for _, field := range tt.fields {
				assert.True(t, verr.Has(field), "expected %s to be flagged", field)
			}
		})
	}

	all, err := f.svc.List(ctx, models.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, all, "rejected tasks must not be persisted")
}

func TestMutationsRequireActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "Guarded", nil)

	_, err := f.svc.Create(ctx, models.TaskInput{}, nil)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
	_, err = f.svc.Update(ctx, task.ID, models.TaskPatch{}, nil)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
	_, err = f.svc.AddComment(ctx, task.ID, "hi", nil)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
	_, err = f.svc.Delete(ctx, task.ID, nil)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "Original", nil)

	status := models.StatusInProgress
	title := "  Renamed  "
	updated, err := f.svc.Update(ctx, task.ID, models.TaskPatch{Status: &status, Title: &title}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, models.StatusInProgress, updated.Status)
	assert.Equal(t, task.Description, updated.Description)
	assert.Equal(t, task.Priority, updated.Priority)
	assert.Equal(t, f.bob.ID, updated.CreatedBy.ID, "creator is immutable")

	require.Len(t, updated.ActivityLog, len(task.ActivityLog)+1)
	last, _ := updated.LastActivity()
	assert.Equal(t, models.ActionTaskUpdated, last.Action)
	assert.Equal(t, f.alice.ID, last.User.ID)

	stored, err := f.svc.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Title)
	assert.Len(t, stored.ActivityLog, 2)
	assert.True(t, stored.UpdatedAt.After(task.UpdatedAt))
}

func TestUpdateReassign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "Reassign", nil)

	bob := f.bob.ID
	updated, err := f.svc.Update(ctx, task.ID, models.TaskPatch{Assignee: &bob}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, "Bob", updated.Assignee.Name)

	ghost := "ghost"
	_, err = f.svc.Update(ctx, task.ID, models.TaskPatch{Assignee: &ghost}, f.alice)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("assignee"))
}

func TestUpdateRejectsInvalidEnum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "Enum", nil)

	bad := models.Status("archived")
	_, err := f.svc.Update(ctx, task.ID, models.TaskPatch{Status: &bad}, f.alice)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("status"))

	stored, err := f.svc.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTodo, stored.Status)
	assert.Len(t, stored.ActivityLog, 1, "failed update writes no activity")
}

func TestUpdateRejectsMalformedDueDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "Dated", nil)

	bad, blank := "2025-13-01", ""
	_, err := f.svc.Update(ctx, task.ID, models.TaskPatch{DueDate: &bad, Title: &blank}, f.alice)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("dueDate"))
	assert.True(t, verr.Has("title"))
	assert.Len(t, verr.Fields, 2, "a malformed date is reported once")

	stored, err := f.svc.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", stored.DueDate.String())
}

func TestNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = f.svc.Update(ctx, "missing", models.TaskPatch{}, f.alice)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = f.svc.AddComment(ctx, "missing", "hello", f.alice)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = f.svc.Delete(ctx, "missing", f.alice)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAddComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "Discuss", nil)

	got, err := f.svc.AddComment(ctx, task.ID, " looks good ", f.alice)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "looks good", got.Comments[0].Text)
	assert.Equal(t, "Alice", got.Comments[0].User.Name)

	require.Len(t, got.ActivityLog, 2)
	last, _ := got.LastActivity()
	assert.Equal(t, models.ActionCommentAdded, last.Action)
	assert.Equal(t, f.alice.ID, last.User.ID)

	stored, err := f.svc.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Comments, 1)
	assert.Len(t, stored.ActivityLog, 2)

	_, err = f.svc.AddComment(ctx, task.ID, "   ", f.alice)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("text"))
}

func TestDeleteKeepsAuditTrail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "Doomed", nil)

	snapshot, err := f.svc.Delete(ctx, task.ID, f.alice)
	require.NoError(t, err)
	require.Len(t, snapshot.ActivityLog, 2)
	last, _ := snapshot.LastActivity()
	assert.Equal(t, models.ActionTaskDeleted, last.Action)
	assert.Equal(t, "Alice", last.User.Name)

	_, err = f.svc.Get(ctx, task.ID)
	assert.ErrorIs(t, err, models.ErrTaskNotFound)

	history, err := f.svc.History(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.ActionTaskCreated, history[0].Action)
	assert.Equal(t, models.ActionTaskDeleted, history[1].Action)
	assert.Equal(t, "Doomed", history[1].TaskTitle)
	assert.Equal(t, "Alice", history[1].User.Name)
}

// staleStore serves a snapshot taken before the task was removed, as a
// concurrent delete would leave it.
type staleStore struct {
	*sqlite.Store
	snapshot models.Task
}

func (s staleStore) GetTask(context.Context, string) (models.Task, error) {
	return s.snapshot, nil
}

func TestDeleteLosingRaceWritesNoAudit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "Contested", nil)
	stale, err := f.store.GetTask(ctx, task.ID)
	require.NoError(t, err)

	_, err = f.svc.Delete(ctx, task.ID, f.alice)
	require.NoError(t, err)

	loser := NewService(staleStore{Store: f.store, snapshot: stale}, nil)
	_, err = loser.Delete(ctx, task.ID, f.bob)
	assert.ErrorIs(t, err, models.ErrTaskNotFound)

	history, err := f.svc.History(ctx, task.ID)
	require.NoError(t, err)
	deletions := 0
	for _, rec := range history {
		if rec.Action == models.ActionTaskDeleted {
			deletions++
		}
	}
	assert.Equal(t, 1, deletions)
}

func TestHistoryMirrorsActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "Tracked", nil)

	_, err := f.svc.AddComment(ctx, task.ID, "first", f.alice)
	require.NoError(t, err)
	p := models.PriorityLow
	updated, err := f.svc.Update(ctx, task.ID, models.TaskPatch{Priority: &p}, f.bob)
	require.NoError(t, err)

	history, err := f.svc.History(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, history, len(updated.ActivityLog))
	for i, e := range updated.ActivityLog {
		assert.Equal(t, e.Action, history[i].Action)
		assert.Equal(t, e.User.ID, history[i].User.ID)
	}
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, "Write release notes", func(in *models.TaskInput) {
		in.Status = models.StatusCompleted
		in.Priority = models.PriorityHigh
	})
	f.create(t, "Fix login", func(in *models.TaskInput) {
		in.Status = models.StatusCompleted
		in.Priority = models.PriorityLow
		in.Assignee = f.bob.ID
	})
	f.create(t, "Plan sprint", func(in *models.TaskInput) {
		in.Priority = models.PriorityHigh
		in.Description = "Includes the LOGIN epic"
	})

	completed, err := f.svc.List(ctx, models.TaskFilter{Status: models.StatusCompleted})
	require.NoError(t, err)
	assert.Len(t, completed, 2)
	for _, task := range completed {
		assert.Equal(t, models.StatusCompleted, task.Status)
	}

	combined, err := f.svc.List(ctx, models.TaskFilter{Status: models.StatusCompleted, Priority: models.PriorityHigh})
	require.NoError(t, err)
	require.Len(t, combined, 1)
	assert.Equal(t, "Write release notes", combined[0].Title)

	byAssignee, err := f.svc.List(ctx, models.TaskFilter{Assignee: f.bob.ID})
	require.NoError(t, err)
	require.Len(t, byAssignee, 1)
	assert.Equal(t, "Fix login", byAssignee[0].Title)

	search, err := f.svc.List(ctx, models.TaskFilter{Search: "login"})
	require.NoError(t, err)
	require.Len(t, search, 2)
	assert.Equal(t, "Plan sprint", search[0].Title, "newest first")
	assert.Equal(t, "Fix login", search[1].Title)

	none, err := f.svc.List(ctx, models.TaskFilter{Search: "100%"})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.svc.List(ctx, models.TaskFilter{Status: "blocked"})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestDanglingReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, "Orphan", nil)

	require.NoError(t, f.store.DeleteUser(ctx, f.alice.ID))

	got, err := f.svc.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserRef{ID: f.alice.ID}, got.Assignee)
	assert.Equal(t, "Bob", got.CreatedBy.Name)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, "Done", func(in *models.TaskInput) { in.Status = models.StatusCompleted })
	f.create(t, "Late", func(in *models.TaskInput) { in.DueDate = "2024-01-01" })
	f.create(t, "Future", func(in *models.TaskInput) { in.DueDate = "2030-01-01" })

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 1, stats.Overdue)
	assert.Equal(t, 2, stats.ByStatus[models.StatusTodo])
	assert.Len(t, stats.WeeklyProgress, 7)
}
