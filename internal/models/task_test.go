package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC)

func validTask() Task {
	return NewTask("t1", TaskInput{
		Title:       " Title ",
		Description: "Description",
		Assignee:    "u1",
		DueDate:     "2024-06-05",
	}, UserRef{ID: "u2"}, testNow)
}

func TestNewTaskDefaults(t *testing.T) {
	task := validTask()
	assert.Equal(t, "Title", task.Title)
	assert.Equal(t, StatusTodo, task.Status)
	assert.Equal(t, PriorityMedium, task.Priority)
	assert.NotNil(t, task.Comments)
	assert.NotNil(t, task.ActivityLog)
	assert.NoError(t, ValidateTask(task))
}

func TestValidateTaskReportsEveryField(t *testing.T) {
	err := ValidateTask(Task{Status: "x", Priority: "y"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	for _, f := range []string{"title", "description", "status", "priority", "assignee", "createdBy", "dueDate"} {
		assert.True(t, verr.Has(f), f)
	}
	assert.Contains(t, verr.Error(), "title:")
}

func TestApplyLeavesOriginalUntouched(t *testing.T) {
	task := validTask().WithActivity(NewActivity(ActionTaskCreated, UserRef{ID: "u2"}, testNow))

	status := StatusCompleted
	later := testNow.Add(time.Hour)
	patched := task.Apply(TaskPatch{Status: &status}, later)

	assert.Equal(t, StatusTodo, task.Status)
	assert.Equal(t, StatusCompleted, patched.Status)
	assert.Equal(t, later, patched.UpdatedAt)
	assert.Equal(t, task.Title, patched.Title)
	assert.Equal(t, task.CreatedBy, patched.CreatedBy)

	appended := patched.WithActivity(NewActivity(ActionTaskUpdated, UserRef{ID: "u1"}, later))
	assert.Len(t, patched.ActivityLog, 1)
	assert.Len(t, appended.ActivityLog, 2)
	last, ok := appended.LastActivity()
	require.True(t, ok)
	assert.Equal(t, "u1", last.User.ID)
}

func TestWithComment(t *testing.T) {
	task := validTask()
	c := Comment{ID: "c1", Text: "hi", User: UserRef{ID: "u1"}, CreatedAt: testNow.Add(time.Minute)}
	out := task.WithComment(c)

	assert.Empty(t, task.Comments)
	require.Len(t, out.Comments, 1)
	assert.Equal(t, c.CreatedAt, out.UpdatedAt)
}

func TestAuditRecord(t *testing.T) {
	task := validTask()
	e := NewActivity(ActionTaskDeleted, UserRef{ID: "u1", Name: "Ann"}, testNow)
	rec := task.Audit("a1", e)
	assert.Equal(t, AuditRecord{
		ID: "a1", TaskID: "t1", TaskTitle: "Title", Action: ActionTaskDeleted,
		User: UserRef{ID: "u1"}, Timestamp: testNow,
	}, rec)
}

func TestDateJSON(t *testing.T) {
	var in struct {
		Due Date `json:"due"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2025-01-01"}`), &in))
	assert.Equal(t, "2025-01-01", in.Due.String())

	require.NoError(t, json.Unmarshal([]byte(`{"due":"2025-01-01T18:30:00Z"}`), &in))
	assert.Equal(t, "2025-01-01", in.Due.String())

	require.NoError(t, json.Unmarshal([]byte(`{"due":null}`), &in))
	assert.True(t, in.Due.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"due":"next week"}`), &in))

	out, err := json.Marshal(struct {
		Due Date `json:"due"`
	}{NewDate(testNow)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"2024-06-05"}`, string(out))
}

func TestValidateRegistration(t *testing.T) {
	u := User{Name: "Ann", Email: "ann@example.com", Role: RoleUser}
	assert.NoError(t, ValidateRegistration(u, "secret"))

	long := make([]byte, MaxPasswordBytes+1)
	for i := range long {
		long[i] = 'a'
	}
	var verr *ValidationError
	require.ErrorAs(t, ValidateRegistration(u, string(long)), &verr)
	assert.True(t, verr.Has("password"))

	require.ErrorAs(t, ValidateRegistration(User{Email: "nope", Role: "guest"}, ""), &verr)
	assert.Len(t, verr.Fields, 4)
}

func TestValidateFilter(t *testing.T) {
	assert.NoError(t, ValidateFilter(TaskFilter{}))
	assert.NoError(t, ValidateFilter(TaskFilter{Status: StatusInProgress, Priority: PriorityLow}))
	assert.Error(t, ValidateFilter(TaskFilter{Status: "blocked"}))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ann@example.com", NormalizeEmail("  Ann@Example.COM "))
}

func TestCheckDueDate(t *testing.T) {
	for raw, flagged := range map[string]bool{
		"":                     false,
		"2025-01-01":           false,
		"2025-01-01T18:30:00Z": false,
		"2025-02-30":           true,
		"next friday":          true,
	} {
		v := &ValidationError{}
		CheckDueDate(v, raw)
		assert.Equal(t, flagged, v.Has("dueDate"), raw)
	}

	task := NewTask("t2", TaskInput{Title: "t", DueDate: "soon"}, UserRef{ID: "u2"}, testNow)
	assert.True(t, task.DueDate.IsZero())
}
