package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"taskboard/internal/models"
)

const taskColumns = `id, title, description, status, priority, assignee_id, created_by, due_date, created_at, updated_at`

func scanTask(row rowScanner) (models.Task, error) {
	var (
		t   models.Task
		due string
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.Assignee.ID, &t.CreatedBy.ID, &due, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return models.Task{}, err
	}
	date, err := models.ParseDate(due)
	if err != nil {
		return models.Task{}, err
	}
	t.DueDate = date
	t.Comments = []models.Comment{}
	t.ActivityLog = []models.ActivityEntry{}
	return t, nil
}

// CreateTask inserts a task together with any comments and activity it already carries.
func (s *Store) CreateTask(ctx context.Context, t models.Task) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO tasks(`+taskColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.Status, t.Priority, t.Assignee.ID, t.CreatedBy.ID,
		t.DueDate.String(), t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	for _, c := range t.Comments {
		if err := insertComment(ctx, tx, t.ID, c); err != nil {
			return err
		}
	}
	for _, e := range t.ActivityLog {
		if err := insertActivity(ctx, tx, t.ID, e); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetTask retrieves a task by id with its comments and activity log.
func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, models.ErrTaskNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}

	tasks := []models.Task{t}
	if err := s.loadChildren(ctx, tasks); err != nil {
		return models.Task{}, err
	}
	return tasks[0], nil
}

// ListTasks returns the tasks matching every non-empty filter field, newest first.
func (s *Store) ListTasks(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, f.Priority)
	}
	if f.Assignee != "" {
		where = append(where, "assignee_id = ?")
		args = append(args, f.Assignee)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		where = append(where, `(title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	// Rows must be released before the next query on the single connection.
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadChildren(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateTask overwrites the scalar fields of a task. Comments and activity are
// appended through their own methods.
func (s *Store) UpdateTask(ctx context.Context, t models.Task) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, assignee_id = ?, due_date = ?, updated_at = ? WHERE id = ?`,
		t.Title, t.Description, t.Status, t.Priority, t.Assignee.ID, t.DueDate.String(), t.UpdatedAt.UTC(), t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrTaskNotFound
	}
	return nil
}

// AppendComment adds a comment to the end of a task's comment list.
func (s *Store) AppendComment(ctx context.Context, taskID string, c models.Comment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := insertComment(ctx, tx, taskID, c); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE tasks SET updated_at = ? WHERE id = ?`, c.CreatedAt.UTC(), taskID); err != nil {
		return fmt.Errorf("touch task: %w", err)
	}
	return tx.Commit()
}

// AppendActivity adds an entry to the end of a task's activity log.
func (s *Store) AppendActivity(ctx context.Context, taskID string, e models.ActivityEntry) error {
	return insertActivity(ctx, s.db, taskID, e)
}

// DeleteTask removes a task; its comments and activity go with it.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrTaskNotFound
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertComment(ctx context.Context, db execer, taskID string, c models.Comment) error {
	_, err := db.ExecContext(ctx, `INSERT INTO task_comments(id, task_id, text, user_id, created_at) VALUES(?, ?, ?, ?, ?)`,
		c.ID, taskID, c.Text, c.User.ID, c.CreatedAt.UTC())
	if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
		return models.ErrTaskNotFound
	}
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func insertActivity(ctx context.Context, db execer, taskID string, e models.ActivityEntry) error {
	_, err := db.ExecContext(ctx, `INSERT INTO task_activity(task_id, action, user_id, timestamp) VALUES(?, ?, ?, ?)`,
		taskID, e.Action, e.User.ID, e.Timestamp.UTC())
	if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
		return models.ErrTaskNotFound
	}
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// loadChildren fills the comment and activity lists of tasks in place.
func (s *Store) loadChildren(ctx context.Context, tasks []models.Task) error {
	index := make(map[string]int, len(tasks))
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		index[t.ID] = i
		ids[i] = t.ID
	}
	// Every child row of a task lands in the same batch, so seq order holds per task.
	for _, batch := range batches(ids) {
		if err := s.loadComments(ctx, batch, tasks, index); err != nil {
			return err
		}
		if err := s.loadActivity(ctx, batch, tasks, index); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadComments(ctx context.Context, ids []any, tasks []models.Task, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `SELECT task_id, id, text, user_id, created_at FROM task_comments WHERE task_id IN (`+placeholders(len(ids))+`) ORDER BY seq`, ids...)
	if err != nil {
		return fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			taskID string
			c      models.Comment
		)
		if err := rows.Scan(&taskID, &c.ID, &c.Text, &c.User.ID, &c.CreatedAt); err != nil {
			return fmt.Errorf("scan comment: %w", err)
		}
		i := index[taskID]
		tasks[i].Comments = append(tasks[i].Comments, c)
	}
	return rows.Err()
}

func (s *Store) loadActivity(ctx context.Context, ids []any, tasks []models.Task, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `SELECT task_id, action, user_id, timestamp FROM task_activity WHERE task_id IN (`+placeholders(len(ids))+`) ORDER BY seq`, ids...)
	if err != nil {
		return fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			taskID string
			e      models.ActivityEntry
		)
		if err := rows.Scan(&taskID, &e.Action, &e.User.ID, &e.Timestamp); err != nil {
			return fmt.Errorf("scan activity: %w", err)
		}
		i := index[taskID]
		tasks[i].ActivityLog = append(tasks[i].ActivityLog, e)
	}
	return rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
