package sqlite

import (
	"context"
	"fmt"

	"taskboard/internal/models"
)

// AppendAudit writes a durable audit record. Records are never updated or removed.
func (s *Store) AppendAudit(ctx context.Context, rec models.AuditRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO audit_log(id, task_id, task_title, action, user_id, timestamp) VALUES(?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.TaskID, rec.TaskTitle, rec.Action, rec.User.ID, rec.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// ListAudit returns the audit trail of a task in the order it was written.
func (s *Store) ListAudit(ctx context.Context, taskID string) ([]models.AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, task_id, task_title, action, user_id, timestamp FROM audit_log WHERE task_id = ? ORDER BY seq`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	defer rows.Close()

	records := []models.AuditRecord{}
	for rows.Next() {
		var rec models.AuditRecord
		if err := rows.Scan(&rec.ID, &rec.TaskID, &rec.TaskTitle, &rec.Action, &rec.User.ID, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
