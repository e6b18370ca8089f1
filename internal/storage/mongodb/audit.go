package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskboard/internal/models"
)

// AppendAudit inserts an audit record into its own collection, so it
// outlives the task it describes.
func (s *Store) AppendAudit(ctx context.Context, rec models.AuditRecord) error {
	doc := toAuditDoc(rec)
	doc.Seq = primitive.NewObjectID()
	if _, err := s.audit.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// ListAudit returns the audit trail of a task, oldest first.
func (s *Store) ListAudit(ctx context.Context, taskID string) ([]models.AuditRecord, error) {
	opts := options.Find().SetSort(auditSort())
	cursor, err := s.audit.Find(ctx, bson.D{{Key: "taskId", Value: taskID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find audit: %w", err)
	}
	var docs []auditDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode audit: %w", err)
	}
	records := make([]models.AuditRecord, 0, len(docs))
	for _, d := range docs {
		records = append(records, d.model())
	}
	return records, nil
}
