// Package mongodb stores users and tasks as MongoDB documents. Comments and
// activity entries are embedded arrays of the task document.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskboard/internal/storage"
)

const (
	usersCollection = "users"
	tasksCollection = "tasks"
	auditCollection = "audit_log"
)

var _ storage.Store = (*Store)(nil)

// Store wraps a MongoDB client and the collections the board uses.
type Store struct {
	client  *mongo.Client
	users   *mongo.Collection
	tasks   *mongo.Collection
	audit   *mongo.Collection
	timeout time.Duration
	logger  *slog.Logger
}

// Open connects, pings and ensures indexes. timeout bounds the connect and
// disconnect round trips.
func Open(ctx context.Context, uri, database string, timeout time.Duration, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:  client,
		users:   db.Collection(usersCollection),
		tasks:   db.Collection(tasksCollection),
		audit:   db.Collection(auditCollection),
		timeout: timeout,
		logger:  logger,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("connected to mongodb", slog.String("database", database))
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.users, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.users, mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: -1}}}},
		{s.tasks, mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "seq", Value: -1}}}},
		{s.tasks, mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}, {Key: "priority", Value: 1}}}},
		{s.tasks, mongo.IndexModel{Keys: bson.D{{Key: "assignee", Value: 1}}}},
		{s.audit, mongo.IndexModel{Keys: bson.D{{Key: "taskId", Value: 1}, {Key: "timestamp", Value: 1}, {Key: "seq", Value: 1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

func notFound(err, sentinel error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return sentinel
	}
	return err
}
