package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskboard/internal/models"
)

// CreateTask inserts the whole task document, embedded arrays included.
func (s *Store) CreateTask(ctx context.Context, t models.Task) error {
	doc := toTaskDoc(t)
	doc.Seq = primitive.NewObjectID()
	if _, err := s.tasks.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetTask fetches a task by id.
func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	var doc taskDoc
	if err := s.tasks.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		if err = notFound(err, models.ErrTaskNotFound); err == models.ErrTaskNotFound {
			return models.Task{}, err
		}
		return models.Task{}, fmt.Errorf("find task: %w", err)
	}
	return doc.model(), nil
}

// ListTasks returns matching tasks, newest first.
func (s *Store) ListTasks(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	opts := options.Find().SetSort(taskSort())
	cursor, err := s.tasks.Find(ctx, taskFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	var docs []taskDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	tasks := make([]models.Task, 0, len(docs))
	for _, d := range docs {
		tasks = append(tasks, d.model())
	}
	return tasks, nil
}

// UpdateTask overwrites the scalar fields of a task.
func (s *Store) UpdateTask(ctx context.Context, t models.Task) error {
	res, err := s.tasks.UpdateOne(ctx, bson.D{{Key: "_id", Value: t.ID}}, taskFieldsUpdate(t))
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrTaskNotFound
	}
	return nil
}

// AppendComment pushes a comment onto the task and bumps updatedAt.
func (s *Store) AppendComment(ctx context.Context, taskID string, c models.Comment) error {
	update := bson.D{
		{Key: "$push", Value: bson.D{{Key: "comments", Value: toCommentDoc(c)}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: c.CreatedAt.UTC()}}},
	}
	return s.pushTask(ctx, taskID, update, "comment")
}

// AppendActivity pushes an entry onto the task's activity log.
func (s *Store) AppendActivity(ctx context.Context, taskID string, e models.ActivityEntry) error {
	update := bson.D{{Key: "$push", Value: bson.D{{Key: "activityLog", Value: toActivityDoc(e)}}}}
	return s.pushTask(ctx, taskID, update, "activity")
}

func (s *Store) pushTask(ctx context.Context, taskID string, update bson.D, what string) error {
	res, err := s.tasks.UpdateOne(ctx, bson.D{{Key: "_id", Value: taskID}}, update)
	if err != nil {
		return fmt.Errorf("append %s: %w", what, err)
	}
	if res.MatchedCount == 0 {
		return models.ErrTaskNotFound
	}
	return nil
}

// DeleteTask removes the task document.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.tasks.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrTaskNotFound
	}
	return nil
}
