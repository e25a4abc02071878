package data

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/akinfemi/lifeboard/internal/apperr"
	"github.com/akinfemi/lifeboard/internal/normalize"
)

// TasksStore performs task CRUD with ownership checks. Tasks are plain
// single-record documents; only their owner may mutate or delete them.
type TasksStore struct {
	coll *mongo.Collection
}

// NewTasksStore returns a TasksStore using the given collection.
func NewTasksStore(coll *mongo.Collection) *TasksStore {
	return &TasksStore{coll: coll}
}

// TaskUpdate is a partial update; nil fields are left unchanged.
type TaskUpdate struct {
	Title *string
	Done  *bool
	DueAt *time.Time
}

// CreateTask inserts a new task owned by owner.
func (t *TasksStore) CreateTask(ctx context.Context, owner, title string, due *time.Time) (*Task, error) {
	now := time.Now()
	task := &Task{
		Owner:     normalize.Email(owner),
		Title:     title,
		DueAt:     due,
		CreatedAt: now,
		UpdatedAt: now,
	}
	result, err := t.coll.InsertOne(ctx, task)
	if err != nil {
		return nil, err
	}
	task.ID = result.InsertedID.(bson.ObjectID)
	return task, nil
}

// ListTasks returns all tasks owned by owner, newest first.
func (t *TasksStore) ListTasks(ctx context.Context, owner string) ([]*Task, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := t.coll.Find(ctx, bson.M{"owner": normalize.Email(owner)}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tasks []*Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateTask applies a partial update to an owned task.
func (t *TasksStore) UpdateTask(ctx context.Context, owner, id string, u TaskUpdate) (*Task, error) {
	task, err := t.getOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now()}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Done != nil {
		set["done"] = *u.Done
	}
	if u.DueAt != nil {
		set["due_at"] = *u.DueAt
	}
	if _, err := t.coll.UpdateOne(ctx, bson.M{"_id": task.ID}, bson.M{"$set": set}); err != nil {
		return nil, err
	}

	if u.Title != nil {
		task.Title = *u.Title
	}
	if u.Done != nil {
		task.Done = *u.Done
	}
	if u.DueAt != nil {
		task.DueAt = u.DueAt
	}
	return task, nil
}

// DeleteTask removes an owned task.
func (t *TasksStore) DeleteTask(ctx context.Context, owner, id string) error {
	task, err := t.getOwned(ctx, owner, id)
	if err != nil {
		return err
	}
	_, err = t.coll.DeleteOne(ctx, bson.M{"_id": task.ID})
	return err
}

func (t *TasksStore) getOwned(ctx context.Context, owner, id string) (*Task, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.New(apperr.CodeNotFound, "task not found")
	}
	var task Task
	if err := t.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.New(apperr.CodeNotFound, "task not found")
		}
		return nil, err
	}
	if task.Owner != normalize.Email(owner) {
		return nil, apperr.New(apperr.CodeForbidden, "not the owner of this task")
	}
	return &task, nil
}
