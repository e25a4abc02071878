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

// GoalsStore performs goal CRUD with ownership checks.
type GoalsStore struct {
	coll *mongo.Collection
}

// NewGoalsStore returns a GoalsStore using the given collection.
func NewGoalsStore(coll *mongo.Collection) *GoalsStore {
	return &GoalsStore{coll: coll}
}

// GoalUpdate is a partial update; nil fields are left unchanged.
type GoalUpdate struct {
	Title    *string
	Progress *int
	TargetAt *time.Time
}

// CreateGoal inserts a new goal owned by owner.
func (g *GoalsStore) CreateGoal(ctx context.Context, owner, title string, targetAt time.Time) (*Goal, error) {
	now := time.Now()
	goal := &Goal{
		Owner:     normalize.Email(owner),
		Title:     title,
		TargetAt:  targetAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	result, err := g.coll.InsertOne(ctx, goal)
	if err != nil {
		return nil, err
	}
	goal.ID = result.InsertedID.(bson.ObjectID)
	return goal, nil
}

// ListGoals returns all goals owned by owner, newest first.
func (g *GoalsStore) ListGoals(ctx context.Context, owner string) ([]*Goal, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := g.coll.Find(ctx, bson.M{"owner": normalize.Email(owner)}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var goals []*Goal
	if err := cursor.All(ctx, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

// UpdateGoal applies a partial update to an owned goal. Progress is clamped
// to the 0-100 range.
func (g *GoalsStore) UpdateGoal(ctx context.Context, owner, id string, u GoalUpdate) (*Goal, error) {
	goal, err := g.getOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now()}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Progress != nil {
		p := *u.Progress
		if p < 0 {
			p = 0
		}
		if p > 100 {
			p = 100
		}
		set["progress"] = p
		goal.Progress = p
	}
	if u.TargetAt != nil {
		set["target_at"] = *u.TargetAt
		goal.TargetAt = *u.TargetAt
	}
	if _, err := g.coll.UpdateOne(ctx, bson.M{"_id": goal.ID}, bson.M{"$set": set}); err != nil {
		return nil, err
	}
	if u.Title != nil {
		goal.Title = *u.Title
	}
	return goal, nil
}

// DeleteGoal removes an owned goal.
func (g *GoalsStore) DeleteGoal(ctx context.Context, owner, id string) error {
	goal, err := g.getOwned(ctx, owner, id)
	if err != nil {
		return err
	}
	_, err = g.coll.DeleteOne(ctx, bson.M{"_id": goal.ID})
	return err
}

func (g *GoalsStore) getOwned(ctx context.Context, owner, id string) (*Goal, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.New(apperr.CodeNotFound, "goal not found")
	}
	var goal Goal
	if err := g.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&goal); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.New(apperr.CodeNotFound, "goal not found")
		}
		return nil, err
	}
	if goal.Owner != normalize.Email(owner) {
		return nil, apperr.New(apperr.CodeForbidden, "not the owner of this goal")
	}
	return &goal, nil
}
