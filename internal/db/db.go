// Package db manages the MongoDB connection and collections.
package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Client wraps mongo.Client and exposes the app's collections.
type Client struct {
	client *mongo.Client

	// db is the "lifeboard" database; all concept collections hang off it.
	db *mongo.Database
}

// New connects to MongoDB, verifies the connection with a ping, and returns
// a Client.
func New(ctx context.Context, mongoURI string) (*Client, error) {
	opts := options.Client().
		ApplyURI(mongoURI).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Client{
		client: client,
		db:     client.Database("lifeboard"),
	}, nil
}

// UsersCollection returns the users collection.
func (c *Client) UsersCollection() *mongo.Collection {
	return c.db.Collection("users")
}

// MessagesCollection returns the messages collection. Both halves of a sent
// message pair live here.
func (c *Client) MessagesCollection() *mongo.Collection {
	return c.db.Collection("messages")
}

// TasksCollection returns the tasks collection.
func (c *Client) TasksCollection() *mongo.Collection {
	return c.db.Collection("tasks")
}

// GoalsCollection returns the goals collection.
func (c *Client) GoalsCollection() *mongo.Collection {
	return c.db.Collection("goals")
}

// SharesCollection returns the shares collection.
func (c *Client) SharesCollection() *mongo.Collection {
	return c.db.Collection("shares")
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// CreateIndexes creates the indexes the stores rely on.
func (c *Client) CreateIndexes(ctx context.Context) error {
	// unique email index: duplicate registration becomes a conflict error
	usersIndexModel := mongo.IndexModel{
		Keys:    map[string]int{"email": 1},
		Options: options.Index().SetUnique(true),
	}
	if _, err := c.UsersCollection().Indexes().CreateOne(ctx, usersIndexModel); err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	// messages: the list views filter on (sender, recipient) plus one
	// lifecycle flag and sort on created_at, so cover those shapes
	messageIndexes := []mongo.IndexModel{
		{Keys: map[string]int{"sender": 1, "recipient": 1, "created_at": -1}},
		{Keys: map[string]int{"sender": 1, "is_draft": 1, "created_at": -1}},
		{Keys: map[string]int{"created_at": -1}},
	}
	if _, err := c.MessagesCollection().Indexes().CreateMany(ctx, messageIndexes); err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}

	// per-owner listings for the CRUD concepts
	ownerIndex := mongo.IndexModel{Keys: map[string]int{"owner": 1, "created_at": -1}}
	for _, coll := range []*mongo.Collection{c.TasksCollection(), c.GoalsCollection(), c.SharesCollection()} {
		if _, err := coll.Indexes().CreateOne(ctx, ownerIndex); err != nil {
			return fmt.Errorf("failed to create %s index: %w", coll.Name(), err)
		}
	}
	if _, err := c.SharesCollection().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: map[string]int{"grantee": 1, "created_at": -1},
	}); err != nil {
		return fmt.Errorf("failed to create grantee index: %w", err)
	}

	return nil
}
