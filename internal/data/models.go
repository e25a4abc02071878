package data

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User maps to the users collection. Profile fields (display name, bio) live
// on the user document; the profile concept is single-record CRUD over them.
type User struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Email       string        `bson:"email,unique" json:"email"`
	Password    string        `bson:"password" json:"-"`
	DisplayName string        `bson:"display_name" json:"displayName"`
	Bio         string        `bson:"bio" json:"bio"`
	CreatedAt   time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updated_at" json:"updatedAt"`
}

// Task maps to the tasks collection (owner, title, done flag, optional due date).
type Task struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Owner     string        `bson:"owner" json:"owner"`
	Title     string        `bson:"title" json:"title"`
	Done      bool          `bson:"done" json:"done"`
	DueAt     *time.Time    `bson:"due_at,omitempty" json:"dueAt,omitempty"`
	CreatedAt time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updated_at" json:"updatedAt"`
}

// Goal maps to the goals collection (owner, title, target date, progress 0-100).
type Goal struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Owner     string        `bson:"owner" json:"owner"`
	Title     string        `bson:"title" json:"title"`
	TargetAt  time.Time     `bson:"target_at" json:"targetAt"`
	Progress  int           `bson:"progress" json:"progress"`
	CreatedAt time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updated_at" json:"updatedAt"`
}

// Share maps to the shares collection: owner grants grantee read access to a
// resource (a task or goal id, opaque to this layer).
type Share struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Owner      string        `bson:"owner" json:"owner"`
	Grantee    string        `bson:"grantee" json:"grantee"`
	ResourceID string        `bson:"resource_id" json:"resourceId"`
	CreatedAt  time.Time     `bson:"created_at" json:"createdAt"`
}
