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

// SharesStore records read grants from an owner to a grantee for a resource.
// Only the owner may revoke a grant.
type SharesStore struct {
	coll *mongo.Collection
}

// NewSharesStore returns a SharesStore using the given collection.
func NewSharesStore(coll *mongo.Collection) *SharesStore {
	return &SharesStore{coll: coll}
}

// CreateShare grants grantee access to the resource.
func (s *SharesStore) CreateShare(ctx context.Context, owner, grantee, resourceID string) (*Share, error) {
	share := &Share{
		Owner:      normalize.Email(owner),
		Grantee:    normalize.Email(grantee),
		ResourceID: resourceID,
		CreatedAt:  time.Now(),
	}
	result, err := s.coll.InsertOne(ctx, share)
	if err != nil {
		return nil, err
	}
	share.ID = result.InsertedID.(bson.ObjectID)
	return share, nil
}

// ListSharesByOwner returns the grants issued by owner, newest first.
func (s *SharesStore) ListSharesByOwner(ctx context.Context, owner string) ([]*Share, error) {
	return s.list(ctx, bson.M{"owner": normalize.Email(owner)})
}

// ListSharesForGrantee returns the grants held by grantee, newest first.
func (s *SharesStore) ListSharesForGrantee(ctx context.Context, grantee string) ([]*Share, error) {
	return s.list(ctx, bson.M{"grantee": normalize.Email(grantee)})
}

// DeleteShare revokes a grant. Only its owner may revoke.
func (s *SharesStore) DeleteShare(ctx context.Context, owner, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return apperr.New(apperr.CodeNotFound, "share not found")
	}
	var share Share
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&share); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.New(apperr.CodeNotFound, "share not found")
		}
		return err
	}
	if share.Owner != normalize.Email(owner) {
		return apperr.New(apperr.CodeForbidden, "not the owner of this share")
	}
	_, err = s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

func (s *SharesStore) list(ctx context.Context, filter bson.M) ([]*Share, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var shares []*Share
	if err := cursor.All(ctx, &shares); err != nil {
		return nil, err
	}
	return shares, nil
}
