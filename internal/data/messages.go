package data

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/akinfemi/lifeboard/internal/messaging"
)

// MessagesStore is the MongoDB implementation of messaging.Store. Record ids
// are MongoDB ObjectIDs exposed as hex strings; an id that does not parse is
// treated the same as an id that matches nothing.
type MessagesStore struct {
	// coll is the "messages" collection. Both halves of a sent pair live
	// in the same collection, distinguished by their lifecycle flags.
	coll *mongo.Collection
}

// NewMessagesStore returns a MessagesStore over the given collection.
func NewMessagesStore(coll *mongo.Collection) *MessagesStore {
	return &MessagesStore{coll: coll}
}

// messageDoc is the BSON shape of a message record. The mirror reference is
// stored as the hex form of the twin's ObjectID.
type messageDoc struct {
	ID         bson.ObjectID `bson:"_id,omitempty"`
	Sender     string        `bson:"sender"`
	Recipient  string        `bson:"recipient"`
	Content    string        `bson:"content"`
	IsDraft    bool          `bson:"is_draft"`
	DraftedAt  time.Time     `bson:"drafted_at"`
	IsSent     bool          `bson:"is_sent"`
	SentAt     time.Time     `bson:"sent_at"`
	IsReceived bool          `bson:"is_received"`
	ReceivedAt time.Time     `bson:"received_at"`
	MirrorID   string        `bson:"mirror_id"`
	CreatedAt  time.Time     `bson:"created_at"`
}

func toDoc(m *messaging.Message) *messageDoc {
	return &messageDoc{
		Sender:     m.Sender,
		Recipient:  m.Recipient,
		Content:    m.Content,
		IsDraft:    m.IsDraft,
		DraftedAt:  m.DraftedAt,
		IsSent:     m.IsSent,
		SentAt:     m.SentAt,
		IsReceived: m.IsReceived,
		ReceivedAt: m.ReceivedAt,
		MirrorID:   m.MirrorID,
		CreatedAt:  m.CreatedAt,
	}
}

func fromDoc(d *messageDoc) *messaging.Message {
	return &messaging.Message{
		ID:         d.ID.Hex(),
		Sender:     d.Sender,
		Recipient:  d.Recipient,
		Content:    d.Content,
		IsDraft:    d.IsDraft,
		DraftedAt:  d.DraftedAt,
		IsSent:     d.IsSent,
		SentAt:     d.SentAt,
		IsReceived: d.IsReceived,
		ReceivedAt: d.ReceivedAt,
		MirrorID:   d.MirrorID,
		CreatedAt:  d.CreatedAt,
	}
}

// Insert saves a new message document and returns its assigned id.
func (s *MessagesStore) Insert(ctx context.Context, m *messaging.Message) (string, error) {
	doc := toDoc(m)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	result, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", err
	}
	return result.InsertedID.(bson.ObjectID).Hex(), nil
}

// Get returns the message with the given id, or messaging.ErrNoRecord.
func (s *MessagesStore) Get(ctx context.Context, id string) (*messaging.Message, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, messaging.ErrNoRecord
	}
	var doc messageDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, messaging.ErrNoRecord
		}
		return nil, err
	}
	return fromDoc(&doc), nil
}

// List returns all messages matching the filter, newest first by creation
// time. Ordering is an explicit sort key, not incidental id ordering.
func (s *MessagesStore) List(ctx context.Context, f messaging.Filter) ([]*messaging.Message, error) {
	filter, ok := buildFilter(f)
	if !ok {
		// unparseable id in the filter: matches nothing
		return nil, nil
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []*messageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	msgs := make([]*messaging.Message, 0, len(docs))
	for _, d := range docs {
		msgs = append(msgs, fromDoc(d))
	}
	return msgs, nil
}

// Update applies the non-nil fields of u to every record matching f and
// reports the matched count. The engine relies on the count for its
// compare-and-set on the draft flag.
func (s *MessagesStore) Update(ctx context.Context, f messaging.Filter, u messaging.Update) (int64, error) {
	filter, ok := buildFilter(f)
	if !ok {
		return 0, nil
	}

	set := bson.M{}
	if u.Content != nil {
		set["content"] = *u.Content
	}
	if u.Recipient != nil {
		set["recipient"] = *u.Recipient
	}
	if u.IsDraft != nil {
		set["is_draft"] = *u.IsDraft
	}
	if u.DraftedAt != nil {
		set["drafted_at"] = *u.DraftedAt
	}
	if u.IsSent != nil {
		set["is_sent"] = *u.IsSent
	}
	if u.SentAt != nil {
		set["sent_at"] = *u.SentAt
	}
	if u.MirrorID != nil {
		set["mirror_id"] = *u.MirrorID
	}
	if len(set) == 0 {
		return 0, nil
	}

	result, err := s.coll.UpdateMany(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return 0, err
	}
	return result.MatchedCount, nil
}

// Delete removes the message with the given id and reports how many records
// were removed (zero when the id resolves to nothing).
func (s *MessagesStore) Delete(ctx context.Context, id string) (int64, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// buildFilter translates a messaging.Filter into a MongoDB query document.
// Returns ok=false when the filter names an id that cannot be a valid
// ObjectID, which by construction matches no stored record.
func buildFilter(f messaging.Filter) (bson.M, bool) {
	filter := bson.M{}
	if f.ID != nil {
		oid, err := bson.ObjectIDFromHex(*f.ID)
		if err != nil {
			return nil, false
		}
		filter["_id"] = oid
	}
	if f.Sender != nil {
		filter["sender"] = *f.Sender
	}
	if f.Recipient != nil {
		filter["recipient"] = *f.Recipient
	}
	if f.IsDraft != nil {
		filter["is_draft"] = *f.IsDraft
	}
	if f.IsSent != nil {
		filter["is_sent"] = *f.IsSent
	}
	if f.IsReceived != nil {
		filter["is_received"] = *f.IsReceived
	}
	return filter, true
}
