package messaging

import (
	"context"
	"errors"
	"time"
)

// ErrNoRecord is returned by store implementations when an id or filter
// matches nothing. The engine translates it into a caller-facing NotFound.
var ErrNoRecord = errors.New("messaging: no such record")

// Filter selects records by exact field match. Nil fields are ignored, so
// the zero Filter matches everything.
type Filter struct {
	ID         *string
	Sender     *string
	Recipient  *string
	IsDraft    *bool
	IsSent     *bool
	IsReceived *bool
}

// Update is a partial update: nil fields are left unchanged. Timestamps are
// cleared by setting the zero time.
type Update struct {
	Content   *string
	Recipient *string
	IsDraft   *bool
	DraftedAt *time.Time
	IsSent    *bool
	SentAt    *time.Time
	MirrorID  *string
}

// Store is the record-store collaborator the engine runs against. Backends
// assign ids and insertion timestamps; List orders newest first by creation
// time. Update reports how many records matched, which the engine uses as a
// compare-and-set on the draft flag during send.
type Store interface {
	Insert(ctx context.Context, m *Message) (string, error)
	Get(ctx context.Context, id string) (*Message, error)
	List(ctx context.Context, f Filter) ([]*Message, error)
	Update(ctx context.Context, f Filter, u Update) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}
