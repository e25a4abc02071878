// Package messaging implements the message lifecycle: a message is drafted
// by its sender, edited in place while a draft, and on send becomes a linked
// pair of records — the sender-side copy and an independently addressable
// recipient-side copy. The two halves are kept textually identical under
// post-send edits and are removed together on delete.
package messaging

import "time"

// Message is the sole entity of this package. A record is in exactly one of
// three states: draft, sent (sender side) or received (recipient side).
// Sent and received records are linked through MirrorID; a draft has no
// mirror. Zero timestamps mean "not set".
type Message struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Content   string `json:"content"`

	IsDraft   bool      `json:"isDraft"`
	DraftedAt time.Time `json:"draftedAt"`

	IsSent bool      `json:"isSent"`
	SentAt time.Time `json:"sentAt"`

	IsReceived bool      `json:"isReceived"`
	ReceivedAt time.Time `json:"receivedAt"`

	// MirrorID links the two halves of a sent message. On the sender-side
	// record it names the recipient-side copy and vice versa. Not exposed
	// to clients.
	MirrorID string `json:"-"`

	// CreatedAt is the store insertion timestamp and the explicit sort key
	// for every list operation (newest first).
	CreatedAt time.Time `json:"createdAt"`
}

// clone returns a copy so store internals never alias caller-held records.
func (m *Message) clone() *Message {
	c := *m
	return &c
}
