package messaging

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/akinfemi/lifeboard/internal/apperr"
	"github.com/akinfemi/lifeboard/internal/normalize"
)

// Engine drives the message lifecycle over a Store. It is stateless: every
// operation is a short sequence of store calls and either fully succeeds or
// fails with a single coded error.
type Engine struct {
	store Store
	log   *slog.Logger
}

// NewEngine returns an Engine over the given store.
func NewEngine(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, log: logger}
}

// Draft creates a new draft owned by sender. Empty content is permitted;
// content validation is not this component's concern.
func (e *Engine) Draft(ctx context.Context, sender, recipient, content string) (*Message, error) {
	now := time.Now()
	m := &Message{
		Sender:    normalize.Email(sender),
		Recipient: normalize.Email(recipient),
		Content:   content,
		IsDraft:   true,
		DraftedAt: now,
		CreatedAt: now,
	}
	id, err := e.store.Insert(ctx, m)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to save draft")
	}
	m.ID = id
	return m, nil
}

// Drafts lists all drafts owned by sender, newest first.
func (e *Engine) Drafts(ctx context.Context, sender string) ([]*Message, error) {
	s := normalize.Email(sender)
	msgs, err := e.store.List(ctx, Filter{Sender: &s, IsDraft: ptr(true)})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to list drafts")
	}
	return msgs, nil
}

// EditDraft updates a draft's content and/or recipient. Nil arguments mean
// "leave unchanged"; there is no way to clear a field. Returns the updated
// record.
//
// The update is guarded by the same draft-flag compare-and-set Send uses:
// a send that completes between the read and the write makes the write
// match nothing, so a sent record can never be mutated through this path.
func (e *Engine) EditDraft(ctx context.Context, id string, content, recipient *string) (*Message, error) {
	m, err := e.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsDraft {
		return nil, apperr.New(apperr.CodeInvalidState, "message is not a draft")
	}
	if content == nil && recipient == nil {
		return m, nil
	}

	u := Update{Content: content}
	if recipient != nil {
		u.Recipient = ptr(normalize.Email(*recipient))
	}
	matched, err := e.store.Update(ctx, Filter{ID: &id, IsDraft: ptr(true)}, u)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to update draft")
	}
	if matched == 0 {
		return nil, apperr.New(apperr.CodeInvalidState, "message is not a draft")
	}

	if content != nil {
		m.Content = *content
	}
	if u.Recipient != nil {
		m.Recipient = *u.Recipient
	}
	return m, nil
}

// DeleteDraft removes a draft. Only the draft's sender may delete it. A
// draft has no mirror, so this touches a single record.
func (e *Engine) DeleteDraft(ctx context.Context, actor, id string) error {
	m, err := e.get(ctx, id)
	if err != nil {
		return err
	}
	if m.Sender != normalize.Email(actor) {
		return apperr.New(apperr.CodeForbidden, "only the sender may delete this draft")
	}
	if !m.IsDraft {
		return apperr.New(apperr.CodeInvalidState, "message is not a draft")
	}
	if _, err := e.store.Delete(ctx, id); err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "failed to delete draft")
	}
	return nil
}

// Send transitions a draft to sent and materializes the recipient-side copy.
// The draft's stored sender and recipient must match the supplied ones.
//
// The recipient copy is inserted first, then the draft is flipped with a
// compare-and-set on the draft flag. The same record id stays valid across
// the transition, so clients that cached the draft id keep working. If two
// sends race, the loser's compare-and-set matches nothing; its freshly
// created copy is deleted and the call fails with an invalid-state error.
func (e *Engine) Send(ctx context.Context, id, sender, recipient string) (*Message, error) {
	m, err := e.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Sender != normalize.Email(sender) {
		return nil, apperr.New(apperr.CodeForbidden, "message was not drafted by this sender")
	}
	if m.Recipient != normalize.Email(recipient) {
		return nil, apperr.New(apperr.CodeForbidden, "message is not addressed to this recipient")
	}
	if !m.IsDraft {
		return nil, apperr.New(apperr.CodeInvalidState, "message is not a draft")
	}

	now := time.Now()
	mirror := &Message{
		Sender:     m.Sender,
		Recipient:  m.Recipient,
		Content:    m.Content,
		IsReceived: true,
		ReceivedAt: now,
		MirrorID:   m.ID,
		CreatedAt:  now,
	}
	mirrorID, err := e.store.Insert(ctx, mirror)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to create recipient copy")
	}

	matched, err := e.store.Update(ctx,
		Filter{ID: &id, IsDraft: ptr(true)},
		Update{
			IsDraft:   ptr(false),
			DraftedAt: ptr(time.Time{}),
			IsSent:    ptr(true),
			SentAt:    &now,
			MirrorID:  &mirrorID,
		})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to mark message sent")
	}
	if matched == 0 {
		// Lost the race (or the record vanished): undo the copy we made.
		if _, derr := e.store.Delete(ctx, mirrorID); derr != nil {
			e.log.Error("failed to remove recipient copy after lost send race",
				"message_id", id, "mirror_id", mirrorID, "error", derr)
		}
		return nil, apperr.New(apperr.CodeInvalidState, "message is not a draft")
	}

	m.IsDraft = false
	m.DraftedAt = time.Time{}
	m.IsSent = true
	m.SentAt = now
	m.MirrorID = mirrorID
	return m, nil
}

// Sent lists sender-side sent records for the (sender, recipient) pair,
// newest first.
func (e *Engine) Sent(ctx context.Context, sender, recipient string) ([]*Message, error) {
	s, r := normalize.Email(sender), normalize.Email(recipient)
	msgs, err := e.store.List(ctx, Filter{Sender: &s, Recipient: &r, IsSent: ptr(true)})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to list sent messages")
	}
	return msgs, nil
}

// Received lists recipient-side records for the (sender, recipient) pair,
// newest first. The pair is named from the original message's perspective:
// callers pass the same sender and recipient used at draft time.
func (e *Engine) Received(ctx context.Context, sender, recipient string) ([]*Message, error) {
	s, r := normalize.Email(sender), normalize.Email(recipient)
	msgs, err := e.store.List(ctx, Filter{Sender: &s, Recipient: &r, IsReceived: ptr(true)})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to list received messages")
	}
	return msgs, nil
}

// EditSent changes the content of a sent message on both halves of the
// pair. Only content is editable after send; sender and recipient are
// immutable. Returns the updated sender-side record.
func (e *Engine) EditSent(ctx context.Context, id, content string) (*Message, error) {
	m, err := e.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsSent {
		return nil, apperr.New(apperr.CodeInvalidState, "message has not been sent")
	}
	if err := e.updateBothSides(ctx, m, content); err != nil {
		return nil, err
	}
	m.Content = content
	return m, nil
}

// updateBothSides applies a content change to a sent record and its mirror.
// Every post-send mutation funnels through here so the two halves cannot be
// updated through divergent code paths. A mirror that fails to resolve is a
// stored-data fault, not a caller error.
//
// The mirror is resolved before either half is written: a dangling mirror
// must fail the call with both records untouched, not after the sender side
// has already changed.
func (e *Engine) updateBothSides(ctx context.Context, m *Message, content string) error {
	if m.MirrorID == "" {
		return apperr.Newf(apperr.CodeIntegrity, "sent message %s has no mirror reference", m.ID)
	}
	if _, err := e.store.Get(ctx, m.MirrorID); err != nil {
		if errors.Is(err, ErrNoRecord) {
			return apperr.Newf(apperr.CodeIntegrity, "mirror %s of message %s does not resolve", m.MirrorID, m.ID)
		}
		return apperr.Wrap(err, apperr.CodeInternal, "failed to read recipient copy")
	}
	if _, err := e.store.Update(ctx, Filter{ID: &m.ID}, Update{Content: &content}); err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "failed to update message")
	}
	matched, err := e.store.Update(ctx, Filter{ID: &m.MirrorID}, Update{Content: &content})
	if err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "failed to update recipient copy")
	}
	if matched == 0 {
		return apperr.Newf(apperr.CodeIntegrity, "mirror %s of message %s does not resolve", m.MirrorID, m.ID)
	}
	return nil
}

// DeleteSent removes a sent message and its recipient-side copy. Only the
// original sender may delete; the recipient never controls the pair's
// lifecycle.
//
// The mirror is deleted first so a crash between the two deletes leaves a
// retryable state: a second DeleteSent tolerates the already-missing mirror
// and still removes the sender-side record.
func (e *Engine) DeleteSent(ctx context.Context, actor, id string) error {
	m, err := e.get(ctx, id)
	if err != nil {
		return err
	}
	if m.Sender != normalize.Email(actor) {
		return apperr.New(apperr.CodeForbidden, "only the sender may delete this message")
	}
	if !m.IsSent {
		return apperr.New(apperr.CodeInvalidState, "message has not been sent")
	}
	if m.MirrorID == "" {
		return apperr.Newf(apperr.CodeIntegrity, "sent message %s has no mirror reference", m.ID)
	}

	deleted, err := e.store.Delete(ctx, m.MirrorID)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "failed to delete recipient copy")
	}
	if deleted == 0 {
		e.log.Warn("mirror already missing while deleting sent message",
			"message_id", m.ID, "mirror_id", m.MirrorID)
	}
	if _, err := e.store.Delete(ctx, id); err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "failed to delete message")
	}
	return nil
}

// Read returns a message in any state to one of its participants.
func (e *Engine) Read(ctx context.Context, actor, id string) (*Message, error) {
	m, err := e.get(ctx, id)
	if err != nil {
		return nil, err
	}
	a := normalize.Email(actor)
	if a != m.Sender && a != m.Recipient {
		return nil, apperr.New(apperr.CodeForbidden, "not a participant of this message")
	}
	return m, nil
}

// AssertSenderIs fails with Forbidden unless actor is the stored sender of
// the message, or NotFound when the id does not resolve.
func (e *Engine) AssertSenderIs(ctx context.Context, actor, id string) error {
	m, err := e.get(ctx, id)
	if err != nil {
		return err
	}
	if m.Sender != normalize.Email(actor) {
		return apperr.New(apperr.CodeForbidden, "actor is not the sender of this message")
	}
	return nil
}

// AssertParticipant fails with Forbidden unless actor is the stored sender
// or recipient of the message, or NotFound when the id does not resolve.
func (e *Engine) AssertParticipant(ctx context.Context, actor, id string) error {
	m, err := e.get(ctx, id)
	if err != nil {
		return err
	}
	a := normalize.Email(actor)
	if a != m.Sender && a != m.Recipient {
		return apperr.New(apperr.CodeForbidden, "actor is not a participant of this message")
	}
	return nil
}

func (e *Engine) get(ctx context.Context, id string) (*Message, error) {
	m, err := e.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNoRecord) {
			return nil, apperr.Newf(apperr.CodeNotFound, "message %s not found", id)
		}
		return nil, apperr.Wrap(err, apperr.CodeInternal, "failed to read message")
	}
	return m, nil
}

func ptr[T any](v T) *T { return &v }
