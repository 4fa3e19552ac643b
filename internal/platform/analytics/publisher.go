// Package analytics provides a fire-and-forget NATS publisher for
// discussion lifecycle events.
package analytics

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// StreamName is the JetStream stream that captures every discussion.* subject.
const StreamName = "DISCUSSION"

// Subject constants for every event type.
const (
	SubjectCommentCreated  = "discussion.comment.created"
	SubjectCommentUpdated  = "discussion.comment.updated"
	SubjectCommentDeleted  = "discussion.comment.deleted"
	SubjectReactionSet     = "discussion.reaction.set"
	SubjectReactionCleared = "discussion.reaction.cleared"
)

// Event is the envelope sent to all discussion.* subjects.
type Event struct {
	EventID    string         `json:"event_id"`
	EventName  string         `json:"event_name"`
	UserID     string         `json:"user_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Publisher publishes events to NATS JetStream.
// The zero value and a nil pointer are both safe no-op stubs.
type Publisher struct {
	js  nats.JetStreamContext
	log *zap.Logger
}

// New creates a Publisher using an existing JetStream context.
// Pass js=nil to get a no-op stub.
func New(js nats.JetStreamContext, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{js: js, log: log}
}

// Connect builds a publisher on nc and makes sure the stream exists.
// A nil connection yields a stub.
func Connect(nc *nats.Conn, log *zap.Logger) (*Publisher, error) {
	if nc == nil {
		return New(nil, log), nil
	}
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}
	p := New(js, log)
	if _, err := js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{"discussion.>"},
		Storage:  nats.FileStorage,
	}); err != nil {
		p.log.Warn("analytics: add stream failed (may already exist)", zap.Error(err))
	}
	return p, nil
}

// NewEvent builds the envelope for one occurrence.
func NewEvent(eventName, userID string, props map[string]any) Event {
	return Event{
		EventID:    uuid.NewString(),
		EventName:  eventName,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Properties: props,
	}
}

// Publish sends an event asynchronously (fire-and-forget).
// Failures are logged as warnings and never surface to the caller.
// The publisher is safe to call with a nil receiver.
func (p *Publisher) Publish(subject, eventName, userID string, props map[string]any) {
	if p == nil || p.js == nil {
		return
	}
	data, err := json.Marshal(NewEvent(eventName, userID, props))
	if err != nil {
		p.log.Warn("analytics: marshal failed", zap.String("event", eventName), zap.Error(err))
		return
	}
	if _, err := p.js.PublishAsync(subject, data); err != nil {
		p.log.Warn("analytics: publish failed", zap.String("subject", subject), zap.Error(err))
	}
}
