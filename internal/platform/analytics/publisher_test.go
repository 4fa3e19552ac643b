package analytics

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPublish_NilReceiverIsNoop(t *testing.T) {
	var p *Publisher
	p.Publish(SubjectCommentCreated, "comment_created", "1", nil)
}

func TestPublish_StubIsNoop(t *testing.T) {
	p := New(nil, nil)
	p.Publish(SubjectCommentDeleted, "comment_deleted", "1", map[string]any{"comment_id": 10})
}

func TestConnect_NilConnYieldsStub(t *testing.T) {
	p, err := Connect(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.js != nil {
		t.Fatal("expected stub publisher")
	}
}

func TestNewEvent(t *testing.T) {
	ev := NewEvent("reaction_set", "42", map[string]any{"reaction": "like"})
	if ev.EventID == "" || ev.OccurredAt.IsZero() {
		t.Fatalf("expected id and timestamp, got %+v", ev)
	}
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"user_id":"42"`) {
		t.Fatalf("unexpected payload %s", b)
	}
}

func TestSubjectsCapturedByStream(t *testing.T) {
	for _, s := range []string{
		SubjectCommentCreated, SubjectCommentUpdated, SubjectCommentDeleted,
		SubjectReactionSet, SubjectReactionCleared,
	} {
		if !strings.HasPrefix(s, "discussion.") {
			t.Fatalf("subject %q outside discussion.>", s)
		}
	}
}
