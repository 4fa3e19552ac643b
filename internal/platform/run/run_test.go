package run

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func TestUntil_ExitCodes(t *testing.T) {
	r := New(zap.NewNop())

	if code := r.Until(context.Background(), func(context.Context) error { return nil }); code != 0 {
		t.Fatalf("expected 0 for clean exit, got %d", code)
	}
	if code := r.Until(context.Background(), func(context.Context) error { return http.ErrServerClosed }); code != 0 {
		t.Fatalf("expected 0 for server closed, got %d", code)
	}
	if code := r.Until(context.Background(), func(context.Context) error { return errors.New("boom") }); code != 1 {
		t.Fatalf("expected 1 for failure, got %d", code)
	}
}

func TestUntil_ParentCancelled(t *testing.T) {
	r := New(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	code := r.Until(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return errors.New("late")
	})
	if code != 0 {
		t.Fatalf("expected 0 on cancellation, got %d", code)
	}
}

func TestStopGRPC_Idle(t *testing.T) {
	StopGRPC(grpc.NewServer())
}

func TestGraceful_PassesDeadline(t *testing.T) {
	err := Graceful(func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("no deadline")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
