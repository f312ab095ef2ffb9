package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/ride-tracking/internal/models"
)

// fakeStore fails the first failN writes.
type fakeStore struct {
	failN  int
	calls  int
	stored []models.Lookup
}

func (f *fakeStore) Record(ctx context.Context, l models.Lookup) error {
	f.calls++
	if f.calls <= f.failN {
		return errors.New("insert failed")
	}
	f.stored = append(f.stored, l)
	return nil
}

func TestRecordWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := &fakeStore{failN: 2}
	start := time.Now()
	if err := recordWithRetry(context.Background(), f, models.Lookup{RideID: "r1"}, 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.calls != 3 || len(f.stored) != 1 {
		t.Fatalf("expected 3 calls and 1 stored, got calls=%d stored=%d", f.calls, len(f.stored))
	}
	if time.Since(start) < 30*time.Millisecond {
		t.Fatalf("expected backoff between attempts")
	}
}

func TestRecordWithRetry_FailsWhenExhausted(t *testing.T) {
	f := &fakeStore{failN: 5}
	if err := recordWithRetry(context.Background(), f, models.Lookup{RideID: "r1"}, 3, time.Millisecond); err == nil {
		t.Fatalf("expected error after retries")
	}
	if f.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", f.calls)
	}
}

// scriptedReader serves msgs then cancels the loop.
type scriptedReader struct {
	msgs   []kafka.Message
	cancel context.CancelFunc
}

func (s *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(s.msgs) == 0 {
		s.cancel()
		return kafka.Message{}, ctx.Err()
	}
	m := s.msgs[0]
	s.msgs = s.msgs[1:]
	return m, nil
}

func TestConsumeSkipsInvalidMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &scriptedReader{cancel: cancel, msgs: []kafka.Message{
		{Value: []byte(`{"rideId":"r1","rawStatus":"accepted","status":"driver_on_way"}`)},
		{Value: []byte(`not json`)},
		{Value: []byte(`{"status":"completed"}`)},
		{Value: []byte(`{"rideId":"r2","rawStatus":"completed","status":"completed","progress":1}`)},
	}}
	f := &fakeStore{}
	consume(ctx, r, f, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if len(f.stored) != 2 {
		t.Fatalf("expected 2 stored lookups, got %d", len(f.stored))
	}
	if f.stored[0].RideID != "r1" || f.stored[1].RideID != "r2" {
		t.Fatalf("unexpected order: %+v", f.stored)
	}
}
