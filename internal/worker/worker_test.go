package worker

import (
	"context"
	"crypto/sha256"
	"sync"
	"testing"
	"time"

	"github.com/workproof/workproof/internal/exchange"
	"github.com/workproof/workproof/internal/model"
	"github.com/workproof/workproof/internal/registry"
)

// recordingRunner counts Validate calls per hash.
type recordingRunner struct {
	mu    sync.Mutex
	calls map[string]int
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{calls: map[string]int{}}
}

func (r *recordingRunner) Validate(_ context.Context, hash model.ContentHash) (*exchange.Exchange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[hash.Hex()]++
	return exchange.ResumeExchange(hash, exchange.StateScoreSubmitted), nil
}

func (r *recordingRunner) count(hash model.ContentHash) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[hash.Hex()]
}

func TestWorkerProcessesPendingRequests(t *testing.T) {
	reg := registry.NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	validatorID, err := reg.Register(ctx, "validator.example.com")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	hash := model.ContentHash(sha256.Sum256([]byte("package")))
	if _, err := reg.RequestValidation(ctx, validatorID, hash); err != nil {
		t.Fatalf("RequestValidation: %v", err)
	}

	runner := newRecordingRunner()
	w := New(reg, runner, validatorID, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for runner.count(hash) == 0 {
		select {
		case <-deadline:
			t.Fatal("worker never processed the pending request")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on context cancellation")
	}
}

func TestWorkerSkipsMalformedHash(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &staticSource{requests: []registry.ValidationRequest{
		{ValidatorID: 1, Hash: "not-hex"},
	}}
	runner := newRecordingRunner()
	w := New(source, runner, 1, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	// Let a few polls happen, then stop. The malformed request must never
	// reach the runner.
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.calls) != 0 {
		t.Errorf("runner calls = %v, want none", runner.calls)
	}
	// Skipped requests pace like processed ones.
	if got := source.pollCount(); got > 15 {
		t.Errorf("polls in 50ms with 5ms interval = %d, want interval-paced", got)
	}
}

type staticSource struct {
	mu       sync.Mutex
	polls    int
	requests []registry.ValidationRequest
}

func (s *staticSource) PendingValidations(context.Context, int64) ([]registry.ValidationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls++
	return s.requests, nil
}

func (s *staticSource) pollCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

func TestWorkerHonorsIntervalWhenRequestStaysPending(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A request that never leaves the pending set, e.g. one whose package
	// was never stored. The worker must still pace its polls by the
	// configured interval instead of spinning.
	hash := model.ContentHash(sha256.Sum256([]byte("never stored")))
	source := &staticSource{requests: []registry.ValidationRequest{
		{ValidatorID: 1, Hash: hash.Hex()},
	}}
	runner := newRecordingRunner()
	w := New(source, runner, 1, time.Hour)

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on context cancellation")
	}

	if got := source.pollCount(); got > 2 {
		t.Errorf("polls in 200ms with 1h interval = %d, want at most 2", got)
	}
	if got := runner.count(hash); got > 2 {
		t.Errorf("validations in 200ms with 1h interval = %d, want at most 2", got)
	}
}
