package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/ShayCichocki/finagent/internal/api"
)

// ErrUnavailable is returned by FailingReasoner.
var ErrUnavailable = errors.New("reasoning service unavailable")

// FakeReasoner replays canned responses and records every request.
// When the queue is exhausted it returns Err, or ErrUnavailable when Err
// is nil.
type FakeReasoner struct {
	mu        sync.Mutex
	responses []string
	Err       error
	requests  []api.Request
}

// NewFakeReasoner creates a fake that answers with responses in order.
func NewFakeReasoner(responses ...string) *FakeReasoner {
	return &FakeReasoner{responses: responses}
}

// FailingReasoner returns a fake that fails every call.
func FailingReasoner() *FakeReasoner {
	return &FakeReasoner{Err: ErrUnavailable}
}

// Complete implements api.Reasoner.
func (f *FakeReasoner) Complete(ctx context.Context, req api.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(f.responses) == 0 {
		if f.Err != nil {
			return "", f.Err
		}
		return "", ErrUnavailable
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

// Requests returns a copy of the requests received so far.
func (f *FakeReasoner) Requests() []api.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]api.Request, len(f.requests))
	copy(out, f.requests)
	return out
}
