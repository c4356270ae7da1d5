package ai

import (
	"context"
	"sync"
	"time"
)

type fakeProvider struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []Request
}

func (p *fakeProvider) Generate(_ context.Context, req Request) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.err != nil {
		return "", p.err
	}
	if len(p.replies) == 0 {
		return "", ErrEmptyResponse
	}
	out := p.replies[0]
	if len(p.replies) > 1 {
		p.replies = p.replies[1:]
	}
	return out, nil
}

type recordedCall struct {
	flow string
	err  error
}

type fakeRecorder struct {
	calls []recordedCall
}

func (r *fakeRecorder) ObserveModelCall(flow string, _ time.Duration, err error) {
	r.calls = append(r.calls, recordedCall{flow: flow, err: err})
}
