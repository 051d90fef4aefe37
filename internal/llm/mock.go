package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is one queued reply.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// Mock is a deterministic Provider. Queued replies are returned in order;
// with an empty queue it falls back to Fallback, or ErrUnavailable when
// Fallback is nil.
type Mock struct {
	mu       sync.Mutex
	queue    []MockResponse
	calls    []Request
	Fallback func(Request) MockResponse
}

// NewMock returns a Mock with the given replies queued.
func NewMock(replies ...MockResponse) *Mock {
	return &Mock{queue: replies}
}

func (m *Mock) ModelID() string { return "mock" }

func (m *Mock) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	var (
		r  MockResponse
		ok bool
	)
	if len(m.queue) > 0 {
		r, m.queue, ok = m.queue[0], m.queue[1:], true
	} else if m.Fallback != nil {
		r, ok = m.Fallback(req), true
	}
	m.mu.Unlock()

	if !ok {
		return nil, &ErrUnavailable{}
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return &Response{Content: r.Content, Usage: r.Usage, Model: "mock", StopReason: "end"}, nil
}

// Push queues another reply.
func (m *Mock) Push(r MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, r)
}

// Calls returns a copy of the requests received so far.
func (m *Mock) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.calls...)
}
