package ai

import (
	"context"
	"sync"
)

// MockModel is a scripted Model for tests. Each call records its request and
// returns the next queued reply; when the queue is empty it returns Default.
type MockModel struct {
	mu       sync.Mutex
	replies  []mockReply
	requests []Request
	// Default is returned once the queue is drained.
	Default string
	// Block, when non-nil, is waited on before answering. Used to hold a call in flight.
	Block chan struct{}
}

type mockReply struct {
	text string
	err  error
}

// NewMockModel returns a mock that answers with def when nothing is queued.
func NewMockModel(def string) *MockModel {
	return &MockModel{Default: def}
}

// Reply queues a successful answer.
func (m *MockModel) Reply(text string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, mockReply{text: text})
	return m
}

// Fail queues a failed call.
func (m *MockModel) Fail(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, mockReply{err: err})
	return m
}

// Requests returns a copy of every request received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	req.History = append([]Turn(nil), req.History...)
	m.requests = append(m.requests, req)
	block := m.Block
	var next *mockReply
	if len(m.replies) > 0 {
		r := m.replies[0]
		next = &r
		m.replies = m.replies[1:]
	}
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if next == nil {
		return m.Default, nil
	}
	return next.text, next.err
}
