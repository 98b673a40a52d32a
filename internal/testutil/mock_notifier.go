package testutil

import (
	"context"
	"sync"
)

// SentNotification records one notification accepted by the mock sender
type SentNotification struct {
	TemplateID string
	Recipient  string
	Variables  map[string]interface{}
}

// MockNotifier records notifications instead of sending them
type MockNotifier struct {
	mu   sync.Mutex
	sent []SentNotification
	err  error
}

// NewMockNotifier creates a new mock notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// FailWith makes every subsequent send return the given error
func (n *MockNotifier) FailWith(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.err = err
}

func (n *MockNotifier) Send(ctx context.Context, templateID string, recipient string, variables map[string]interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, SentNotification{
		TemplateID: templateID,
		Recipient:  recipient,
		Variables:  variables,
	})
	return nil
}

// Sent returns the notifications recorded so far
func (n *MockNotifier) Sent() []SentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	sent := make([]SentNotification, len(n.sent))
	copy(sent, n.sent)
	return sent
}

// Clear resets recorded notifications
func (n *MockNotifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = nil
	n.err = nil
}
