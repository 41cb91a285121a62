package mocks

import (
	"sync"

	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
)

// SentSMS is one message captured by MockSMSSender
type SentSMS struct {
	To      string
	Message string
}

// MockSMSSender implements domain.SMSSender and records what was sent
type MockSMSSender struct {
	SendSMSFunc func(to, message string) error

	mu   sync.Mutex
	sent []SentSMS
}

// NewMockSMSSender creates a new MockSMSSender
func NewMockSMSSender() *MockSMSSender {
	return &MockSMSSender{}
}

// SendSMS records the message, then defers to SendSMSFunc when set
func (m *MockSMSSender) SendSMS(to, message string) error {
	m.mu.Lock()
	m.sent = append(m.sent, SentSMS{To: to, Message: message})
	m.mu.Unlock()
	if m.SendSMSFunc != nil {
		return m.SendSMSFunc(to, message)
	}
	return nil
}

// Sent returns a copy of the recorded messages
func (m *MockSMSSender) Sent() []SentSMS {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentSMS, len(m.sent))
	copy(out, m.sent)
	return out
}

// Compile-time interface compliance verification
var _ domain.SMSSender = (*MockSMSSender)(nil)
