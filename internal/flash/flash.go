// Package flash carries one success or error message from a mutation to the
// next response rendered for the same session.
package flash

import "sync"

// Message is embedded in response bodies; at most one field is set.
type Message struct {
	Success string `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

func Success(text string) Message { return Message{Success: text} }

func Error(text string) Message { return Message{Error: text} }

func (m Message) Empty() bool {
	return m.Success == "" && m.Error == ""
}

// Text returns whichever message is set.
func (m Message) Text() string {
	if m.Error != "" {
		return m.Error
	}
	return m.Success
}

func (m Message) IsError() bool {
	return m.Error != ""
}

// Store holds at most one pending message per session. Set replaces any
// unconsumed message; Pop hands it out once.
type Store struct {
	mu      sync.Mutex
	pending map[string]Message
}

func NewStore() *Store {
	return &Store{pending: make(map[string]Message)}
}

func (s *Store) Set(session string, msg Message) {
	if msg.Empty() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[session] = msg
}

func (s *Store) Pop(session string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.pending[session]
	if !ok {
		return Message{}
	}
	delete(s.pending, session)
	return msg
}

// Deliver records msg and consumes it in one step, for a response that
// renders its own mutation. Any unconsumed message is superseded, and a
// concurrent Pop on the session can never take msg.
func (s *Store) Deliver(session string, msg Message) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.Empty() {
		msg = s.pending[session]
	}
	delete(s.pending, session)
	return msg
}
