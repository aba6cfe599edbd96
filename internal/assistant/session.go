package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrBusy is returned when a session is asked a question while another
	// is still being answered.
	ErrBusy = errors.New("a question is already being answered")

	// ErrEmptyQuestion is returned for blank input.
	ErrEmptyQuestion = errors.New("question is empty")
)

// State is the position of a session in its question cycle.
type State int

const (
	Idle State = iota
	AwaitingRetrieval
	AwaitingGeneration
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingRetrieval:
		return "awaiting_retrieval"
	case AwaitingGeneration:
		return "awaiting_generation"
	default:
		return "unknown"
	}
}

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a transcript.
type Turn struct {
	Role    Role      `json:"role"`
	Text    string    `json:"text"`
	Sources []Source  `json:"sources,omitempty"`
	At      time.Time `json:"at"`
}

// Session is one conversation. It answers one question at a time; its
// transcript is private to it.
type Session struct {
	ID string

	svc *Service

	mu      sync.Mutex
	state   State
	turns   []Turn
	epoch   int
	updated time.Time
}

// NewSession starts a conversation with the greeting as its only turn.
func (s *Service) NewSession() *Session {
	sess := &Session{ID: uuid.NewString(), svc: s}
	sess.reset()
	return sess
}

func (s *Session) reset() {
	s.turns = []Turn{{Role: RoleAssistant, Text: s.svc.Greeting(), At: time.Now()}}
	s.updated = time.Now()
	s.epoch++
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns a copy of the conversation so far.
func (s *Session) Transcript() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Turn(nil), s.turns...)
}

// UpdatedAt returns when the session last changed.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updated
}

// Clear resets the transcript to the greeting. The index is not touched.
// An answer still in flight is discarded when it completes.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Ask records the question, retrieves passages and generates an answer,
// streaming fragments to onFragment. On success the answer is appended to
// the transcript. On failure the question stays in the transcript, no
// assistant turn is added and the error is returned. Either way the session
// ends Idle.
func (s *Session) Ask(ctx context.Context, question string, onFragment func(string)) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	epoch := s.epoch
	s.turns = append(s.turns, Turn{Role: RoleUser, Text: question, At: time.Now()})
	s.state = AwaitingRetrieval
	s.updated = time.Now()
	s.mu.Unlock()

	ans, err := s.svc.answer(ctx, question, onFragment, func(st State) {
		s.mu.Lock()
		s.state = st
		s.mu.Unlock()
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Idle
	s.updated = time.Now()
	if err != nil {
		return nil, err
	}
	if s.epoch == epoch {
		s.turns = append(s.turns, Turn{Role: RoleAssistant, Text: ans.Text, Sources: ans.Sources, At: time.Now()})
	}
	return ans, nil
}
