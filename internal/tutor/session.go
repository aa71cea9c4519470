package tutor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var ErrEmptyTurn = errors.New("turn content is empty")

// Session is the dialogue history of one session key. Turn mutations are
// guarded by mu; whole exchanges are serialized through Acquire.
type Session struct {
	ID string

	mu            sync.Mutex
	turns         []Turn
	levelSelected bool
	lastUsed      time.Time

	exchange chan struct{}
}

func NewSession(id string) *Session {
	return &Session{
		ID:       id,
		turns:    []Turn{{Role: RoleSystem, Content: defaultPrompt}},
		lastUsed: time.Now(),
		exchange: make(chan struct{}, 1),
	}
}

// Acquire blocks until the caller owns the session's exchange slot or ctx is
// done. The returned func releases the slot and must be called exactly once.
func (s *Session) Acquire(ctx context.Context) (func(), error) {
	select {
	case s.exchange <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-s.exchange }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SelectLevel replaces the system prompt with the one for level. Only the
// first selection counts, and only before any user or assistant turn.
func (s *Session) SelectLevel(level string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastUsed = time.Now()
	if s.levelSelected || len(s.turns) > 1 {
		return false
	}
	s.turns[0] = Turn{Role: RoleSystem, Content: PromptFor(level)}
	s.levelSelected = true
	return true
}

func (s *Session) AppendUser(text string) error {
	return s.append(RoleUser, text)
}

func (s *Session) AppendAssistant(text string) error {
	return s.append(RoleAssistant, text)
}

func (s *Session) append(role Role, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyTurn
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, Turn{Role: role, Content: text})
	s.lastUsed = time.Now()
	return nil
}

// Snapshot returns a copy of the turns in chronological order.
func (s *Session) Snapshot() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}
