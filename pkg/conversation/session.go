package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/digest"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/tools"
	"github.com/aretw0/canopy/pkg/tree"
)

// Defaults for a Session.
const (
	DefaultMaxRounds   = 5
	DefaultHistoryKeep = 20
)

// Session is the conversation of one user. It is not shared between users.
// SendTurn calls on the same session are serialized.
type Session struct {
	mu    sync.Mutex
	state *domain.ConversationState

	gateway    ports.ModelGateway
	dispatcher *tools.Dispatcher
	builder    *digest.Builder

	systemPrompt string
	maxRounds    int
	historyKeep  int
	maxInput     int

	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithDispatcher sets the tool dispatcher. By default one is created with the
// session's hooks and logger.
func WithDispatcher(d *tools.Dispatcher) Option {
	return func(s *Session) { s.dispatcher = d }
}

// WithDigestBuilder sets the builder used for the focus context.
func WithDigestBuilder(b *digest.Builder) Option {
	return func(s *Session) { s.builder = b }
}

// WithSystemPrompt replaces DefaultSystemPrompt.
func WithSystemPrompt(prompt string) Option {
	return func(s *Session) { s.systemPrompt = prompt }
}

// WithMaxRounds sets the gateway call cap per turn.
func WithMaxRounds(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxRounds = n
		}
	}
}

// WithHistoryKeep sets how many recent messages survive trimming (system prompt excluded).
func WithHistoryKeep(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.historyKeep = n
		}
	}
}

// WithMaxInput sets the maximum accepted size of user text, in bytes.
func WithMaxInput(n int) Option {
	return func(s *Session) { s.maxInput = n }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Session) { s.hooks = hooks }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// NewSession creates a session with an empty history.
func NewSession(sessionID string, gateway ports.ModelGateway, opts ...Option) *Session {
	s := newSession(gateway, opts...)
	s.state = domain.NewConversationState(sessionID, s.systemPrompt)
	return s
}

// Restore resumes a session from a previously captured state.
func Restore(state *domain.ConversationState, gateway ports.ModelGateway, opts ...Option) *Session {
	s := newSession(gateway, opts...)
	s.state = state.Clone()
	return s
}

func newSession(gateway ports.ModelGateway, opts ...Option) *Session {
	s := &Session{
		gateway:      gateway,
		systemPrompt: DefaultSystemPrompt,
		maxRounds:    DefaultMaxRounds,
		historyKeep:  DefaultHistoryKeep,
		maxInput:     DefaultMaxInputSize,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dispatcher == nil {
		s.dispatcher = tools.NewDispatcher(tools.WithHooks(s.hooks), tools.WithLogger(s.logger))
	}
	if s.builder == nil {
		s.builder = digest.NewBuilder()
	}
	return s
}

// ID returns the session ID.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SessionID
}

// Snapshot returns a copy of the conversation state.
func (s *Session) Snapshot() *domain.ConversationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Messages returns a copy of the history.
func (s *Session) Messages() []domain.Message {
	return s.Snapshot().Messages
}

// ClearHistory drops everything but the system prompt.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Reset()
}

// SendTurn runs one user turn. The tree root is located from focus (the node the
// user has selected) and every tool call is resolved from that root, never from
// the focus subtree.
//
// A gateway failure aborts the turn with an error wrapping domain.ErrGateway and
// leaves the history unmodified. Hitting the round cap is not an error: the
// result carries domain.TurnLimitReached and the best partial text available.
func (s *Session) SendTurn(ctx context.Context, userText string, focus tree.Node) (domain.TurnResult, error) {
	text, err := SanitizeInput(userText, s.maxInput)
	if err != nil {
		return domain.TurnResult{}, fmt.Errorf("invalid user input: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = domain.ContextWithSession(ctx, s.state.SessionID)
	root, err := tree.FindRoot(focus)
	if err != nil {
		s.logger.Debug("No focus node, tools will run without a tree", "session_id", s.state.SessionID)
	}

	working := s.state.Clone()
	working.Messages = append(working.Messages, domain.Message{
		Role:    domain.RoleUser,
		Content: s.userContent(text, focus),
	})

	result, err := s.run(ctx, working, root)
	if err != nil {
		return domain.TurnResult{}, err
	}

	working.Trim(s.historyKeep)
	working.UpdatedAt = time.Now()
	s.state = working

	if s.hooks.OnTurnEnd != nil {
		s.hooks.OnTurnEnd(ctx, &domain.TurnEvent{
			EventBase:   domain.EventBase{Timestamp: time.Now(), Type: domain.EventTurnEnd, SessionID: working.SessionID},
			Status:      result.Status,
			Rounds:      result.RoundsUsed,
			Invocations: result.InvocationsUsed,
		})
	}
	return result, nil
}
