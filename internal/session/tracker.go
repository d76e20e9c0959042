// Package session tracks XMLA sessions: the statements each one has in
// flight, its credentials and how long it has been idle. Cancelling a
// session cancels the contexts of its statements.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTimeout is how long a session may stay idle before it is swept.
const DefaultTimeout = 2 * time.Hour

var (
	// ErrSessionCancelled is the cancellation cause of statements whose
	// session was cancelled.
	ErrSessionCancelled = errors.New("session cancelled")

	// ErrSessionEnded is the cancellation cause of statements still running
	// when their session ends.
	ErrSessionEnded = errors.New("session ended")
)

// Config configures a Tracker.
type Config struct {
	Timeout time.Duration
	Clock   Clock
	Logger  *slog.Logger
}

// Tracker holds every live session. It is safe for concurrent use. The
// session table and each session's own state are locked independently.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*session

	timeout    time.Duration
	clock      Clock
	logger     *slog.Logger
	nextHandle atomic.Uint64
}

// New creates a Tracker.
func New(cfg Config) *Tracker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = Wall
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Tracker{
		sessions: make(map[string]*session),
		timeout:  cfg.Timeout,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
	}
}

// Timeout returns the idle timeout.
func (t *Tracker) Timeout() time.Duration {
	return t.timeout
}

type session struct {
	id string

	mu             sync.Mutex
	username       string
	password       string
	hasCredentials bool
	createdAt      time.Time
	lastActivity   time.Time
	lastCommand    string
	totalCommands  int
	cancelled      bool
	statements     map[Handle]*Statement

	// removed is set once the record has left the table. Callers holding a
	// stale pointer must look the id up again.
	removed bool
}

func newSession(id string, now time.Time) *session {
	sessionsOpen.Inc()
	return &session{
		id:           id,
		createdAt:    now,
		lastActivity: now,
		statements:   make(map[Handle]*Statement),
	}
}

// retire marks s as gone from the table and cancels what it still runs.
// The caller holds the table lock.
func (s *session) retire(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = true
	for h, stmt := range s.statements {
		stmt.cancel(cause)
		delete(s.statements, h)
		statementsInFlight.Dec()
	}
	sessionsOpen.Dec()
}

// getOrCreate returns the session for id, creating it on first reference.
func (t *Tracker) getOrCreate(id string) *session {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[id]
	if !ok {
		s = newSession(id, t.clock.Now())
		t.sessions[id] = s
		t.logger.Debug("session created", "session", id)
	}
	return s
}

// withSession runs fn under the lock of the live session for id.
func (t *Tracker) withSession(id string, fn func(*session)) {
	for {
		s := t.getOrCreate(id)
		s.mu.Lock()
		if s.removed {
			s.mu.Unlock()
			continue
		}
		fn(s)
		s.mu.Unlock()
		return
	}
}

// Handle identifies a statement within the tracker.
type Handle uint64

// Statement is one tracked unit of work. Its context is cancelled when the
// session is cancelled or ended, and released when the statement is
// unregistered.
type Statement struct {
	Handle    Handle
	SessionID string
	Command   string
	StartedAt time.Time

	ctx     context.Context
	cancel  context.CancelCauseFunc
	session *session
}

// Context returns the context the statement's work must run under.
func (s *Statement) Context() context.Context {
	return s.ctx
}

// Cancelled reports whether the statement's session cancelled it.
func (s *Statement) Cancelled() bool {
	return errors.Is(context.Cause(s.ctx), ErrSessionCancelled)
}

// RegisterStatement tracks a new statement for sessionID, creating the
// session if needed. On a cancelled session the statement comes back
// already cancelled and is not tracked.
func (t *Tracker) RegisterStatement(ctx context.Context, sessionID, command string) *Statement {
	stmtCtx, cancel := context.WithCancelCause(ctx)
	stmt := &Statement{
		Handle:    Handle(t.nextHandle.Add(1)),
		SessionID: sessionID,
		Command:   command,
		ctx:       stmtCtx,
		cancel:    cancel,
	}

	t.withSession(sessionID, func(s *session) {
		now := t.clock.Now()
		stmt.StartedAt = now
		if s.cancelled {
			cancel(ErrSessionCancelled)
			statementsRejected.Inc()
			t.logger.Debug("statement rejected by cancelled session", "session", sessionID, "command", command)
			return
		}
		stmt.session = s
		s.statements[stmt.Handle] = stmt
		s.lastActivity = now
		s.lastCommand = command
		s.totalCommands++
		statementsInFlight.Inc()
	})
	return stmt
}

// UnregisterStatement stops tracking stmt and releases its context. It is
// safe to call for statements that were never tracked.
func (t *Tracker) UnregisterStatement(stmt *Statement) {
	defer stmt.cancel(nil)
	s := stmt.session
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.statements[stmt.Handle]; !ok {
		return
	}
	delete(s.statements, stmt.Handle)
	statementsInFlight.Dec()
	if !s.removed {
		s.lastActivity = t.clock.Now()
	}
}

// CancelSession cancels every statement of sessionID. The session is kept so
// statements arriving later on the same id are cancelled too.
func (t *Tracker) CancelSession(sessionID string) {
	t.withSession(sessionID, func(s *session) {
		s.cancelled = true
		for h, stmt := range s.statements {
			stmt.cancel(ErrSessionCancelled)
			delete(s.statements, h)
			statementsInFlight.Dec()
		}
		s.lastActivity = t.clock.Now()
	})
	t.logger.Info("session cancelled", "session", sessionID)
}

// EndSession forgets sessionID. A later reference starts a fresh session.
func (t *Tracker) EndSession(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[sessionID]
	if !ok {
		return
	}
	delete(t.sessions, sessionID)
	s.retire(ErrSessionEnded)
	sessionsEvicted.WithLabelValues("ended").Inc()
	t.logger.Debug("session ended", "session", sessionID)
}

// SetCredentials records the client credentials of sessionID. When the
// session already carries a different username it is replaced by a fresh
// one. An empty password never erases a stored one.
func (t *Tracker) SetCredentials(sessionID, username, password string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()

	if s, ok := t.sessions[sessionID]; ok {
		s.mu.Lock()
		adopt := !s.hasCredentials || s.username == username
		if adopt {
			s.username = username
			s.hasCredentials = true
			if password != "" {
				s.password = password
			}
			s.lastActivity = now
		}
		s.mu.Unlock()
		if adopt {
			return
		}
		s.retire(ErrSessionEnded)
		sessionsEvicted.WithLabelValues("replaced").Inc()
		t.logger.Info("session replaced after username change", "session", sessionID)
	}

	s := newSession(sessionID, now)
	s.username = username
	s.password = password
	s.hasCredentials = true
	t.sessions[sessionID] = s
}

// Credentials returns the stored credentials of sessionID.
func (t *Tracker) Credentials(sessionID string) (username, password string, ok bool) {
	t.mu.Lock()
	s, found := t.sessions[sessionID]
	t.mu.Unlock()
	if !found {
		return "", "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username, s.password, s.hasCredentials
}

// SweepExpired removes every session idle for longer than the timeout at
// now. Sessions with statements in flight are never idle. It returns the
// number of sessions removed.
func (t *Tracker) SweepExpired(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for id, s := range t.sessions {
		s.mu.Lock()
		idle := len(s.statements) == 0 && now.Sub(s.lastActivity) > t.timeout
		s.mu.Unlock()
		if !idle {
			continue
		}
		delete(t.sessions, id)
		s.retire(ErrSessionEnded)
		removed++
	}
	if removed > 0 {
		sessionsEvicted.WithLabelValues("idle").Add(float64(removed))
		t.logger.Info("swept idle sessions", "removed", removed, "remaining", len(t.sessions))
	}
	return removed
}

// Run sweeps idle sessions every quarter of the timeout until ctx is done.
func (t *Tracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.timeout / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.SweepExpired(t.clock.Now())
		}
	}
}

// Info is a point-in-time view of one session. It never carries the
// session id: an id is enough to resume a session and its credentials.
type Info struct {
	Ref           string    `json:"ref"`
	Username      string    `json:"username,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	LastActivity  time.Time `json:"last_activity"`
	LastCommand   string    `json:"last_command,omitempty"`
	TotalCommands int       `json:"total_commands"`
	Active        int       `json:"active"`
	Cancelled     bool      `json:"cancelled"`
}

// Ref returns the opaque reference under which a session id is listed:
// a truncated SHA-256 of the id, stable but not reversible.
func Ref(sessionID string) string {
	sum := sha256.Sum256([]byte(sessionID))
	return hex.EncodeToString(sum[:6])
}

// Snapshot describes every live session, ordered by session id.
func (t *Tracker) Snapshot() []Info {
	t.mu.Lock()
	sessions := slices.Collect(maps.Values(t.sessions))
	t.mu.Unlock()
	slices.SortFunc(sessions, func(a, b *session) int { return strings.Compare(a.id, b.id) })

	infos := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		s.mu.Lock()
		infos = append(infos, Info{
			Ref:           Ref(s.id),
			Username:      s.username,
			CreatedAt:     s.createdAt,
			LastActivity:  s.lastActivity,
			LastCommand:   s.lastCommand,
			TotalCommands: s.totalCommands,
			Active:        len(s.statements),
			Cancelled:     s.cancelled,
		})
		s.mu.Unlock()
	}
	return infos
}
