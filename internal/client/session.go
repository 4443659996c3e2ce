// Package client implements the viewer side of the live comment channel:
// one Session per viewed post, owning its connection, its thread state and
// its reaction state. Commands go out over the socket with an HTTP fallback;
// broadcasts come back through a single consumption loop and are reconciled
// into two derived views of the thread (flat and top-level-only).
package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/comment-sync-api/internal/models"
	"github.com/comment-sync-api/internal/protocol"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ConnState is the lifecycle state of the session's live connection
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	// StateError means the retry budget is exhausted; no further automatic
	// reconnects happen for this session.
	StateError
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Op identifies one kind of user-initiated operation, each with its own
// loading flag and acknowledgement timeout.
type Op string

const (
	OpCreate Op = "create"
	OpEdit   Op = "edit"
	OpDelete Op = "delete"
	OpReact  Op = "react"
)

var (
	// ErrNotSignedIn is returned when a mutating operation is attempted
	// without a signed-in invoker. Refused before any network call.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrConnectionLost is returned for operations that have no HTTP
	// fallback when the live connection is down.
	ErrConnectionLost = errors.New("connection lost")
)

// Default budget and timing constants, overridable via Config.
const (
	DefaultMaxRetries       = 12
	DefaultRetryInterval    = 5 * time.Second
	DefaultOpTimeout        = 10 * time.Second
	DefaultPromptClearDelay = 300 * time.Millisecond
)

// Config configures a Session for one viewed post
type Config struct {
	// Endpoint is the WebSocket URL of the live comment channel.
	Endpoint string
	// FallbackBaseURL is the HTTP base URL for fallback mutations and
	// commenter lookups, e.g. "https://example.com".
	FallbackBaseURL string

	PostType string
	PostID   string
	// InvokerID is the signed-in user, or "" for an anonymous viewer.
	// Anonymous viewers can watch the thread but not mutate it.
	InvokerID string

	MaxRetries       int
	RetryInterval    time.Duration
	OpTimeout        time.Duration
	PromptClearDelay time.Duration

	Logger     zerolog.Logger
	HTTPClient *http.Client
	// Dialer defaults to a gorilla/websocket dialer.
	Dialer Dialer
	// Users defaults to an HTTP directory under FallbackBaseURL.
	Users UserDirectory
}

func (c *Config) applyDefaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryInterval == 0 {
		c.RetryInterval = DefaultRetryInterval
	}
	if c.OpTimeout == 0 {
		c.OpTimeout = DefaultOpTimeout
	}
	if c.PromptClearDelay == 0 {
		c.PromptClearDelay = DefaultPromptClearDelay
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.OpTimeout}
	}
	if c.Dialer == nil {
		c.Dialer = NewDialer()
	}
	if c.Users == nil {
		c.Users = NewHTTPUserDirectory(c.FallbackBaseURL, c.HTTPClient)
	}
}

// Session owns everything for one viewer on one post: the connection
// handle, the reconciled thread, the reaction map and the per-operation
// loading/error state. All state is mutated only through the reconciler and
// aggregator entry points, under the session mutex.
type Session struct {
	cfg Config
	log zerolog.Logger

	// viewerID identifies this viewer on channelUpdate/disconnect frames.
	// Anonymous viewers get a generated id.
	viewerID string

	mu          sync.Mutex
	state       ConnState
	conn        Conn
	retries     int
	intentional bool
	retryTimer  *time.Timer

	thread    threadState
	reactions reactionSet
	authors   map[string]models.UserPublic

	loading  map[Op]bool
	opTimers map[Op]*time.Timer
	errMsg   string

	// deletePromptID is the comment whose delete-confirmation UI is open;
	// cleared shortly after a deletion broadcast to let the exit animation
	// play.
	deletePromptID int64
	promptTimer    *time.Timer

	inbound   chan protocol.Message
	done      chan struct{}
	runOnce   sync.Once
	closeOnce sync.Once
}

// NewSession creates a session for one post view. Call Connect to open the
// live channel and Close on teardown.
func NewSession(cfg Config) *Session {
	cfg.applyDefaults()

	viewerID := cfg.InvokerID
	if viewerID == "" {
		viewerID = "anon-" + uuid.NewString()
	}

	return &Session{
		cfg: cfg,
		log: cfg.Logger.With().
			Str("component", "comment_session").
			Str("post_type", cfg.PostType).
			Str("post_id", cfg.PostID).
			Logger(),
		viewerID:  viewerID,
		reactions: make(reactionSet),
		authors:   make(map[string]models.UserPublic),
		loading:   make(map[Op]bool),
		opTimers:  make(map[Op]*time.Timer),
		inbound:   make(chan protocol.Message, 32),
		done:      make(chan struct{}),
	}
}

// LoadThread seeds the session with the initial comments and reactions,
// typically from the thread endpoint before the live channel opens.
func (s *Session) LoadThread(comments []models.Comment, reactions map[int64][]models.CommentReaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.thread.load(comments)
	s.reactions = make(reactionSet, len(reactions))
	for id, rs := range reactions {
		s.reactions[id] = append([]models.CommentReaction(nil), rs...)
	}
}

// Close tears the session down: suppresses reconnects, cancels timers,
// sends a best-effort disconnect notice and closes with a normal-closure
// code. In-flight HTTP fallbacks are not cancelled.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.intentional = true
		if s.retryTimer != nil {
			s.retryTimer.Stop()
		}
		for _, t := range s.opTimers {
			t.Stop()
		}
		if s.promptTimer != nil {
			s.promptTimer.Stop()
		}
		conn := s.conn
		s.conn = nil
		s.state = StateDisconnected
		s.mu.Unlock()

		if conn != nil {
			if data, err := protocol.Encode(protocol.Disconnect{
				PostType:  s.cfg.PostType,
				PostID:    s.cfg.PostID,
				InvokerID: s.viewerID,
			}); err == nil {
				// Best effort; the close below is what matters.
				_ = conn.WriteMessage(data)
			}
			conn.Close()
		}

		close(s.done)
		s.log.Debug().Msg("Session closed")
	})
	return nil
}

// State returns the connection state
func (s *Session) State() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Comments returns a copy of the flat comment list
func (s *Session) Comments() []models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Comment(nil), s.thread.flat...)
}

// TopLevelComments returns a copy of the top-level-only comment list
func (s *Session) TopLevelComments() []models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Comment(nil), s.thread.topLevel...)
}

// Reactions returns a copy of a comment's reaction set
func (s *Session) Reactions(commentID int64) []models.CommentReaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CommentReaction(nil), s.reactions[commentID]...)
}

// VoteTally returns the derived up/down counts for a comment
func (s *Session) VoteTally(commentID int64) models.VoteTally {
	s.mu.Lock()
	defer s.mu.Unlock()
	up, down := s.reactions.tally(commentID)
	return models.VoteTally{CommentID: commentID, UpVotes: up, DownVotes: down}
}

// Author returns cached commenter display data, if known
func (s *Session) Author(userID string) (models.UserPublic, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.authors[userID]
	return a, ok
}

// Loading reports whether an operation of the given kind is in flight
func (s *Session) Loading(op Op) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading[op]
}

// CurrentError returns the user-visible error message, "" when none. It is
// a single slot: each operation's outcome overwrites the previous one.
func (s *Session) CurrentError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// OpenDeletePrompt marks a comment's delete-confirmation UI as open
func (s *Session) OpenDeletePrompt(commentID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletePromptID = commentID
}

// DeletePrompt returns the comment id whose delete prompt is open, 0 if none
func (s *Session) DeletePrompt() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletePromptID
}

// beginOp sets the operation's loading flag and arms its acknowledgement
// timeout. If the matching broadcast (or fallback success) does not arrive
// in time, the flag clears and a timeout error is surfaced.
func (s *Session) beginOp(op Op) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading[op] = true
	if t, ok := s.opTimers[op]; ok {
		t.Stop()
	}
	s.opTimers[op] = time.AfterFunc(s.cfg.OpTimeout, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.loading[op] {
			return
		}
		s.loading[op] = false
		s.errMsg = string(op) + " timed out, please try again"
		s.log.Warn().Str("op", string(op)).Msg("Operation timed out")
	})
}

// finishOp acknowledges an operation: cancels its timeout, clears its
// loading flag and clears any prior error.
func (s *Session) finishOp(op Op) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.opTimers[op]; ok {
		t.Stop()
		delete(s.opTimers, op)
	}
	if s.loading[op] {
		s.loading[op] = false
		s.errMsg = ""
	}
}

// failOp ends an operation with a user-visible error
func (s *Session) failOp(op Op, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.opTimers[op]; ok {
		t.Stop()
		delete(s.opTimers, op)
	}
	s.loading[op] = false
	s.errMsg = message
}

// cancelOpTimer stops an operation's timeout without touching its loading
// flag. Used when a synchronous send failure hands the operation over to
// the HTTP fallback, which finishes or fails it itself.
func (s *Session) cancelOpTimer(op Op) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.opTimers[op]; ok {
		t.Stop()
		delete(s.opTimers, op)
	}
}

// runLoop is the session's single consumption point for inbound broadcasts,
// regardless of how many connection incarnations feed it.
func (s *Session) runLoop() {
	for {
		select {
		case msg := <-s.inbound:
			s.handleBroadcast(context.Background(), msg)
		case <-s.done:
			return
		}
	}
}
