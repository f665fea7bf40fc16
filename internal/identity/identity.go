package identity

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Lifetime is how long a session identifier stays valid after creation
const Lifetime = 24 * time.Hour

var randomPart = regexp.MustCompile(`^[a-f0-9]{32}$`)

// Session is the persisted form of a session identifier
type Session struct {
	SessionID string `json:"sessionId"`
	Timestamp int64  `json:"timestamp"` // epoch millis at creation
}

// Storage persists the current session between agent runs
type Storage interface {
	Load() (*Session, error)
	Save(Session) error
}

// Generator hands out the session identifier, creating a new one once the
// stored one is gone, malformed or older than Lifetime
type Generator struct {
	storage Storage
	now     func() time.Time
	logger  *zap.Logger
	mu      sync.Mutex
}

// Option configures a Generator
type Option func(*Generator)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a generator over the given storage
func NewGenerator(storage Storage, logger *zap.Logger, opts ...Option) *Generator {
	g := &Generator{
		storage: storage,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GetOrCreate returns the stored session identifier while it is valid,
// otherwise creates and persists a new one. Storage failures are logged;
// the identifier is still returned.
func (g *Generator) GetOrCreate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	stored, err := g.storage.Load()
	if err != nil {
		g.logger.Warn("Failed to load session, creating a new one", zap.Error(err))
	}
	if stored != nil && IsValid(stored.SessionID, now) && now.UnixMilli()-stored.Timestamp < Lifetime.Milliseconds() {
		return stored.SessionID
	}

	session := Session{
		SessionID: newID(now),
		Timestamp: now.UnixMilli(),
	}
	if err := g.storage.Save(session); err != nil {
		g.logger.Warn("Failed to persist session", zap.Error(err))
	}

	g.logger.Debug("Created session", zap.String("session_id", session.SessionID))
	return session.SessionID
}

func newID(now time.Time) string {
	buf := make([]byte, 16)
	// crypto/rand.Read never returns an error on supported platforms
	_, _ = rand.Read(buf)
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + hex.EncodeToString(buf)
}

// IsValid reports whether id is well formed and younger than Lifetime at now
func IsValid(id string, now time.Time) bool {
	parts := strings.Split(id, "-")
	if len(parts) != 2 {
		return false
	}

	created, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return false
	}
	if now.UnixMilli()-created > Lifetime.Milliseconds() {
		return false
	}

	return randomPart.MatchString(parts[1])
}
