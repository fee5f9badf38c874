// Package id provides identifier generation for the desktop session.
//
// Windows and sessions use prefixed ULIDs (win_*, sess_*) so they sort by
// creation time and read well in logs. Process identifiers are small
// monotonically increasing integers, like the pids a user sees in a process
// monitor.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// WindowID identifies a window for its whole lifetime
type WindowID string

// SessionID identifies a saved workspace layout
type SessionID string

// AppID identifies a registered application descriptor ("terminal", "finder")
type AppID string

// PID identifies a running application process
type PID int

const (
	WindowPrefix  = "win"
	SessionPrefix = "sess"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the shared generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewWindowID generates a new window ID
func NewWindowID() WindowID {
	return WindowID(Default().GenerateWithPrefix(WindowPrefix))
}

// NewSessionID generates a new session ID
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

func (id WindowID) String() string  { return string(id) }
func (id SessionID) String() string { return string(id) }
func (id AppID) String() string     { return string(id) }
func (id PID) String() string       { return strconv.Itoa(int(id)) }

// IsValid checks whether s is a ULID, with or without a known prefix
func IsValid(s string) bool {
	if i := strings.IndexByte(s, '_'); i >= 0 {
		s = s[i+1:]
	}
	_, err := ulid.Parse(s)
	return err == nil
}

// ParseWindowID validates a window ID received from outside the process
func ParseWindowID(s string) (WindowID, error) {
	if !strings.HasPrefix(s, WindowPrefix+"_") || !IsValid(s) {
		return "", fmt.Errorf("invalid window id %q", s)
	}
	return WindowID(s), nil
}

// ParseSessionID validates a session ID received from outside the process
func ParseSessionID(s string) (SessionID, error) {
	if !strings.HasPrefix(s, SessionPrefix+"_") || !IsValid(s) {
		return "", fmt.Errorf("invalid session id %q", s)
	}
	return SessionID(s), nil
}

// ParsePID parses a decimal pid
func ParsePID(s string) (PID, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid pid %q", s)
	}
	return PID(n), nil
}

// Timestamp extracts the creation time from a (prefixed) ULID
func Timestamp(s string) (time.Time, error) {
	if i := strings.IndexByte(s, '_'); i >= 0 {
		s = s[i+1:]
	}
	parsed, err := ulid.Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}

// PIDCounter hands out monotonically increasing pids. The zero value starts at 1.
type PIDCounter struct {
	last atomic.Int64
}

// Next returns the next pid
func (c *PIDCounter) Next() PID {
	return PID(c.last.Add(1))
}
