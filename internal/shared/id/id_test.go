package id

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUnique(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	assert.NotEqual(t, id1.String(), id2.String())
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	for _, prefix := range []string{WindowPrefix, SessionPrefix} {
		s := gen.GenerateWithPrefix(prefix)

		require.True(t, strings.HasPrefix(s, prefix+"_"), s)
		parts := strings.Split(s, "_")
		require.Len(t, parts, 2)
		assert.True(t, IsValid(parts[1]))
		assert.True(t, IsValid(s))
	}
}

func TestParseWindowID(t *testing.T) {
	win := NewWindowID()

	parsed, err := ParseWindowID(win.String())
	require.NoError(t, err)
	assert.Equal(t, win, parsed)

	for _, bad := range []string{"", "win_", "sess_01HZZZZZZZZZZZZZZZZZZZZZZZ", "win_not-a-ulid", NewSessionID().String()} {
		_, err := ParseWindowID(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseSessionID(t *testing.T) {
	sess := NewSessionID()

	parsed, err := ParseSessionID(sess.String())
	require.NoError(t, err)
	assert.Equal(t, sess, parsed)

	_, err = ParseSessionID(NewWindowID().String())
	assert.Error(t, err)
}

func TestParsePID(t *testing.T) {
	pid, err := ParsePID("42")
	require.NoError(t, err)
	assert.Equal(t, PID(42), pid)
	assert.Equal(t, "42", pid.String())

	for _, bad := range []string{"", "0", "-3", "abc"} {
		_, err := ParsePID(bad)
		assert.Error(t, err, bad)
	}
}

func TestTimestamp(t *testing.T) {
	before := time.Now()
	win := NewWindowID()
	after := time.Now()

	ts, err := Timestamp(win.String())
	require.NoError(t, err)

	// ULID timestamps have millisecond precision
	assert.GreaterOrEqual(t, ts.UnixMilli(), before.UnixMilli())
	assert.LessOrEqual(t, ts.UnixMilli(), after.UnixMilli())
}

func TestPIDCounterMonotonic(t *testing.T) {
	var c PIDCounter

	assert.Equal(t, PID(1), c.Next())
	assert.Equal(t, PID(2), c.Next())
	assert.Equal(t, PID(3), c.Next())
}

func TestPIDCounterConcurrent(t *testing.T) {
	var c PIDCounter
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[PID]bool)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				pid := c.Next()
				mu.Lock()
				seen[pid] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 1000)
}
