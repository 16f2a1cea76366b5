package app

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/core"
	"github.com/stretchr/testify/require"
)

var errQueueFull = errors.New("queue full")

// fakeConn is an in-memory SignalConnection with an optional queue limit.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	limit  int
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("closed")
	}
	if c.limit > 0 && len(c.frames) >= c.limit {
		return errQueueFull
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// events decodes every frame received so far.
func (c *fakeConn) events(t *testing.T) []core.Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Envelope, 0, len(c.frames))
	for _, f := range c.frames {
		var ev core.Envelope
		require.NoError(t, json.Unmarshal(f, &ev))
		out = append(out, ev)
	}
	return out
}

func (c *fakeConn) types(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, ev := range c.events(t) {
		out = append(out, ev.Type)
	}
	return out
}
