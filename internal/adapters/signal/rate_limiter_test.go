package signal

import (
	"fmt"
	"testing"
	"time"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRoomRateLimiter_Allow(t *testing.T) {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRoomRateLimiter(3, time.Second)
	rl.now = func() time.Time { return clock }

	for range 3 {
		assert.True(t, rl.Allow("alice"))
	}
	assert.False(t, rl.Allow("alice"))
	assert.True(t, rl.Allow("bob"), "limits are per user")

	clock = clock.Add(1500 * time.Millisecond)
	assert.True(t, rl.Allow("alice"), "window slid past the old attempts")
}

func TestRoomRateLimiter_Sweep(t *testing.T) {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRoomRateLimiter(1, time.Second)
	rl.now = func() time.Time { return clock }

	for i := range 10 {
		rl.Allow(domain.UserID(fmt.Sprintf("u%d", i)))
	}
	assert.Len(t, rl.history, 10)

	clock = clock.Add(2 * time.Second)
	rl.Allow("fresh")
	rl.Sweep()
	assert.Len(t, rl.history, 1)
	assert.Contains(t, rl.history, domain.UserID("fresh"))
}
