package signal

import (
	"sync"
	"time"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
)

const sweepThreshold = 1024

// RoomRateLimiter is a per-user sliding window over client-originated
// broadcasts and user notifications.
type RoomRateLimiter struct {
	mu       sync.Mutex
	history  map[domain.UserID][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewRoomRateLimiter(limit int, interval time.Duration) *RoomRateLimiter {
	return &RoomRateLimiter{
		history:  make(map[domain.UserID][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *RoomRateLimiter) Allow(uid domain.UserID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)
	if len(rl.history) > sweepThreshold {
		rl.sweepLocked(windowStart)
	}

	attempts := rl.history[uid]
	fresh := attempts[:0]
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[uid] = fresh
		return false
	}
	rl.history[uid] = append(fresh, now)
	return true
}

// Sweep drops users with no attempt inside the window.
func (rl *RoomRateLimiter) Sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.sweepLocked(rl.now().Add(-rl.interval))
}

func (rl *RoomRateLimiter) sweepLocked(windowStart time.Time) {
	for uid, attempts := range rl.history {
		if len(attempts) == 0 || !attempts[len(attempts)-1].After(windowStart) {
			delete(rl.history, uid)
		}
	}
}
