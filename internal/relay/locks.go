package relay

import "sync"

// userLocks hands out one mutex per user ID so that concurrent triggers for
// the same user cannot interleave their load -> mutate -> replace cycles.
// Operations on different users proceed in parallel.
//
// Locks are never evicted; the map is bounded by the number of distinct
// users the bot has ever touched, which is small.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[int64]*sync.Mutex)}
}

// Lock acquires the mutex for a user, creating it on first use.
func (l *userLocks) Lock(userID int64) {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()
	m.Lock()
}

// Unlock releases the mutex for a user.
func (l *userLocks) Unlock(userID int64) {
	l.mu.Lock()
	m := l.locks[userID]
	l.mu.Unlock()
	m.Unlock()
}
