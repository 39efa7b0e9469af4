package telegram

import (
	"sync"

	"github.com/vadimtrunov/CineDeck/internal/core"
)

// sessionManager tracks the last numbered listing shown to each user so a
// numeric reply can be resolved to an item.
type sessionManager struct {
	mu       sync.Mutex
	listings map[int64][]core.MediaItem
	allowed  map[int64]bool
}

// newSessionManager creates a session manager with the given whitelist.
// An empty whitelist allows all users.
func newSessionManager(allowedUserIDs []int64) *sessionManager {
	allowed := make(map[int64]bool, len(allowedUserIDs))
	for _, id := range allowedUserIDs {
		allowed[id] = true
	}
	return &sessionManager{
		listings: make(map[int64][]core.MediaItem),
		allowed:  allowed,
	}
}

// isAllowed checks if a user is in the whitelist.
func (sm *sessionManager) isAllowed(userID int64) bool {
	if len(sm.allowed) == 0 {
		return true
	}
	return sm.allowed[userID]
}

// remember replaces the user's listing.
func (sm *sessionManager) remember(userID int64, items []core.MediaItem) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if len(items) == 0 {
		delete(sm.listings, userID)
		return
	}
	sm.listings[userID] = items
}

// pick returns entry n (1-based) of the user's listing.
func (sm *sessionManager) pick(userID int64, n int) (core.MediaItem, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	items := sm.listings[userID]
	if n < 1 || n > len(items) {
		return core.MediaItem{}, false
	}
	return items[n-1], true
}

// reset forgets the user's listing.
func (sm *sessionManager) reset(userID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.listings, userID)
}
