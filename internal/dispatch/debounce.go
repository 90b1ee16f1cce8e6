package dispatch

import (
	"fmt"
	"sync"
	"time"

	"github.com/identity-sync/scim-connector/internal/domain"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DebounceWindow is how long duplicate occurrences of the same
	// logical action are suppressed.  The identity provider commonly
	// emits a user event and an administrative event for one change;
	// the window collapses the pair into a single push.
	DebounceWindow = 2 * time.Second

	debounceCacheSize = 8192
)

// Debouncer suppresses duplicate actions arriving within the debounce
// window for the same key.  Safe for concurrent use; the check-and-update
// is atomic.  Accept is the only decision surface: suppressed occurrences
// are simply dropped by the caller.
type Debouncer interface {
	ShouldProceed(key string) bool
}

// lruDebouncer backs the suppression map with a bounded, TTL-evicted LRU
// so the key space cannot grow without limit.  Eviction can only cause a
// duplicate to slip through, never suppress a fresh action; downstream
// reconciliation is idempotent either way.
type lruDebouncer struct {
	window   time.Duration
	lastSeen *expirable.LRU[string, time.Time]
	sync.Mutex
}

func NewDebouncer() Debouncer {
	return NewDebouncerWithWindow(DebounceWindow)
}

func NewDebouncerWithWindow(window time.Duration) Debouncer {
	return &lruDebouncer{
		window:   window,
		lastSeen: expirable.NewLRU[string, time.Time](debounceCacheSize, nil, window),
	}
}

func (d *lruDebouncer) ShouldProceed(key string) bool {
	d.Lock()
	defer d.Unlock()

	now := time.Now()

	if prior, ok := d.lastSeen.Get(key); ok && now.Sub(prior) < d.window {
		return false
	}

	d.lastSeen.Add(key, now)
	return true
}

// NoOpDebouncer never suppresses.  For tests.
type NoOpDebouncer struct {
}

func (d *NoOpDebouncer) ShouldProceed(key string) bool {
	return true
}

func UserActionDebounceKey(realm domain.RealmID, action domain.Action, subject domain.UserID) string {
	return fmt.Sprintf("%s:%s:%s", realm, action, subject)
}

func MembershipDebounceKey(realm domain.RealmID, subject domain.UserID, group domain.GroupID, operation string) string {
	return fmt.Sprintf("GM:%s:%s:%s:%s", realm, subject, group, operation)
}
