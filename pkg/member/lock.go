package member

import "sync"

// emailLocks serializes lookup+mutate sections per email, so two concurrent
// events for the same customer cannot both observe "no member" and create
// duplicates. Entries are reference counted and removed once unused.
type emailLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newEmailLocks() *emailLocks {
	return &emailLocks{entries: make(map[string]*lockEntry)}
}

// lock acquires the lock for email and returns its release function.
func (l *emailLocks) lock(email string) func() {
	l.mu.Lock()
	entry, ok := l.entries[email]
	if !ok {
		entry = &lockEntry{}
		l.entries[email] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, email)
		}
		l.mu.Unlock()
	}
}
