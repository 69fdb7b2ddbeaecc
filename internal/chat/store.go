package chat

import (
	"sync"

	"quicksearch/internal/logging"
)

// Op names a store mutation.
type Op string

const (
	OpAppend  Op = "append"
	OpReplace Op = "replace"
	OpRemove  Op = "remove"
	OpReset   Op = "reset"
)

// Change describes one committed mutation. Last is the newest entry after the
// mutation (nil when the log is empty).
type Change struct {
	Op      Op
	Added   []Message
	Removed []string
	Last    Message
	Len     int
}

// Observer is notified after every committed mutation, in commit order.
// Observers run synchronously and must not mutate the store.
type Observer func(Change)

// Store is the ordered conversation log. It never holds two entries with the
// same identifier: the first occurrence wins and later duplicates are dropped.
type Store struct {
	mu      sync.RWMutex
	entries []Message
	ids     map[string]struct{}

	// notifyMu serializes observer delivery so observers see commits in order.
	notifyMu  sync.Mutex
	obsMu     sync.Mutex
	observers map[int]Observer
	nextObs   int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		ids:       make(map[string]struct{}),
		observers: make(map[int]Observer),
	}
}

// Subscribe registers an observer and returns a function that removes it.
func (s *Store) Subscribe(obs Observer) func() {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = obs
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

// commit releases the write lock and delivers the change to observers.
// Must be called with s.mu held for writing.
func (s *Store) commit(c Change) {
	if n := len(s.entries); n > 0 {
		c.Last = s.entries[n-1]
	}
	c.Len = len(s.entries)

	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.obsMu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for i := 0; i < s.nextObs; i++ {
		if obs, ok := s.observers[i]; ok {
			observers = append(observers, obs)
		}
	}
	s.obsMu.Unlock()

	for _, obs := range observers {
		obs(c)
	}
}

// Append adds messages to the end of the log, dropping any whose identifier
// is already present. It returns how many were added.
func (s *Store) Append(msgs ...Message) int {
	s.mu.Lock()
	added := s.admitLocked(msgs, "")
	if len(added) == 0 {
		s.mu.Unlock()
		return 0
	}
	s.entries = append(s.entries, added...)
	logging.StoreDebug("append %d message(s), len=%d", len(added), len(s.entries))
	s.commit(Change{Op: OpAppend, Added: added})
	return len(added)
}

// admitLocked filters msgs down to those whose ids are new, registering them.
// except names an id that is being replaced and may be reused.
func (s *Store) admitLocked(msgs []Message, except string) []Message {
	admitted := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		id := m.MessageID()
		if _, dup := s.ids[id]; dup && id != except {
			logging.StoreDebug("dropping duplicate message id %s", id)
			continue
		}
		s.ids[id] = struct{}{}
		if id == except {
			except = ""
		}
		admitted = append(admitted, m)
	}
	return admitted
}

// Replace atomically swaps the entry with the given id for the replacement
// messages, at the same position. It returns false, leaving the log untouched,
// when no entry has that id.
func (s *Store) Replace(id string, with ...Message) bool {
	s.mu.Lock()
	pos := s.indexLocked(id)
	if pos < 0 {
		s.mu.Unlock()
		return false
	}

	delete(s.ids, id)
	admitted := s.admitLocked(with, id)

	next := make([]Message, 0, len(s.entries)-1+len(admitted))
	next = append(next, s.entries[:pos]...)
	next = append(next, admitted...)
	next = append(next, s.entries[pos+1:]...)
	s.entries = next

	logging.StoreDebug("replace %s with %d message(s)", id, len(admitted))
	s.commit(Change{Op: OpReplace, Added: admitted, Removed: []string{id}})
	return true
}

// Update fully replaces the entry that shares m's identifier.
func (s *Store) Update(m Message) bool {
	return s.Replace(m.MessageID(), m)
}

// RemoveWhere drops every entry matching pred and returns how many were removed.
func (s *Store) RemoveWhere(pred func(Message) bool) int {
	s.mu.Lock()
	kept := s.entries[:0:0]
	var removed []string
	for _, m := range s.entries {
		if pred(m) {
			removed = append(removed, m.MessageID())
			delete(s.ids, m.MessageID())
			continue
		}
		kept = append(kept, m)
	}
	if len(removed) == 0 {
		s.mu.Unlock()
		return 0
	}
	s.entries = kept
	s.commit(Change{Op: OpRemove, Removed: removed})
	return len(removed)
}

// RemoveIDs drops the entries with the given identifiers.
func (s *Store) RemoveIDs(ids ...string) int {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return s.RemoveWhere(func(m Message) bool {
		_, ok := set[m.MessageID()]
		return ok
	})
}

// Reset clears the entire log.
func (s *Store) Reset() {
	s.mu.Lock()
	removed := make([]string, len(s.entries))
	for i, m := range s.entries {
		removed[i] = m.MessageID()
	}
	s.entries = nil
	s.ids = make(map[string]struct{})
	logging.Store("store reset (%d message(s) dropped)", len(removed))
	s.commit(Change{Op: OpReset, Removed: removed})
}

func (s *Store) indexLocked(id string) int {
	if _, ok := s.ids[id]; !ok {
		return -1
	}
	for i, m := range s.entries {
		if m.MessageID() == id {
			return i
		}
	}
	return -1
}

// Messages returns a snapshot of the log in order.
func (s *Store) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Contains reports whether an entry with the identifier exists.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Get returns the entry with the identifier.
func (s *Store) Get(id string) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.entries[i], true
	}
	return nil, false
}

// Last returns the newest entry, or nil.
func (s *Store) Last() Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return nil
	}
	return s.entries[len(s.entries)-1]
}

// LastWhere returns the newest entry matching pred, or nil.
func (s *Store) LastWhere(pred func(Message) bool) Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.entries) - 1; i >= 0; i-- {
		if pred(s.entries[i]) {
			return s.entries[i]
		}
	}
	return nil
}

// OfKind returns a predicate matching one message kind.
func OfKind(k Kind) func(Message) bool {
	return func(m Message) bool { return m.Kind() == k }
}
