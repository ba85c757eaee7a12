package session

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps sessions in process memory. Values are deep-copied on
// the way in and out, so callers never share slices with the store.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	snapshots map[string]map[string]*Snapshot // code -> id -> snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:  make(map[string]*Session),
		snapshots: make(map[string]map[string]*Snapshot),
	}
}

func (s *MemoryStore) GetSession(ctx context.Context, code string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[code]
	if !ok {
		return nil, sessionNotFound(code)
	}
	return cloneSession(sess), nil
}

func (s *MemoryStore) PutSession(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Code] = cloneSession(sess)
	return nil
}

func (s *MemoryStore) DeleteSession(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[code]; !ok {
		return sessionNotFound(code)
	}
	delete(s.sessions, code)
	delete(s.snapshots, code)
	return nil
}

func (s *MemoryStore) ListSnapshots(ctx context.Context, code string) ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.sessions[code]; !ok {
		return nil, sessionNotFound(code)
	}
	out := make([]Snapshot, 0, len(s.snapshots[code]))
	for _, snap := range s.snapshots[code] {
		out = append(out, *cloneSnapshot(snap))
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) GetSnapshot(ctx context.Context, code, id string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[code][id]
	if !ok {
		return nil, snapshotNotFound(code, id)
	}
	return cloneSnapshot(snap), nil
}

func (s *MemoryStore) PutSnapshot(ctx context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[snap.SessionCode]; !ok {
		return sessionNotFound(snap.SessionCode)
	}
	if s.snapshots[snap.SessionCode] == nil {
		s.snapshots[snap.SessionCode] = make(map[string]*Snapshot)
	}
	s.snapshots[snap.SessionCode][snap.ID] = cloneSnapshot(snap)
	return nil
}

func (s *MemoryStore) DeleteSnapshot(ctx context.Context, code, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snapshots[code][id]; !ok {
		return snapshotNotFound(code, id)
	}
	delete(s.snapshots[code], id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)

// sortNewestFirst orders snapshots by creation time, newest first. Equal
// timestamps fall back to ID so listings are deterministic.
func sortNewestFirst(snaps []Snapshot) {
	slices.SortFunc(snaps, func(a, b Snapshot) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
