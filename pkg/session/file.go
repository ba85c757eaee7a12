package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/matzehuels/choirstage/pkg/errors"
)

// FileStore is a file-based session store for CLI applications.
// Each session is a directory holding session.json and a snapshots/
// directory with one JSON file per snapshot.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a new file-based session store.
// If baseDir is empty, defaults to ~/.config/choirstage/sessions/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "choirstage", "sessions")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Path returns the base directory for session files.
func (s *FileStore) Path() string {
	return s.baseDir
}

// safeName rejects codes and IDs that could escape the base directory.
func safeName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return errors.New(errors.ErrCodeInvalidPath, "invalid name %q", name)
	}
	return nil
}

func (s *FileStore) sessionDir(code string) string {
	return filepath.Join(s.baseDir, code)
}

func (s *FileStore) sessionPath(code string) string {
	return filepath.Join(s.sessionDir(code), "session.json")
}

func (s *FileStore) snapshotDir(code string) string {
	return filepath.Join(s.sessionDir(code), "snapshots")
}

func (s *FileStore) snapshotPath(code, id string) string {
	return filepath.Join(s.snapshotDir(code), id+".json")
}

func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(errors.ErrCodeStorage, err, "read %s", filepath.Base(path))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, errors.Wrap(errors.ErrCodeStorage, err, "parse %s", filepath.Base(path))
	}
	return true, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "marshal %s", filepath.Base(path))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create %s", filepath.Dir(path))
	}
	// Write to a temp file and rename so readers never see partial JSON.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "write %s", filepath.Base(path))
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeStorage, err, "write %s", filepath.Base(path))
	}
	return nil
}

func (s *FileStore) GetSession(ctx context.Context, code string) (*Session, error) {
	if err := safeName(code); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sess Session
	ok, err := readJSON(s.sessionPath(code), &sess)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, sessionNotFound(code)
	}
	return &sess, nil
}

func (s *FileStore) PutSession(ctx context.Context, sess *Session) error {
	if err := safeName(sess.Code); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.sessionPath(sess.Code), sess)
}

func (s *FileStore) DeleteSession(ctx context.Context, code string) error {
	if err := safeName(code); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.sessionPath(code)); os.IsNotExist(err) {
		return sessionNotFound(code)
	}
	if err := os.RemoveAll(s.sessionDir(code)); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "remove session %s", code)
	}
	return nil
}

func (s *FileStore) ListSnapshots(ctx context.Context, code string) ([]Snapshot, error) {
	if err := safeName(code); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := os.Stat(s.sessionPath(code)); os.IsNotExist(err) {
		return nil, sessionNotFound(code)
	}
	entries, err := os.ReadDir(s.snapshotDir(code))
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read snapshot dir")
	}

	out := make([]Snapshot, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		var snap Snapshot
		ok, err := readJSON(filepath.Join(s.snapshotDir(code), entry.Name()), &snap)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, snap)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *FileStore) GetSnapshot(ctx context.Context, code, id string) (*Snapshot, error) {
	if err := safeName(code); err != nil {
		return nil, err
	}
	if err := safeName(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap Snapshot
	ok, err := readJSON(s.snapshotPath(code, id), &snap)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, snapshotNotFound(code, id)
	}
	return &snap, nil
}

func (s *FileStore) PutSnapshot(ctx context.Context, snap *Snapshot) error {
	if err := safeName(snap.SessionCode); err != nil {
		return err
	}
	if err := safeName(snap.ID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.sessionPath(snap.SessionCode)); os.IsNotExist(err) {
		return sessionNotFound(snap.SessionCode)
	}
	return writeJSON(s.snapshotPath(snap.SessionCode, snap.ID), snap)
}

func (s *FileStore) DeleteSnapshot(ctx context.Context, code, id string) error {
	if err := safeName(code); err != nil {
		return err
	}
	if err := safeName(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.snapshotPath(code, id)); err != nil {
		if os.IsNotExist(err) {
			return snapshotNotFound(code, id)
		}
		return errors.Wrap(errors.ErrCodeStorage, err, "remove snapshot %s", id)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
