// Package session persists seating charts as named sessions with
// point-in-time snapshots.
//
// A session is the single mutable "current" chart behind a short session
// code. A snapshot is an immutable copy of a session's chart, listable and
// restorable. The package defines the [Store] interface with three
// backends:
//   - [MemoryStore]: in-process maps for tests and single-process use
//   - [FileStore]: JSON files for the CLI
//   - [MongoStore]: MongoDB collections for the server
//
// Stores are plain values constructed by the host and passed to the code
// that needs them; there is no package-level client.
//
// # Usage
//
//	store := session.NewMemoryStore()
//	svc := session.NewService(store, logger)
//
//	sess, err := svc.Create(ctx, "Spring Concert", chart.New("Spring Concert"))
//	if err != nil {
//	    return err
//	}
//	res, err := svc.Load(ctx, sess.Code)
//	if !res.Report.Clean() {
//	    // surface orphaned members and dangling seats to the user
//	}
//
// Hosts that edit interactively save through an [Autosaver], which debounces
// bursts of edits into one write.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"time"

	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/errors"
)

// Snapshot limits.
const (
	// SoftSnapshotLimit is the advisory per-session snapshot count. Exceeding
	// it logs a warning; creation still succeeds.
	SoftSnapshotLimit = 100
)

// Session is the current chart of a session code.
type Session struct {
	Code      string      `json:"code" bson:"_id"`
	Name      string      `json:"name" bson:"name"`
	Model     chart.Model `json:"model" bson:"model"`
	CreatedAt time.Time   `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time   `json:"updatedAt" bson:"updated_at"`
}

// Snapshot is an immutable copy of a session's chart.
type Snapshot struct {
	ID          string      `json:"id" bson:"_id"`
	SessionCode string      `json:"sessionCode" bson:"session_code"`
	Name        string      `json:"name" bson:"name"`
	Model       chart.Model `json:"model" bson:"model"`
	CreatedAt   time.Time   `json:"createdAt" bson:"created_at"`
}

// Store is the interface for session storage backends.
//
// Lookups of missing entities return errors coded
// errors.ErrCodeSessionNotFound or errors.ErrCodeSnapshotNotFound. Stores
// must return models exactly as stored, including schema version and IDs.
type Store interface {
	// GetSession retrieves a session by code.
	GetSession(ctx context.Context, code string) (*Session, error)

	// PutSession creates or replaces a session.
	PutSession(ctx context.Context, sess *Session) error

	// DeleteSession removes a session and all of its snapshots.
	DeleteSession(ctx context.Context, code string) error

	// ListSnapshots returns a session's snapshots, newest first.
	ListSnapshots(ctx context.Context, code string) ([]Snapshot, error)

	// GetSnapshot retrieves one snapshot of a session.
	GetSnapshot(ctx context.Context, code, id string) (*Snapshot, error)

	// PutSnapshot stores a snapshot.
	PutSnapshot(ctx context.Context, snap *Snapshot) error

	// DeleteSnapshot removes one snapshot of a session.
	DeleteSnapshot(ctx context.Context, code, id string) error

	// Close releases backend resources.
	Close() error
}

// codeEncoding yields uppercase A-Z2-7 codes without padding.
var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateCode creates a random 8-character session code.
func GenerateCode() (string, error) {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "generate session code")
	}
	return codeEncoding.EncodeToString(b), nil
}

func sessionNotFound(code string) error {
	return errors.New(errors.ErrCodeSessionNotFound, "session %q not found", code)
}

func snapshotNotFound(code, id string) error {
	return errors.New(errors.ErrCodeSnapshotNotFound, "snapshot %q of session %q not found", id, code)
}

func cloneSession(s *Session) *Session {
	out := *s
	out.Model = s.Model.Clone()
	return &out
}

func cloneSnapshot(s *Snapshot) *Snapshot {
	out := *s
	out.Model = s.Model.Clone()
	return &out
}
