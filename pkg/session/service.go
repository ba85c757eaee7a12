package session

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/core/integrity"
	"github.com/matzehuels/choirstage/pkg/core/layout"
	"github.com/matzehuels/choirstage/pkg/core/zorder"
	"github.com/matzehuels/choirstage/pkg/errors"
	"github.com/matzehuels/choirstage/pkg/observability"
)

// maxCodeAttempts bounds retries when a generated code is already taken.
const maxCodeAttempts = 5

// LoadResult is a loaded chart together with its integrity report. Dangling
// references are reported, never dropped: the host asks the user to
// reassign or discard them.
type LoadResult struct {
	Session *Session         `json:"session"`
	Report  integrity.Report `json:"report"`
}

// Service implements session workflows on top of a Store: schema checks on
// load, normalization on save, and snapshot bookkeeping.
type Service struct {
	store  Store
	logger *log.Logger
	now    func() time.Time
}

// NewService creates a service. A nil logger discards log output.
func NewService(store Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// Store returns the underlying store.
func (s *Service) Store() Store { return s.store }

// Normalize returns the form a model is persisted in: legacy positions and
// block zIndex values normalized, then validated. The input is not modified.
func Normalize(m chart.Model) (chart.Model, error) {
	return prepare(m)
}

func prepare(m chart.Model) (chart.Model, error) {
	out := m.Clone()
	if out.SchemaVersion == 0 {
		out.SchemaVersion = chart.SchemaVersion
	}
	out.Seating = layout.NormalizeSeatingPositions(out.Seating)
	if len(out.Blocks) > 0 {
		out.Blocks = zorder.Normalize(out.Blocks)
	}
	if err := chart.Validate(out); err != nil {
		return m, err
	}
	return out, nil
}

// Create stores a new session under a fresh code.
func (s *Service) Create(ctx context.Context, name string, m chart.Model) (*Session, error) {
	name = strings.TrimSpace(name)
	if err := errors.ValidateTitle(name); err != nil {
		return nil, err
	}
	model, err := prepare(m)
	if err != nil {
		return nil, err
	}

	for range maxCodeAttempts {
		code, err := GenerateCode()
		if err != nil {
			return nil, err
		}
		if _, err := s.store.GetSession(ctx, code); !errors.Is(err, errors.ErrCodeSessionNotFound) {
			if err != nil {
				return nil, err
			}
			continue // taken
		}

		now := s.now().UTC()
		sess := &Session{Code: code, Name: name, Model: model, CreatedAt: now, UpdatedAt: now}
		start := time.Now()
		err = s.store.PutSession(ctx, sess)
		observability.Store().OnSave(ctx, code, time.Since(start), err)
		if err != nil {
			return nil, err
		}
		s.logger.Info("session created", "code", code, "name", name)
		return sess, nil
	}
	return nil, errors.New(errors.ErrCodeInternal, "could not allocate a free session code")
}

// Load retrieves a session, checks its schema version, and sweeps it for
// dangling references.
func (s *Service) Load(ctx context.Context, code string) (LoadResult, error) {
	if err := errors.ValidateSessionCode(code); err != nil {
		return LoadResult{}, err
	}
	start := time.Now()
	sess, err := s.store.GetSession(ctx, code)
	observability.Store().OnLoad(ctx, code, time.Since(start), err)
	if err != nil {
		return LoadResult{}, err
	}
	if err := chart.CheckSchema(sess.Model); err != nil {
		return LoadResult{}, err
	}
	return s.result(ctx, sess), nil
}

func (s *Service) result(ctx context.Context, sess *Session) LoadResult {
	report := integrity.Sweep(sess.Model)
	observability.Store().OnIntegrity(ctx, sess.Code, report.Count())
	if !report.Clean() {
		s.logger.Warn("session has dangling references",
			"code", sess.Code,
			"orphaned_members", len(report.OrphanedMembers),
			"dangling_seats", len(report.DanglingSeats),
			"dangling_seating", len(report.DanglingSeating))
	}
	return LoadResult{Session: sess, Report: report}
}

// Save replaces a session's chart. The model is validated, legacy positions
// and block zIndex values are normalized, and UpdatedAt is refreshed.
func (s *Service) Save(ctx context.Context, code string, m chart.Model) (*Session, error) {
	if err := errors.ValidateSessionCode(code); err != nil {
		return nil, err
	}
	model, err := prepare(m)
	if err != nil {
		return nil, err
	}
	sess, err := s.store.GetSession(ctx, code)
	if err != nil {
		return nil, err
	}
	sess.Model = model
	sess.UpdatedAt = s.now().UTC()

	start := time.Now()
	err = s.store.PutSession(ctx, sess)
	observability.Store().OnSave(ctx, code, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("session saved", "code", code)
	return sess, nil
}

// Rename changes a session's display name.
func (s *Service) Rename(ctx context.Context, code, name string) (*Session, error) {
	name = strings.TrimSpace(name)
	if err := errors.ValidateTitle(name); err != nil {
		return nil, err
	}
	sess, err := s.store.GetSession(ctx, code)
	if err != nil {
		return nil, err
	}
	sess.Name = name
	sess.UpdatedAt = s.now().UTC()
	if err := s.store.PutSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Delete removes a session and its snapshots.
func (s *Service) Delete(ctx context.Context, code string) error {
	if err := errors.ValidateSessionCode(code); err != nil {
		return err
	}
	if err := s.store.DeleteSession(ctx, code); err != nil {
		return err
	}
	s.logger.Info("session deleted", "code", code)
	return nil
}

// Snapshot stores an immutable copy of the session's current chart. When
// the session already holds SoftSnapshotLimit snapshots a warning is logged
// and the snapshot is still created.
func (s *Service) Snapshot(ctx context.Context, code, name string) (*Snapshot, error) {
	name = strings.TrimSpace(name)
	if err := errors.ValidateTitle(name); err != nil {
		return nil, err
	}
	sess, err := s.store.GetSession(ctx, code)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.ListSnapshots(ctx, code)
	if err != nil {
		return nil, err
	}
	if len(existing) >= SoftSnapshotLimit {
		s.logger.Warn("snapshot limit exceeded", "code", code, "count", len(existing)+1, "limit", SoftSnapshotLimit)
	}

	if name == "" {
		name = s.now().Format("2006-01-02 15:04")
	}
	snap := &Snapshot{
		ID:          uuid.NewString(),
		SessionCode: code,
		Name:        name,
		Model:       sess.Model.Clone(),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.PutSnapshot(ctx, snap); err != nil {
		return nil, err
	}
	observability.Store().OnSnapshot(ctx, code, len(existing)+1)
	s.logger.Info("snapshot created", "code", code, "id", snap.ID, "name", name)
	return snap, nil
}

// Snapshots lists a session's snapshots, newest first.
func (s *Service) Snapshots(ctx context.Context, code string) ([]Snapshot, error) {
	if err := errors.ValidateSessionCode(code); err != nil {
		return nil, err
	}
	return s.store.ListSnapshots(ctx, code)
}

// GetSnapshot retrieves one snapshot.
func (s *Service) GetSnapshot(ctx context.Context, code, id string) (*Snapshot, error) {
	if err := errors.ValidateSessionCode(code); err != nil {
		return nil, err
	}
	return s.store.GetSnapshot(ctx, code, id)
}

// DeleteSnapshot removes one snapshot.
func (s *Service) DeleteSnapshot(ctx context.Context, code, id string) error {
	if err := errors.ValidateSessionCode(code); err != nil {
		return err
	}
	return s.store.DeleteSnapshot(ctx, code, id)
}

// Restore replaces the session's chart with a snapshot's chart. The result
// carries the integrity report of the restored chart.
func (s *Service) Restore(ctx context.Context, code, id string) (LoadResult, error) {
	snap, err := s.GetSnapshot(ctx, code, id)
	if err != nil {
		return LoadResult{}, err
	}
	if err := chart.CheckSchema(snap.Model); err != nil {
		return LoadResult{}, err
	}
	sess, err := s.store.GetSession(ctx, code)
	if err != nil {
		return LoadResult{}, err
	}
	sess.Model = snap.Model.Clone()
	sess.UpdatedAt = s.now().UTC()
	if err := s.store.PutSession(ctx, sess); err != nil {
		return LoadResult{}, err
	}
	s.logger.Info("snapshot restored", "code", code, "id", id)
	return s.result(ctx, sess), nil
}
