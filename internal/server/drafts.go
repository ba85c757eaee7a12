package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/session"
)

type draftResponse struct {
	Pending bool `json:"pending"`
}

// draft returns the autosaver of a session, creating it on first use.
func (s *Server) draft(code string) *session.Autosaver {
	s.draftMu.Lock()
	defer s.draftMu.Unlock()
	a, ok := s.drafts[code]
	if !ok {
		a = session.ForSession(s.svc, code, s.autosaveDelay)
		s.drafts[code] = a
	}
	return a
}

// dropDraft closes and forgets a session's autosaver.
func (s *Server) dropDraft(ctx context.Context, code string) {
	s.draftMu.Lock()
	a, ok := s.drafts[code]
	delete(s.drafts, code)
	s.draftMu.Unlock()
	if ok {
		if err := a.Close(ctx); err != nil {
			s.logger.Debug("discard draft", "code", code, "error", err)
		}
	}
}

// closeDrafts flushes every pending draft.
func (s *Server) closeDrafts(ctx context.Context) {
	s.draftMu.Lock()
	drafts := s.drafts
	s.drafts = make(map[string]*session.Autosaver)
	s.draftMu.Unlock()
	for code, a := range drafts {
		if err := a.Close(ctx); err != nil {
			s.logger.Error("flush draft", "code", code, "error", err)
		}
	}
}

// saveDraft schedules a debounced save of the posted model. The model is
// checked up front so a bad draft fails the request instead of the save.
func (s *Server) saveDraft(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	var m chart.Model
	if err := s.decode(r, &m); err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := session.Normalize(m); err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.svc.Load(r.Context(), code); err != nil {
		s.writeError(w, r, err)
		return
	}
	a := s.draft(code)
	if err := a.Schedule(m); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, draftResponse{Pending: a.Pending()})
}

// getDraft reports whether a save is pending and the last save error.
func (s *Server) getDraft(w http.ResponseWriter, r *http.Request) {
	s.draftMu.Lock()
	a, ok := s.drafts[chi.URLParam(r, "code")]
	s.draftMu.Unlock()
	if !ok {
		writeJSON(w, http.StatusOK, draftResponse{})
		return
	}
	if err := a.Err(); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draftResponse{Pending: a.Pending()})
}

// flushDraft saves the pending draft now and returns the stored session.
func (s *Server) flushDraft(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	s.draftMu.Lock()
	a, ok := s.drafts[code]
	s.draftMu.Unlock()
	if ok {
		if err := a.Flush(r.Context()); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	res, err := s.svc.Load(r.Context(), code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
