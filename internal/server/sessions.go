package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/choirstage/pkg/buildinfo"
	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/core/integrity"
	"github.com/matzehuels/choirstage/pkg/core/layout"
	"github.com/matzehuels/choirstage/pkg/errors"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

type createSessionRequest struct {
	Name  string       `json:"name" validate:"max=200"`
	Model *chart.Model `json:"model,omitempty"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := s.decode(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	m := chart.New(req.Name)
	if req.Model != nil {
		m = *req.Model
	}
	sess, err := s.svc.Create(r.Context(), req.Name, m)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Load(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) saveSession(w http.ResponseWriter, r *http.Request) {
	var m chart.Model
	if err := s.decode(r, &m); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.svc.Save(r.Context(), chi.URLParam(r, "code"), m)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	s.dropDraft(r.Context(), code)
	if err := s.svc.Delete(r.Context(), code); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type layoutResponse struct {
	Generation string             `json:"generation"`
	Stage      layout.Stage       `json:"stage"`
	Placements []layout.Placement `json:"placements"`
}

// getLayout serves the computed placements. Optional width and height
// query parameters override the configured stage size.
func (s *Server) getLayout(w http.ResponseWriter, r *http.Request) {
	stage := s.stage()
	for name, dst := range map[string]*float64{"width": &stage.Width, "height": &stage.Height} {
		v := r.URL.Query().Get(name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "%s must be a positive number", name))
			return
		}
		*dst = f
	}

	res, err := s.svc.Load(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	m := res.Session.Model
	placements, hit := s.layouts.Compute(r.Context(), m, stage)
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	writeJSON(w, http.StatusOK, layoutResponse{
		Generation: m.Generation(),
		Stage:      stage,
		Placements: placements,
	})
}

func (s *Server) getOrphans(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Load(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res.Report)
}

type reassignRequest struct {
	SectionID string `json:"sectionId" validate:"required"`
}

func (s *Server) reassignOrphans(w http.ResponseWriter, r *http.Request) {
	var req reassignRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.apply(w, r, func(m chart.Model) (chart.Model, bool, error) {
		return s.editor.ReassignOrphans(m, req.SectionID)
	})
}

func (s *Server) discardDangling(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, s.editor.DiscardDangling)
}

type addMemberRequest struct {
	Name      string `json:"name" validate:"required"`
	SectionID string `json:"sectionId"`
}

func (s *Server) addMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.apply(w, r, func(m chart.Model) (chart.Model, bool, error) {
		out, _, err := s.editor.AddMember(m, req.Name, req.SectionID)
		return out, err == nil, err
	})
}

func (s *Server) removeMember(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.apply(w, r, func(m chart.Model) (chart.Model, bool, error) {
		return s.editor.RemoveMember(m, id)
	})
}

// deleteSection takes ?confirm=true and an optional ?fallback=<section id>.
// Without confirmation a section that still has members answers 409.
func (s *Server) deleteSection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q := r.URL.Query()
	opts := integrity.DeleteSectionOptions{
		Confirm:  strings.EqualFold(q.Get("confirm"), "true"),
		Fallback: q.Get("fallback"),
	}
	s.apply(w, r, func(m chart.Model) (chart.Model, bool, error) {
		return s.editor.DeleteSection(m, id, opts)
	})
}
