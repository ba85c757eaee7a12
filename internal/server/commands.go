package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/core/drag"
	"github.com/matzehuels/choirstage/pkg/core/geom"
	"github.com/matzehuels/choirstage/pkg/core/zorder"
	"github.com/matzehuels/choirstage/pkg/editor"
	"github.com/matzehuels/choirstage/pkg/session"
)

// commandResponse is returned by every command endpoint. When Applied is
// false the model is the stored one, unchanged.
type commandResponse struct {
	Applied bool             `json:"applied"`
	Session *session.Session `json:"session"`
}

// apply loads the session, runs cmd and saves the result if it applied.
func (s *Server) apply(w http.ResponseWriter, r *http.Request, cmd func(chart.Model) (chart.Model, bool, error)) {
	ctx := r.Context()
	code := chi.URLParam(r, "code")
	res, err := s.svc.Load(ctx, code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	m, applied, err := cmd(res.Session.Model)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.command(r, applied)
	if !applied {
		writeJSON(w, http.StatusOK, commandResponse{Applied: false, Session: res.Session})
		return
	}

	sess, err := s.svc.Save(ctx, code, m)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Applied: true, Session: sess})
}

type moveRequest struct {
	BlockID string  `json:"blockId" validate:"required"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

func (s *Server) moveBlock(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.apply(w, r, func(m chart.Model) (chart.Model, bool, error) {
		return s.editor.ProposeMove(m, req.BlockID, geom.Point{X: req.X, Y: req.Y})
	})
}

type resizeRequest struct {
	BlockID string  `json:"blockId" validate:"required"`
	Width   float64 `json:"width" validate:"gt=0"`
	Height  float64 `json:"height" validate:"gt=0"`
}

func (s *Server) resizeBlock(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.apply(w, r, func(m chart.Model) (chart.Model, bool, error) {
		return s.editor.ProposeResize(m, req.BlockID, req.Width, req.Height)
	})
}

// assignRequest assigns by memberId, by name (creating the member when no
// one has that name), or clears the seat when both are empty.
type assignRequest struct {
	BlockID   string `json:"blockId" validate:"required"`
	SeatIndex int    `json:"seatIndex" validate:"gte=0"`
	MemberID  string `json:"memberId"`
	Name      string `json:"name"`
}

func (s *Server) assignSeat(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	a := editor.Assignment{MemberID: req.MemberID, Name: req.Name}
	s.apply(w, r, func(m chart.Model) (chart.Model, bool, error) {
		return s.editor.ProposeSeatAssignment(m, req.BlockID, req.SeatIndex, a)
	})
}

type reorderRequest struct {
	BlockID   string `json:"blockId" validate:"required"`
	Direction string `json:"direction" validate:"oneof=forward backward front back"`
}

func (s *Server) reorderBlock(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.apply(w, r, func(m chart.Model) (chart.Model, bool, error) {
		switch req.Direction {
		case "front":
			return s.editor.BringToFront(m, req.BlockID)
		case "back":
			return s.editor.SendToBack(m, req.BlockID)
		}
		dir, err := zorder.ParseDirection(req.Direction)
		if err != nil {
			return m, false, err
		}
		return s.editor.Reorder(m, req.BlockID, dir)
	})
}

// dropRequest moves the token sitting in a seat to wherever it was
// released. X and Y are canvas coordinates unless a viewport is given, in
// which case they are screen coordinates.
type dropRequest struct {
	BlockID   string         `json:"blockId" validate:"required"`
	SeatIndex int            `json:"seatIndex" validate:"gte=0"`
	X         float64        `json:"x"`
	Y         float64        `json:"y"`
	Viewport  *drag.Viewport `json:"viewport,omitempty"`
}

func (s *Server) dropToken(w http.ResponseWriter, r *http.Request) {
	var req dropRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	point := geom.Point{X: req.X, Y: req.Y}
	if req.Viewport != nil {
		point = req.Viewport.ToStage(point)
	}
	s.apply(w, r, func(m chart.Model) (chart.Model, bool, error) {
		return s.editor.DropToken(m, req.BlockID, req.SeatIndex, point)
	})
}
