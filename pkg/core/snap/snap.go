// Package snap aligns a moving canvas element to the edges of its siblings.
//
// Snapping is resolved independently on each axis. On the X axis the moving
// element's left and right edges are compared against every sibling's left
// and right edges; on the Y axis its top and bottom edges against the
// siblings' top and bottom edges. The smallest delta within the threshold
// wins and is added to the proposed position.
//
// Resolution is O(elements), deterministic and free of hidden state.
package snap

import (
	"math"

	"github.com/matzehuels/choirstage/pkg/core/geom"
)

// DefaultThreshold is the snap distance in canvas units.
const DefaultThreshold = 14.0

// Guide axes.
const (
	AxisX = "x" // vertical guide line at Position
	AxisY = "y" // horizontal guide line at Position
)

// Element is a snap target or the moving element itself.
type Element struct {
	ID     string
	Bounds geom.Rect
}

// Options configures [Resolve].
type Options struct {
	// Threshold is the maximum snap distance, inclusive. Zero selects
	// DefaultThreshold; a negative value disables snapping.
	Threshold float64
}

func (o Options) threshold() float64 {
	if o.Threshold == 0 {
		return DefaultThreshold
	}
	return o.Threshold
}

// Guide is an alignment line the host may draw while dragging.
type Guide struct {
	Axis     string  `json:"axis"`
	Position float64 `json:"position"`
	TargetID string  `json:"targetId"`
}

// Result is the outcome of a snap resolution.
type Result struct {
	Point    geom.Point `json:"point"`
	SnappedX bool       `json:"snappedX"`
	SnappedY bool       `json:"snappedY"`
	Guides   []Guide    `json:"guides,omitempty"`
}

// Snapped reports whether either axis snapped.
func (r Result) Snapped() bool { return r.SnappedX || r.SnappedY }

// candidate tracks the best delta found so far on one axis.
type candidate struct {
	ok     bool
	delta  float64
	guide  Guide
	thresh float64
}

func (c *candidate) consider(delta, edge float64, axis, target string) {
	dist := math.Abs(delta)
	if dist > c.thresh {
		return
	}
	// Strict comparison keeps the first candidate on ties.
	if c.ok && dist >= math.Abs(c.delta) {
		return
	}
	c.ok = true
	c.delta = delta
	c.guide = Guide{Axis: axis, Position: edge, TargetID: target}
}

// Resolve snaps the element identified by movingID to proposed, its new
// top-left corner. The moving element's size is taken from its entry in
// elements; if it is absent the proposed point is returned unchanged.
func Resolve(movingID string, proposed geom.Point, elements []Element, opts Options) Result {
	res := Result{Point: proposed}

	var size geom.Size
	found := false
	for _, e := range elements {
		if e.ID == movingID {
			size, found = e.Bounds.Size(), true
			break
		}
	}
	thresh := opts.threshold()
	if !found || thresh < 0 {
		return res
	}

	moving := geom.EdgesOf(proposed, size)
	bestX := candidate{thresh: thresh}
	bestY := candidate{thresh: thresh}

	for _, e := range elements {
		if e.ID == movingID {
			continue
		}
		other := e.Bounds.Edges()
		for _, me := range moving.Vertical() {
			for _, oe := range other.Vertical() {
				bestX.consider(oe-me, oe, AxisX, e.ID)
			}
		}
		for _, me := range moving.Horizontal() {
			for _, oe := range other.Horizontal() {
				bestY.consider(oe-me, oe, AxisY, e.ID)
			}
		}
	}

	if bestX.ok {
		res.Point.X += bestX.delta
		res.SnappedX = true
		res.Guides = append(res.Guides, bestX.guide)
	}
	if bestY.ok {
		res.Point.Y += bestY.delta
		res.SnappedY = true
		res.Guides = append(res.Guides, bestY.guide)
	}
	return res
}
