// Package pkg provides the core libraries for Choirstage seating charts.
//
// # Overview
//
// Choirstage arranges a choir on stage. A chart holds a roster of singers
// grouped into voice sections, and places them either on legacy stage rows
// or on a free-form canvas of seating blocks and decorations. The pkg
// directory is organized into these areas:
//
//  1. [chart] - The chart model, its JSON form and structural validation
//  2. [core] - Geometry and placement (layout, snapping, drag, stacking, integrity)
//  3. [editor] - Editing commands that propose a new chart from an old one
//  4. [session] - Persistence of charts as sessions with snapshots
//  5. [cache] - Content-addressed layout caching
//
// # Architecture
//
// The typical data flow:
//
//	Editing command (move, resize, assign, drop, reorder)
//	         ↓
//	    [editor] package (new model + applied flag)
//	         ↓
//	    [session] package (normalize, validate, store)
//	         ↓
//	    [core/layout] package (placements, cached by [cache])
//	         ↓
//	    JSON placements for the host
//
// # Quick Start
//
// Place a singer on a seating block and lay out the result:
//
//	import (
//	    "github.com/matzehuels/choirstage/pkg/chart"
//	    "github.com/matzehuels/choirstage/pkg/core/layout"
//	    "github.com/matzehuels/choirstage/pkg/editor"
//	)
//
//	e := editor.New()
//	m := chart.New("Spring Concert")
//	m, ann, _ := e.AddMember(m, "Ann", "alto")
//	m, block, _ := e.AddSeatingBlock(m, editor.SeatingSpec{Rows: 2, Columns: 4})
//	m, _, _ = e.ProposeSeatAssignment(m, block.ID, 0, editor.Assignment{MemberID: ann.ID})
//
//	placements := layout.Compute(m, layout.DefaultStage)
//
// # Main Packages
//
// [chart] - Model types (roster, sections, legacy seating, blocks, settings),
// schema version checks and validation.
//
// [core/geom] - Points, sizes and rectangles in canvas units.
//
// [core/layout] - Row reflow for the legacy stage, grid and staggered seat
// strategies for blocks, and [layout.Compute] for the full placement list.
//
// [core/snap] - Edge and center alignment of a dragged block to its
// neighbours.
//
// [core/drag] - Viewport transforms and drop target resolution for tokens.
//
// [core/zorder] - Stacking order of canvas blocks.
//
// [core/integrity] - Detection and resolution of dangling references after
// singers or sections are removed.
//
// [errors] - Coded errors shared by the editor, CLI and HTTP API.
//
// [observability] - Hook registry for store, layout and cache events.
//
// [buildinfo] - Version information stamped at build time.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/core/layout/...        # Specific package
//	go test -run Example                 # Examples only
//
// [chart]: https://pkg.go.dev/github.com/matzehuels/choirstage/pkg/chart
// [core]: https://pkg.go.dev/github.com/matzehuels/choirstage/pkg/core
// [core/geom]: https://pkg.go.dev/github.com/matzehuels/choirstage/pkg/core/geom
// [core/layout]: https://pkg.go.dev/github.com/matzehuels/choirstage/pkg/core/layout
// [core/snap]: https://pkg.go.dev/github.com/matzehuels/choirstage/pkg/core/snap
// [core/drag]: https://pkg.go.dev/github.com/matzehuels/choirstage/pkg/core/drag
// [core/zorder]: https://pkg.go.dev/github.com/matzehuels/choirstage/pkg/core/zorder
// [core/integrity]: https://pkg.go.dev/github.com/matzehuels/choirstage/pkg/core/integrity
// [editor]: https://pkg.go.dev/github.com/matzehuels/choirstage/pkg/editor
// [session]: https://pkg.go.dev/github.com/matzehuels/choirstage/pkg/session
// [cache]: https://pkg.go.dev/github.com/matzehuels/choirstage/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/choirstage/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/choirstage/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/choirstage/pkg/buildinfo
// [layout.Compute]: https://pkg.go.dev/github.com/matzehuels/choirstage/pkg/core/layout#Compute
package pkg
