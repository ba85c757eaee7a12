// Package layout converts seating assignments into concrete coordinates.
//
// # Overview
//
// Both seating generations go through one placement abstraction, [Strategy].
// A strategy knows its container size and generates the slot centers for its
// seats; everything else (nearest-slot search, bounds, snapping, dragging)
// is shared:
//
//   - [RowReflow]: the legacy stage. Members sit on NumberOfRows horizontal
//     bands and are spread per row in balanced or grid alignment.
//   - [Grid]: a v2 seating block with rows × columns seats, each row
//     centered against the widest one.
//   - [Staggered]: like Grid, with every odd row shifted by half a seat.
//
// # Legacy Rows
//
// Legacy seating is a flat list of (rosterId, rowNumber, position) tuples.
// Positions are sort keys that may be fractional or negative while a drag is
// in progress; [NormalizeSeatingPositions] converts them to dense 0..k-1
// integers per row and must run before a model is persisted.
//
// # Blocks
//
// Block dimensions derive from rows/columns and fixed spacing constants
// ([SeatDiameter], [SeatGapX], ...) with minimum floors so a 1×1 block stays
// usable. [Regrid] inverts the size formula for resize handles.
//
// # Layout Query
//
// [Compute] returns a [Placement] for every member, block and seat of a
// model. It is cheap and stateless so hosts can call it on every pointer
// move.
package layout
