package chart

import (
	"encoding/json"
	"math"
	"slices"
	"strings"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// SchemaVersion is the only model version this build reads and writes.
const SchemaVersion = 2

// Block kinds.
const (
	KindSeating    = "seating"
	KindDecoration = "decoration"
)

// Seating block layouts.
const (
	LayoutGrid      = "grid"
	LayoutStaggered = "staggered"
)

// Upper bounds of a seating block grid.
const (
	MaxRows    = 50
	MaxColumns = 50
)

// Decoration types.
const (
	DecorationGap   = "gap"
	DecorationLabel = "label"
	DecorationIcon  = "icon"
)

// Legacy stage alignment modes.
const (
	AlignBalanced = "balanced"
	AlignGrid     = "grid"
)

// Piano positions.
const (
	PianoLeft  = "left"
	PianoRight = "right"
)

// Model generations.
const (
	GenerationLegacy = "legacy"
	GenerationCanvas = "canvas"
)

// =============================================================================
// Model
// =============================================================================

// Model is a complete seating chart: roster, voice sections, seating in
// either generation, and stage settings.
type Model struct {
	SchemaVersion int            `json:"schemaVersion" bson:"schema_version"`
	Title         string         `json:"title,omitempty" bson:"title,omitempty"`
	Roster        []RosterMember `json:"roster" bson:"roster" validate:"dive"`
	Sections      []Section      `json:"sections" bson:"sections" validate:"dive"`
	Seating       []SeatedMember `json:"seating,omitempty" bson:"seating,omitempty" validate:"dive"`
	Blocks        []Block        `json:"blocks,omitempty" bson:"blocks,omitempty" validate:"dive"`
	Settings      StageSettings  `json:"settings" bson:"settings"`
}

// RosterMember is a singer.
type RosterMember struct {
	ID        string `json:"id" bson:"id" validate:"required"`
	Name      string `json:"name" bson:"name" validate:"required"`
	SectionID string `json:"sectionId" bson:"section_id"`
}

// Section is a voice part.
type Section struct {
	ID    string `json:"id" bson:"id" validate:"required"`
	Name  string `json:"name" bson:"name" validate:"required"`
	Color string `json:"color" bson:"color" validate:"required"`
	Order int    `json:"order" bson:"order" validate:"gte=0"`
}

// Seat is a slot in a seating block. MemberID is empty for an empty seat.
type Seat struct {
	ID       string `json:"id" bson:"id" validate:"required"`
	Label    string `json:"label,omitempty" bson:"label,omitempty"`
	MemberID string `json:"memberId,omitempty" bson:"member_id,omitempty"`
}

// IsEmpty reports whether nobody is assigned to the seat.
func (s Seat) IsEmpty() bool { return s.MemberID == "" }

// SeatedMember places a roster member on a legacy stage row. Position is a
// sort key within the row; it need not be contiguous until normalized.
type SeatedMember struct {
	RosterID  string  `json:"rosterId" bson:"roster_id" validate:"required"`
	Position  float64 `json:"position" bson:"position"`
	RowNumber int     `json:"rowNumber" bson:"row_number"`
}

// UnmarshalJSON accepts a fractional rowNumber, flooring it and clamping it
// to zero.
func (s *SeatedMember) UnmarshalJSON(data []byte) error {
	type plain SeatedMember
	var raw struct {
		plain
		RowNumber float64 `json:"rowNumber"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = SeatedMember(raw.plain)
	s.RowNumber = floorRow(raw.RowNumber)
	return nil
}

func floorRow(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > math.MaxInt32:
		return math.MaxInt32
	}
	return int(math.Floor(v))
}

// StageSettings configures the legacy stage.
type StageSettings struct {
	NumberOfRows  int    `json:"numberOfRows" bson:"number_of_rows" validate:"gte=1"`
	AlignmentMode string `json:"alignmentMode" bson:"alignment_mode" validate:"oneof=balanced grid"`
	PianoPosition string `json:"pianoPosition" bson:"piano_position" validate:"oneof=left right"`
	Title         string `json:"title,omitempty" bson:"title,omitempty"`
}

// =============================================================================
// Block - Canvas Element
// =============================================================================

// Block is a canvas element. This is a discriminated union - check Kind to
// determine which fields are populated:
//
//	Seating ("seating"):
//	  - Layout, Rows, Columns, Seats
//
//	Decoration ("decoration"):
//	  - Decoration, Text, Width, Height (zero = per-type default)
//
// Rotation is carried for forward compatibility and is always 0.
type Block struct {
	ID       string  `json:"id" bson:"id" validate:"required"`
	Kind     string  `json:"kind" bson:"kind" validate:"oneof=seating decoration"`
	Name     string  `json:"name,omitempty" bson:"name,omitempty"`
	X        float64 `json:"x" bson:"x"`
	Y        float64 `json:"y" bson:"y"`
	ZIndex   int     `json:"zIndex" bson:"z_index"`
	Rotation float64 `json:"rotation" bson:"rotation" validate:"eq=0"`

	// Seating-specific
	Layout  string `json:"layout,omitempty" bson:"layout,omitempty"`
	Rows    int    `json:"rows,omitempty" bson:"rows,omitempty"`
	Columns int    `json:"columns,omitempty" bson:"columns,omitempty"`
	Seats   []Seat `json:"seats,omitempty" bson:"seats,omitempty" validate:"dive"`

	// Decoration-specific
	Decoration string  `json:"decoration,omitempty" bson:"decoration,omitempty"`
	Text       string  `json:"text,omitempty" bson:"text,omitempty"`
	Width      float64 `json:"width,omitempty" bson:"width,omitempty" validate:"gte=0"`
	Height     float64 `json:"height,omitempty" bson:"height,omitempty" validate:"gte=0"`
}

// IsSeating returns true if this is a seating block.
func (b *Block) IsSeating() bool { return b.Kind == KindSeating }

// IsDecoration returns true if this is a decoration block.
func (b *Block) IsDecoration() bool { return b.Kind == KindDecoration }

// DisplayName returns the name if set, otherwise the ID.
func (b *Block) DisplayName() string {
	if b.Name != "" {
		return b.Name
	}
	return b.ID
}

// =============================================================================
// Defaults
// =============================================================================

// DefaultSettings returns the settings of a fresh chart.
func DefaultSettings() StageSettings {
	return StageSettings{
		NumberOfRows:  3,
		AlignmentMode: AlignBalanced,
		PianoPosition: PianoLeft,
	}
}

// DefaultSections returns the four SATB voice parts.
func DefaultSections() []Section {
	return []Section{
		{ID: "soprano", Name: "Soprano", Color: "#e15759", Order: 0},
		{ID: "alto", Name: "Alto", Color: "#f28e2b", Order: 1},
		{ID: "tenor", Name: "Tenor", Color: "#4e79a7", Order: 2},
		{ID: "bass", Name: "Bass", Color: "#59a14f", Order: 3},
	}
}

// New returns an empty chart with default sections and settings.
func New(title string) Model {
	return Model{
		SchemaVersion: SchemaVersion,
		Title:         title,
		Roster:        []RosterMember{},
		Sections:      DefaultSections(),
		Settings:      DefaultSettings(),
	}
}

// =============================================================================
// Lookups
// =============================================================================

// Member returns the roster member with the given ID.
func (m *Model) Member(id string) (RosterMember, bool) {
	for _, r := range m.Roster {
		if r.ID == id {
			return r, true
		}
	}
	return RosterMember{}, false
}

// MemberByName returns the first roster member whose name matches,
// ignoring case and surrounding whitespace.
func (m *Model) MemberByName(name string) (RosterMember, bool) {
	name = strings.TrimSpace(name)
	for _, r := range m.Roster {
		if strings.EqualFold(strings.TrimSpace(r.Name), name) {
			return r, true
		}
	}
	return RosterMember{}, false
}

// Section returns the section with the given ID.
func (m *Model) Section(id string) (Section, bool) {
	for _, s := range m.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// BlockIndex returns the slice index of the block with the given ID, or -1.
func (m *Model) BlockIndex(id string) int {
	return slices.IndexFunc(m.Blocks, func(b Block) bool { return b.ID == id })
}

// SectionsByOrder returns the sections sorted by Order (stable).
func (m *Model) SectionsByOrder() []Section {
	out := slices.Clone(m.Sections)
	slices.SortStableFunc(out, func(a, b Section) int { return a.Order - b.Order })
	return out
}

// NormalizeSectionOrder returns sections sorted by Order with dense ranks
// 0..n-1. Relative order is preserved.
func NormalizeSectionOrder(sections []Section) []Section {
	out := slices.Clone(sections)
	slices.SortStableFunc(out, func(a, b Section) int { return a.Order - b.Order })
	for i := range out {
		out[i].Order = i
	}
	return out
}

// Generation reports which seating generation the model uses. A model with
// blocks is a canvas model; anything else is laid out on the legacy stage.
func (m *Model) Generation() string {
	if len(m.Blocks) > 0 {
		return GenerationCanvas
	}
	return GenerationLegacy
}

// =============================================================================
// Cloning
// =============================================================================

// Clone returns a deep copy of the model. Slices are never shared between
// the original and the copy, so callers can replace whole models atomically.
func (m Model) Clone() Model {
	out := m
	out.Roster = slices.Clone(m.Roster)
	out.Sections = slices.Clone(m.Sections)
	out.Seating = slices.Clone(m.Seating)
	out.Blocks = CloneBlocks(m.Blocks)
	return out
}

// CloneBlocks deep-copies a block slice including each block's seats.
func CloneBlocks(blocks []Block) []Block {
	if blocks == nil {
		return nil
	}
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = b
		out[i].Seats = slices.Clone(b.Seats)
	}
	return out
}
