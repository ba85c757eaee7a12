// Package chart provides the data model and serialization format for choir
// seating charts.
//
// This package defines the canonical wire format for choirstage data, used
// for JSON files, API bodies, MongoDB documents and cache keys. The same
// struct carries both seating generations:
//
//   - Legacy rows: [Model.Seating] holds [SeatedMember] tuples placed on the
//     implicit stage by [StageSettings].
//   - Canvas blocks: [Model.Blocks] holds [Block] values that are either
//     seating blocks (rows × columns of [Seat]) or decorations.
//
// # Schema Version
//
// Every model carries a SchemaVersion. Readers reject any version other than
// [SchemaVersion] with errors.ErrCodeSchemaMismatch; there is no in-place
// migration.
//
// # Serialization
//
//	{
//	  "schemaVersion": 2,
//	  "roster": [{"id": "m1", "name": "Alice", "sectionId": "soprano"}],
//	  "sections": [{"id": "soprano", "name": "Soprano", "color": "#e15759", "order": 0}],
//	  "blocks": [{"id": "b1", "kind": "seating", "layout": "grid", "rows": 1, "columns": 2,
//	              "seats": [{"id": "s1", "memberId": "m1"}, {"id": "s2"}]}],
//	  "settings": {"numberOfRows": 3, "alignmentMode": "balanced", "pianoPosition": "left"}
//	}
//
// Use [ReadFile]/[WriteFile] for files and [Marshal]/[Unmarshal] for bytes.
// Models are values: editing code clones a model, changes the clone and
// hands the whole new model back (see [Model.Clone]).
package chart
