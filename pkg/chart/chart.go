package chart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/choirstage/pkg/errors"
)

// MarshalModel serializes a model to indented JSON.
func MarshalModel(m Model) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeModelTo(m, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalModel parses JSON into a model and checks its schema version.
func UnmarshalModel(data []byte) (Model, error) {
	return readModelFrom(bytes.NewReader(data))
}

// WriteFile writes a model to a JSON file.
func WriteFile(m Model, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeModelTo(m, f)
}

// Write writes a model as JSON to w.
func Write(m Model, w io.Writer) error {
	return writeModelTo(m, w)
}

// ReadFile reads a model from a JSON file.
func ReadFile(path string) (Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return Model{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readModelFrom(f)
}

// Read reads a JSON model from r.
func Read(r io.Reader) (Model, error) {
	return readModelFrom(r)
}

// CheckSchema rejects models written for another schema version.
func CheckSchema(m Model) error {
	if m.SchemaVersion != SchemaVersion {
		return errors.New(errors.ErrCodeSchemaMismatch,
			"unsupported schema version %d (want %d)", m.SchemaVersion, SchemaVersion)
	}
	return nil
}

func writeModelTo(m Model, w io.Writer) error {
	if m.SchemaVersion == 0 {
		m.SchemaVersion = SchemaVersion
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readModelFrom(r io.Reader) (Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return Model{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode chart")
	}
	if err := CheckSchema(m); err != nil {
		return Model{}, err
	}
	if m.Roster == nil {
		m.Roster = []RosterMember{}
	}
	if m.Sections == nil {
		m.Sections = []Section{}
	}
	return m, nil
}
