package chart

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/choirstage/pkg/errors"
)

// validate is shared; validator.Validate caches struct metadata and is safe
// for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the structural validity of a model: required fields,
// enumerations, name rules, ID uniqueness and the seat-count invariant.
// Dangling references are not validation errors; see package integrity.
func Validate(m Model) error {
	if err := CheckSchema(m); err != nil {
		return err
	}
	if err := validate.Struct(m); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s", describe(err))
	}
	if err := errors.ValidateTitle(m.Title); err != nil {
		return err
	}
	if err := validateSections(m.Sections); err != nil {
		return err
	}
	if err := validateRoster(m.Roster); err != nil {
		return err
	}
	return validateBlocks(m.Blocks)
}

// ValidateSettings checks stage settings on their own.
func ValidateSettings(s StageSettings) error {
	if err := validate.Struct(s); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidSettings, err, "%s", describe(err))
	}
	return errors.ValidateTitle(s.Title)
}

// ValidateSection checks a section against the rest of the section list.
// The section with the same ID in others is ignored so renames validate.
func ValidateSection(s Section, others []Section) error {
	if err := errors.ValidateSectionName(s.Name); err != nil {
		return err
	}
	if err := errors.ValidateColor(s.Color); err != nil {
		return err
	}
	name := strings.TrimSpace(s.Name)
	for _, o := range others {
		if o.ID != s.ID && strings.EqualFold(strings.TrimSpace(o.Name), name) {
			return errors.New(errors.ErrCodeInvalidSection, "section name %q already exists", name)
		}
	}
	return nil
}

func validateSections(sections []Section) error {
	seen := make(map[string]bool, len(sections))
	for _, s := range sections {
		if seen[s.ID] {
			return errors.New(errors.ErrCodeInvalidSection, "duplicate section id %q", s.ID)
		}
		seen[s.ID] = true
		if err := ValidateSection(s, sections); err != nil {
			return err
		}
	}
	return nil
}

func validateRoster(roster []RosterMember) error {
	seen := make(map[string]bool, len(roster))
	for _, r := range roster {
		if seen[r.ID] {
			return errors.New(errors.ErrCodeInvalidMember, "duplicate member id %q", r.ID)
		}
		seen[r.ID] = true
		if err := errors.ValidateMemberName(r.Name); err != nil {
			return err
		}
	}
	return nil
}

func validateBlocks(blocks []Block) error {
	seen := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		if seen[b.ID] {
			return errors.New(errors.ErrCodeInvalidBlock, "duplicate block id %q", b.ID)
		}
		seen[b.ID] = true

		switch b.Kind {
		case KindSeating:
			if b.Layout != LayoutGrid && b.Layout != LayoutStaggered {
				return errors.New(errors.ErrCodeInvalidBlock, "block %s: invalid layout %q", b.ID, b.Layout)
			}
			if b.Rows < 1 || b.Columns < 1 {
				return errors.New(errors.ErrCodeInvalidBlock, "block %s: rows and columns must be at least 1", b.ID)
			}
			if b.Rows > MaxRows || b.Columns > MaxColumns {
				return errors.New(errors.ErrCodeInvalidBlock,
					"block %s: %dx%d exceeds %dx%d", b.ID, b.Rows, b.Columns, MaxRows, MaxColumns)
			}
			if len(b.Seats) != b.Rows*b.Columns {
				return errors.New(errors.ErrCodeInvalidBlock,
					"block %s: has %d seats, want %d", b.ID, len(b.Seats), b.Rows*b.Columns)
			}
		case KindDecoration:
			switch b.Decoration {
			case DecorationGap, DecorationLabel, DecorationIcon:
			default:
				return errors.New(errors.ErrCodeInvalidBlock, "block %s: invalid decoration %q", b.ID, b.Decoration)
			}
		}
	}
	return nil
}

// describe turns validator errors into a short field list.
func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "invalid chart"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
