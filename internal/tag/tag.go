// Package tag implements the textual type identifiers attached to serialized
// nodes.
//
// Wire grammar:
//
//	!name            unversioned local tag
//	!name;2          local tag at version 2
//	!name;1.5        local tag at version 1.5
//	!!std            standard tag, never versioned
//
// A Tag's Name is everything after the first '!', so the standard tag
// "!!omap" has the name "!omap". Use Standard to build such names.
package tag

import (
	"errors"
	"fmt"
	"strings"
)

// Separator divides a tag name from its version.
const Separator = ";"

// Tag errors
var (
	ErrInvalidTag     = errors.New("invalid tag")
	ErrInvalidVersion = errors.New("invalid tag version")
)

// Tag is a tag name plus an optional version.
type Tag struct {
	Name    string
	Version Version
}

// New returns a Tag after validating the name and version.
// Any is accepted here because loaders register against it; it cannot be
// rendered.
func New(name string, version Version) (Tag, error) {
	if err := ValidateName(name); err != nil {
		return Tag{}, err
	}
	if IsStandard(name) && !version.IsNone() {
		return Tag{}, fmt.Errorf("%w: standard tag %q cannot carry a version", ErrInvalidTag, name)
	}
	if !version.valid() {
		return Tag{}, fmt.Errorf("%w: %v", ErrInvalidVersion, version.n)
	}
	return Tag{Name: name, Version: version}, nil
}

// Standard returns the name of a standard tag, e.g. Standard("omap") is the
// name rendered as "!!omap".
func Standard(name string) string {
	return "!" + name
}

// IsStandard reports whether name belongs to the double-bang namespace.
func IsStandard(name string) bool {
	return strings.HasPrefix(name, "!")
}

// ValidateName checks that a tag name is non-empty and free of the version
// separator and whitespace.
func ValidateName(name string) error {
	switch {
	case name == "" || name == "!":
		return fmt.Errorf("%w: empty name", ErrInvalidTag)
	case strings.Contains(name, Separator):
		return fmt.Errorf("%w: name %q contains version separator %q", ErrInvalidTag, name, Separator)
	case strings.ContainsAny(name, " \t\r\n"):
		return fmt.Errorf("%w: name %q contains whitespace", ErrInvalidTag, name)
	}
	return nil
}

// Parse reads a tag in wire form. The leading '!' is required.
func Parse(s string) (Tag, error) {
	if !strings.HasPrefix(s, "!") {
		return Tag{}, fmt.Errorf("%w: %q does not start with '!'", ErrInvalidTag, s)
	}
	body := s[1:]

	if IsStandard(body) {
		if err := ValidateName(body); err != nil {
			return Tag{}, err
		}
		return Tag{Name: body}, nil
	}

	name, raw, versioned := strings.Cut(body, Separator)
	if err := ValidateName(name); err != nil {
		return Tag{}, err
	}
	if !versioned {
		return Tag{Name: name}, nil
	}

	version, err := ParseVersion(raw)
	if err != nil {
		return Tag{}, fmt.Errorf("tag %q: %w", s, err)
	}
	return Tag{Name: name, Version: version}, nil
}

// MustParse is Parse that panics on error. Intended for constants in tests
// and package initialization.
func MustParse(s string) Tag {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// String renders the tag in wire form. An Any version renders as the bare
// name followed by ";*", which Parse rejects; it is meant for diagnostics.
func (t Tag) String() string {
	switch {
	case t.Version.IsConcrete():
		return "!" + t.Name + Separator + t.Version.String()
	case t.Version.IsAny():
		return "!" + t.Name + Separator + "*"
	default:
		return "!" + t.Name
	}
}

// IsStandard reports whether the tag is in the double-bang namespace.
func (t Tag) IsStandard() bool {
	return IsStandard(t.Name)
}
