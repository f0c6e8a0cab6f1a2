package tag

import (
	"cmp"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type versionKind uint8

const (
	kindNone versionKind = iota
	kindConcrete
	kindAny
)

// Version is a tag version: absent, a concrete ordinal or the Any sentinel.
// The zero value is None. Versions are comparable and usable as map keys.
type Version struct {
	kind versionKind
	n    float64
}

var (
	// None marks an unversioned tag.
	None = Version{}
	// Any matches every concrete version at load time.
	Any = Version{kind: kindAny}
)

// V returns the concrete version n. Integer and float ordinals share one
// numeric space, so V(2) and V(2.0) are the same version.
func V(n float64) Version {
	return Version{kind: kindConcrete, n: n}
}

// ParseVersion reads a decimal integer or float literal.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return None, fmt.Errorf("%w: empty version", ErrInvalidVersion)
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return None, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	v := V(n)
	if !v.valid() {
		return None, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	return v, nil
}

func (v Version) valid() bool {
	if v.kind != kindConcrete {
		return true
	}
	return !math.IsNaN(v.n) && !math.IsInf(v.n, 0)
}

func (v Version) IsNone() bool     { return v.kind == kindNone }
func (v Version) IsAny() bool      { return v.kind == kindAny }
func (v Version) IsConcrete() bool { return v.kind == kindConcrete }

// Number returns the ordinal of a concrete version and false otherwise.
func (v Version) Number() (float64, bool) {
	return v.n, v.kind == kindConcrete
}

// Compare orders versions: None < concrete (numerically) < Any.
func (v Version) Compare(o Version) int {
	if c := cmp.Compare(v.kind, o.kind); c != 0 {
		// kindAny sorts above kindConcrete, kindNone below.
		return c
	}
	if v.kind == kindConcrete {
		return cmp.Compare(v.n, o.n)
	}
	return 0
}

// String renders concrete versions canonically, without trailing zeros.
func (v Version) String() string {
	switch v.kind {
	case kindConcrete:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case kindAny:
		return "any"
	default:
		return "none"
	}
}

// Validate rejects NaN and infinite ordinals.
func (v Version) Validate() error {
	if !v.valid() {
		return fmt.Errorf("%w: %v", ErrInvalidVersion, v.n)
	}
	return nil
}
