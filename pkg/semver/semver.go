// Package semver models the dotted versions pqs compares rules against:
// the project's PHP version and an optional framework (Symfony) version.
//
// Comparisons operate at major.minor granularity. The patch component is
// parsed and carried for display but never affects ordering.
package semver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrParse is matched by every *ParseError.
var ErrParse = errors.New("invalid version")

// ParseError reports a version string that could not be parsed.
type ParseError struct {
	Version string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bad version %q: %s", e.Version, e.Message)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// Version is an immutable major.minor.patch triple.
type Version struct {
	Major int
	Minor int
	Patch int
}

// Parse accepts "<major>.<minor>.<patch>". Components past the third are
// validated as numeric and then ignored.
func Parse(s string) (Version, error) {
	parts, err := components(s)
	if err != nil {
		return Version{}, err
	}
	if len(parts) < 3 {
		return Version{}, &ParseError{Version: s, Message: "want at least major.minor.patch"}
	}
	return Version{Major: parts[0], Minor: parts[1], Patch: parts[2]}, nil
}

// ParseShort accepts one to three numeric components, filling the missing
// ones with zero ("8" is 8.0.0, "6.4" is 6.4.0). It is used for the version
// operand of a constraint and for framework versions given as "x.y".
func ParseShort(s string) (Version, error) {
	parts, err := components(s)
	if err != nil {
		return Version{}, err
	}
	if len(parts) > 3 {
		return Version{}, &ParseError{Version: s, Message: "too many components"}
	}
	for len(parts) < 3 {
		parts = append(parts, 0)
	}
	return Version{Major: parts[0], Minor: parts[1], Patch: parts[2]}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level tables.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func components(s string) ([]int, error) {
	if s == "" {
		return nil, &ParseError{Version: s, Message: "empty"}
	}
	fields := strings.Split(s, ".")
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			return nil, &ParseError{Version: s, Message: "empty component"}
		}
		for _, r := range f {
			if r < '0' || r > '9' {
				return nil, &ParseError{Version: s, Message: fmt.Sprintf("component %q is not numeric", f)}
			}
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, &ParseError{Version: s, Message: err.Error()}
		}
		out = append(out, n)
	}
	return out, nil
}

// FromEncodedInt decodes PHP's PHP_VERSION_ID form
// (major*10000 + minor*100 + patch).
func FromEncodedInt(id int) Version {
	return Version{
		Major: id / 10000,
		Minor: (id % 10000) / 100,
		Patch: id % 100,
	}
}

// Compare orders a and b on (major, minor), returning -1, 0 or 1.
func Compare(a, b Version) int {
	switch {
	case a.Major != b.Major:
		return sign(a.Major - b.Major)
	case a.Minor != b.Minor:
		return sign(a.Minor - b.Minor)
	}
	return 0
}

// Compare orders v against other; see the package-level Compare.
func (v Version) Compare(other Version) int { return Compare(v, other) }

func sign(n int) int {
	if n < 0 {
		return -1
	}
	return 1
}

// Number is the major + minor/10 form used in human-readable output
// ("8.2" style). It is not used for ordering.
func (v Version) Number() float64 {
	return float64(v.Major) + float64(v.Minor)/10
}

// String renders the full triple.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Short renders major.minor.
func (v Version) Short() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}
