// Package constraint parses and evaluates the version gate attached to a
// configured rule, e.g. "php<=8.0", "symfony>6.4", ">=8.1" or a bare "php".
//
// Grammar:
//
//	constraint = tag | [tag] op version
//	tag        = "php" | "symfony"
//	op         = "=" | ">" | ">=" | "<" | "<="
//	version    = digits { "." digits }
//
// A missing tag in front of an operator means "php". Whitespace around the
// operator is tolerated.
package constraint

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dkoosis/pqs/pkg/semver"
)

// ErrInvalidConstraint is matched by every *Error returned from Parse.
var ErrInvalidConstraint = errors.New("invalid constraint")

// Error reports constraint text that does not match the grammar.
type Error struct {
	Text   string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid constraint %q: %s", e.Text, e.Reason)
}

func (e *Error) Is(target error) bool { return target == ErrInvalidConstraint }

// Tag names the runtime dimension a constraint depends on.
type Tag int

const (
	TagNone Tag = iota
	TagPHP
	TagFramework
)

func (t Tag) String() string {
	switch t {
	case TagPHP:
		return "php"
	case TagFramework:
		return "symfony"
	}
	return ""
}

// Operator is the comparison applied between the subject and target version.
type Operator int

const (
	OpNone Operator = iota
	OpEQ
	OpGT
	OpGTE
	OpLT
	OpLTE
)

var operatorText = map[Operator]string{
	OpEQ:  "=",
	OpGT:  ">",
	OpGTE: ">=",
	OpLT:  "<",
	OpLTE: "<=",
}

func (o Operator) String() string { return operatorText[o] }

var pattern = regexp.MustCompile(`^(php|symfony)?(?:\s*(>=|<=|=|>|<)\s*(\d+(?:\.\d+)*))?$`)

// Expression is a parsed constraint. The zero value is not a valid
// expression; rules without a constraint hold a nil *Expression.
type Expression struct {
	Tag      Tag
	Operator Operator
	// Target is meaningful only when Operator != OpNone.
	Target semver.Version

	// version keeps the operand as written so String round-trips.
	version string
	// implicitTag records that the tag was omitted and defaulted to php.
	implicitTag bool
}

// Parse parses constraint text. Leading and trailing whitespace is trimmed.
func Parse(text string) (*Expression, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &Error{Text: text, Reason: "empty"}
	}
	m := pattern.FindStringSubmatch(trimmed)
	if m == nil {
		return nil, &Error{Text: text, Reason: "want php|symfony, optionally followed by one of = > >= < <= and a version"}
	}

	tag, op, ver := m[1], m[2], m[3]
	if tag == "" && op == "" {
		return nil, &Error{Text: text, Reason: "missing tag or operator"}
	}

	expr := &Expression{Tag: tagFromText(tag)}
	if expr.Tag == TagNone {
		expr.Tag = TagPHP
		expr.implicitTag = true
	}
	if op == "" {
		return expr, nil
	}

	target, err := semver.ParseShort(ver)
	if err != nil {
		return nil, &Error{Text: text, Reason: err.Error()}
	}
	expr.Operator = operatorFromText(op)
	expr.Target = target
	expr.version = ver
	return expr, nil
}

func tagFromText(s string) Tag {
	switch s {
	case "php":
		return TagPHP
	case "symfony":
		return TagFramework
	}
	return TagNone
}

func operatorFromText(s string) Operator {
	for op, text := range operatorText {
		if text == s {
			return op
		}
	}
	return OpNone
}

// Bare reports whether the expression is a tag with no comparison.
func (e *Expression) Bare() bool { return e.Operator == OpNone }

// Evaluate decides whether the expression holds for the given versions.
// A nil version means the dimension is unknown; any constraint on an unknown
// dimension evaluates to false.
func (e *Expression) Evaluate(php, framework *semver.Version) bool {
	subject := php
	if e.Tag == TagFramework {
		subject = framework
	}
	if subject == nil {
		return false
	}
	if e.Bare() {
		return true
	}

	c := semver.Compare(*subject, e.Target)
	switch e.Operator {
	case OpEQ:
		return c == 0
	case OpGT:
		return c > 0
	case OpGTE:
		return c >= 0
	case OpLT:
		return c < 0
	case OpLTE:
		return c <= 0
	}
	return false
}

// String renders the expression in the form it was written, without
// surrounding whitespace.
func (e *Expression) String() string {
	if e.Bare() {
		return e.Tag.String()
	}
	tag := e.Tag.String()
	if e.implicitTag {
		tag = ""
	}
	version := e.version
	if version == "" {
		version = e.Target.Short()
	}
	return tag + e.Operator.String() + version
}

// Equal reports whether two expressions have the same meaning.
func (e *Expression) Equal(other *Expression) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.Tag != other.Tag || e.Operator != other.Operator {
		return false
	}
	return e.Bare() || semver.Compare(e.Target, other.Target) == 0
}
