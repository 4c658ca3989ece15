package matching

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/getmockd/stubd/pkg/stub"
)

type valueOp int

const (
	opEqualTo valueOp = iota + 1
	opContains
	opMatches
	opDoesNotMatch
	opAbsent
)

func (o valueOp) String() string {
	switch o {
	case opEqualTo:
		return "equalTo"
	case opContains:
		return "contains"
	case opMatches:
		return "matches"
	case opDoesNotMatch:
		return "doesNotMatch"
	case opAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// ValueMatcher is a compiled stub.ValuePattern.
type ValueMatcher struct {
	op       valueOp
	expected string
	fold     bool
	re       *regexp.Regexp
}

// CompileValue validates and compiles a value pattern. Exactly one operator
// must be set.
func CompileValue(field string, p stub.ValuePattern) (*ValueMatcher, error) {
	m, err := compileValue(field, p)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, stub.Invalid(field, nil, "no operator specified")
	}
	return m, nil
}

// compileValue returns nil, nil when no operator is set.
func compileValue(field string, p stub.ValuePattern) (*ValueMatcher, error) {
	var ops []valueOp
	m := &ValueMatcher{}
	if p.EqualTo != nil {
		ops = append(ops, opEqualTo)
		m.op, m.expected = opEqualTo, *p.EqualTo
	}
	if p.Contains != nil {
		ops = append(ops, opContains)
		m.op, m.expected = opContains, *p.Contains
	}
	if p.Matches != nil {
		ops = append(ops, opMatches)
		m.op, m.expected = opMatches, *p.Matches
	}
	if p.DoesNotMatch != nil {
		ops = append(ops, opDoesNotMatch)
		m.op, m.expected = opDoesNotMatch, *p.DoesNotMatch
	}
	if p.Absent {
		ops = append(ops, opAbsent)
		m.op = opAbsent
	}

	switch {
	case len(ops) == 0:
		if p.CaseInsensitive {
			return nil, stub.Invalid(field, nil, "caseInsensitive requires equalTo or contains")
		}
		return nil, nil
	case len(ops) > 1:
		return nil, stub.Invalid(field, nil, "contradictory operators %s and %s", ops[0], ops[1])
	}

	if p.CaseInsensitive {
		if m.op != opEqualTo && m.op != opContains {
			return nil, stub.Invalid(field, nil, "caseInsensitive requires equalTo or contains")
		}
		m.fold = true
	}

	if m.op == opMatches || m.op == opDoesNotMatch {
		re, err := compileAnchored(m.expected)
		if err != nil {
			return nil, stub.Invalid(field, err, "malformed regex %q", m.expected)
		}
		m.re = re
	}
	return m, nil
}

// Match reports whether a single present value satisfies the matcher.
func (m *ValueMatcher) Match(value string) bool {
	switch m.op {
	case opEqualTo:
		if m.fold {
			return strings.EqualFold(value, m.expected)
		}
		return ExactMatch(value, m.expected)
	case opContains:
		if m.fold {
			return strings.Contains(strings.ToLower(value), strings.ToLower(m.expected))
		}
		return strings.Contains(value, m.expected)
	case opMatches:
		return m.re.MatchString(value)
	case opDoesNotMatch:
		return !m.re.MatchString(value)
	case opAbsent:
		return false
	}
	return false
}

// MatchValues evaluates the matcher against every value recorded for a key.
// Absent succeeds only when the key is missing; every other operator needs
// the key to be present and at least one value to match.
func (m *ValueMatcher) MatchValues(values []string, present bool) bool {
	if m.op == opAbsent {
		return !present
	}
	if !present {
		return false
	}
	for _, v := range values {
		if m.Match(v) {
			return true
		}
	}
	return false
}

// String describes the matcher for diagnostics.
func (m *ValueMatcher) String() string {
	if m.op == opAbsent {
		return "absent"
	}
	s := m.op.String() + " " + strconv.Quote(m.expected)
	if m.fold {
		s += " (ignoring case)"
	}
	return s
}

// ExactMatch reports whether actual equals expected, case-sensitively.
func ExactMatch(actual, expected string) bool {
	return actual == expected
}

// RegexMatch reports whether the whole of actual matches pattern. An invalid
// pattern never matches.
func RegexMatch(actual, pattern string) bool {
	re, err := compileAnchored(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(actual)
}

// MapSubsetMatch reports whether every expected key is satisfied by actual.
// Keys absent from expected are ignored. Callers normalise key case (header
// names are canonicalised at compile time and stored canonical in
// http.Header).
func MapSubsetMatch(actual map[string][]string, expected map[string]*ValueMatcher) bool {
	for key, m := range expected {
		values, present := actual[key]
		if !m.MatchValues(values, present) {
			return false
		}
	}
	return true
}

func compileAnchored(pattern string) (*regexp.Regexp, error) {
	if _, err := regexp.Compile(pattern); err != nil {
		return nil, err
	}
	return regexp.Compile(`^(?:` + pattern + `)$`)
}
