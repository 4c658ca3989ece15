package matching

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/ohler55/ojg/jp"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/getmockd/stubd/pkg/stub"
)

// BodyMatcher is a compiled stub.BodyPattern.
//
// A value operator on its own applies to the raw body. Combined with
// matchesJsonPath or matchesXPath it applies to the selected values instead.
type BodyMatcher struct {
	value    *ValueMatcher
	jsonDoc  any
	hasJSON  bool
	jsonPath jp.Expr
	schema   *jsonschema.Schema
	xpath    *etree.Path
	desc     string
}

// CompileBody validates and compiles a body pattern.
func CompileBody(field string, p stub.BodyPattern) (*BodyMatcher, error) {
	value, err := compileValue(field, p.ValuePattern)
	if err != nil {
		return nil, err
	}

	var structured []string
	if len(p.EqualToJSON) > 0 {
		structured = append(structured, "equalToJson")
	}
	if p.MatchesJSONPath != "" {
		structured = append(structured, "matchesJsonPath")
	}
	if len(p.MatchesJSONSchema) > 0 {
		structured = append(structured, "matchesJsonSchema")
	}
	if p.MatchesXPath != "" {
		structured = append(structured, "matchesXPath")
	}

	switch {
	case len(structured) > 1:
		return nil, stub.Invalid(field, nil, "contradictory operators %s and %s", structured[0], structured[1])
	case len(structured) == 0 && value == nil:
		return nil, stub.Invalid(field, nil, "no operator specified")
	case len(structured) == 1 && value != nil && p.MatchesJSONPath == "" && p.MatchesXPath == "":
		return nil, stub.Invalid(field, nil, "%s cannot be combined with %s", structured[0], value.op)
	}

	m := &BodyMatcher{value: value}

	switch {
	case len(p.EqualToJSON) > 0:
		if err := json.Unmarshal(p.EqualToJSON, &m.jsonDoc); err != nil {
			return nil, stub.Invalid(field+".equalToJson", err, "malformed JSON document")
		}
		m.hasJSON = true
		m.desc = "equalToJson " + string(p.EqualToJSON)

	case p.MatchesJSONPath != "":
		x, err := jp.ParseString(p.MatchesJSONPath)
		if err != nil {
			return nil, stub.Invalid(field+".matchesJsonPath", err, "malformed JSONPath %q", p.MatchesJSONPath)
		}
		m.jsonPath = x
		m.desc = "matchesJsonPath " + strconv.Quote(p.MatchesJSONPath)

	case len(p.MatchesJSONSchema) > 0:
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("schema.json", bytes.NewReader(p.MatchesJSONSchema)); err != nil {
			return nil, stub.Invalid(field+".matchesJsonSchema", err, "malformed JSON schema")
		}
		schema, err := compiler.Compile("schema.json")
		if err != nil {
			return nil, stub.Invalid(field+".matchesJsonSchema", err, "malformed JSON schema")
		}
		m.schema = schema
		m.desc = "matchesJsonSchema"

	case p.MatchesXPath != "":
		path, err := etree.CompilePath(p.MatchesXPath)
		if err != nil {
			return nil, stub.Invalid(field+".matchesXPath", err, "malformed XPath %q", p.MatchesXPath)
		}
		m.xpath = &path
		m.desc = "matchesXPath " + strconv.Quote(p.MatchesXPath)

	default:
		m.desc = value.String()
		return m, nil
	}

	if value != nil {
		m.desc += " with " + value.String()
	}
	return m, nil
}

// Match evaluates the pattern against a raw body.
func (m *BodyMatcher) Match(body []byte) bool {
	switch {
	case m.hasJSON:
		var actual any
		if err := json.Unmarshal(body, &actual); err != nil {
			return false
		}
		return reflect.DeepEqual(actual, m.jsonDoc)

	case m.jsonPath != nil:
		var data any
		if err := json.Unmarshal(body, &data); err != nil {
			return false
		}
		results := m.jsonPath.Get(data)
		if len(results) == 0 {
			return false
		}
		if m.value == nil {
			return true
		}
		for _, r := range results {
			if m.value.Match(stringify(r)) {
				return true
			}
		}
		return false

	case m.schema != nil:
		var data any
		if err := json.Unmarshal(body, &data); err != nil {
			return false
		}
		return m.schema.Validate(data) == nil

	case m.xpath != nil:
		doc := etree.NewDocument()
		if err := doc.ReadFromBytes(body); err != nil {
			return false
		}
		elements := doc.FindElementsPath(*m.xpath)
		if len(elements) == 0 {
			return false
		}
		if m.value == nil {
			return true
		}
		for _, el := range elements {
			if m.value.Match(strings.TrimSpace(el.Text())) {
				return true
			}
		}
		return false
	}

	// A bare absent operator means "no body".
	if m.value.op == opAbsent {
		return len(body) == 0
	}
	return m.value.Match(string(body))
}

// String describes the matcher for diagnostics.
func (m *BodyMatcher) String() string {
	return m.desc
}

// stringify renders a JSONPath result for comparison with a value operator.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return "null"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}
