package matching

import (
	"fmt"
	"sort"
	"strings"
)

// FieldResult describes whether a single predicate component matched.
type FieldResult struct {
	Field    string        `json:"field"`
	Matched  bool          `json:"matched"`
	Score    int           `json:"score"`
	MaxScore int           `json:"maxScore"`
	Expected string        `json:"expected,omitempty"`
	Actual   string        `json:"actual,omitempty"`
	Details  []EntryDetail `json:"details,omitempty"`
}

// EntryDetail describes the result for one key of a header, query or cookie map.
type EntryDetail struct {
	Key      string `json:"key"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Matched  bool   `json:"matched"`
}

// NearMiss is a stub that partially matched a request.
type NearMiss struct {
	StubID           string        `json:"stubId"`
	StubName         string        `json:"stubName,omitempty"`
	Score            int           `json:"score"`
	MaxPossibleScore int           `json:"maxPossibleScore"`
	MatchPercentage  int           `json:"matchPercentage"`
	Fields           []FieldResult `json:"fields"`
	Reason           string        `json:"reason"`
}

// Candidate is a registered stub offered to CollectNearMisses.
type Candidate struct {
	ID        string
	Name      string
	Predicate *Predicate
}

const missing = "(missing)"

// Breakdown evaluates every component of the predicate without
// short-circuiting and reports per-field results. Only components the
// pattern specifies are included.
func (p *Predicate) Breakdown(r *Request) *NearMiss {
	result := &NearMiss{}
	add := func(f FieldResult) {
		if f.Matched {
			f.Score = f.MaxScore
		}
		result.Fields = append(result.Fields, f)
		result.Score += f.Score
		result.MaxPossibleScore += f.MaxScore
	}

	if p.method != "" {
		add(FieldResult{
			Field:    "method",
			Matched:  r.Method == p.method,
			MaxScore: ScoreMethod,
			Expected: p.method,
			Actual:   r.Method,
		})
	}

	if p.url != nil {
		actual := r.URL
		if p.url.pathOnly() {
			actual = r.Path
		}
		add(FieldResult{
			Field:    p.url.field(),
			Matched:  p.url.Match(r.URL, r.Path),
			MaxScore: p.url.score(),
			Expected: p.url.expected,
			Actual:   actual,
		})
	}

	p.addMap(result, "headers", p.headers, r.Header, ScoreHeader)
	p.addMap(result, "queryParameters", p.query, r.Query, ScoreQueryParam)
	p.addMap(result, "cookies", p.cookies, r.Cookies, ScoreCookie)

	if p.auth != nil {
		actual := missing
		if user, _, ok := ParseBasicAuth(r.Header.Get("Authorization")); ok {
			actual = "user " + user
		} else if r.Header.Get("Authorization") != "" {
			actual = "(malformed or not Basic)"
		}
		add(FieldResult{
			Field:    "basicAuth",
			Matched:  BasicAuthMatch(r.Header.Get("Authorization"), p.auth.Username, p.auth.Password),
			MaxScore: ScoreBasicAuth,
			Expected: "user " + p.auth.Username,
			Actual:   actual,
		})
	}

	for _, b := range p.body {
		add(FieldResult{
			Field:    "body",
			Matched:  b.Match(r.Body),
			MaxScore: ScoreBody,
			Expected: b.String(),
			Actual:   truncate(string(r.Body), 200),
		})
	}

	if p.expression != nil {
		add(FieldResult{
			Field:    "expression",
			Matched:  evalExpression(p.expression, r),
			MaxScore: ScoreExpression,
			Expected: p.exprSrc,
		})
	}

	if result.MaxPossibleScore > 0 {
		result.MatchPercentage = (result.Score * 100) / result.MaxPossibleScore
	}
	result.Reason = GenerateReason(result.Fields)
	return result
}

func (p *Predicate) addMap(result *NearMiss, field string, expected map[string]*ValueMatcher, actual map[string][]string, per int) {
	if len(expected) == 0 {
		return
	}
	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	f := FieldResult{Field: field, Matched: true, MaxScore: len(expected) * per}
	for _, k := range keys {
		m := expected[k]
		values, present := actual[k]
		matched := m.MatchValues(values, present)
		got := missing
		if present {
			got = strings.Join(values, ", ")
		}
		if matched {
			f.Score += per
		} else {
			f.Matched = false
		}
		f.Details = append(f.Details, EntryDetail{Key: k, Expected: m.String(), Actual: got, Matched: matched})
	}

	result.Fields = append(result.Fields, f)
	result.Score += f.Score
	result.MaxPossibleScore += f.MaxScore
}

// CollectNearMisses evaluates all candidates against the request and returns
// the top N by partial score. Candidates with no matching component are
// dropped. Only called for unmatched requests.
func CollectNearMisses(candidates []Candidate, r *Request, topN int) []NearMiss {
	if topN <= 0 {
		topN = 3
	}

	var misses []NearMiss
	for _, c := range candidates {
		if c.Predicate == nil {
			continue
		}
		nm := c.Predicate.Breakdown(r)
		if nm.Score == 0 {
			continue
		}
		nm.StubID = c.ID
		nm.StubName = c.Name
		misses = append(misses, *nm)
	}

	sort.SliceStable(misses, func(i, j int) bool {
		if misses[i].Score != misses[j].Score {
			return misses[i].Score > misses[j].Score
		}
		return misses[i].MatchPercentage > misses[j].MatchPercentage
	})

	if len(misses) > topN {
		misses = misses[:topN]
	}
	return misses
}

// GenerateReason explains why a partially matching stub failed.
func GenerateReason(fields []FieldResult) string {
	if len(fields) == 0 {
		return "no fields to compare"
	}

	var matched []string
	var firstMismatch *FieldResult
	for i := range fields {
		if fields[i].Matched {
			matched = append(matched, fields[i].Field)
		} else if firstMismatch == nil {
			firstMismatch = &fields[i]
		}
	}

	if firstMismatch == nil {
		return "all specified fields matched"
	}
	if len(matched) == 0 {
		return formatMismatch(firstMismatch)
	}
	return joinFields(matched) + " matched, but " + formatMismatch(firstMismatch)
}

func formatMismatch(f *FieldResult) string {
	switch f.Field {
	case "method":
		return fmt.Sprintf("method expected %q, got %q", f.Expected, f.Actual)
	case "url", "urlPath", "urlPattern", "urlPathPattern":
		return fmt.Sprintf("%s expected %q, got %q", f.Field, f.Expected, f.Actual)
	case "headers", "queryParameters", "cookies":
		label := map[string]string{"headers": "header", "queryParameters": "query param", "cookies": "cookie"}[f.Field]
		for _, d := range f.Details {
			if !d.Matched {
				return fmt.Sprintf("%s %s expected %s, got %q", label, d.Key, d.Expected, d.Actual)
			}
		}
		return label + " mismatch"
	case "basicAuth":
		return fmt.Sprintf("basic auth expected %s, got %s", f.Expected, f.Actual)
	case "body":
		return "body expected " + f.Expected
	case "expression":
		return fmt.Sprintf("expression %q evaluated to false", f.Expected)
	default:
		return f.Field + " did not match"
	}
}

// FormatReport renders the plain-text diagnostic body of a 404 response.
func FormatReport(r *Request, misses []NearMiss) string {
	var b strings.Builder
	b.WriteString("Request was not matched\n")
	b.WriteString("=======================\n\n")
	fmt.Fprintf(&b, "%s %s\n", r.Method, r.URL)

	if len(misses) == 0 {
		b.WriteString("\nNo stub came close.\n")
		return b.String()
	}

	b.WriteString("\nClosest stubs:\n")
	for i, nm := range misses {
		name := nm.StubName
		if name == "" {
			name = nm.StubID
		}
		fmt.Fprintf(&b, "  %d. %s (%d%% match): %s\n", i+1, name, nm.MatchPercentage, nm.Reason)
	}
	return b.String()
}

func joinFields(fields []string) string {
	switch len(fields) {
	case 0:
		return ""
	case 1:
		return fields[0]
	case 2:
		return fields[0] + " and " + fields[1]
	default:
		return strings.Join(fields[:len(fields)-1], ", ") + ", and " + fields[len(fields)-1]
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
