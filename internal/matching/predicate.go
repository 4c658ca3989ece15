package matching

import (
	"net/textproto"
	"strconv"
	"strings"

	"github.com/expr-lang/expr/vm"
	"golang.org/x/net/http/httpguts"

	"github.com/getmockd/stubd/pkg/stub"
)

// Predicate is a compiled stub.RequestPattern. It is immutable and safe for
// concurrent use.
type Predicate struct {
	method     string
	url        *URLMatcher
	headers    map[string]*ValueMatcher
	query      map[string]*ValueMatcher
	cookies    map[string]*ValueMatcher
	auth       *stub.BasicAuth
	body       []*BodyMatcher
	expression *vm.Program
	exprSrc    string
}

// Compile validates a request pattern and compiles it into a Predicate.
// Every failure is a *stub.InvalidPredicateError.
func Compile(p *stub.RequestPattern) (*Predicate, error) {
	if p == nil {
		return &Predicate{}, nil
	}

	pred := &Predicate{}

	if method := strings.ToUpper(strings.TrimSpace(p.Method)); method != "" && method != stub.MethodAny {
		if !httpguts.ValidHeaderFieldName(method) {
			return nil, stub.Invalid("request.method", nil, "invalid method %q", p.Method)
		}
		pred.method = method
	}

	url, err := compileURL(p)
	if err != nil {
		return nil, err
	}
	pred.url = url

	if pred.headers, err = compileMap("request.headers", p.Headers, true); err != nil {
		return nil, err
	}
	if pred.query, err = compileMap("request.queryParameters", p.QueryParameters, false); err != nil {
		return nil, err
	}
	if pred.cookies, err = compileMap("request.cookies", p.Cookies, false); err != nil {
		return nil, err
	}

	if p.BasicAuth != nil {
		if _, ok := pred.headers["Authorization"]; ok {
			return nil, stub.Invalid("request.basicAuthCredentials", nil, "contradicts request.headers.Authorization")
		}
		auth := *p.BasicAuth
		pred.auth = &auth
	}

	for i, bp := range p.BodyPatterns {
		m, err := CompileBody("request.bodyPatterns["+strconv.Itoa(i)+"]", bp)
		if err != nil {
			return nil, err
		}
		pred.body = append(pred.body, m)
	}

	if p.Expression != "" {
		program, err := compileExpression("request.expression", p.Expression)
		if err != nil {
			return nil, err
		}
		pred.expression = program
		pred.exprSrc = p.Expression
	}

	return pred, nil
}

func compileMap(field string, patterns map[string]stub.ValuePattern, header bool) (map[string]*ValueMatcher, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	out := make(map[string]*ValueMatcher, len(patterns))
	for name, p := range patterns {
		if name == "" {
			return nil, stub.Invalid(field, nil, "empty name")
		}
		key := name
		if header {
			if !httpguts.ValidHeaderFieldName(name) {
				return nil, stub.Invalid(field+"."+name, nil, "invalid header name")
			}
			key = textproto.CanonicalMIMEHeaderKey(name)
			if _, dup := out[key]; dup {
				return nil, stub.Invalid(field+"."+name, nil, "duplicate header name")
			}
		}
		m, err := CompileValue(field+"."+name, p)
		if err != nil {
			return nil, err
		}
		out[key] = m
	}
	return out, nil
}

// Matches reports whether the request satisfies every component.
func (p *Predicate) Matches(r *Request) bool {
	if p.method != "" && r.Method != p.method {
		return false
	}
	if p.url != nil && !p.url.Match(r.URL, r.Path) {
		return false
	}
	if !MapSubsetMatch(r.Header, p.headers) {
		return false
	}
	if !MapSubsetMatch(r.Query, p.query) {
		return false
	}
	if !MapSubsetMatch(r.Cookies, p.cookies) {
		return false
	}
	if p.auth != nil && !BasicAuthMatch(r.Header.Get("Authorization"), p.auth.Username, p.auth.Password) {
		return false
	}
	for _, b := range p.body {
		if !b.Match(r.Body) {
			return false
		}
	}
	if p.expression != nil && !evalExpression(p.expression, r) {
		return false
	}
	return true
}
