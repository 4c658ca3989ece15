package matching

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/stubd/pkg/stub"
)

// compileExpression compiles a boolean expr-lang program. The environment
// exposes method, url, path, body and the first value of every header,
// query parameter and cookie.
func compileExpression(field, expression string) (*vm.Program, error) {
	program, err := expr.Compile(expression, expr.Env(expressionEnv(&Request{})), expr.AsBool())
	if err != nil {
		return nil, stub.Invalid(field, err, "malformed expression")
	}
	return program, nil
}

// evalExpression runs the program. Runtime errors count as no match.
func evalExpression(program *vm.Program, r *Request) bool {
	out, err := expr.Run(program, expressionEnv(r))
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}

func expressionEnv(r *Request) map[string]any {
	headers := make(map[string]string, len(r.Header))
	for k, v := range r.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	query := make(map[string]string, len(r.Query))
	for k, v := range r.Query {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}
	cookies := make(map[string]string, len(r.Cookies))
	for k, v := range r.Cookies {
		if len(v) > 0 {
			cookies[k] = v[0]
		}
	}
	return map[string]any{
		"method":  r.Method,
		"url":     r.URL,
		"path":    r.Path,
		"body":    string(r.Body),
		"headers": headers,
		"query":   query,
		"cookies": cookies,
	}
}
