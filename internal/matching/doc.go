// Package matching provides the request matching engine for the stub server.
//
// A stub.RequestPattern is compiled once, at registration time, into a
// Predicate. Compilation validates every component (regular expressions,
// JSONPath, XPath, JSON schema and expr-lang expressions) so that a broken
// stub is rejected immediately with a *stub.InvalidPredicateError.
//
// Evaluating a Predicate is pure and never blocks. Components are ANDed and a
// component left empty in the pattern matches every request:
//
//   - Method: exact verb, or ANY
//   - URL: exact path+query, exact path, anchored regex over path+query, or
//     anchored regex over the path only
//   - Headers, query parameters, cookies: map-subset matching, header names
//     case-insensitive
//   - Basic auth: decoded Authorization: Basic credentials
//   - Body: literal, JSON equality, JSONPath, JSON schema, XPath
//   - Expression: boolean expr-lang program over the request
//
// When nothing matches, Breakdown and CollectNearMisses explain which stubs
// came closest and why they failed.
package matching
