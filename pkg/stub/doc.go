// Package stub defines the stub model served by stubd: a request pattern
// paired with a canned response.
//
// Stubs can be declared as data (JSON or YAML mapping files, the admin API)
// or with the fluent builders:
//
//	s := stub.Get(stub.URLPathEqualTo("/api/message")).
//	    WithQueryParam("id", stub.EqualTo("1")).
//	    WithBasicAuth("username", "password").
//	    WillReturn(stub.AResponse().WithStatus(200).WithBody("ok")).
//	    Build()
//
// A RequestPattern is a conjunction of optional components. A component that
// is left empty matches every request. Patterns are validated and compiled by
// the matching engine when the stub is registered; a malformed pattern is
// reported as an *InvalidPredicateError at that point, never at request time.
package stub
