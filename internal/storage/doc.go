// Package storage provides the stub registry.
//
// It defines the StubStore interface for registering, looking up and
// matching stubs, along with the in-memory implementation used by the
// server.
//
// Key types:
//
//   - StubStore: contract for stub registries
//   - InMemoryStubStore: thread-safe, insertion-ordered implementation
//   - Entry: a registered stub together with its compiled predicate
//
// Stubs are compiled before they are stored, so a lookup never observes a
// partially registered stub, and a malformed pattern is rejected by Register
// rather than at request time. Among matching stubs the most recently
// registered one wins.
package storage
