// Package engine provides the HTTP stub server.
//
// A Server binds a TCP listener (on a fixed port or on a port chosen by the
// operating system), answers every inbound request with the response of the
// most recently registered stub whose predicate the request satisfies, and
// records each request in an in-memory journal.
//
// # Usage
//
//	srv := engine.NewServer(&config.ServerConfiguration{DynamicPort: true})
//	port, err := srv.Start()
//	if err != nil {
//	    return err
//	}
//	defer srv.Stop()
//
//	_, err = srv.StubFor(stub.Get(stub.URLEqualTo("/custom")).
//	    WillReturn(stub.AResponse().WithStatus(200)))
//
// Requests that no stub matches receive a 404 with a plain-text report
// listing the closest stubs. Requests whose query string or Cookie header
// cannot be parsed receive a 400.
//
// # Admin API
//
// Unless disabled in the configuration, routes under /__admin manage stubs
// and the request journal over HTTP. See package api.
//
// # Lifecycle
//
// Start on a running server and Stop on a stopped one are no-ops. Stop drains
// in-flight requests for up to the configured drain timeout, then closes the
// remaining connections and discards all stubs and journal entries. Mapping
// files named in the configuration are loaded on every Start.
package engine
