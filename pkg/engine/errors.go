package engine

import (
	"fmt"

	"github.com/getmockd/stubd/internal/matching"
)

// BindError is returned by Start when the listening socket cannot be opened.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// MalformedRequestError describes an inbound request that could not be
// parsed. The dispatcher answers it with 400 Bad Request.
type MalformedRequestError struct {
	Reason string
	Err    error
}

func (e *MalformedRequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed request: %s: %v", e.Reason, e.Err)
	}
	return "malformed request: " + e.Reason
}

func (e *MalformedRequestError) Unwrap() error {
	return e.Err
}

// NoMatchError describes a request that no registered stub matched. It is
// turned into a 404 response and never returned to callers.
type NoMatchError struct {
	Method     string
	URL        string
	NearMisses []matching.NearMiss

	req *matching.Request
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no stub matched %s %s", e.Method, e.URL)
}

// Report renders the plain-text diagnostic sent as the 404 body.
func (e *NoMatchError) Report() string {
	return matching.FormatReport(e.req, e.NearMisses)
}
