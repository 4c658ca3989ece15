package stub

import (
	"encoding/base64"
	"encoding/json"

	"golang.org/x/net/http/httpguts"
)

// ValidateResponse checks the response half of a stub. The request half is
// validated by the matching engine when it compiles the pattern.
func (s *Stub) ValidateResponse() error {
	r := &s.Response

	// 1xx codes are interim responses in net/http and cannot end an exchange.
	if r.Status != 0 && (r.Status < 200 || r.Status > 599) {
		return Invalid("response.status", nil, "status %d out of range 200-599", r.Status)
	}

	for name, value := range r.Headers {
		if !httpguts.ValidHeaderFieldName(name) {
			return Invalid("response.headers", nil, "invalid header name %q", name)
		}
		if !httpguts.ValidHeaderFieldValue(value) {
			return Invalid("response.headers."+name, nil, "invalid header value")
		}
	}

	bodies := 0
	if r.Body != "" {
		bodies++
	}
	if r.Base64Body != "" {
		bodies++
		if _, err := base64.StdEncoding.DecodeString(r.Base64Body); err != nil {
			return Invalid("response.base64Body", err, "malformed base64")
		}
	}
	if len(r.JSONBody) > 0 {
		bodies++
		if !json.Valid(r.JSONBody) {
			return Invalid("response.jsonBody", nil, "malformed JSON document")
		}
	}
	if bodies > 1 {
		return Invalid("response", nil, "body, base64Body and jsonBody are mutually exclusive")
	}

	if r.FixedDelayMilliseconds < 0 {
		return Invalid("response.fixedDelayMilliseconds", nil, "negative delay")
	}
	return nil
}

// BodyBytes returns the decoded response body. It assumes ValidateResponse
// succeeded.
func (r *ResponseDefinition) BodyBytes() []byte {
	switch {
	case r.Base64Body != "":
		data, _ := base64.StdEncoding.DecodeString(r.Base64Body)
		return data
	case len(r.JSONBody) > 0:
		return []byte(r.JSONBody)
	default:
		return []byte(r.Body)
	}
}
