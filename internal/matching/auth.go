package matching

import (
	"encoding/base64"
	"strings"
)

// BasicAuthMatch reports whether an Authorization header value carries the
// given basic-auth credentials. A missing header, a scheme other than Basic,
// an undecodable payload or a payload without a colon never matches.
func BasicAuthMatch(header, username, password string) bool {
	user, pass, ok := ParseBasicAuth(header)
	if !ok {
		return false
	}
	return user == username && pass == password
}

// ParseBasicAuth decodes an Authorization: Basic header value. The payload is
// split on its first colon, so passwords may contain colons.
func ParseBasicAuth(header string) (username, password string, ok bool) {
	scheme, payload, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Basic") {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return "", "", false
	}
	return strings.Cut(string(decoded), ":")
}
