package requestlog

// NearMissInfo is a log-friendly summary of a near-miss match.
// Stored on journal entries for unmatched requests.
type NearMissInfo struct {
	// StubID is the ID of the stub that partially matched.
	StubID string `json:"stubId"`

	// StubName is the display name of the stub (may be empty).
	StubName string `json:"stubName,omitempty"`

	// MatchPercentage is how close the match was (0-100).
	MatchPercentage int `json:"matchPercentage"`

	// Reason is a human-readable explanation of why it didn't fully match.
	Reason string `json:"reason"`
}
