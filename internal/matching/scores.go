package matching

// Partial match scores used by the near-miss report. Higher scores mean a
// more specific component matched. Scores never influence which stub is
// served; selection is purely last-registered-wins.
const (
	// ScoreMethod is the score for a method match.
	ScoreMethod = 10

	// ScoreURLExact is the score for an exact url or urlPath match.
	ScoreURLExact = 15

	// ScoreURLPattern is the score for a urlPattern or urlPathPattern match.
	ScoreURLPattern = 14

	// ScoreHeader is the score for each header match.
	ScoreHeader = 10

	// ScoreQueryParam is the score for each query parameter match.
	ScoreQueryParam = 5

	// ScoreCookie is the score for each cookie match.
	ScoreCookie = 5

	// ScoreBasicAuth is the score for a basic-auth match.
	ScoreBasicAuth = 10

	// ScoreBody is the score for each body pattern match.
	ScoreBody = 20

	// ScoreExpression is the score for an expression match.
	ScoreExpression = 10
)
