package api

// AnswerQuery is the request body of POST /qa.
type AnswerQuery struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

// AnswerResult is the best answer span found in the query context.
type AnswerResult struct {
	// Answer is the exact text of the span.
	Answer string `json:"answer"`

	// Score is the model confidence in [0, 1].
	Score float64 `json:"score"`

	// Start is the code point offset of the first character of the span.
	Start int `json:"start"`

	// End is the code point offset one past the last character of the span.
	End int `json:"end"`
}
