package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMissingField is returned by DecodeQuery when a required field is
// absent or null.
var ErrMissingField = errors.New("missing required field")

// rawQuery distinguishes an absent field from an empty string.
type rawQuery struct {
	Question *string `json:"question"`
	Context  *string `json:"context"`
}

// DecodeQuery reads exactly one JSON object from r and returns the query it
// describes. Both question and context must be present; empty strings are
// accepted and left for the model to judge.
func DecodeQuery(r io.Reader) (*AnswerQuery, error) {
	dec := json.NewDecoder(r)

	var raw rawQuery
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding request body: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("decoding request body: unexpected data after JSON object")
	}

	if raw.Question == nil {
		return nil, fmt.Errorf("%w %q", ErrMissingField, "question")
	}
	if raw.Context == nil {
		return nil, fmt.Errorf("%w %q", ErrMissingField, "context")
	}

	return &AnswerQuery{Question: *raw.Question, Context: *raw.Context}, nil
}
