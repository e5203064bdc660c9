package main

import "testing"

func TestPickSpan(t *testing.T) {
	tests := []struct {
		name      string
		question  string
		passage   string
		wantText  string
		wantStart int
		wantEnd   int
	}{
		{
			name:      "single word",
			question:  "What is the capital of France?",
			passage:   "Paris is the capital of France.",
			wantText:  "Paris",
			wantStart: 0,
			wantEnd:   5,
		},
		{
			name:      "multi word span",
			question:  "Who founded the company?",
			passage:   "The company was founded by Ada Lovelace in London.",
			wantText:  "Ada Lovelace",
			wantStart: 27,
			wantEnd:   39,
		},
		{
			name:      "multi-byte context",
			question:  "Où est la tour Eiffel?",
			passage:   "La tour Eiffel est à Paris.",
			wantText:  "à Paris",
			wantStart: 19,
			wantEnd:   26,
		},
		{
			name:      "no question terms",
			question:  "What is it?",
			passage:   "Berlin.",
			wantText:  "Berlin",
			wantStart: 0,
			wantEnd:   6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := pickSpan(tt.question, tt.passage)
			if !ok {
				t.Fatal("pickSpan returned no span")
			}
			if s.Answer != tt.wantText || s.Start != tt.wantStart || s.End != tt.wantEnd {
				t.Errorf("span = %q [%d,%d), want %q [%d,%d)", s.Answer, s.Start, s.End, tt.wantText, tt.wantStart, tt.wantEnd)
			}
			if got := string([]rune(tt.passage)[s.Start:s.End]); got != s.Answer {
				t.Errorf("passage[%d:%d] = %q, answer = %q", s.Start, s.End, got, s.Answer)
			}
			if s.Score < 0 || s.Score > 1 {
				t.Errorf("score = %v, want within [0,1]", s.Score)
			}
		})
	}
}

func TestPickSpan_NoWords(t *testing.T) {
	for _, passage := range []string{"", "   ", "?!."} {
		if _, ok := pickSpan("What?", passage); ok {
			t.Errorf("pickSpan(%q) returned a span", passage)
		}
	}
}

func TestPickSpan_Deterministic(t *testing.T) {
	q := "Which river flows through Vienna?"
	p := "Vienna lies on the Danube, which flows through Vienna and Budapest."

	first, _ := pickSpan(q, p)
	for range 10 {
		if s, _ := pickSpan(q, p); s != first {
			t.Fatalf("pickSpan not deterministic: %+v != %+v", s, first)
		}
	}
}

func TestTokenize(t *testing.T) {
	toks := tokenize("Zürich, 1848!")
	if len(toks) != 2 {
		t.Fatalf("got %d tokens, want 2", len(toks))
	}
	if toks[0].text != "Zürich" || toks[0].start != 0 || toks[0].end != 6 {
		t.Errorf("token 0 = %+v", toks[0])
	}
	if toks[1].text != "1848" || toks[1].start != 8 || toks[1].end != 12 {
		t.Errorf("token 1 = %+v", toks[1])
	}
}
