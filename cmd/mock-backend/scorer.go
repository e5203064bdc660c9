package main

import (
	"strings"
	"unicode"
)

// stopwords are ignored when matching question terms and never start an
// answer span.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "did": true, "do": true, "does": true, "for": true,
	"from": true, "has": true, "have": true, "how": true, "in": true, "is": true,
	"it": true, "its": true, "of": true, "on": true, "or": true, "that": true,
	"the": true, "this": true, "to": true, "was": true, "were": true, "what": true,
	"when": true, "where": true, "which": true, "who": true, "whom": true,
	"whose": true, "why": true, "with": true,
}

// maxSpanTokens bounds the length of an answer span.
const maxSpanTokens = 4

// token is a word of the context with its code point offsets.
type token struct {
	text  string
	lower string
	start int
	end   int
}

// span is a scored answer span.
type span struct {
	Answer string
	Score  float64
	Start  int
	End    int
}

// tokenize splits s into runs of letters and digits. Offsets count runes.
func tokenize(s string) []token {
	var (
		tokens []token
		cur    []rune
		start  int
		pos    int
	)
	flush := func() {
		if len(cur) > 0 {
			text := string(cur)
			tokens = append(tokens, token{text: text, lower: strings.ToLower(text), start: start, end: pos})
			cur = cur[:0]
		}
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if len(cur) == 0 {
				start = pos
			}
			cur = append(cur, r)
		} else {
			flush()
		}
		pos++
	}
	flush()
	return tokens
}

// pickSpan selects the answer span of passage for question. The candidate
// token closest to the question terms occurring in the passage wins; ties
// go to the earliest token. The span grows over following content words
// separated only by spaces. ok is false for a passage without words.
func pickSpan(question, passage string) (span, bool) {
	ctx := tokenize(passage)
	if len(ctx) == 0 {
		return span{}, false
	}

	terms := make(map[string]bool)
	for _, t := range tokenize(question) {
		if !stopwords[t.lower] {
			terms[t.lower] = true
		}
	}

	var hits []int
	for i, t := range ctx {
		if terms[t.lower] {
			hits = append(hits, i)
		}
	}

	best, bestScore := -1, 0.0
	for i, t := range ctx {
		if terms[t.lower] || stopwords[t.lower] {
			continue
		}
		var s float64
		for _, j := range hits {
			s += 1 / float64(1+abs(i-j))
		}
		if best < 0 || s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 {
		// Every word is a stopword or question term.
		best = 0
	}

	runes := []rune(passage)
	last := best
	for last+1 < len(ctx) && last+1-best < maxSpanTokens {
		next := ctx[last+1]
		if terms[next.lower] || stopwords[next.lower] {
			break
		}
		if strings.TrimSpace(string(runes[ctx[last].end:next.start])) != "" {
			break
		}
		last++
	}

	score := 0.01
	if len(terms) > 0 && bestScore > 0 {
		score = min(bestScore/float64(len(terms)), 1)
	}

	start, end := ctx[best].start, ctx[last].end
	return span{
		Answer: string(runes[start:end]),
		Score:  score,
		Start:  start,
		End:    end,
	}, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
