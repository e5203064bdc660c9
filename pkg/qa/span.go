package qa

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/rhuss/qaserve/pkg/api"
)

// LocateSpan finds answer inside passage and returns its code point offsets.
// An exact match is preferred; otherwise the first case-insensitive match is
// used and the returned text is the passage's own spelling. Surrounding
// whitespace and quotes on answer are ignored.
func LocateSpan(passage, answer string) (text string, start, end int, err error) {
	needle := strings.Trim(answer, " \t\r\n\"'`")
	if needle == "" {
		return "", 0, 0, ErrNoAnswer
	}

	if i := strings.Index(passage, needle); i >= 0 {
		return spanAt(passage, i, i+len(needle))
	}

	if i, j, ok := indexFold(passage, needle); ok {
		return spanAt(passage, i, j)
	}

	return "", 0, 0, fmt.Errorf("%w: %q", ErrSpanNotFound, needle)
}

func spanAt(passage string, i, j int) (string, int, int, error) {
	start := utf8.RuneCountInString(passage[:i])
	end := start + utf8.RuneCountInString(passage[i:j])
	return passage[i:j], start, end, nil
}

// indexFold returns the byte range of the first case-insensitive occurrence
// of needle in s. Case folding may change byte lengths, so candidates are
// compared rune by rune.
func indexFold(s, needle string) (int, int, bool) {
	n := utf8.RuneCountInString(needle)
	for i := range s {
		j := i
		count := 0
		for count < n && j < len(s) {
			_, size := utf8.DecodeRuneInString(s[j:])
			j += size
			count++
		}
		if count < n {
			return 0, 0, false
		}
		if strings.EqualFold(s[i:j], needle) {
			return i, j, true
		}
	}
	return 0, 0, false
}

// ResultFromText turns a generative answer into an AnswerResult by locating
// its span in the passage.
func ResultFromText(passage, answer string, score float64) (*api.AnswerResult, error) {
	text, start, end, err := LocateSpan(passage, answer)
	if err != nil {
		return nil, err
	}
	return &api.AnswerResult{Answer: text, Score: ClampScore(score), Start: start, End: end}, nil
}

// Validate checks that r describes a span of passage: offsets in range,
// start before end and the answer equal to the text at those offsets. The
// score is clamped into [0, 1].
func Validate(passage string, r *api.AnswerResult) error {
	if r == nil {
		return ErrNoAnswer
	}

	runes := []rune(passage)
	if r.Start < 0 || r.End > len(runes) || r.Start >= r.End {
		return fmt.Errorf("%w: offsets [%d, %d) outside context of length %d", ErrInvalidSpan, r.Start, r.End, len(runes))
	}
	if got := string(runes[r.Start:r.End]); got != r.Answer {
		// Some servers strip the answer text; trust the offsets when the
		// trimmed forms agree.
		if strings.TrimSpace(got) != strings.TrimSpace(r.Answer) {
			return fmt.Errorf("%w: answer %q does not match context text %q at [%d, %d)", ErrInvalidSpan, r.Answer, got, r.Start, r.End)
		}
		r.Answer = got
	}

	r.Score = ClampScore(r.Score)
	return nil
}

// ClampScore maps s into [0, 1]. NaN becomes 0.
func ClampScore(s float64) float64 {
	switch {
	case math.IsNaN(s), s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}
