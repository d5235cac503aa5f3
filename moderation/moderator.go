// Package moderation masks censored words in relayed message bodies.
// Matching is resilient to case, accents, and separator noise; the relayed
// body keeps its original length and spacing, with matched characters
// replaced in place.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"

	"project-relay/errors"
)

type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
}

// NewModerator builds the Aho-Corasick automaton over a normalized copy of
// the word list. Words collapsing to the same normal form are deduplicated;
// an empty list is an error, callers wanting a pass-through relay simply
// skip the moderator.
func NewModerator(words []string, replacement rune) (*Moderator, error) {
	normalized := lo.Uniq(lo.FilterMap(words, func(w string, _ int) (string, bool) {
		n := string(normalize(w).runes)
		return n, n != ""
	}))
	if len(normalized) == 0 {
		return nil, errors.ErrEmptyWords
	}

	patterns := make([][]rune, len(normalized))
	for i, w := range normalized {
		patterns[i] = []rune(w)
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, replacement: replacement}, nil
}

// Censor masks every forbidden span in body and reports the matched words.
// The returned body is unchanged when nothing matches.
func (m *Moderator) Censor(body string) (string, []string) {
	mapped := normalize(body)
	if len(mapped.runes) == 0 {
		return body, nil
	}

	spans := m.matcher.MultiPatternSearch(mapped.runes, false)
	if len(spans) == 0 {
		return body, nil
	}

	out := []rune(body)
	found := make([]string, 0, len(spans))
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(mapped.origIdx) {
			continue
		}
		found = append(found, string(span.Word))

		// Mask every original rune between the first and last matched
		// normalized position, covering the noise in between.
		for i := mapped.origIdx[start]; i <= mapped.origIdx[end-1]; i++ {
			out[i] = m.replacement
		}
	}

	return string(out), found
}

// mapping pairs the normalized runes with the index each one came from in
// the original string.
type mapping struct {
	runes   []rune
	origIdx []int
}

// normalize lowercases, folds common leet substitutions, and drops
// separator noise while remembering original positions.
func normalize(s string) mapping {
	var m mapping
	for i, r := range []rune(s) {
		r = foldRune(r)
		if isNoise(r) {
			continue
		}
		m.runes = append(m.runes, unicode.ToLower(r))
		m.origIdx = append(m.origIdx, i)
	}
	return m
}

func foldRune(r rune) rune {
	switch r {
	case '0':
		return 'o'
	case '1', '!':
		return 'i'
	case '3', '€':
		return 'e'
	case '4', '@':
		return 'a'
	case '5', '$':
		return 's'
	case '7':
		return 't'
	}
	return r
}

func isNoise(r rune) bool {
	return unicode.IsSpace(r) || r == '.' || r == '-' || r == '_' || r == '*' || r == '\''
}
