package domain

import (
	"sort"
	"strings"
)

// QuerySignal is the clinical signal for one recommendation request:
// transcript-derived free text plus any structured condition names the
// extraction layer produced. Immutable once constructed.
type QuerySignal struct {
	Text       string   `json:"symptoms_text"`
	Conditions []string `json:"conditions,omitempty"`
}

// Empty reports whether the signal carries nothing to score on.
func (q QuerySignal) Empty() bool {
	return strings.TrimSpace(q.Text) == "" && len(q.Conditions) == 0
}

// Tokens returns the deduplicated, normalized tokens of the signal text and
// structured fields, in first-seen order.
func (q QuerySignal) Tokens() []string {
	seen := make(map[string]bool)
	var tokens []string
	add := func(tok string) {
		if tok == "" || stopwords[tok] || len(tok) < 3 {
			return
		}
		if !seen[tok] {
			seen[tok] = true
			tokens = append(tokens, tok)
		}
	}
	for _, tok := range splitWords(q.Text) {
		add(tok)
	}
	for _, cond := range q.Conditions {
		for _, tok := range splitWords(cond) {
			add(tok)
		}
	}
	return tokens
}

// Signature returns the normalized symptom signature used as the
// MedicinePattern bucket key: sorted unique tokens joined by spaces.
func (q QuerySignal) Signature() string {
	tokens := q.Tokens()
	sorted := make([]string, len(tokens))
	copy(sorted, tokens)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}

func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}

// stopwords filter the filler of transcript-derived symptom text so that
// signatures bucket on clinical content words.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "has": true, "have": true,
	"had": true, "with": true, "very": true, "since": true, "patient": true,
	"complains": true, "reports": true, "presenting": true, "feels": true,
	"feeling": true, "about": true, "also": true, "been": true, "from": true,
	"days": true, "day": true, "week": true, "weeks": true, "severe": true,
	"mild": true, "moderate": true,
}
