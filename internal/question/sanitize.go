package question

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/gokatarajesh/trivia-duel/internal/db/queries"
)

// Sanitizer strips markup from bank text and enforces the playable shape.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Clean removes all tags, decodes entities left by the policy, trims and caps to limit runes.
func (s *Sanitizer) Clean(text string, limit int) string {
	out := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
	if limit > 0 && utf8.RuneCountInString(out) > limit {
		out = strings.TrimSpace(string([]rune(out)[:limit]))
	}
	return out
}

// Normalize converts a stored row into a Record or reports why it is unplayable.
func (s *Sanitizer) Normalize(row queries.Question) (Record, error) {
	var raw []string
	if err := json.Unmarshal(row.Options, &raw); err != nil {
		return Record{}, fmt.Errorf("%w: options: %v", ErrMalformed, err)
	}

	rec := Record{
		Topic:         s.Clean(row.Topic, MaxOptionLength),
		Prompt:        s.Clean(row.Prompt, MaxPromptLength),
		CorrectOption: s.Clean(row.CorrectOption, MaxOptionLength),
		Options:       make([]string, 0, len(raw)),
	}
	if rec.Topic == "" {
		rec.Topic = DefaultTopic
	}
	if rec.Prompt == "" {
		return Record{}, fmt.Errorf("%w: empty prompt", ErrMalformed)
	}
	if len(raw) != OptionCount {
		return Record{}, fmt.Errorf("%w: %d options", ErrMalformed, len(raw))
	}

	seen := make(map[string]struct{}, len(raw))
	hasCorrect := false
	for _, o := range raw {
		opt := s.Clean(o, MaxOptionLength)
		if opt == "" {
			return Record{}, fmt.Errorf("%w: empty option", ErrMalformed)
		}
		if _, dup := seen[opt]; dup {
			return Record{}, fmt.Errorf("%w: duplicate option %q", ErrMalformed, opt)
		}
		seen[opt] = struct{}{}
		if opt == rec.CorrectOption {
			hasCorrect = true
		}
		rec.Options = append(rec.Options, opt)
	}
	if !hasCorrect {
		return Record{}, fmt.Errorf("%w: correct option not among options", ErrMalformed)
	}
	return rec, nil
}
