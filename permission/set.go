package permission

import (
	"encoding/json"
	"sort"
)

// Set is an immutable, sorted collection of capability tokens.
//
// The zero value is an empty set and is ready to use.
type Set struct {
	tokens []string
}

// NewSet builds a Set from tokens. Empty strings and duplicates are dropped.
func NewSet(tokens ...string) Set {
	if len(tokens) == 0 {
		return Set{}
	}

	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	sort.Strings(out)

	dedup := out[:0]
	for i, t := range out {
		if i > 0 && t == out[i-1] {
			continue
		}
		dedup = append(dedup, t)
	}

	return Set{tokens: dedup}
}

// Has reports whether token is a member of the set. Matching is exact.
func (s Set) Has(token string) bool {
	if token == "" || len(s.tokens) == 0 {
		return false
	}
	i := sort.SearchStrings(s.tokens, token)
	return i < len(s.tokens) && s.tokens[i] == token
}

// Len returns the number of tokens.
func (s Set) Len() int {
	return len(s.tokens)
}

// Tokens returns a copy of the tokens in ascending order.
func (s Set) Tokens() []string {
	out := make([]string, len(s.tokens))
	copy(out, s.tokens)
	return out
}

// Union returns a new Set containing the tokens of both sets.
func (s Set) Union(other Set) Set {
	merged := make([]string, 0, len(s.tokens)+len(other.tokens))
	merged = append(merged, s.tokens...)
	merged = append(merged, other.tokens...)
	return NewSet(merged...)
}

// Equal reports whether both sets contain the same tokens.
func (s Set) Equal(other Set) bool {
	if len(s.tokens) != len(other.tokens) {
		return false
	}
	for i := range s.tokens {
		if s.tokens[i] != other.tokens[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as a sorted JSON array. An empty set encodes as [].
func (s Set) MarshalJSON() ([]byte, error) {
	if s.tokens == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.tokens)
}

// UnmarshalJSON decodes a JSON array of strings. null decodes to the empty set.
func (s *Set) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = NewSet(raw...)
	return nil
}
