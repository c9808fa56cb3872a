package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PlaceholderText labels suggestions that arrive without usable text.
const PlaceholderText = "Untitled step"

// Ref is a reference expressed in a planner's foreign id space. Planners
// return numbers, strings or null interchangeably, so a Ref keeps a canonical
// JSON literal and compares by it: 1, 1.0 and 1e0 are the same key, while 1
// and "1" are different keys.
type Ref struct {
	raw string
}

// IntRef builds a Ref from an integer literal.
func IntRef(v int) Ref {
	return Ref{raw: strconv.Itoa(v)}
}

// StringRef builds a Ref from a string literal.
func StringRef(v string) Ref {
	b, _ := json.Marshal(v)
	return Ref{raw: string(b)}
}

// IsZero reports whether the reference is absent or null.
func (r Ref) IsZero() bool {
	return r.raw == ""
}

// Key returns the canonical map key of the reference.
func (r Ref) Key() string {
	return r.raw
}

// Int interprets the reference as a local step id. Integer-valued numbers and
// strings holding a base-10 integer qualify; anything else does not.
func (r Ref) Int() (int, bool) {
	if r.raw == "" {
		return 0, false
	}
	lit := r.raw
	if strings.HasPrefix(lit, `"`) {
		var s string
		if err := json.Unmarshal([]byte(lit), &s); err != nil {
			return 0, false
		}
		lit = strings.TrimSpace(s)
	}
	if n, err := strconv.Atoi(lit); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// String implements fmt.Stringer.
func (r Ref) String() string {
	if r.raw == "" {
		return "null"
	}
	return r.raw
}

// MarshalJSON implements json.Marshaler.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.raw == "" {
		return []byte("null"), nil
	}
	return []byte(r.raw), nil
}

// UnmarshalJSON accepts any scalar. Strings and numbers are re-encoded in
// canonical form so that equal values written differently share a key.
// Objects and arrays are kept compacted so they still act as distinct keys,
// though they never resolve to a step.
func (r *Ref) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		r.raw = ""
		return nil
	}
	switch c := trimmed[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*r = StringRef(s)
		return nil
	case c == '-' || (c >= '0' && c <= '9'):
		lit, err := canonicalNumber(string(trimmed))
		if err != nil {
			return err
		}
		r.raw = lit
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return err
	}
	r.raw = buf.String()
	return nil
}

// canonicalNumber rewrites a JSON number literal. Integer values use plain
// base-10 digits; other values use the shortest float form.
func canonicalNumber(lit string) (string, error) {
	if n, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return strconv.FormatInt(n, 10), nil
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return "", fmt.Errorf("workflow: invalid number %q: %w", lit, err)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
		return strconv.FormatInt(int64(f), 10), nil
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

// Suggestion is one raw step proposed by the planner. Every field is
// optional; Label and ResolvedType apply the defaults used by the merge.
type Suggestion struct {
	ID       Ref
	Text     *string
	Type     StepType
	Approval bool
	Next     Ref
	Branches *SuggestionBranches
}

// SuggestionBranches carries the foreign targets of a suggested decision.
type SuggestionBranches struct {
	Yes Ref `json:"yes"`
	No  Ref `json:"no"`
}

// UnmarshalJSON decodes a suggestion field by field so that one malformed
// field never discards the whole record. A record that is not an object
// decodes to an empty suggestion.
func (s *Suggestion) UnmarshalJSON(data []byte) error {
	*s = Suggestion{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}

	if raw, ok := fields["id"]; ok {
		_ = s.ID.UnmarshalJSON(raw)
	}
	if raw, ok := fields["text"]; ok {
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			s.Text = &text
		}
	}
	if raw, ok := fields["type"]; ok {
		var typ string
		if err := json.Unmarshal(raw, &typ); err == nil {
			s.Type = StepType(strings.ToLower(strings.TrimSpace(typ)))
		}
	}
	if raw, ok := fields["approval"]; ok {
		s.Approval = truthy(raw)
	}
	if raw, ok := fields["next"]; ok {
		_ = s.Next.UnmarshalJSON(raw)
	}
	if raw, ok := fields["branches"]; ok {
		var br map[string]json.RawMessage
		if err := json.Unmarshal(raw, &br); err == nil && br != nil {
			b := &SuggestionBranches{}
			if v, ok := br["yes"]; ok {
				_ = b.Yes.UnmarshalJSON(v)
			}
			if v, ok := br["no"]; ok {
				_ = b.No.UnmarshalJSON(v)
			}
			s.Branches = b
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler using the planner's wire names.
func (s Suggestion) MarshalJSON() ([]byte, error) {
	type wire struct {
		ID       Ref                 `json:"id"`
		Text     *string             `json:"text,omitempty"`
		Type     StepType            `json:"type,omitempty"`
		Approval bool                `json:"approval,omitempty"`
		Next     Ref                 `json:"next"`
		Branches *SuggestionBranches `json:"branches,omitempty"`
	}
	return json.Marshal(wire(s))
}

// Label returns the step text, or PlaceholderText when none was supplied.
func (s Suggestion) Label() string {
	if s.Text == nil || strings.TrimSpace(*s.Text) == "" {
		return PlaceholderText
	}
	return *s.Text
}

// ResolvedType returns the suggested type, defaulting to StepAction when the
// type is absent or unknown.
func (s Suggestion) ResolvedType() StepType {
	if s.Type.Valid() {
		return s.Type
	}
	return StepAction
}

// DecodeSuggestions decodes a JSON array of suggestion records. ok is false
// when data is not an array.
func DecodeSuggestions(data []byte) (batch []Suggestion, ok bool) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil || raws == nil {
		return nil, false
	}
	batch = make([]Suggestion, len(raws))
	for i, raw := range raws {
		_ = batch[i].UnmarshalJSON(raw)
	}
	return batch, true
}

// truthy mirrors loose boolean coercion: false, null, 0 and "" are false,
// everything else is true.
func truthy(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	default:
		return true
	}
}
