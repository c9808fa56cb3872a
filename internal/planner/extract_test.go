package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"whitespace", "  \n{\"a\":1}\n ", `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"upper fence tag", "```JSON\n{\"a\":1}\n```\ntrailing", `{"a":1}`},
		{"untagged fence", "```\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`},
		{"prose", `Here you go: {"a":1} -- done`, `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestExtractJSON_NoObject(t *testing.T) {
	for _, in := range []string{"", "   ", "no braces", "} backwards {", "[1,2,3]"} {
		_, err := ExtractJSON([]byte(in))
		assert.ErrorIs(t, err, ErrNoJSON, in)
	}
}
