package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeMoreInfo(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{"empty", "", nil},
		{"null", "null", nil},
		{"empty object", "{}", nil},
		{"strings", `{"source":"bash","file":"~/.bash_history"}`, map[string]string{"source": "bash", "file": "~/.bash_history"}},
		{"non-string values", `{"n": 3, "ok": false, "tags": ["a", "b"], "nested": {"x": 1}}`,
			map[string]string{"n": "3", "ok": "false", "tags": `["a","b"]`, "nested": `{"x":1}`}},
		{"malformed", `{"source":`, map[string]string{"raw": `{"source":`}},
		{"not an object", `[1,2]`, map[string]string{"raw": `[1,2]`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeMoreInfo(tt.raw))
		})
	}
}
