package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantKind    ResponseKind
		wantResume  string
		wantChanges []string
	}{
		{
			name:        "plain json",
			raw:         `{"resume":"New text","changes":["one"]}`,
			wantKind:    ResponseParsed,
			wantResume:  "New text",
			wantChanges: []string{"one"},
		},
		{
			name:        "fenced json",
			raw:         "```json\n{\"resume\":\"New text\",\"changes\":[]}\n```",
			wantKind:    ResponseParsed,
			wantResume:  "New text",
			wantChanges: []string{},
		},
		{
			name:        "prose",
			raw:         "I rewrote it for you.",
			wantKind:    ResponseRawFallback,
			wantResume:  "I rewrote it for you.",
			wantChanges: []string{"note"},
		},
		{
			name:        "missing changes",
			raw:         `{"resume":"New text"}`,
			wantKind:    ResponseRawFallback,
			wantResume:  `{"resume":"New text"}`,
			wantChanges: []string{"note"},
		},
		{
			name:        "wrong types",
			raw:         `{"resume":42,"changes":"all"}`,
			wantKind:    ResponseRawFallback,
			wantResume:  `{"resume":42,"changes":"all"}`,
			wantChanges: []string{"note"},
		},
		{
			name:        "empty",
			raw:         "",
			wantKind:    ResponseRawFallback,
			wantResume:  "",
			wantChanges: []string{"note"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseResponse(tt.raw, "note")
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantResume, got.Resume)
			assert.Equal(t, tt.wantChanges, got.Changes)
			if tt.wantKind == ResponseRawFallback {
				assert.Error(t, got.Reason)
			} else {
				assert.NoError(t, got.Reason)
			}
		})
	}
}

func TestResponseKindString(t *testing.T) {
	assert.Equal(t, "parsed", ResponseParsed.String())
	assert.Equal(t, "raw_fallback", ResponseRawFallback.String())
	assert.Equal(t, "unknown", ResponseKind(9).String())
}
