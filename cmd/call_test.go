package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFunc_ParseArg(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"2", float64(2)},
		{`"quoted"`, "quoted"},
		{"plain", "plain"},
		{`{"a":[1]}`, map[string]any{"a": []any{float64(1)}}},
		{"true", true},
		{"null", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseArg(tt.in))
		})
	}
}
