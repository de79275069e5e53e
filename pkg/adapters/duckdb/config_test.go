package duckdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]string
		want  []string
	}{
		{
			name:  "nil options",
			input: nil,
			want:  nil,
		},
		{
			name:  "extensions only",
			input: map[string]string{"extensions": "json, httpfs,"},
			want:  []string{"INSTALL json", "LOAD json", "INSTALL httpfs", "LOAD httpfs"},
		},
		{
			name:  "settings in name order",
			input: map[string]string{"threads": "2", "memory_limit": "4GB"},
			want:  []string{"SET memory_limit = '4GB'", "SET threads = '2'"},
		},
		{
			name:  "quotes are escaped",
			input: map[string]string{"search_path": "it's"},
			want:  []string{"SET search_path = 'it''s'"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseParams(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Statements())
		})
	}
}
