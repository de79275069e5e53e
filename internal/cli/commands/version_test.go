package commands

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/fedsql/pkg/adapter"
)

func init() {
	adapter.Register(adapter.Registration{
		Name:    "stubdb",
		Summary: "adapter registered by the version tests",
		New:     func(*slog.Logger) adapter.Adapter { return nil },
	})
}

func TestNewVersionCommand(t *testing.T) {
	tests := []struct {
		name    string
		version string
		wantOut []string
	}{
		{
			name:    "release",
			version: "0.1.0",
			wantOut: []string{"fedsql v0.1.0", "Adapters:", "stubdb", "adapter registered by the version tests"},
		},
		{
			name:    "dev build",
			version: "dev",
			wantOut: []string{"fedsql vdev"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewVersionCommand(tt.version)
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs([]string{})

			require.NoError(t, cmd.Execute())
			for _, want := range tt.wantOut {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestVersionCommandMetadata(t *testing.T) {
	cmd := NewVersionCommand("test")
	assert.Equal(t, "version", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
}
