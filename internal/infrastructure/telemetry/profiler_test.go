package telemetry

import (
	"context"
	"runtime/pprof"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{ServerAddress: "http://localhost:4040", ApplicationName: "insight-backend"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_RequiresAddressAndName(t *testing.T) {
	tests := []struct {
		name string
		cfg  ProfilerConfig
		want string
	}{
		{"missing address", ProfilerConfig{Enabled: true, ApplicationName: "insight-backend"}, "server address is required"},
		{"missing name", ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"}, "application name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProfiler(tt.cfg, zaptest.NewLogger(t))
			require.Error(t, err)
			assert.Nil(t, p)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestProfiler_NilIsNoop(t *testing.T) {
	var p *Profiler
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Stop())
}

func TestWithProviderLabel(t *testing.T) {
	var got string
	var ok bool
	WithProviderLabel(context.Background(), "HOTJAR", func(ctx context.Context) {
		got, ok = pprof.Label(ctx, ProfileLabelProvider)
	})
	require.True(t, ok)
	assert.Equal(t, "HOTJAR", got)

	called := false
	WithProviderLabel(context.Background(), "", func(ctx context.Context) {
		called = true
		_, ok = pprof.Label(ctx, ProfileLabelProvider)
	})
	assert.True(t, called)
	assert.False(t, ok)
}
