package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())
	assert.Equal(t, 1000, s.Curve.Accuracy)
	assert.Equal(t, 1.0, s.Curve.Resolution)
	assert.Equal(t, 100, s.Connect.IterationCap)
	assert.Equal(t, 5*time.Second, s.Engine.Timeout)
}

func TestParseOverridesDefaults(t *testing.T) {
	s, err := Parse([]byte(`
curve:
  resolution: 2.5
connect:
  min_range: 1
  max_range: 50
  close_loop: true
engine:
  timeout: 2s
`))
	require.NoError(t, err)
	assert.Equal(t, 2.5, s.Curve.Resolution)
	assert.Equal(t, 1000, s.Curve.Accuracy, "unset fields keep their defaults")
	assert.Equal(t, 50.0, s.Connect.MaxRange)
	assert.True(t, s.Connect.CloseLoop)
	assert.Equal(t, 2*time.Second, s.Engine.Timeout)
}

func TestParseEmpty(t *testing.T) {
	s, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		msg  string
	}{
		{"zero accuracy", "curve: {accuracy: 0}", "Curve.Accuracy"},
		{"negative resolution", "curve: {resolution: -1}", "Curve.Resolution"},
		{"inverted band", "connect: {min_range: 10, max_range: 5}", "Connect.MaxRange"},
		{"too many cells", "mesh: {cells: 4096}", "Mesh.Cells"},
		{"unknown key", "curve: {accuracyy: 10}", "accuracyy"},
		{"bad yaml", "curve: [", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSettings)
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "railsweep.yaml")
	require.NoError(t, os.WriteFile(path, []byte("curve:\n  accuracy: 200\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 200, s.Curve.Accuracy)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestTrackSettings(t *testing.T) {
	s := Default()
	s.Connect.CloseLoop = true
	ts := s.Track()
	assert.Equal(t, s.Curve.Accuracy, ts.Curve.Accuracy)
	assert.Equal(t, s.Curve.Resolution, ts.Curve.Resolution)
	assert.Equal(t, s.Connect.MinRange, ts.Connect.MinRange)
	assert.Equal(t, s.Connect.MaxRange, ts.Connect.MaxRange)
	assert.Equal(t, s.Connect.IterationCap, ts.Connect.IterationCap)
	assert.True(t, ts.Connect.CloseLoop)
}
