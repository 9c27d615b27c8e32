package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEndpointPrecedence(t *testing.T) {
	endpoints := []string{"redis-1:6379", "redis-2:6379"}

	// Explicit flag wins over config file values.
	assert.Equal(t, "override:6380", ResolveEndpoint("override", 6380, endpoints))

	// Only the first config file endpoint is used.
	assert.Equal(t, "redis-1:6379", ResolveEndpoint("", 6379, endpoints))

	// Built-in default when neither flag nor config provide an endpoint.
	assert.Equal(t, "localhost:6379", ResolveEndpoint("", 6379, nil))
}

func TestLoadEndpoints(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `environments:
  default:
    endpoints:
      - "localhost:6379"
  production:
    endpoints:
      - "redis-1:6379"
      - "redis-2:6379"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	endpoints, err := LoadEndpoints(path, "production")
	require.NoError(t, err)
	assert.Equal(t, []string{"redis-1:6379", "redis-2:6379"}, endpoints)

	endpoints, err = LoadEndpoints(path, "default")
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:6379"}, endpoints)

	// Unknown environment yields no endpoints, not an error.
	endpoints, err = LoadEndpoints(path, "staging")
	require.NoError(t, err)
	assert.Empty(t, endpoints)
}

func TestLoadEndpointsMissingDefaultIsNotFatal(t *testing.T) {
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		t.Skipf("%s exists on this host", DefaultConfigFile)
	}
	endpoints, err := LoadEndpoints(DefaultConfigFile, "default")
	require.NoError(t, err)
	assert.Nil(t, endpoints)
}

func TestLoadEndpointsExplicitMissingFileIsFatal(t *testing.T) {
	// Falling back to defaults is only acceptable for the unset default
	// location; a path the user named must exist.
	_, err := LoadEndpoints(filepath.Join(t.TempDir(), "nope.yaml"), "default")
	assert.Error(t, err)
}

func TestLoadEndpointsBadFileIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environments: ["), 0o644))

	_, err := LoadEndpoints(path, "default")
	assert.Error(t, err)
}

func TestGetLockConfigRejectsNonPositiveDurations(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("ttl", 0)
	viper.Set("timeout", 5)
	_, err := GetLockConfig()
	assert.Error(t, err, "a zero ttl must be rejected, not silently defaulted")

	viper.Set("ttl", 30)
	viper.Set("timeout", -1)
	_, err = GetLockConfig()
	assert.Error(t, err)
}

func TestWrapString(t *testing.T) {
	wrapped := WrapString("a sentence that is definitely longer than fifty characters and must wrap somewhere")
	for _, line := range splitLines(wrapped) {
		assert.LessOrEqual(t, len(line), Wrap)
	}
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return append(lines, s[start:])
}
