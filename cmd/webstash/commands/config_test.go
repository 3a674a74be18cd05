package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/webstash/internal/config"
	"github.com/thoreinstein/webstash/internal/errors"
)

func setupTestConfig(t *testing.T) string {
	t.Helper()
	config.Init()
	t.Cleanup(viper.Reset)
	path := filepath.Join(t.TempDir(), "config.yaml")
	viper.SetConfigFile(path)
	testEnv(t, seeded(t, "example.com"))
	return path
}

func TestConfigGet(t *testing.T) {
	setupTestConfig(t)

	var buf bytes.Buffer
	require.NoError(t, runConfigGetWithWriter(&buf, "retention"))
	assert.Equal(t, "10\n", buf.String())

	buf.Reset()
	require.NoError(t, runConfigGetWithWriter(&buf, "backends"))
	assert.Equal(t, 6, strings.Count(buf.String(), "\n"))

	err := runConfigGetWithWriter(&buf, "nope")
	assert.Equal(t, errors.ExitUser, errors.ExitCode(err))
}

func TestConfigSet(t *testing.T) {
	path := setupTestConfig(t)

	var buf bytes.Buffer
	require.NoError(t, runConfigSetWithWriter(&buf, "retention", "3"))
	require.NoError(t, runConfigSetWithWriter(&buf, "backends", "localStorage, cookies"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got config.Config
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, 3, got.Retention)
	assert.Equal(t, []string{"localStorage", "cookies"}, got.Backends)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestConfigSet_Invalid(t *testing.T) {
	path := setupTestConfig(t)

	tests := []struct {
		key, value string
	}{
		{"retention", "0"},
		{"backends", "flash"},
		{"host", " "},
		{"unknown", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := runConfigSetWithWriter(&bytes.Buffer{}, tt.key, tt.value)
			assert.Equal(t, errors.ExitUser, errors.ExitCode(err), "err = %v", err)
		})
	}

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "invalid values must not be written")
}

func TestConfigList(t *testing.T) {
	setupTestConfig(t)

	var buf bytes.Buffer
	require.NoError(t, runConfigListWithWriter(&buf))
	var got config.Config
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 10, got.Retention)
	assert.True(t, got.Compress)
}

func TestConfigInit(t *testing.T) {
	setupTestConfig(t)
	path := filepath.Join(t.TempDir(), "webstash", "config.yaml")

	var buf bytes.Buffer
	require.NoError(t, runConfigInitWithWriter(&buf, path))
	assert.Contains(t, buf.String(), path)

	err := runConfigInitWithWriter(&buf, path)
	assert.Equal(t, errors.ExitUser, errors.ExitCode(err))

	configInitForce = true
	require.NoError(t, runConfigInitWithWriter(&buf, path))
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{" a , b ", []string{"a", "b"}},
		{",a,,b,", []string{"a", "b"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitList(tt.in), tt.in)
	}
}
