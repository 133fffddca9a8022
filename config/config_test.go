package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *Flags {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := AddFlags(fs)
	require.NoError(t, fs.Parse(append([]string{"--env-file", ""}, args...)))
	return f
}

func TestDefault(t *testing.T) {
	cfg, err := newFlags(t).Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.Equal(t, "http://localhost:8000", cfg.Url())
	assert.Equal(t, "qforms.sqlite", cfg.DBUrl)
	assert.Zero(t, cfg.TokenTTL)
	assert.False(t, cfg.Debug)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qforms.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9000\ndb_url: file.sqlite\ndebug: true\ntoken_ttl: 1h\n"), 0o600))

	t.Setenv("QF_DB_URL", "env.sqlite")

	cfg, err := newFlags(t, "--config", path, "--port", "9100").Load()
	require.NoError(t, err)
	assert.Equal(t, uint(9100), cfg.Port, "flag beats file")
	assert.Equal(t, "env.sqlite", cfg.DBUrl, "env beats file")
	assert.True(t, cfg.Debug, "file beats default")
	assert.Equal(t, time.Hour, cfg.TokenTTL)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("QF_PORT=7000\n"), 0o600))
	t.Setenv("QF_PORT", "")
	os.Unsetenv("QF_PORT")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := AddFlags(fs)
	require.NoError(t, fs.Parse([]string{"--env-file", path}))

	cfg, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, uint(7000), cfg.Port)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("QF_PORT", "eighty")
	_, err := newFlags(t).Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, false},
		{"zero port", func(c *Config) { c.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Port = 70000 }, true},
		{"missing db url", func(c *Config) { c.DBUrl = "" }, true},
		{"negative ttl", func(c *Config) { c.TokenTTL = -time.Second }, true},
		{"bcrypt cost too low", func(c *Config) { c.BcryptCost = 1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
