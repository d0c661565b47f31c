package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/atikulmunna/logpage/internal/excerpt"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, excerpt.DefaultSource, cfg.Source)
	assert.Equal(t, excerpt.Attribution, cfg.Attribution)
	assert.Equal(t, "raw", cfg.Output)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Publish.Interval)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".logpage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
source: site/cvs/index.html
output: json
server:
  addr: 127.0.0.1:9000
  pprof: true
publish:
  dir: out
  interval: 30s
`), 0o644))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "site/cvs/index.html", cfg.Source)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.True(t, cfg.Server.Pprof)
	assert.Equal(t, "out", cfg.Publish.Dir)
	assert.Equal(t, 30*time.Second, cfg.Publish.Interval)
	assert.Equal(t, ".logpage-state.json", cfg.Publish.State)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LOGPAGE_SERVER_ADDR", ":9999")
	t.Setenv("LOGPAGE_SOURCE", "/srv/cvs/index.html")

	cfg, err := Load(newViper())
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "/srv/cvs/index.html", cfg.Source)
}

func TestValidate(t *testing.T) {
	base, err := Load(newViper())
	require.NoError(t, err)

	bad := base
	bad.Output = "xml"
	assert.Error(t, bad.Validate())

	bad = base
	bad.Source = ""
	assert.Error(t, bad.Validate())

	bad = base
	bad.Publish.Interval = 0
	assert.Error(t, bad.Validate())
}

func TestYAMLRoundTrip(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)

	out, err := cfg.YAML()
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, excerpt.DefaultSource, back["source"])
}
