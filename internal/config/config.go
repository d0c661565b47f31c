package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/atikulmunna/logpage/internal/excerpt"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides, e.g. LOGPAGE_SERVER_ADDR.
const EnvPrefix = "LOGPAGE"

// Config is the typed view of the viper settings.
type Config struct {
	Source      string        `mapstructure:"source" yaml:"source"`
	Attribution string        `mapstructure:"attribution" yaml:"attribution"`
	Output      string        `mapstructure:"output" yaml:"output"`
	Log         LogConfig     `mapstructure:"log" yaml:"log"`
	Server      ServerConfig  `mapstructure:"server" yaml:"server"`
	Publish     PublishConfig `mapstructure:"publish" yaml:"publish"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // json, console
}

type ServerConfig struct {
	Addr  string `mapstructure:"addr" yaml:"addr"`
	Pprof bool   `mapstructure:"pprof" yaml:"pprof"`
}

type PublishConfig struct {
	Dir      string        `mapstructure:"dir" yaml:"dir"`
	State    string        `mapstructure:"state" yaml:"state"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"` // state save period
}

// SetDefaults registers every key so env overrides and Unmarshal see them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source", excerpt.DefaultSource)
	v.SetDefault("attribution", excerpt.Attribution)
	v.SetDefault("output", "raw")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.pprof", false)
	v.SetDefault("publish.dir", "public")
	v.SetDefault("publish.state", ".logpage-state.json")
	v.SetDefault("publish.interval", 5*time.Second)
}

// BindEnv enables LOGPAGE_* overrides for nested keys.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no command can run with.
func (c Config) Validate() error {
	switch strings.ToLower(c.Output) {
	case "raw", "text", "json":
	default:
		return fmt.Errorf("invalid output format %q (want raw, text or json)", c.Output)
	}
	if c.Source == "" {
		return fmt.Errorf("source must not be empty")
	}
	if c.Publish.Interval <= 0 {
		return fmt.Errorf("publish.interval must be positive, got %s", c.Publish.Interval)
	}
	return nil
}

// YAML renders the effective configuration.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
