package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ollama-go/pkg/ollama"
)

const (
	DefaultModel    = "llama3.2"
	DefaultMaxSteps = 8
	DefaultTimeout  = ollama.DefaultTimeout
	DefaultHost     = ollama.DefaultHost
	AppName         = "olla"
)

// Config holds runtime configuration values.
type Config struct {
	Host       string
	Model      string
	Timeout    time.Duration
	UserAgent  string
	MaxRetries int
	MaxSteps   int
	KeepAlive  string
	JSON       bool
	Verbose    bool
	Quiet      bool
	NoTools    bool
}

type rawConfig struct {
	Host         string `mapstructure:"host"`
	Model        string `mapstructure:"model"`
	Timeout      string `mapstructure:"timeout"`
	UserAgent    string `mapstructure:"user_agent"`
	MaxRetries   int    `mapstructure:"max_retries"`
	MaxSteps     int    `mapstructure:"max_steps"`
	KeepAlive    string `mapstructure:"keep_alive"`
	JSON         bool   `mapstructure:"json"`
	OutputFormat string `mapstructure:"output_format"`
	Verbose      bool   `mapstructure:"verbose"`
	Quiet        bool   `mapstructure:"quiet"`
	NoTools      bool   `mapstructure:"no_tools"`
}

// flagKeys maps config keys to the persistent flags that override them.
var flagKeys = map[string]string{
	"host":        "host",
	"model":       "model",
	"timeout":     "timeout",
	"max_retries": "max-retries",
	"max_steps":   "max-steps",
	"keep_alive":  "keep-alive",
	"json":        "json",
	"verbose":     "verbose",
	"quiet":       "quiet",
	"no_tools":    "no-tools",
}

// Load resolves configuration from defaults, config files, env, and flags.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("OLLA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("host", DefaultHost)
	v.SetDefault("model", DefaultModel)
	v.SetDefault("timeout", DefaultTimeout.String())
	v.SetDefault("user_agent", "")
	v.SetDefault("max_retries", 0)
	v.SetDefault("max_steps", DefaultMaxSteps)
	v.SetDefault("keep_alive", "")
	v.SetDefault("json", false)
	v.SetDefault("output_format", "text")
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)
	v.SetDefault("no_tools", false)

	if cmd != nil {
		for key, flag := range flagKeys {
			if f := cmd.Flags().Lookup(flag); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	// OLLAMA_HOST is the server's own convention; OLLA_HOST still wins.
	if host := os.Getenv("OLLAMA_HOST"); host != "" && os.Getenv("OLLA_HOST") == "" {
		if cmd == nil || !cmd.Flags().Changed("host") {
			v.Set("host", host)
		}
	}
	if seconds := os.Getenv("OLLA_TIMEOUT_SECONDS"); seconds != "" {
		if cmd == nil || !cmd.Flags().Changed("timeout") {
			v.Set("timeout", seconds+"s")
		}
	}

	if err := loadConfigFile(v); err != nil {
		return Config{}, err
	}

	var raw rawConfig
	decoder, _ := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           &raw,
		WeaklyTypedInput: true,
	})
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return Config{}, err
	}

	timeout := DefaultTimeout
	if raw.Timeout != "" {
		parsed, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("invalid timeout duration: %w", err)
		}
		timeout = parsed
	}

	jsonOutput := raw.JSON
	if cmd != nil && cmd.Flags().Changed("json") {
		jsonOutput = v.GetBool("json")
	} else if strings.EqualFold(raw.OutputFormat, "json") {
		jsonOutput = true
	}

	cfg := Config{
		Host:       raw.Host,
		Model:      raw.Model,
		Timeout:    timeout,
		UserAgent:  raw.UserAgent,
		MaxRetries: raw.MaxRetries,
		MaxSteps:   raw.MaxSteps,
		KeepAlive:  raw.KeepAlive,
		JSON:       jsonOutput,
		Verbose:    raw.Verbose,
		Quiet:      raw.Quiet,
		NoTools:    raw.NoTools,
	}

	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if _, err := ollama.ParseHost(cfg.Host); err != nil {
		return Config{}, err
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.Timeout < 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return cfg, nil
}

func loadConfigFile(v *viper.Viper) error {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	base := filepath.Join(configDir, AppName)
	candidates := []string{
		filepath.Join(base, "config.yaml"),
		filepath.Join(base, "config.yml"),
		filepath.Join(base, "config.json"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return err
			}
			return nil
		}
	}
	return nil
}
