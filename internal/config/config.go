// Package config loads callsite settings from defaults, an optional YAML
// file, CALLSITE_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the working directory.
const FileName = ".callsite.yaml"

// EnvPrefix prefixes environment overrides, e.g. CALLSITE_PHP_COMMAND.
const EnvPrefix = "CALLSITE"

type Config struct {
	Resolver ResolverConfig `mapstructure:"resolver" yaml:"resolver"`
	Registry RegistryConfig `mapstructure:"registry" yaml:"registry"`
	Project  ProjectConfig  `mapstructure:"project" yaml:"project"`
	PHP      PHPConfig      `mapstructure:"php" yaml:"php"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

type ResolverConfig struct {
	WindowSpan         int `mapstructure:"window_span" yaml:"window_span"`
	MaxDepth           int `mapstructure:"max_depth" yaml:"max_depth"`
	MaxParenNesting    int `mapstructure:"max_paren_nesting" yaml:"max_paren_nesting"`
	MinNestedArgLength int `mapstructure:"min_nested_arg_length" yaml:"min_nested_arg_length"`
}

type RegistryConfig struct {
	ExtraClasses []string `mapstructure:"extra_classes" yaml:"extra_classes"`
}

type ProjectConfig struct {
	BasePath         string   `mapstructure:"base_path" yaml:"base_path"`
	BasePathForCode  string   `mapstructure:"base_path_for_code" yaml:"base_path_for_code"`
	WorkspaceFolders []string `mapstructure:"workspace_folders" yaml:"workspace_folders"`
}

type PHPConfig struct {
	// Command runs PHP code; "{code}" is replaced by the escaped snippet.
	Command   string        `mapstructure:"command" yaml:"command"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	ModelsTTL time.Duration `mapstructure:"models_ttl" yaml:"models_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("resolver.window_span", 400)
	v.SetDefault("resolver.max_depth", 6)
	v.SetDefault("resolver.max_paren_nesting", 6)
	v.SetDefault("resolver.min_nested_arg_length", 4)

	v.SetDefault("registry.extra_classes", []string{})

	v.SetDefault("project.base_path", "")
	v.SetDefault("project.base_path_for_code", "")
	v.SetDefault("project.workspace_folders", []string{"."})

	v.SetDefault("php.command", `php -r "{code}"`)
	v.SetDefault("php.timeout", "30s")
	v.SetDefault("php.models_ttl", "60s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Default returns the configuration with no file, environment or flags.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := New(v)
	if err != nil {
		panic(fmt.Errorf("default configuration: %w", err))
	}
	return cfg
}

// Load reads configuration. An empty file searches the working directory
// for FileName and tolerates its absence; an explicit file must exist.
// Flags named log-level and log-format override their keys when set.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, ".yaml"))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range map[string]string{"log.level": "log-level", "log.format": "log-format"} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return New(v)
}

// New decodes and validates the configuration held by v.
func New(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Resolver.WindowSpan < 2 {
		return errors.New("resolver.window_span must be at least 2")
	}
	if c.Resolver.MaxDepth < 1 {
		return errors.New("resolver.max_depth must be at least 1")
	}
	if c.Resolver.MaxParenNesting < 1 {
		return errors.New("resolver.max_paren_nesting must be at least 1")
	}
	if c.Resolver.MinNestedArgLength < 1 {
		return errors.New("resolver.min_nested_arg_length must be at least 1")
	}

	if !strings.Contains(c.PHP.Command, "{code}") {
		return errors.New(`php.command must contain "{code}"`)
	}
	if c.PHP.Timeout <= 0 {
		return errors.New("php.timeout must be positive")
	}
	if c.PHP.ModelsTTL < 0 {
		return errors.New("php.models_ttl must not be negative")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q is not one of text, json", c.Log.Format)
	}
	return nil
}
