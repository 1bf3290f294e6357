package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, ResolverConfig{WindowSpan: 400, MaxDepth: 6, MaxParenNesting: 6, MinNestedArgLength: 4}, cfg.Resolver)
	assert.Empty(t, cfg.Registry.ExtraClasses)
	assert.Equal(t, []string{"."}, cfg.Project.WorkspaceFolders)
	assert.Equal(t, `php -r "{code}"`, cfg.PHP.Command)
	assert.Equal(t, 30*time.Second, cfg.PHP.Timeout)
	assert.Equal(t, time.Minute, cfg.PHP.ModelsTTL)
	assert.Equal(t, LogConfig{Level: "info", Format: "text"}, cfg.Log)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "callsite.yaml")
	content := `resolver:
  max_depth: 3
registry:
  extra_classes: [Cache, Storage]
project:
  base_path: ./backend
php:
  command: docker compose exec -T app php -r "{code}"
  models_ttl: 5m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Resolver.MaxDepth)
	assert.Equal(t, 400, cfg.Resolver.WindowSpan, "unset keys keep their defaults")
	assert.Equal(t, []string{"Cache", "Storage"}, cfg.Registry.ExtraClasses)
	assert.Equal(t, "./backend", cfg.Project.BasePath)
	assert.Equal(t, `docker compose exec -T app php -r "{code}"`, cfg.PHP.Command)
	assert.Equal(t, 5*time.Minute, cfg.PHP.ModelsTTL)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadWithoutFile(t *testing.T) {
	t.Parallel()

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Resolver.MaxDepth)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("CALLSITE_RESOLVER_WINDOW_SPAN", "800")
	t.Setenv("CALLSITE_PHP_TIMEOUT", "2s")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Resolver.WindowSpan)
	assert.Equal(t, 2*time.Second, cfg.PHP.Timeout)
}

func TestLoadFlags(t *testing.T) {
	t.Parallel()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	flags.String("log-format", "text", "")
	require.NoError(t, flags.Parse([]string{"--log-level", "debug"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"window span", "resolver.window_span", 1},
		{"max depth", "resolver.max_depth", 0},
		{"paren nesting", "resolver.max_paren_nesting", 0},
		{"nested arg length", "resolver.min_nested_arg_length", 0},
		{"command placeholder", "php.command", "php -r"},
		{"timeout", "php.timeout", "0s"},
		{"negative ttl", "php.models_ttl", "-1s"},
		{"log level", "log.level", "verbose"},
		{"log format", "log.format", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v := viper.New()
			SetDefaults(v)
			v.Set(tt.key, tt.val)
			_, err := New(v)
			assert.Error(t, err)
		})
	}
}
