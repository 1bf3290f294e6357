package php

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
)

const (
	outputStart = "___CALLSITE_OUTPUT___"
	outputEnd   = "___CALLSITE_END_OUTPUT___"
)

var newlines = regexp.MustCompile(`\r\n|\r|\n`)

// bootstrap boots the application through its console kernel with logging
// silenced, then echoes the snippet output between the markers.
const bootstrap = `define('LARAVEL_START', microtime(true));` +
	`require_once '%s';` +
	`$app = require_once '%s';` +
	`class CallsiteServiceProvider extends \Illuminate\Support\ServiceProvider {` +
	`public function register() {}` +
	`public function boot() {` +
	`if (method_exists($this->app['log'], 'setHandlers')) {` +
	`$this->app['log']->setHandlers([new \Monolog\Handler\NullHandler()]);` +
	`}` +
	`}` +
	`}` +
	`$app->register(new CallsiteServiceProvider($app));` +
	`$kernel = $app->make(Illuminate\Contracts\Console\Kernel::class);` +
	`$status = $kernel->handle($input = new Symfony\Component\Console\Input\ArgvInput, new Symfony\Component\Console\Output\ConsoleOutput);` +
	`echo '` + outputStart + `';` +
	`%s` +
	`echo '` + outputEnd + `';`

// RunLaravel runs code inside the booted application and returns what it
// printed.
func (c *Client) RunLaravel(ctx context.Context, code string) (string, error) {
	code = newlines.ReplaceAllString(code, " ")

	for _, rel := range []string{"vendor/autoload.php", "bootstrap/app.php"} {
		local, err := c.paths.Path(rel, false)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrNoProject, err)
		}
		if !fileExists(local) {
			return "", fmt.Errorf("%w: missing %s", ErrNoProject, local)
		}
	}

	autoload, err := c.paths.Path("vendor/autoload.php", true)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoProject, err)
	}
	app, err := c.paths.Path("bootstrap/app.php", true)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoProject, err)
	}

	out, err := c.RunPHP(ctx, fmt.Sprintf(bootstrap, autoload, app, code))
	if err != nil {
		return "", err
	}
	return ExtractOutput(out)
}

// ExtractOutput returns the text printed between the output markers.
// Anything the application prints while booting is discarded.
func ExtractOutput(out string) (string, error) {
	start := strings.Index(out, outputStart)
	if start < 0 {
		return "", fmt.Errorf("parse error: %q", out)
	}
	rest := out[start+len(outputStart):]
	end := strings.Index(rest, outputEnd)
	if end < 0 {
		return "", fmt.Errorf("parse error: %q", out)
	}
	return rest[:end], nil
}

const modelsCode = `
echo json_encode(array_values(array_filter(array_map(function ($name) {
	return app()->getNamespace().str_replace([app_path().'/', app_path().'\\', '.php', '/'], ['', '', '', '\\'], $name);
}, array_merge(glob(app_path('*')), glob(app_path('Models/*')))), function ($class) {
	return class_exists($class) && is_subclass_of($class, 'Illuminate\\Database\\Eloquent\\Model');
})));
`

// Models lists the application's Eloquent model classes. Results are
// cached for the configured TTL and concurrent refreshes share one PHP
// run. Failures are logged and yield an empty list.
func (c *Client) Models(ctx context.Context) []string {
	c.mu.Lock()
	if c.models != nil && c.now().Sub(c.modelsAt) < c.modelsTTL {
		models := slices.Clone(c.models)
		c.mu.Unlock()
		return models
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do("models", func() (any, error) {
		out, err := c.RunLaravel(ctx, modelsCode)
		if err != nil {
			return nil, err
		}
		var models []string
		if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &models); err != nil {
			return nil, fmt.Errorf("decoding models: %w", err)
		}
		if models == nil {
			models = []string{}
		}

		c.mu.Lock()
		c.models = models
		c.modelsAt = c.now()
		c.mu.Unlock()
		return models, nil
	})
	if err != nil {
		c.logger.Warn("listing models failed", slog.String("error", err.Error()))
		return []string{}
	}
	return slices.Clone(v.([]string))
}
