package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/callsite/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestPathFindsArtisan(t *testing.T) {
	t.Parallel()

	empty := t.TempDir()
	app := t.TempDir()
	writeFile(t, filepath.Join(app, "artisan"), "#!/usr/bin/env php\n")

	p := New(config.ProjectConfig{WorkspaceFolders: []string{empty, app}})
	got, err := p.Path("vendor/autoload.php", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(app, "vendor", "autoload.php"), got)

	root, err := p.Root(true)
	require.NoError(t, err)
	assert.Equal(t, app, root)
}

func TestPathNotFound(t *testing.T) {
	t.Parallel()

	p := New(config.ProjectConfig{WorkspaceFolders: []string{t.TempDir()}})
	_, err := p.Path("artisan", false)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPathConfiguredBase(t *testing.T) {
	t.Parallel()

	ws := t.TempDir()
	p := New(config.ProjectConfig{
		BasePath:         "./backend",
		BasePathForCode:  "/var/www/html",
		WorkspaceFolders: []string{ws},
	})

	got, err := p.Path("routes/web.php", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(ws, "backend", "routes", "web.php"), got)

	got, err = p.Path("vendor/autoload.php", true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/var/www/html", "vendor", "autoload.php"), got)
}

func TestPathForCodeFallsBackToArtisan(t *testing.T) {
	t.Parallel()

	ws := t.TempDir()
	writeFile(t, filepath.Join(ws, "artisan"), "")
	p := New(config.ProjectConfig{BasePath: "/elsewhere", WorkspaceFolders: []string{ws}})

	got, err := p.Path("bootstrap/app.php", true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(ws, "bootstrap", "app.php"), got)
}

func TestWorkDir(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", New(config.ProjectConfig{}).WorkDir())
	assert.Equal(t, "a", New(config.ProjectConfig{WorkspaceFolders: []string{"a", "b"}}).WorkDir())
}

func TestEnvKeys(t *testing.T) {
	t.Parallel()

	ws := t.TempDir()
	writeFile(t, filepath.Join(ws, "artisan"), "")
	writeFile(t, filepath.Join(ws, ".env"), "APP_NAME=Laravel\n# comment\nDB_HOST=127.0.0.1\nexport APP_DEBUG=true\n")

	keys, err := New(config.ProjectConfig{WorkspaceFolders: []string{ws}}).EnvKeys()
	require.NoError(t, err)
	assert.Equal(t, []string{"APP_DEBUG", "APP_NAME", "DB_HOST"}, keys)
}

func TestReadEnvKeysMissingFile(t *testing.T) {
	t.Parallel()

	_, err := ReadEnvKeys(filepath.Join(t.TempDir(), ".env"))
	assert.Error(t, err)
}
