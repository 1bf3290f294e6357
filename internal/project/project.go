// Package project locates the Laravel application inside the workspace.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/phobologic/callsite/internal/config"
)

// ErrNotFound is returned when no base path is configured and no workspace
// folder contains an artisan file.
var ErrNotFound = errors.New("laravel project not found")

// Paths resolves project-relative paths.
type Paths struct {
	basePath         string
	basePathForCode  string
	workspaceFolders []string
}

// New creates Paths from the project settings.
func New(cfg config.ProjectConfig) *Paths {
	return &Paths{
		basePath:         cfg.BasePath,
		basePathForCode:  cfg.BasePathForCode,
		workspaceFolders: cfg.WorkspaceFolders,
	}
}

// Path joins rel onto the project root. With forCode set the root is taken
// from base_path_for_code, the path as seen by the PHP process, which may
// differ from the local one when PHP runs in a container. Without a
// configured base path the first workspace folder holding an artisan file
// is the root.
func (p *Paths) Path(rel string, forCode bool) (string, error) {
	setting := p.basePath
	if forCode {
		setting = p.basePathForCode
	}
	if setting != "" {
		return filepath.Join(p.resolveBase(setting), rel), nil
	}

	root, ok := p.findArtisan()
	if !ok {
		return "", ErrNotFound
	}
	return filepath.Join(root, rel), nil
}

// Root returns the project root.
func (p *Paths) Root(forCode bool) (string, error) {
	return p.Path("", forCode)
}

// WorkDir is the directory PHP commands run in: the first workspace folder,
// or "" for the current directory.
func (p *Paths) WorkDir() string {
	if len(p.workspaceFolders) == 0 {
		return ""
	}
	return p.workspaceFolders[0]
}

// resolveBase anchors a relative setting at the first workspace folder.
func (p *Paths) resolveBase(setting string) string {
	if !strings.HasPrefix(setting, ".") || len(p.workspaceFolders) == 0 {
		return setting
	}
	joined := filepath.Join(p.workspaceFolders[0], setting)
	if abs, err := filepath.Abs(joined); err == nil {
		return abs
	}
	return joined
}

func (p *Paths) findArtisan() (string, bool) {
	for _, folder := range p.workspaceFolders {
		info, err := os.Stat(filepath.Join(folder, "artisan"))
		if err == nil && !info.IsDir() {
			return folder, true
		}
	}
	return "", false
}

// EnvKeys returns the sorted variable names defined in the project .env.
func (p *Paths) EnvKeys() ([]string, error) {
	path, err := p.Path(".env", false)
	if err != nil {
		return nil, err
	}
	return ReadEnvKeys(path)
}

// ReadEnvKeys returns the sorted variable names defined in a dotenv file.
func ReadEnvKeys(path string) ([]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
