package discover

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestDiscoverPHPFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "app/Models/User.php", "<?php")
	writeFile(t, dir, "app/Http/Kernel.php", "<?php")
	// Non-PHP file should be ignored
	writeFile(t, dir, "app/readme.md", "hello")
	// Hidden file should be ignored
	writeFile(t, dir, "app/.hidden.php", "<?php")
	// Outside the requested subdirectory
	writeFile(t, dir, "routes/web.php", "<?php")

	entries, err := Files(dir, "app")
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}

	want := []string{"app/Http/Kernel.php", "app/Models/User.php"}
	if !slices.Equal(paths, want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for _, e := range entries {
		if e.Language != "php" {
			t.Errorf("entry %q: language = %q, want php", e.Path, e.Language)
		}
	}
}

func TestDiscoverMissingDir(t *testing.T) {
	t.Parallel()

	entries, err := Files(t.TempDir(), "resources/views")
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %v", entries)
	}
}

func TestDiscoverSkipDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "index.php", "<?php")
	writeFile(t, dir, "vendor/laravel/framework/src/Model.php", "<?php")
	writeFile(t, dir, "node_modules/pkg/x.php", "<?php")
	writeFile(t, dir, "storage/framework/views/abc.php", "<?php")
	writeFile(t, dir, ".hidden/secret.php", "<?php")

	entries, err := Files(dir, "")
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d: %v", len(entries), entries)
	}
	if entries[0].Path != "index.php" {
		t.Errorf("expected index.php, got %q", entries[0].Path)
	}
}

func TestDiscoverGitignore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "app/Generated/\n")
	writeFile(t, dir, "app/Post.php", "<?php")
	writeFile(t, dir, "app/Generated/Stub.php", "<?php")

	entries, err := Files(dir, "app")
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "app/Post.php" {
		t.Errorf("entries = %v, want only app/Post.php", entries)
	}
}

func TestDiscoverSymlinksSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "real.php", "<?php")

	// Create symlink
	err := os.Symlink(filepath.Join(dir, "real.php"), filepath.Join(dir, "link.php"))
	if err != nil {
		t.Skip("symlinks not supported")
	}

	entries, err := Files(dir, "")
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry (no symlink), got %d", len(entries))
	}
	if entries[0].Path != "real.php" {
		t.Errorf("expected real.php, got %q", entries[0].Path)
	}
}

func TestViews(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "resources/views/welcome.blade.php", "<h1>hi</h1>")
	writeFile(t, dir, "resources/views/layouts/app.blade.php", "@yield('content')")
	writeFile(t, dir, "resources/views/emails/orders/shipped.blade.php", "")
	// Plain PHP templates are not Blade views
	writeFile(t, dir, "resources/views/legacy.php", "<?php")

	views, err := Views(dir)
	if err != nil {
		t.Fatalf("Views: %v", err)
	}

	want := []string{"emails.orders.shipped", "layouts.app", "welcome"}
	if !slices.Equal(views, want) {
		t.Errorf("views = %v, want %v", views, want)
	}
}

func TestModels(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "app/Models/User.php", `<?php
namespace App\Models;

use Illuminate\Foundation\Auth\User as Authenticatable;

class User extends Authenticatable
{
    protected $fillable = ['name'];
}
`)
	writeFile(t, dir, "app/Models/Post.php", `<?php
namespace App\Models;

class Post extends \Illuminate\Database\Eloquent\Model {}
`)
	writeFile(t, dir, "app/Flight.php", `<?php
namespace App;

use Illuminate\Database\Eloquent\Model;

class Flight extends Model {}
`)
	// Not a model
	writeFile(t, dir, "app/Helpers.php", `<?php
namespace App;

class Helpers {}
`)
	// Nested directories are not searched
	writeFile(t, dir, "app/Models/Concerns/Tag.php", `<?php
namespace App\Models\Concerns;

class Tag extends Model {}
`)

	models, err := Models(context.Background(), dir)
	if err != nil {
		t.Fatalf("Models: %v", err)
	}

	want := []string{`App\Flight`, `App\Models\Post`, `App\Models\User`}
	if !slices.Equal(models, want) {
		t.Errorf("models = %v, want %v", models, want)
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
