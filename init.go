package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/callsite/internal/config"
)

const (
	sentinelStart = "# callsite:start"
	sentinelEnd   = "# callsite:end"
)

func newInitCmd(a *app) *cobra.Command {
	var dryRun, force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default " + config.FileName,
		Long: `Init writes the default configuration to path (default ./` + config.FileName + `).
The settings are wrapped in sentinel comments so later runs replace them in
place without touching keys or comments outside the block. A file without a
block is left alone unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		// The file being written may not be valid yet.
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(_ *cobra.Command, args []string) error {
			section, err := generateSection(config.Default())
			if err != nil {
				return err
			}

			path := config.FileName
			if len(args) > 0 {
				path = args[0]
			}

			existing, err := os.ReadFile(path)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			content := string(existing)
			if !hasSection(content) && strings.TrimSpace(content) != "" {
				if !force {
					return fmt.Errorf("%s exists without a callsite block (use --force to overwrite)", path)
				}
				content = ""
			}
			updated := applySection(content, section)

			if dryRun {
				_, _ = fmt.Fprint(a.stdout, updated)
				return nil
			}

			if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			_, _ = fmt.Fprintf(a.stderr, "wrote callsite settings to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite a file that has no callsite block")
	return cmd
}

// generateSection renders cfg as the sentinel-wrapped YAML block.
func generateSection(cfg *config.Config) (string, error) {
	doc := map[string]any{
		"resolver": cfg.Resolver,
		"registry": cfg.Registry,
		"project":  cfg.Project,
		"php": map[string]any{
			"command":    cfg.PHP.Command,
			"timeout":    cfg.PHP.Timeout.String(),
			"models_ttl": cfg.PHP.ModelsTTL.String(),
		},
		"log": cfg.Log,
	}
	body, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("rendering settings: %w", err)
	}
	return sentinelStart + "\n" + strings.TrimRight(string(body), "\n") + "\n" + sentinelEnd, nil
}

func hasSection(content string) bool {
	start := strings.Index(content, sentinelStart)
	return start >= 0 && strings.Index(content, sentinelEnd) > start
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if content == "" {
		return section + "\n"
	}
	// Append, ensuring a blank line separator.
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
