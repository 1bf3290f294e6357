package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phobologic/callsite/internal/discover"
	"github.com/phobologic/callsite/internal/toon"
)

func newModelsCmd(a *app) *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the project's Eloquent models",
		Long: `Models boots the Laravel application through the configured PHP command and
lists the fully qualified class names of its Eloquent models. With --offline
the model classes are read from app/ and app/Models/ without running PHP.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var models []string
			if offline {
				root, err := a.paths().Root(false)
				if err != nil {
					return err
				}
				models, err = discover.Models(cmd.Context(), root)
				if err != nil {
					return fmt.Errorf("reading models: %w", err)
				}
			} else {
				models = a.php().Models(cmd.Context())
			}
			_, _ = fmt.Fprintln(a.stdout, toon.List("models", models))
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "read model classes from source instead of running PHP")
	return cmd
}

func newViewsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "views",
		Short: "List the project's Blade views",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			root, err := a.paths().Root(false)
			if err != nil {
				return err
			}
			views, err := discover.Views(root)
			if err != nil {
				return fmt.Errorf("reading views: %w", err)
			}
			_, _ = fmt.Fprintln(a.stdout, toon.List("views", views))
			return nil
		},
	}
}

func newEnvCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List the keys defined in the project's .env file",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			keys, err := a.paths().EnvKeys()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(a.stdout, toon.List("env", keys))
			return nil
		},
	}
}
