// callsite finds the PHP call expression enclosing a cursor position and
// answers project questions (models, views, env keys) for Laravel tooling.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/phobologic/callsite/internal/config"
	"github.com/phobologic/callsite/internal/literal"
	"github.com/phobologic/callsite/internal/logging"
	"github.com/phobologic/callsite/internal/php"
	"github.com/phobologic/callsite/internal/project"
	"github.com/phobologic/callsite/internal/registry"
	"github.com/phobologic/callsite/internal/resolve"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	return execute(args, os.Stdin, stdout, stderr)
}

func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetIn(stdin)
	root.SetArgs(args)
	return root.Execute()
}

// app carries the state shared by subcommands once flags are parsed.
type app struct {
	stdout  io.Writer
	stderr  io.Writer
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "callsite",
		Short: "Resolve the PHP call enclosing a cursor position",
		Long: `callsite locates the [Class::]function(...) call around a byte offset in a
PHP or Blade buffer, reports which argument the cursor is in and evaluates the
literal value of every argument. It also lists the models, views and .env keys
of a Laravel project for completion providers.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("callsite {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./"+config.FileName+")")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text, json)")

	root.AddCommand(
		newResolveCmd(a),
		newServeCmd(a),
		newCallsCmd(a),
		newModelsCmd(a),
		newViewsCmd(a),
		newEnvCmd(a),
		newInitCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.New(cfg.Log, a.stderr)
	return nil
}

// registry returns the call families plus the configured extra classes.
func (a *app) registry() (*registry.Registry, error) {
	reg, err := registry.Default()
	if err != nil {
		return nil, err
	}
	return reg.WithExtraClasses(a.cfg.Registry.ExtraClasses...), nil
}

// resolver builds a resolver whose counters register on promReg, which may
// be nil.
func (a *app) resolver(reg *registry.Registry, promReg prometheus.Registerer) *resolve.Resolver {
	opts := resolve.Options{
		WindowSpan:         a.cfg.Resolver.WindowSpan,
		MaxDepth:           a.cfg.Resolver.MaxDepth,
		MaxParenNesting:    a.cfg.Resolver.MaxParenNesting,
		MinNestedArgLength: a.cfg.Resolver.MinNestedArgLength,
	}
	return resolve.New(literal.NewPHP(), reg.Classes(), opts, a.logger, resolve.NewMetrics(promReg))
}

func (a *app) paths() *project.Paths {
	return project.New(a.cfg.Project)
}

func (a *app) php() *php.Client {
	return php.New(a.cfg.PHP, a.paths(), a.logger)
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(*cobra.Command, []string) error {
			_, _ = fmt.Fprintf(a.stdout, "callsite %s\n", version)
			return nil
		},
	}
}
