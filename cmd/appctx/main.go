// Package main is a console command that resolves the application context
// from configuration and prints it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jsamuelsen/app-context/internal/app/appctx"
	"github.com/jsamuelsen/app-context/internal/app/bootstrap"
	"github.com/jsamuelsen/app-context/internal/domain"
	"github.com/jsamuelsen/app-context/internal/platform/config"
)

// Output formats accepted by --format.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

type options struct {
	configDir string
	profile   string
	format    string
	path      string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:          "appctx",
		Short:        "Print the resolved application context",
		Long:         "Resolves every configured context provider in console scope and prints the merged mapping, or the value at --path.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configDir, "config-dir", config.DefaultConfigDir, "directory holding base.yaml and profile files")
	flags.StringVarP(&opts.profile, "profile", "p", envOr("APP_ENVIRONMENT", "local"), "configuration profile")
	flags.StringVarP(&opts.format, "format", "f", formatJSON, "output format: json or yaml")
	flags.StringVar(&opts.path, "path", "", "dotted path of a single value to print")

	return cmd
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	if opts.format != formatJSON && opts.format != formatYAML {
		return domain.NewValidationError("format", "must be json or yaml")
	}

	cfg, err := config.LoadFrom(opts.configDir, opts.profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := bootstrap.Logger(cfg, stderr)

	stack, err := bootstrap.NewStack(cfg, logger, nil)
	if err != nil {
		return err
	}

	engine, err := stack.ProcessContext(ctx, logger)
	if err != nil {
		return err
	}
	defer engine.Reset(ctx)

	ctx = appctx.WithEngine(ctx, engine)

	out, err := resolve(ctx, engine, opts.path)
	if err != nil {
		return err
	}

	return write(stdout, opts.format, out)
}

// resolve returns the whole mapping, or the value at path when set. An
// absent path is an error.
func resolve(ctx context.Context, engine *appctx.Engine, path string) (any, error) {
	if path == "" {
		return engine.All(ctx)
	}

	ok, err := engine.Has(ctx, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewNotFoundError("context path", path)
	}

	return engine.Get(ctx, path, nil)
}

func write(w io.Writer, format string, v any) error {
	if format == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}

		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}

	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
