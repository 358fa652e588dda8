package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/doctavious/snippext/internal"
	"github.com/doctavious/snippext/internal/apperr"
	"github.com/doctavious/snippext/internal/models"
	pkgconfig "github.com/doctavious/snippext/pkg/config"
)

// loadConfig reads the config file and overlays the global flags. It does
// not validate, so command flags can still fill in required settings.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	path := cmd.String("config")
	cfg, err := internal.LoadConfig(path, cmd.IsSet("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cmd.IsSet("log-level") {
		if err := cfg.LogLevel.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
	}
	if cmd.IsSet("log-format") {
		cfg.LogFormat = cmd.String("log-format")
	}
	return cfg, nil
}

func commonOptions(cmd *cli.Command, cfg *internal.Config) []internal.Option {
	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVerbose(cmd.Bool("verbose")),
	}
}

func extract(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyExtractFlags(cmd, cfg)
	if err := pkgconfig.Validate(cfg); err != nil {
		return err
	}

	opts := append(commonOptions(cmd, cfg),
		internal.WithMode(internal.ModeExtract),
		internal.WithWatch(cmd.Bool("watch")),
	)
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	return nil
}

func clearTargets(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.IsSet("target") {
		cfg.Targets = cmd.StringSlice("target")
	}
	if err := pkgconfig.Validate(cfg); err != nil {
		return err
	}

	opts := append(commonOptions(cmd, cfg),
		internal.WithMode(internal.ModeClear),
		internal.WithDeleteMarkers(cmd.Bool("delete")),
	)
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

func initConfig(_ context.Context, cmd *cli.Command) error {
	path := internal.DefaultConfigFile
	if cmd.Args().Present() {
		path = cmd.Args().First()
	}
	if err := internal.WriteDefaultConfig(path, cmd.Bool("force")); err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
		return err
	}
	_, err := fmt.Fprintf(cmd.Root().Writer, "wrote %s\n", path)
	return err
}

func printSchema(_ context.Context, cmd *cli.Command) error {
	schema, err := models.Schema()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.Root().Writer, string(schema))
	return err
}

func main() {
	cmd := &cli.Command{
		Name:  "snippext",
		Usage: "Extract snippets from source files and keep documentation in sync",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: internal.DefaultConfigFile,
				Value:       internal.DefaultConfigFile,
				Sources:     cli.EnvVars("SNIPPEXT_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("SNIPPEXT_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (json, text)",
				Sources: cli.EnvVars("SNIPPEXT_LOG_FORMAT"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "List every written and unchanged file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "extract",
				Usage:  "Extract snippets into output files and targets",
				Flags:  extractFlags(),
				Action: extract,
			},
			{
				Name:  "clear",
				Usage: "Empty the snippet regions of target files",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "target",
						Aliases: []string{"t"},
						Usage:   "Target file or glob (repeatable)",
						Sources: cli.EnvVars("SNIPPEXT_TARGETS"),
					},
					&cli.BoolFlag{
						Name:  "delete",
						Usage: "Remove the marker lines as well",
					},
				},
				Action: clearTargets,
			},
			{
				Name:      "init",
				Usage:     "Write the default config file",
				ArgsUsage: "[path]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: initConfig,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the config file",
				Action: printSchema,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
