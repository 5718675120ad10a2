package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/tferro/esmcat/internal"
	"github.com/tferro/esmcat/internal/parsers"
	pkgconfig "github.com/tferro/esmcat/pkg/config"
)

func sharedFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to config file (optional; flags override it)",
			Sources: cli.EnvVars("ESMCAT_CONFIG_FILE"),
		},
		&cli.StringSliceFlag{
			Name:    "root",
			Aliases: []string{"r"},
			Usage:   "Directory tree to crawl (repeatable)",
		},
		&cli.IntFlag{
			Name:  "depth",
			Usage: "Directory levels to descend before listing assets",
		},
		&cli.StringSliceFlag{
			Name:  "include",
			Usage: "Glob pattern asset paths must match (repeatable)",
		},
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Glob pattern that prunes matching paths (repeatable)",
		},
		&cli.StringFlag{
			Name:  "parser",
			Usage: fmt.Sprintf("Metadata parser, one of %v", parsers.Names()),
		},
		&cli.IntFlag{
			Name:  "jobs",
			Usage: "Parallel parse workers (0 = number of CPUs)",
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Assets per parse batch",
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "Catalog name, used as the output file stem",
		},
		&cli.StringFlag{
			Name:    "output-dir",
			Aliases: []string{"o"},
			Usage:   "Directory the catalog files are written to",
		},
		&cli.StringFlag{
			Name:  "path-column",
			Usage: "Column holding asset paths",
		},
		&cli.StringFlag{
			Name:  "variable-column",
			Usage: "Column holding variable names",
		},
		&cli.StringFlag{
			Name:  "data-format",
			Usage: "Single data format for all assets (netcdf or zarr)",
		},
		&cli.StringFlag{
			Name:  "format-column",
			Usage: "Column holding the per-asset data format",
		},
		&cli.StringSliceFlag{
			Name:  "groupby",
			Usage: "Column used to group aggregatable subsets (repeatable)",
		},
		&cli.StringFlag{
			Name:  "description",
			Usage: "Catalog description",
		},
		&cli.StringFlag{
			Name:  "id",
			Usage: "Catalog identifier",
		},
		&cli.BoolFlag{
			Name:  "absolute-paths",
			Usage: "Reference the table by absolute path in the collection document",
		},
	}
}

// loadConfig layers defaults, the optional config file, and flag overrides.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()

	// Validation runs once at the end, after flag overrides are applied.
	if path := cmd.String("config"); path != "" {
		if err := pkgconfig.Parse(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	for _, root := range cmd.StringSlice("root") {
		cfg.Sources.Roots = append(cfg.Sources.Roots, internal.SourceRoot{
			Path:    root,
			Depth:   int(cmd.Int("depth")),
			Include: cmd.StringSlice("include"),
			Exclude: cmd.StringSlice("exclude"),
		})
	}

	if v := cmd.String("parser"); v != "" {
		cfg.Parse.Parser = v
	}
	if cmd.IsSet("jobs") {
		cfg.Parse.Jobs = int(cmd.Int("jobs"))
	}
	if cmd.IsSet("batch-size") {
		cfg.Parse.BatchSize = int(cmd.Int("batch-size"))
	}

	if v := cmd.String("name"); v != "" {
		cfg.Output.Name = v
	}
	if v := cmd.String("output-dir"); v != "" {
		cfg.Output.Directory = v
	}
	if v := cmd.String("path-column"); v != "" {
		cfg.Output.PathColumn = v
	}
	if v := cmd.String("variable-column"); v != "" {
		cfg.Output.VariableColumn = v
	}
	if v := cmd.String("format-column"); v != "" {
		cfg.Output.FormatColumn = v
		cfg.Output.DataFormat = ""
	}
	if v := cmd.String("data-format"); v != "" {
		cfg.Output.DataFormat = v
		cfg.Output.FormatColumn = ""
	}
	if v := cmd.StringSlice("groupby"); len(v) > 0 {
		cfg.Output.GroupbyAttrs = v
	}
	if v := cmd.String("description"); v != "" {
		cfg.Output.Description = v
	}
	if v := cmd.String("id"); v != "" {
		cfg.Output.ID = v
	}
	if cmd.IsSet("absolute-paths") {
		cfg.Output.AbsolutePaths = cmd.Bool("absolute-paths")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runBuild(incremental bool) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := internal.NewLogger(cfg.App.LogLevel)

		csvPath, jsonPath, tbl, err := internal.RunBuild(ctx, cfg, logger, incremental)
		if err != nil {
			return err
		}

		fmt.Printf("wrote %s (%d rows, %d invalid)\n", csvPath, len(tbl.Rows), len(tbl.Invalid))
		fmt.Printf("wrote %s\n", jsonPath)
		return nil
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.IsSet("port") {
		cfg.App.HTTP.Port = int(cmd.Int("port"))
	}
	if cmd.Bool("no-watch") {
		cfg.Watch.Enabled = false
	}
	return internal.Run(ctx, internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:  "esmcat",
		Usage: "Build, update, and serve searchable catalogs of climate model output files",
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Crawl the roots, parse every asset, and write the catalog",
				Flags:  sharedFlags(),
				Action: runBuild(false),
			},
			{
				Name:   "update",
				Usage:  "Refresh an existing catalog, parsing only new assets",
				Flags:  sharedFlags(),
				Action: runBuild(true),
			},
			{
				Name:  "serve",
				Usage: "Build the catalog and serve it over HTTP, rebuilding on changes",
				Flags: append(sharedFlags(),
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "HTTP listen port",
					},
					&cli.BoolFlag{
						Name:  "no-watch",
						Usage: "Disable the filesystem watcher",
					},
				),
				Action: runServe,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
