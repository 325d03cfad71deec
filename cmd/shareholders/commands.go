package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/shareholders/internal/config"
	"github.com/mtlprog/shareholders/internal/database"
	"github.com/mtlprog/shareholders/internal/pipeline"
	"github.com/mtlprog/shareholders/internal/report"
	"github.com/mtlprog/shareholders/internal/savr"
	"github.com/mtlprog/shareholders/internal/store"
	"github.com/mtlprog/shareholders/internal/worker"
)

// newApp builds the command tree. Flag defaults come from the environment via config.Load.
func newApp(defaults config.Config) *cli.App {
	fetchFlags := []cli.Flag{
		&cli.StringFlag{Name: "api-base-url", Usage: "base URL of the holdings API", Value: defaults.APIBaseURL},
		&cli.StringFlag{Name: "company-id", Usage: "company whose holdings are fetched", Value: defaults.CompanyID},
		&cli.IntFlag{Name: "pages", Usage: "number of holdings pages to fetch, 0 follows until a short page", Value: defaults.Pages},
		&cli.IntFlag{Name: "page-size", Usage: "records per holdings page", Value: defaults.PageSize},
		&cli.DurationFlag{Name: "http-timeout", Usage: "timeout of each API request", Value: defaults.HTTPTimeout},
		&cli.BoolFlag{Name: "strict", Usage: "fail on the first fetch error instead of treating it as no data", Value: defaults.Strict},
		&cli.StringFlag{Name: "joined", Usage: "path of the joined holdings CSV", Value: defaults.JoinedPath},
	}
	summaryFlags := []cli.Flag{
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "path of the country summary CSV", Value: defaults.OutputPath},
		&cli.StringFlag{Name: "xlsx", Usage: "also write an Excel workbook to this path", Value: defaults.XLSXPath},
		&cli.StringFlag{Name: "database-url", Usage: "also store the run in this PostgreSQL database", Value: defaults.DatabaseURL},
		&cli.StringFlag{Name: "spreadsheet-id", Usage: "also write the report to this Google spreadsheet", Value: defaults.SpreadsheetID},
		&cli.StringFlag{Name: "google-credentials-json", Usage: "service account JSON for Google Sheets", Value: defaults.GoogleCredentialsJSON},
	}

	return &cli.App{
		Name:  "shareholders",
		Usage: "collect company holdings and summarise share ownership by country",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error", Value: defaults.LogLevel},
		},
		Before: func(c *cli.Context) error {
			cfg := defaults
			cfg.LogLevel = c.String("log-level")
			handler := slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: cfg.SlogLevel()})
			slog.SetDefault(slog.New(handler))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "fetch",
				Usage: "fetch holdings and agents and write the joined CSV",
				Flags: fetchFlags,
				Action: func(c *cli.Context) error {
					cfg, err := fetchConfig(c, defaults)
					if err != nil {
						return err
					}
					svc := pipeline.NewService(newSource(cfg), pipelineOptions(cfg), c.App.Writer)
					_, err = svc.Fetch(c.Context)
					return exitError(err, "")
				},
			},
			{
				Name:  "aggregate",
				Usage: "summarise a joined holdings CSV by country",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "joined holdings CSV to read", Value: defaults.InputPath},
					&cli.StringFlag{Name: "company-id", Usage: "company recorded with stored runs", Value: defaults.CompanyID},
				}, summaryFlags...),
				Action: func(c *cli.Context) error {
					cfg := mergeSummary(c, defaults)
					cfg.InputPath = c.String("input")
					cfg.CompanyID = c.String("company-id")
					return withSinks(c.Context, cfg, func(sinks []report.Writer) error {
						svc := pipeline.NewService(nil, pipelineOptions(cfg), c.App.Writer, sinks...)
						_, err := svc.AggregateFile(c.Context, cfg.InputPath)
						return exitError(err, cfg.InputPath)
					})
				},
			},
			{
				Name:  "run",
				Usage: "fetch, join, deduplicate and summarise in one pass",
				Flags: append(append([]cli.Flag{}, fetchFlags...), summaryFlags...),
				Action: func(c *cli.Context) error {
					cfg, err := fetchConfig(c, defaults)
					if err != nil {
						return err
					}
					cfg = mergeSummary(c, cfg)
					return withSinks(c.Context, cfg, func(sinks []report.Writer) error {
						svc := pipeline.NewService(newSource(cfg), pipelineOptions(cfg), c.App.Writer, sinks...)
						_, err := svc.Run(c.Context)
						return exitError(err, "")
					})
				},
			},
			{
				Name:  "watch",
				Usage: "repeat run on a fixed interval until interrupted",
				Flags: append(append([]cli.Flag{
					&cli.DurationFlag{Name: "interval", Usage: "time between runs", Value: defaults.WatchInterval},
				}, fetchFlags...), summaryFlags...),
				Action: func(c *cli.Context) error {
					cfg, err := fetchConfig(c, defaults)
					if err != nil {
						return err
					}
					cfg = mergeSummary(c, cfg)
					cfg.WatchInterval = c.Duration("interval")
					if cfg.WatchInterval <= 0 {
						return cli.Exit("An error occurred: watch interval must be positive", 1)
					}
					return withSinks(c.Context, cfg, func(sinks []report.Writer) error {
						svc := pipeline.NewService(newSource(cfg), pipelineOptions(cfg), c.App.Writer, sinks...)
						worker.NewReportWorker(svc, cfg.WatchInterval).Run(c.Context)
						return nil
					})
				},
			},
			{
				Name:  "show",
				Usage: "print the latest stored country summary",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "database-url", Usage: "PostgreSQL database holding stored runs", Value: defaults.DatabaseURL},
					&cli.StringFlag{Name: "company-id", Usage: "company to show", Value: defaults.CompanyID},
				},
				Action: func(c *cli.Context) error {
					databaseURL := c.String("database-url")
					if databaseURL == "" {
						return cli.Exit("An error occurred: DATABASE_URL is required", 1)
					}
					pool, err := openDatabase(c.Context, databaseURL)
					if err != nil {
						return exitError(err, "")
					}
					defer pool.Close()

					err = pipeline.ShowLatest(c.Context, store.NewPgRepository(pool), c.String("company-id"), c.App.Writer)
					return exitError(err, "")
				},
			},
		},
	}
}

func fetchConfig(c *cli.Context, defaults config.Config) (config.Config, error) {
	cfg := defaults
	cfg.APIBaseURL = c.String("api-base-url")
	cfg.CompanyID = c.String("company-id")
	cfg.Pages = c.Int("pages")
	cfg.PageSize = c.Int("page-size")
	cfg.HTTPTimeout = c.Duration("http-timeout")
	cfg.Strict = c.Bool("strict")
	cfg.JoinedPath = c.String("joined")
	if err := cfg.Validate(); err != nil {
		return cfg, exitError(fmt.Errorf("invalid configuration: %w", err), "")
	}
	return cfg, nil
}

func mergeSummary(c *cli.Context, cfg config.Config) config.Config {
	cfg.OutputPath = c.String("output")
	cfg.XLSXPath = c.String("xlsx")
	cfg.DatabaseURL = c.String("database-url")
	cfg.SpreadsheetID = c.String("spreadsheet-id")
	cfg.GoogleCredentialsJSON = c.String("google-credentials-json")
	return cfg
}

func pipelineOptions(cfg config.Config) pipeline.Options {
	policy := savr.TreatAsEmpty
	if cfg.Strict {
		policy = savr.Propagate
	}
	return pipeline.Options{
		CompanyID:   cfg.CompanyID,
		Pages:       cfg.Pages,
		PageSize:    cfg.PageSize,
		Policy:      policy,
		JoinedPath:  cfg.JoinedPath,
		SummaryPath: cfg.OutputPath,
	}
}

func newSource(cfg config.Config) *savr.Client {
	return savr.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout)
}

// withSinks opens the optional report destinations, runs fn and releases them afterwards.
func withSinks(ctx context.Context, cfg config.Config, fn func([]report.Writer) error) error {
	var sinks []report.Writer

	if cfg.XLSXPath != "" {
		sinks = append(sinks, report.NewXLSXWriter(cfg.XLSXPath))
	}

	if cfg.DatabaseURL != "" {
		pool, err := openDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			return exitError(err, "")
		}
		defer pool.Close()
		sinks = append(sinks, store.NewPgRepository(pool))
	}

	if cfg.SpreadsheetID != "" {
		if cfg.GoogleCredentialsJSON == "" {
			return exitError(errors.New("google credentials are required when a spreadsheet id is set"), "")
		}
		sheets, err := report.NewSheetsWriter(ctx, cfg.SpreadsheetID, cfg.GoogleCredentialsJSON)
		if err != nil {
			return exitError(err, "")
		}
		sinks = append(sinks, sheets)
	}

	return fn(sinks)
}

// openDatabase connects to PostgreSQL and applies the embedded migrations.
func openDatabase(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := database.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return pool, nil
}

// exitError converts a failure into a one-line message and exit status 1.
func exitError(err error, inputPath string) error {
	if err == nil {
		return nil
	}
	slog.Debug("command failed", "error", err)
	return cli.Exit(pipeline.UserMessage(err, inputPath), 1)
}
