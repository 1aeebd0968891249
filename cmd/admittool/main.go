package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"admittool/internal/config"
	"admittool/internal/export"
	"admittool/internal/ingest"
	"admittool/internal/report"
	"admittool/internal/star"
	"admittool/internal/warehouse"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "admittool",
		Short: "Admission analytics warehouse: load flat admission records into a star schema and report on them",
	}

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(loadCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(exportCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) zerolog.Logger {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		logger = logger.Level(lvl)
	}
	return logger
}

// connect loads config, builds the logger and opens the pool.
func connect(ctx context.Context) (*config.Config, zerolog.Logger, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.LogLevel)

	pool, err := warehouse.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("connect: %w", err)
	}
	logger.Info().Msg("connected to database")
	return cfg, logger, pool, nil
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the star schema tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, logger, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := warehouse.InitSchema(ctx, pool); err != nil {
				return err
			}
			logger.Info().Msg("schema initialized")
			return nil
		},
	}
}

func loadCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Ingest a CSV of flat admission rows, normalize and load the warehouse",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("-file is required")
			}

			ctx := cmd.Context()
			_, logger, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			start := time.Now()

			reader, err := ingest.NewReader(file)
			if err != nil {
				return err
			}
			raws, err := ingest.ReadAll(reader)
			reader.Close()
			if err != nil {
				return err
			}
			readStats := reader.Stats()

			model, normStats := star.Normalize(raws)

			res, err := warehouse.Load(ctx, pool, model)
			if err != nil {
				return fmt.Errorf("load warehouse: %w", err)
			}

			logger.Info().
				Int64("rows_read", readStats.RowsRead).
				Int64("bad_date", readStats.BadDate).
				Int64("bad_amount", readStats.BadAmount).
				Int64("negative_stay", readStats.NegativeStay).
				Int64("short_row", readStats.ShortRow).
				Int64("null_age", readStats.BadAge).
				Msg("ingest complete")
			logger.Info().
				Int64("dropped_missing_keys", normStats.Dropped()).
				Int("patients", res.Patients).
				Int("doctors", res.Doctors).
				Int("hospitals", res.Hospitals).
				Int("insurers", res.Insurers).
				Int("conditions", res.Conditions).
				Int("medications", res.Medications).
				Int64("facts", res.Facts).
				Dur("elapsed", time.Since(start)).
				Msg("warehouse loaded")
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to the admissions CSV file")
	return cmd
}

func reportCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "report [name...]",
		Short: "Run the report battery (or the named reports) over the warehouse",
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				for _, def := range report.Battery {
					fmt.Printf("%-28s %s\n", def.Name, def.Description)
				}
				return nil
			}

			ctx := cmd.Context()
			_, logger, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			model, err := warehouse.ReadModel(ctx, pool)
			if err != nil {
				return fmt.Errorf("read warehouse: %w", err)
			}
			logger.Info().Int("facts", len(model.Facts)).Msg("model loaded")

			defs := report.Battery
			if len(args) > 0 {
				defs = nil
				for _, name := range args {
					def := report.Find(name)
					if def == nil {
						return fmt.Errorf("unknown report %q (use --list to see the battery)", name)
					}
					defs = append(defs, *def)
				}
			}

			for _, def := range defs {
				table := def.Build(model)
				if err := table.Render(os.Stdout); err != nil {
					return fmt.Errorf("render %s: %w", def.Name, err)
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List available reports and exit")
	return cmd
}

func exportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the denormalized fact extract as Parquet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return fmt.Errorf("-out is required")
			}

			ctx := cmd.Context()
			_, logger, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			model, err := warehouse.ReadModel(ctx, pool)
			if err != nil {
				return fmt.Errorf("read warehouse: %w", err)
			}

			n, err := export.WriteModel(out, model)
			if err != nil {
				return fmt.Errorf("write parquet: %w", err)
			}
			logger.Info().Int("rows", n).Str("path", out).Msg("export complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output Parquet file")
	return cmd
}
