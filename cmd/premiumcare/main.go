package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/premiumcare/premiumcare/internal/config"
	"github.com/premiumcare/premiumcare/internal/domain/premium"
	"github.com/premiumcare/premiumcare/internal/domain/registry"
	"github.com/premiumcare/premiumcare/internal/platform/db"
	"github.com/premiumcare/premiumcare/internal/platform/docstore"
	"github.com/premiumcare/premiumcare/internal/platform/export"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "premiumcare",
		Short:        "Insurance premium predictor and patient registry",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(predictorCmd())
	rootCmd.AddCommand(registryCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(predictCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// setup loads and validates configuration and builds the logger every
// subcommand shares.
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		return nil, logger, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, logger, nil
}

func predictorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "predictor",
		Short: "Serve the insurance premium predictor",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			model, err := loadModel(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			e := newServer(cfg, logger)
			premium.NewHandler(premium.NewService(model)).RegisterRoutes(e)
			return serve(e, cfg.PredictorPort, logger)
		},
	}
}

func registryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "registry",
		Short: "Serve the patient registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			st, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer st.close()

			if !cfg.StoreLocking {
				logger.Warn().Msg("STORE_LOCKING is off: concurrent writes may lose updates")
			}

			e := newServer(cfg, logger)
			svc := registry.NewService(st.store, cfg.StoreLocking)
			registry.NewHandler(svc).RegisterRoutes(e, writeMiddleware(cfg, logger)...)
			e.GET("/health", db.HealthHandler(cfg.StoreDriver, st.pinger))
			return serve(e, cfg.RegistryPort, logger)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the registry table in postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			if cfg.StoreDriver != config.DriverPostgres {
				return fmt.Errorf("migrate needs STORE_DRIVER=%s, got %q", config.DriverPostgres, cfg.StoreDriver)
			}

			ctx := cmd.Context()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := docstore.NewPGStore(pool, registryDocument, logger).EnsureSchema(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			logger.Info().Msg("registry schema is up to date")
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every registered patient to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")

			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			st, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer st.close()

			n, err := exportPatients(cmd.Context(), registry.NewService(st.store, cfg.StoreLocking), out)
			if err != nil {
				return err
			}
			logger.Info().Str("file", out).Int("patients", n).Msg("export written")
			return nil
		},
	}
	cmd.Flags().String("out", "patients.xlsx", "Path of the workbook to write")
	return cmd
}

func exportPatients(ctx context.Context, svc *registry.Service, out string) (int, error) {
	views, err := svc.List(ctx)
	if err != nil {
		return 0, err
	}
	data, err := export.XLSX(registry.Sheet(views))
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", out, err)
	}
	return len(views), nil
}

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the premium category for one profile file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("profile")

			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			model, err := loadModel(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			label, err := predictFile(cmd.Context(), premium.NewService(model), path)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), label)
			return nil
		},
	}
	cmd.Flags().String("profile", "", "JSON file holding one user profile")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}

func predictFile(ctx context.Context, svc *premium.Service, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open profile: %w", err)
	}
	defer f.Close()

	profile, err := premium.ParseProfile(f)
	if err != nil {
		return "", err
	}
	return svc.Predict(ctx, profile)
}
