package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	appMigrations "github.com/swipeattend/backend/internal/app/migrations"
	"github.com/swipeattend/backend/internal/bootstrap"
	"github.com/swipeattend/backend/internal/config"
	"github.com/swipeattend/backend/internal/db"
	"github.com/swipeattend/backend/internal/seed"
)

type globalOptions struct {
	configPath string
	timeout    time.Duration
}

// storeFunc is the body of a command that needs an open record store
type storeFunc func(ctx context.Context, cmd *cobra.Command, deps *bootstrap.Dependencies) error

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "attendctl",
		Short: "Maintenance tool for the attendance backend",
		Long: `attendctl runs one-off maintenance tasks against the configured record store.

Available commands:
  migrate         - Apply pending PostgreSQL migrations or MongoDB indexes
  reconcile       - Recompute cached student stats and class session summaries
  repair-orphans  - Remove classes without a teacher and students without a class
  remap-teacher   - Move class ownership and mark authorship to another teacher
  seed            - Load demo teachers, classes and students`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Minute, "Operation timeout")

	rootCmd.AddCommand(
		newMigrateCmd(opts),
		newReconcileCmd(opts),
		newRepairOrphansCmd(opts),
		newRemapTeacherCmd(opts),
		newSeedCmd(opts),
	)
	return rootCmd
}

// commandContext is cancelled on SIGINT/SIGTERM or after the --timeout
func commandContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// withStore loads the configuration, opens the store and runs fn
func withStore(opts *globalOptions, fn storeFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(opts.configPath)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd.Context(), opts.timeout)
		defer cancel()

		repos, err := bootstrap.OpenStore(ctx, cfg, lgr)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := repos.Close(context.Background()); cerr != nil {
				lgr.Warn().Err(cerr).Msg("Failed to close record store")
			}
		}()

		return fn(ctx, cmd, bootstrap.BuildDependencies(cfg, repos, lgr))
	}
}

func newMigrateCmd(opts *globalOptions) *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations",
		Long: `Apply pending SQL migrations for the postgres driver, or create the
collection indexes for the mongodb driver. With --status only the pending
PostgreSQL migrations are listed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(opts.configPath)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd.Context(), opts.timeout)
			defer cancel()

			return runMigrate(ctx, cmd, cfg, lgr, status)
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "List pending migrations without applying them")
	return cmd
}

func runMigrate(ctx context.Context, cmd *cobra.Command, cfg *config.Config, lgr zerolog.Logger, status bool) error {
	out := cmd.OutOrStdout()

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pg, err := db.NewPostgresDB(cfg)
		if err != nil {
			return err
		}
		defer pg.Close()

		migrator := appMigrations.NewMigrator(pg.Pool, lgr)
		source := appMigrations.Source(cfg.Database.MigrationsDir)

		if status {
			pending, err := migrator.Pending(ctx, source)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d pending migration(s)\n", len(pending))
			for _, name := range pending {
				fmt.Fprintf(out, "  %s\n", name)
			}
			return nil
		}

		applied, err := migrator.Migrate(ctx, source)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "applied %d migration(s)\n", applied)
		return nil

	case config.DriverMongoDB:
		mdb, err := db.NewMongoDB(cfg)
		if err != nil {
			return err
		}
		defer mdb.Close(context.Background())

		if err := mdb.EnsureIndexes(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "mongodb indexes ensured")
		return nil

	case config.DriverMemory:
		fmt.Fprintln(out, "memory driver has nothing to migrate")
		return nil
	}

	return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
}

func newReconcileCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute cached attendance stats from marks",
		RunE: withStore(opts, func(ctx context.Context, cmd *cobra.Command, deps *bootstrap.Dependencies) error {
			res, err := deps.Stats.ReconcileAll(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reconciled %d student(s) and %d class(es), %d failure(s)\n",
				res.Students, res.Classes, res.Failed)
			if res.Failed > 0 {
				return fmt.Errorf("%d record(s) could not be reconciled", res.Failed)
			}
			return nil
		}),
	}
}

func newRepairOrphansCmd(opts *globalOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "repair-orphans",
		Short: "Remove classes without a teacher and students without a class",
		RunE: withStore(opts, func(ctx context.Context, cmd *cobra.Command, deps *bootstrap.Dependencies) error {
			report, err := deps.MaintenanceService.RepairOrphans(ctx, dryRun)
			if err != nil {
				return err
			}

			verb := "removed"
			if report.DryRun {
				verb = "would remove"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %d orphan class(es) and %d orphan student(s)\n", verb, len(report.Classes), len(report.Students))
			for _, id := range report.Classes {
				fmt.Fprintf(out, "  class   %s\n", id)
			}
			for _, id := range report.Students {
				fmt.Fprintf(out, "  student %s\n", id)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only report what would be removed")
	return cmd
}

func newRemapTeacherCmd(opts *globalOptions) *cobra.Command {
	var (
		from   string
		to     string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "remap-teacher",
		Short: "Move class ownership and mark authorship from one teacher to another",
		RunE: withStore(opts, func(ctx context.Context, cmd *cobra.Command, deps *bootstrap.Dependencies) error {
			counts, err := deps.MaintenanceService.RemapTeacher(ctx, from, to, dryRun)
			if err != nil {
				return err
			}

			verb := "remapped"
			if dryRun {
				verb = "would remap"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d class(es), %d mark(s) taken and %d mark(s) edited\n",
				verb, counts.Classes, counts.MarksTaught, counts.MarksEdited)
			return nil
		}),
	}

	cmd.Flags().StringVar(&from, "from", "", "Teacher id to move records away from")
	cmd.Flags().StringVar(&to, "to", "", "Teacher id that receives the records")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only count the affected records")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newSeedCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo teachers, classes and students",
		RunE: withStore(opts, func(ctx context.Context, cmd *cobra.Command, deps *bootstrap.Dependencies) error {
			res, err := seed.CreateDemoData(ctx, deps.Repos, deps.Logger)
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d teacher(s), %d class(es), %d student(s)\n",
				res.Teachers, res.Classes, res.Students)
			return err
		}),
	}
}
