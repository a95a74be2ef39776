package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vocabsync/internal/cache"
	"vocabsync/internal/config"
	"vocabsync/internal/repository"
	"vocabsync/internal/repository/local"
	"vocabsync/internal/repository/remote"
	"vocabsync/internal/service"
)

type app struct {
	logger *zap.Logger
	cfg    *config.Config
	ops    *service.Operations
	close  func()
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var a app

	root := &cobra.Command{
		Use:           "vocab",
		Short:         "Vocabulary flashcard store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.close != nil {
				a.close()
			}
		},
	}

	root.AddCommand(
		listCmd(&a),
		addUnitCmd(&a),
		addWordCmd(&a),
		masterCmd(&a),
		deleteUnitCmd(&a),
		deleteWordCmd(&a),
		importCmd(&a),
		statsCmd(&a),
		exportCmd(&a),
	)
	return root
}

// setup wires the cache, backends and operations manager. A set
// VOCAB_USER_ID selects the remote store; otherwise data stays local.
func (a *app) setup() error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	store, err := local.Open(cfg.LocalPath, logger)
	if err != nil {
		return err
	}

	c := cache.NewManager(cfg.Cache.MaxSize, cfg.Cache.TTL)

	var remoteFactory service.RemoteFactory
	var db *sql.DB
	if cfg.Identity != "" {
		db, err = connectDatabase(cfg.DSN(), logger)
		if err != nil {
			store.Close()
			return err
		}
		if err := runMigrations(db, logger); err != nil {
			store.Close()
			db.Close()
			return err
		}
		remoteFactory = func(identity string) (repository.Backend, error) {
			return remote.New(db, identity, logger), nil
		}
	}

	selector := service.NewSelector(store, remoteFactory, c, logger)
	if err := selector.Initialize(cfg.Identity); err != nil {
		store.Close()
		return err
	}

	a.ops = service.NewOperations(selector, c, logger)
	a.close = func() {
		store.Close()
		if db != nil {
			db.Close()
		}
		logger.Sync()
	}
	return nil
}

func listCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all units and words",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.ops.LoadData(cmd.Context())
			if err != nil {
				return err
			}
			for _, u := range data.Units {
				fmt.Printf("%s  %s (%d words)\n", u.ID, u.Name, len(u.Words))
				for _, w := range u.Words {
					mark := " "
					if w.Mastered {
						mark = "*"
					}
					fmt.Printf("  [%s] %s  %s — %s (reviewed %d)\n", mark, w.ID, w.Word, w.Meaning, w.ReviewTimes)
				}
			}
			return nil
		},
	}
}

func addUnitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add-unit <name>",
		Short: "Create a new unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.ops.LoadData(cmd.Context()); err != nil {
				return err
			}
			id, ok, err := a.ops.CreateNewUnit(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("invalid unit name")
			}
			fmt.Println(id)
			return nil
		},
	}
}

func addWordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add-word <unit-id> <word> <meaning>",
		Short: "Add a word to a unit",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.ops.LoadData(cmd.Context()); err != nil {
				return err
			}
			if name, dup := a.ops.FindDuplicateWord(args[1]); dup {
				fmt.Printf("note: %q already exists in unit %q\n", args[1], name)
			}
			ok, err := a.ops.AddWordToUnit(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("word not added: %s", a.ops.LastError())
			}
			return nil
		},
	}
}

func masterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "master <unit-id> <word-id>",
		Short: "Toggle a word's mastered state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.ops.LoadData(cmd.Context()); err != nil {
				return err
			}
			ok, err := a.ops.ToggleWordMastered(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("unit or word not found")
			}
			return nil
		},
	}
}

func deleteUnitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-unit <unit-id>...",
		Short: "Delete units and all their words",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.ops.LoadData(cmd.Context()); err != nil {
				return err
			}
			ok, err := a.ops.DeleteUnits(cmd.Context(), args)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no units deleted")
			}
			return nil
		},
	}
}

func deleteWordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-word <unit-id> <word-id>...",
		Short: "Delete words from a unit",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.ops.LoadData(cmd.Context()); err != nil {
				return err
			}
			ok, err := a.ops.DeleteWords(cmd.Context(), args[0], args[1:])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no words deleted")
			}
			return nil
		},
	}
}

func importCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import words from a JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			units, err := service.ParseImport(raw)
			if err != nil {
				return err
			}
			result, err := a.ops.ImportData(cmd.Context(), units)
			if err != nil {
				return err
			}
			fmt.Printf("units created: %d, words added: %d, skipped: %d, failed: %d\n",
				result.UnitsCreated, result.WordsAdded, result.Skipped, result.Failed)
			return nil
		},
	}
}

func statsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show mastery progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.ops.LoadData(cmd.Context())
			if err != nil {
				return err
			}
			overall := a.ops.OverallStatistics()
			fmt.Printf("units: %d, words: %d, mastered: %d (%.1f%%)\n",
				overall.Units, overall.Total, overall.Mastered, overall.Progress)
			for _, u := range data.Units {
				if s, ok := a.ops.UnitStatistics(u.ID); ok {
					fmt.Printf("  %s: %d/%d (%.1f%%)\n", s.UnitName, s.Mastered, s.Total, s.Progress)
				}
			}
			return nil
		},
	}
}

func exportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the full snapshot as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.ops.LoadData(cmd.Context()); err != nil {
				return err
			}
			raw, err := a.ops.ExportJSON()
			if err != nil {
				return err
			}
			fmt.Println(string(raw))
			return nil
		},
	}
}

// connectDatabase connects to PostgreSQL with retries
func connectDatabase(dsn string, logger *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 5
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Warn("Failed to open database connection",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(retryDelay)
			continue
		}

		if err = db.PingContext(context.Background()); err != nil {
			logger.Warn("Failed to ping database",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			db.Close()
			time.Sleep(retryDelay)
			continue
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB, logger *zap.Logger) error {
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database migrations completed")
	return nil
}
