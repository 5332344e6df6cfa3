package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andresmejia3/formcheck/internal/config"
	"github.com/andresmejia3/formcheck/internal/logger"
	"github.com/andresmejia3/formcheck/internal/store"
	"github.com/andresmejia3/formcheck/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Options holds configuration for the analyze command
type Options struct {
	InputPath     string
	Exercise      string
	NthFrame      int
	NumEngines    int
	WorkerTimeout string
	DebugOverlays bool
	OverlayDir    string
	NoDB          bool
}

// Database requirement of a command, set through its Annotations.
const (
	dbAnnotation = "db"
	dbRequired   = "required"
	dbOptional   = "optional"
)

var (
	// DB is the shared database connection. It is nil for commands that run without one.
	DB *store.Store
	// Cfg is the environment configuration loaded before every command.
	Cfg *config.Config
	// Log is the structured process logger.
	Log *logrus.Logger

	dbURL   string
	verbose bool
)

// Version is the application version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "formcheck",
	Short:         "Exercise form evaluation from pose keypoints",
	Version:       Version, // This enables the --version flag
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		Cfg, err = config.Load()
		if err != nil {
			return err
		}

		level := logrus.InfoLevel
		if verbose {
			level = logrus.DebugLevel
		}
		Log = logger.New(logger.Options{Env: Cfg.AppEnv, Dir: Cfg.LogDir, Level: level})

		mode := cmd.Annotations[dbAnnotation]
		if noDB, _ := cmd.Flags().GetBool("no-db"); mode == "" || noDB {
			return nil
		}

		// The --db flag wins over the environment
		if dbURL == "" {
			dbURL = Cfg.DatabaseURL
		}

		// Use the command's context (which will be cancellable) for the connection
		DB, err = store.New(cmd.Context(), dbURL)
		if err != nil {
			if mode == dbOptional {
				logger.Warn(logger.Fields{"error": err.Error()}, "database unavailable, continuing without session storage")
				DB = nil
				return nil
			}
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if DB != nil {
			DB.Close()
		}
	},
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// This tells Cobra not to print the version in the help text, which is cleaner.
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		utils.Die("Command failed", err, nil)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "PostgreSQL connection string (default: DATABASE_URL, POSTGRES_* or postgres://localhost:5432/formcheck)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
