package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"procintel/internal/config"
	"procintel/internal/core"
	"procintel/internal/demo"
	"procintel/internal/importer"
	"procintel/internal/logging"
	"procintel/internal/server"
	"procintel/internal/store"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dbPath     string
	csvPath    string
	useDemo    bool
	timeout    time.Duration

	// Loaded in PersistentPreRunE
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "procintel",
	Short: "procintel - process intelligence and reporting",
	Long: `procintel answers Portuguese questions about administrative processes
and procurement biddings with markdown reports.

Records come from the local database (see "import" and "seed"), a CSV sheet
(--csv) or generated demo data (--demo).

Run without arguments to start the interactive chat.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Store.DatabasePath = dbPath
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", configPath, err)
		}

		// The chat owns the terminal; only log there when writing to a file.
		if isChat(cmd) && cfg.Logging.File == "" {
			logging.UseLogger(nil)
			return nil
		}
		if err := logging.Initialize(cfg.Logging); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.Boot("%s %s starting (%s)", cfg.Name, cfg.Version, cmd.CommandPath())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Sync()
	},
	RunE: runChat,
}

func isChat(cmd *cobra.Command) bool {
	return cmd.Name() == "chat" || !cmd.HasParent()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "procintel.yaml", "Config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&csvPath, "csv", "", "Answer from this CSV sheet instead of the database")
	rootCmd.PersistentFlags().BoolVar(&useDemo, "demo", false, "Answer from generated demo data")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Per-question timeout")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(whyCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// =============================================================================
// SHARED WIRING
// =============================================================================

func newEngine() *core.Engine {
	return core.NewEngineFromConfig(cfg.Engine)
}

func openStore() (*store.LocalStore, error) {
	st, err := store.NewLocalStore(cfg.Store.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Store.DatabasePath, err)
	}
	return st, nil
}

// openSource picks where records come from: --csv, --demo or the database.
// The returned store is nil unless the database is used.
func openSource() (server.SnapshotSource, *store.LocalStore, error) {
	switch {
	case csvPath != "":
		im, err := importer.FromConfig(cfg.Import)
		if err != nil {
			return nil, nil, err
		}
		res, err := im.ImportFile(csvPath)
		if err != nil {
			return nil, nil, err
		}
		for _, w := range res.Warnings {
			logging.ImportWarn("%s", w)
		}
		return server.StaticSource(res.Snapshot), nil, nil
	case useDemo:
		return server.StaticSource(demo.Generate(demo.DefaultOptions())), nil, nil
	default:
		st, err := openStore()
		if err != nil {
			return nil, nil, err
		}
		return st, st, nil
	}
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
