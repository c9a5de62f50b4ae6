// Package cli implements verdantctl, the maintenance command line for a
// verdant store.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ganot/verdant/internal/config"
	"github.com/ganot/verdant/internal/kv"
	"github.com/ganot/verdant/internal/storage"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	Backend    string
	SQLitePath string
	RedisURL   string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for verdantctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "verdantctl",
		Short:         "Maintenance tools for a verdant store",
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "store backend, overrides config (sqlite|redis)")
	cmd.PersistentFlags().StringVar(&opts.SQLitePath, "sqlite-path", "", "sqlite database path, overrides config")
	cmd.PersistentFlags().StringVar(&opts.RedisURL, "redis-url", "", "redis url, overrides config")

	cmd.AddCommand(NewOrderCommand(opts))
	cmd.AddCommand(NewHashTokenCommand(opts))

	return cmd
}

// storeConfig resolves the store settings from config.Load and the flags.
func (o *RootOptions) storeConfig() (config.StoreConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.StoreConfig{}, err
	}
	sc := cfg.Store
	if o.Backend != "" {
		sc.Backend = o.Backend
	}
	if o.SQLitePath != "" {
		sc.SQLite.Path = o.SQLitePath
	}
	if o.RedisURL != "" {
		sc.Redis.URL = o.RedisURL
	}
	return sc, nil
}

func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openStore connects to the configured store. The caller closes it.
func (o *RootOptions) openStore(cmd *cobra.Command) (kv.Store, *slog.Logger, error) {
	sc, err := o.storeConfig()
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "loading config", err)
	}
	logger := o.logger(cmd.ErrOrStderr())
	dial, _, err := storage.Dialer(sc)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "selecting store", err)
	}
	store, err := dial(cmd.Context())
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "opening store", err)
	}
	logger.Debug("store opened", "backend", sc.Backend)
	return store, logger, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
