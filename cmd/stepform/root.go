package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// storeOptions are shared by every subcommand.
type storeOptions struct {
	kind   string
	dsn    string
	prefix string
	debug  bool
}

func newRootCmd() *cobra.Command {
	opts := &storeOptions{}

	root := &cobra.Command{
		Use:           "stepform",
		Short:         "Run resumable multi-step forms in the terminal",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if opts.debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.kind, "store", storeSQLite, "Snapshot store: memory, sqlite, postgres, redis or mongo")
	root.PersistentFlags().StringVar(&opts.dsn, "dsn", "", "Store connection string (sqlite file, postgres DSN, redis:// or mongodb:// URL)")
	root.PersistentFlags().StringVar(&opts.prefix, "prefix", "", "Key prefix (redis) or database name (mongo)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newShowCmd(opts))
	root.AddCommand(newClearCmd(opts))
	root.AddCommand(newHistoryCmd(opts))

	return root
}
