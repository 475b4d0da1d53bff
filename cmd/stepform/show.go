package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petrijr/stepform"
)

func newShowCmd(opts *storeOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <storage-key>",
		Short: "Show the saved progress of a wizard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			be, err := openBackend(ctx, opts)
			if err != nil {
				return err
			}
			defer func() { _ = be.close() }()

			out := cmd.OutOrStdout()
			snap, err := be.snapshots.Load(ctx, args[0])
			if errors.Is(err, stepform.ErrSnapshotNotFound) {
				fmt.Fprintln(out, warnMsg("no saved progress for %q", args[0]))
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(out, infoMsg("%s: step %d, reached step %d, saved %s",
				snap.StorageKey, snap.CursorIndex+1, snap.FurthestIndex+1, snap.SavedAt.Format("2006-01-02 15:04:05")))
			fmt.Fprintln(out, snapshotTable(snap))
			return nil
		},
	}
}

func newClearCmd(opts *storeOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <storage-key>",
		Short: "Discard the saved progress of a wizard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			be, err := openBackend(ctx, opts)
			if err != nil {
				return err
			}
			defer func() { _ = be.close() }()

			if err := be.snapshots.Clear(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successMsg("cleared %q", args[0]))
			return nil
		},
	}
}

func newHistoryCmd(opts *storeOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <wizard-id>",
		Short: "List the recorded events of a wizard run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			be, err := openBackend(ctx, opts)
			if err != nil {
				return err
			}
			defer func() { _ = be.close() }()

			if be.events == nil {
				return errHistoryUnsupported
			}
			events, err := be.events.ListEvents(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, warnMsg("no events for %q", args[0]))
				return nil
			}
			for _, ev := range events {
				line := fmt.Sprintf("%s  %-22s step %d", ev.At.Format("15:04:05.000"), ev.Type, ev.Step+1)
				if ev.Detail != "" {
					line += "  " + mutedStyle.Render(ev.Detail)
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}
