package main

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/udaycodespace/credify/internal/app"
	"github.com/udaycodespace/credify/internal/status"
)

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the backend status once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			return c.printSnapshot(cmd.OutOrStdout(), client.Poller.Poll(cmd.Context()))
		},
	}
}

func (c *cli) watchCmd() *cobra.Command {
	var (
		interval time.Duration
		count    int
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the backend status until interrupted",
		Long: `Poll the backend status immediately and then on every interval.

The interval defaults to the configured poll interval (30s). Failed polls are
shown as Error counts; polling continues at the same pace.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			out := cmd.OutOrStdout()
			seen := 0
			display := func(s status.Snapshot) {
				if count > 0 && seen >= count {
					return
				}
				c.printSnapshot(out, s)
				seen++
				if count > 0 && seen >= count {
					cancel()
				}
			}

			client, err := c.newClient(cmd, app.WithDisplay(display))
			if err != nil {
				return err
			}
			defer client.Close()

			if interval <= 0 {
				interval = client.Config.PollerConf.Interval
			}
			if err := client.Poller.Start(interval); err != nil {
				return err
			}
			<-ctx.Done()
			client.Poller.Stop()
			return nil
		},
	}
	cmd.Flags().DurationVarP(&interval, "interval", "i", 0, "poll interval (default from config)")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "stop after this many snapshots (0 polls forever)")
	return cmd
}

func (c *cli) printSnapshot(w io.Writer, s status.Snapshot) error {
	if c.jsonOutput {
		return c.printJSON(w, s)
	}
	ipfs := "disconnected"
	if s.IPFSConnected {
		ipfs = "connected"
	}
	printf(w, "blocks=%s credentials=%s ipfs=%s", s.TotalBlocks, s.TotalCredentials, ipfs)
	if s.LastBlockHash != "" {
		printf(w, " last_block=%s", s.LastBlockHash)
	}
	printf(w, "\n")
	return nil
}
