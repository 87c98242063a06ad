package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/udaycodespace/credify/internal/verifier"
)

func (c *cli) verifyCmd() *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "verify CREDENTIAL_ID...",
		Short: "Verify one or more credentials",
		Long: `Verify credentials against the backend.

Several ids are verified concurrently. A credential the backend reports as
invalid is a result, not an error; the command fails only when a request
could not be completed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			type outcome struct {
				result verifier.Result
				err    error
			}
			outcomes := make([]outcome, len(args))

			var g errgroup.Group
			g.SetLimit(max(concurrency, 1))
			for i, id := range args {
				i, id := i, id
				g.Go(func() error {
					result, err := client.Verifier.Verify(cmd.Context(), id)
					outcomes[i] = outcome{result: result, err: err}
					return err
				})
			}
			firstErr := g.Wait()

			out := cmd.OutOrStdout()
			for i, id := range args {
				if outcomes[i].err != nil {
					printf(cmd.ErrOrStderr(), "%s: %v\n", id, outcomes[i].err)
					continue
				}
				if err := c.printVerification(out, id, outcomes[i].result); err != nil {
					return err
				}
			}
			return firstErr
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "maximum concurrent requests")
	return cmd
}

func (c *cli) printVerification(w io.Writer, id string, r verifier.Result) error {
	if c.jsonOutput {
		return c.printJSON(w, map[string]any{"credential_id": id, "result": r.Document, "http_status": r.HTTPStatus})
	}
	if r.Valid() {
		printf(w, "%s: VALID", id)
		if s := r.Status(); s != "" {
			printf(w, " (%s)", s)
		}
		printf(w, "\n")
		return nil
	}
	msg := r.ErrorMessage()
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", r.HTTPStatus)
	}
	printf(w, "%s: INVALID: %s\n", id, msg)
	return nil
}
