package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/udaycodespace/credify/internal/app"
)

const (
	historyVerifications = "verifications"
	historyDisclosures   = "disclosures"
)

func (c *cli) historyCmd() *cobra.Command {
	var clearHistory bool
	cmd := &cobra.Command{
		Use:   "history [verifications|disclosures]",
		Short: "Show or clear the local history",
		Long: `Show the verification and disclosure history in completion order.

History outlives a single invocation only with a persistent history
database (--history or CREDIFY_HISTORY_DSN). Clearing keeps the lifetime
counters.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{historyVerifications, historyDisclosures},
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			kind := ""
			if len(args) == 1 {
				kind = args[0]
			}
			out := cmd.OutOrStdout()

			if clearHistory {
				if kind != historyDisclosures {
					client.Verifier.ClearHistory()
				}
				if kind != historyVerifications {
					client.Disclosure.ClearHistory()
				}
				printf(out, "History cleared\n")
				return nil
			}
			return c.printHistory(out, client, kind)
		},
	}
	cmd.Flags().BoolVar(&clearHistory, "clear", false, "clear the history instead of showing it")
	return cmd
}

func (c *cli) printHistory(w io.Writer, client *app.Client, kind string) error {
	verifications := client.Verifier.History()
	disclosures := client.Disclosure.History()

	if c.jsonOutput {
		out := map[string]any{}
		if kind != historyDisclosures {
			out[historyVerifications] = verifications
			out["verified_count"] = client.Verifier.Count()
		}
		if kind != historyVerifications {
			out[historyDisclosures] = disclosures
			out["disclosure_count"] = client.Disclosure.Count()
		}
		return c.printJSON(w, out)
	}

	if kind != historyDisclosures {
		printf(w, "Verifications (%d shown, %d total)\n", len(verifications), client.Verifier.Count())
		for _, rec := range verifications {
			verdict := "INVALID"
			if rec.Result.Valid() {
				verdict = "VALID"
			}
			printf(w, "  %s  %-12s %s\n", rec.Timestamp.Format(time.RFC3339), rec.CredentialID, verdict)
		}
	}
	if kind != historyVerifications {
		printf(w, "Disclosures (%d shown, %d total)\n", len(disclosures), client.Disclosure.Count())
		for _, rec := range disclosures {
			outcome := "ok"
			if !rec.Result.Success() {
				outcome = fmt.Sprintf("refused: %s", rec.Result.ErrorMessage())
			}
			printf(w, "  %s  %-12s [%s] %s\n", rec.Timestamp.Format(time.RFC3339), rec.CredentialID,
				strings.Join(rec.SelectedFields, ","), outcome)
		}
	}
	return nil
}
