package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/udaycodespace/credify/internal/disclosure"
	"github.com/udaycodespace/credify/internal/share"
)

func (c *cli) discloseCmd() *cobra.Command {
	var (
		fields []string
		qrPath string
		qrSize int
	)
	cmd := &cobra.Command{
		Use:   "disclose CREDENTIAL_ID",
		Short: "Create a selective disclosure of credential fields",
		Example: `  credify disclose CRED-002 --fields name,gpa
  credify disclose CRED-002 -f name -f gpa --qr disclosure.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			result, err := client.Disclosure.Disclose(cmd.Context(), args[0], fields)
			if err != nil {
				return err
			}
			if err := c.printDisclosure(cmd.OutOrStdout(), args[0], result); err != nil {
				return err
			}

			if qrPath == "" {
				return nil
			}
			records := client.Disclosure.History()
			if err := share.WriteFile(qrPath, records[len(records)-1], qrSize); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "QR code written to %s\n", qrPath)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&fields, "fields", "f", nil, "fields to disclose (repeatable or comma separated)")
	cmd.Flags().StringVar(&qrPath, "qr", "", "write the disclosure document as a QR code PNG to this path")
	cmd.Flags().IntVar(&qrSize, "qr-size", share.DefaultSize, "QR code size in pixels")
	return cmd
}

func (c *cli) printDisclosure(w io.Writer, id string, r disclosure.Result) error {
	if c.jsonOutput {
		return c.printJSON(w, map[string]any{"credential_id": id, "result": r.Document, "http_status": r.HTTPStatus})
	}
	if !r.Success() {
		printf(w, "%s: disclosure refused: %s\n", id, r.ErrorMessage())
		return nil
	}
	printf(w, "%s: disclosed %s\n", id, strings.Join(r.Disclosed(), ", "))
	if msg := r.Message(); msg != "" {
		printf(w, "%s\n", msg)
	}
	return nil
}
