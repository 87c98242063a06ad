package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/udaycodespace/credify/internal/app"
	"github.com/udaycodespace/credify/internal/config"
)

// cli carries the persistent flags and builds the client for a command.
type cli struct {
	configPath string
	apiURL     string
	historyDSN string
	jsonOutput bool

	// appOptions is extended by tests.
	appOptions []app.Option
}

func newRootCmd(opts ...app.Option) *cobra.Command {
	c := &cli{appOptions: opts}

	root := &cobra.Command{
		Use:   "credify",
		Short: "Verify credentials and create selective disclosures",
		Long: `credify talks to the credential backend.

It checks the backend status, verifies credentials, creates selective
disclosures of credential fields and keeps a local history of both.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "credify.json", "path to the JSON config file")
	flags.StringVar(&c.apiURL, "api-url", "", "backend base URL (overrides config and "+config.EnvAPIURL+")")
	flags.StringVar(&c.historyDSN, "history", "", "history database DSN (overrides config and "+config.EnvHistoryDSN+")")
	flags.BoolVar(&c.jsonOutput, "json", false, "print results as JSON")

	root.AddCommand(
		c.statusCmd(),
		c.watchCmd(),
		c.verifyCmd(),
		c.discloseCmd(),
		c.historyCmd(),
	)
	return root
}

func (c *cli) loadConfig() (config.CredifyConfig, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.CredifyConfig{}, err
	}
	if c.apiURL != "" {
		cfg.ApiConf.BaseURL = c.apiURL
	}
	if c.historyDSN != "" {
		cfg.HistoryConf.DSN = c.historyDSN
	}
	return cfg, nil
}

func (c *cli) newClient(cmd *cobra.Command, extra ...app.Option) (*app.Client, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	opts := append(append([]app.Option{}, c.appOptions...), extra...)
	return app.New(cmd.Context(), cfg, opts...)
}

func (c *cli) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}
