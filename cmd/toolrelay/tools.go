package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/skosovsky/toolrelay/internal/config"
)

func newToolsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalog shown to the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(false)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.Level())
			return printCatalog(cmd.OutOrStdout(), cfg, logger)
		},
	}
}

func printCatalog(w io.Writer, cfg *config.Config, logger *slog.Logger) error {
	reg, err := buildRegistry(cfg, logger)
	if err != nil {
		return err
	}
	catalog, err := reg.Catalog()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, catalog)
	return err
}
