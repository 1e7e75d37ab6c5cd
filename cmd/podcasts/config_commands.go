package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"podcast-insights-go/internal/config"
)

func newConfigCommand() *cobra.Command {
	var path string
	var overwrite bool

	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the annotated sample configuration",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			written, err := config.CreateSample(path, overwrite)
			if errors.Is(err, config.ErrConfigExists) {
				return fmt.Errorf("%w (pass --overwrite to replace it)", err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sample configuration written to %s\n", written)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&path, "path", "p", "", "Destination (default ~/.config/podcasts/config.toml)")
	initCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")

	cmd := &cobra.Command{Use: "config", Short: "Configuration file utilities"}
	cmd.AddCommand(initCmd)
	return cmd
}
