package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var provider, units string

	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate a script from a text prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(opts)
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			if provider == "" {
				provider = a.llm.ActiveProvider
			}
			prompt := strings.Join(args, " ")

			entry, err := a.session.GenerateCode(cmd.Context(), provider, prompt, units)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), entry.Code)
			fmt.Fprintf(cmd.ErrOrStderr(), "recorded as %s\n", shortID(entry.ID))
			return nil
		},
	}
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "provider id (openai|grok|claude)")
	cmd.Flags().StringVarP(&units, "units", "u", "millimeters", "document units")
	return cmd
}
