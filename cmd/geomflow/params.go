package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BaSui01/geomflow/params"
)

func newParamsCmd(opts *rootOptions) *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "params <script-file>",
		Short: "List or adjust numeric script parameters",
		Long: `Extracts numeric assignments from a script as adjustable parameters.
With --set the new values are patched back into the script text, which
is printed to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read script: %w", err)
			}

			logger := zap.NewNop()
			if opts.verbose {
				if logger, err = zap.NewDevelopment(); err != nil {
					return err
				}
			}
			b := params.NewBinder(string(data), logger)

			if len(sets) == 0 {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tVALUE\tMIN\tMAX\tINTEGER")
				for _, p := range b.Parameters() {
					fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%t\n",
						p.Name, p.Text(), p.Min, p.Max, p.IsInteger)
				}
				return w.Flush()
			}

			byName := make(map[string]*params.Parameter)
			for _, p := range b.Parameters() {
				byName[p.Name] = p
			}
			for _, set := range sets {
				name, raw, ok := strings.Cut(set, "=")
				if !ok {
					return fmt.Errorf("invalid --set %q, want name=value", set)
				}
				p, ok := byName[name]
				if !ok {
					return fmt.Errorf("no parameter named %s", name)
				}
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return fmt.Errorf("invalid value for %s: %w", name, err)
				}
				b.SetValue(p, v)
			}

			fmt.Fprint(cmd.OutOrStdout(), b.Script())
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "name=value assignment, repeatable")
	return cmd
}
