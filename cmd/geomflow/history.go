package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/BaSui01/geomflow/history"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage generation history",
	}
	cmd.AddCommand(newHistoryListCmd(opts), newHistoryRmCmd(opts))
	return cmd
}

func newHistoryListCmd(opts *rootOptions) *cobra.Command {
	var provider, kind, search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List history records, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(opts)
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			records := a.ledger.Filter(history.Filter{
				Provider: provider,
				Kind:     history.Kind(kind),
				Search:   search,
			})

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tPROVIDER\tTIME\tPROMPT")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					shortID(r.RecordID()),
					r.RecordKind(),
					r.RecordProvider(),
					r.RecordTime().Format("2006-01-02 15:04"),
					truncate(r.RecordPrompt(), 60),
				)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "filter by provider id")
	cmd.Flags().StringVar(&kind, "kind", "", "filter by kind (code|mesh)")
	cmd.Flags().StringVar(&search, "search", "", "substring match on prompt/code")
	return cmd
}

func newHistoryRmCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a record (mesh records also delete their asset files)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(opts)
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			id := resolveID(a.ledger, args[0])
			if id == "" || !a.ledger.Remove(id) {
				return fmt.Errorf("no record with id %s", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), "removed", shortID(id))
			return nil
		},
	}
}

// resolveID 允许用 shortID 前缀指代记录；有歧义时返回空。
func resolveID(l *history.Ledger, prefix string) string {
	var match string
	for _, r := range l.All() {
		id := r.RecordID()
		if id == prefix {
			return id
		}
		if len(prefix) >= 4 && len(id) >= len(prefix) && id[:len(prefix)] == prefix {
			if match != "" {
				return ""
			}
			match = id
		}
	}
	return match
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
