package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/weekplan/internal/cli/formatter"
)

func newVocabCmd(rt *Runtime) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Show the time-of-day phrases and their hour windows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vocab := rt.App().Vocabulary
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), vocab.Entries(), true)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatVocabulary(vocab))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the table as JSON")

	return cmd
}
