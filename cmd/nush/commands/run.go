package commands

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <script.nu ...>",
	Short: "Parse scripts and commit them into a fresh session",
	Long: `run parses each script in order, reports any diagnostics, and commits
what parsed into the session. Scripts see the definitions of the scripts
before them. With --strict a script with diagnostics aborts the run and
commits nothing of its own.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		es, err := newSession()
		if err != nil {
			return err
		}
		for _, script := range args {
			if err := sourceScript(es, script); err != nil {
				return err
			}
		}
		FormatSessionSummary(cmd.OutOrStdout(), es)
		return nil
	},
}

func init() {
	AddCommand(runCmd)
}
