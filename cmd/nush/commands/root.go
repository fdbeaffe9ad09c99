package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Session flags shared by every subcommand that builds an engine state.
var (
	strictParse bool
	skipStdlib  bool
)

var rootCmd = &cobra.Command{
	Use:   "nush",
	Short: "nush is an embeddable nu-script state engine",
	Long: `nush parses nu-script sources and the bundled standard library into an
immutable session state. It never executes commands; it is the layer that
knows which commands, aliases, modules and variables a session can see.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&strictParse, "strict", DefaultStrictParse(),
		"Refuse to commit sources whose parse produced diagnostics (default: NU_STRICT_PARSE env var or false)")
	rootCmd.PersistentFlags().BoolVar(&skipStdlib, "no-stdlib", false,
		"Start from an empty session instead of loading the bundled standard library")
}

// AddCommand allows adding subcommands from other files.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}
