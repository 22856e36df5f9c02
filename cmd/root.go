package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/difygen/difygen/utils/config"
)

var verbose bool
var debug bool

var rootCmd = &cobra.Command{
	Use:   "difygen",
	Short: "Generate and validate Dify workflow DSL files",
	Long: `difygen turns natural-language workflow descriptions into validated
Dify workflow DSL documents, and compiles/validates workflow blueprints directly.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Verbose = verbose
		config.Debug = debug
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug output")
}

// Execute runs the root command
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
