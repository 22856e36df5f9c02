package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/difygen/difygen/utils/validator"
)

var validateStrict bool

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate Dify DSL documents",
	Long: `Validate one or more Dify DSL YAML files against the DSL schema and the
workflow graph rules. With --strict, variable cross-references are verified too.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		failed := false
		for _, file := range args {
			v := validator.NewValidator(validateStrict)
			if err := v.LoadFromFile(file); err != nil {
				fmt.Printf("%s: %v\n", file, err)
				failed = true
				continue
			}

			ok, errors := v.Validate()
			if ok {
				fmt.Printf("%s: OK\n", file)
				continue
			}

			failed = true
			fmt.Printf("%s: %d validation errors\n", file, len(errors))
			for _, e := range errors {
				fmt.Printf("- %s\n", e)
			}
		}
		if failed {
			os.Exit(1)
		}
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "verify variable cross-references")
	rootCmd.AddCommand(validateCmd)
}
