package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/difygen/difygen/utils/blueprint"
	"github.com/difygen/difygen/utils/builder"
	"github.com/difygen/difygen/utils/validator"
)

var compileOutput string
var compileStrict bool

var compileCmd = &cobra.Command{
	Use:   "compile [blueprint.json]",
	Short: "Compile a workflow blueprint into a Dify DSL document",
	Long: `Compile a workflow blueprint JSON file into the Dify DSL YAML format,
then validate the result. With --strict, ambiguous blueprints (extra if-else
branches) are rejected and cross-references are verified.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			log.Fatalf("Error reading blueprint file: %v", err)
		}

		bp, err := blueprint.Parse(data)
		if err != nil {
			log.Fatalf("Invalid blueprint: %v", err)
		}

		yamlText, err := builder.NewBuilder(compileStrict).Build(bp)
		if err != nil {
			log.Fatalf("Compilation failed: %v", err)
		}

		v := validator.NewValidator(compileStrict)
		if err := v.LoadFromString(yamlText); err != nil {
			log.Fatalf("Error loading compiled document: %v", err)
		}
		if ok, errors := v.Validate(); !ok {
			fmt.Fprintln(os.Stderr, "Validation errors:")
			for _, e := range errors {
				fmt.Fprintf(os.Stderr, "- %s\n", e)
			}
			os.Exit(1)
		}

		if compileOutput == "" {
			fmt.Print(yamlText)
			return
		}
		if err := os.WriteFile(compileOutput, []byte(yamlText), 0644); err != nil {
			log.Fatalf("Error writing output file: %v", err)
		}
		fmt.Printf("Compiled workflow written to %s\n", compileOutput)
	},
}

func init() {
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "output file (default: stdout)")
	compileCmd.Flags().BoolVar(&compileStrict, "strict", false, "reject ambiguous blueprints and verify cross-references")
	rootCmd.AddCommand(compileCmd)
}
