package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/difygen/difygen/utils/config"
	"github.com/difygen/difygen/utils/history"
	"github.com/difygen/difygen/utils/models"
	"github.com/difygen/difygen/utils/pipeline"
	"github.com/difygen/difygen/utils/scraper"
)

var generateModel string
var generateOutput string
var generateContextFile string
var generateContextURL string

var generateCmd = &cobra.Command{
	Use:   "generate [request]",
	Short: "Generate a Dify workflow from a natural-language request",
	Long: `Generate a validated Dify DSL document from a natural-language workflow
description using the staged LLM pipeline. Extra reference context can be
supplied from a file or scraped from a documentation URL.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		request := args[0]

		envConfig, err := config.LoadEnvConfig(config.GetEnvPath())
		if err != nil {
			log.Fatalf("Error loading environment configuration: %v", err)
		}

		provider := models.DetectProvider(generateModel)
		if provider == nil {
			log.Fatalf("No provider supports model %s", generateModel)
		}
		providerConfig, err := envConfig.GetProviderConfig(provider.Name())
		if err != nil {
			log.Fatalf("Provider %s is not configured: %v (run 'difygen configure')", provider.Name(), err)
		}
		if err := provider.Configure(providerConfig.APIKey); err != nil {
			log.Fatalf("Error configuring provider: %v", err)
		}
		provider.SetVerbose(config.Verbose)

		context := loadContext()

		p := pipeline.NewPipeline(provider, generateModel)
		p.SetStatusCallback(func(message string) {
			fmt.Printf("> %s\n", message)
		})

		result, err := p.Generate(request, context)
		if err != nil {
			log.Fatalf("Generation failed: %v", err)
		}

		saveRunHistory(envConfig, request, context, result)

		if len(result.Errors) > 0 {
			fmt.Fprintf(os.Stderr, "Warning: %d validation errors remain after %d repair attempts\n",
				len(result.Errors), result.Attempts)
		}

		if generateOutput == "" {
			fmt.Print(result.YAML)
			return
		}
		if err := os.WriteFile(generateOutput, []byte(result.YAML), 0644); err != nil {
			log.Fatalf("Error writing output file: %v", err)
		}
		fmt.Printf("Workflow written to %s\n", generateOutput)
	},
}

// loadContext gathers reference context from the configured sources
func loadContext() string {
	var parts []string

	if generateContextFile != "" {
		data, err := os.ReadFile(generateContextFile)
		if err != nil {
			log.Fatalf("Error reading context file: %v", err)
		}
		parts = append(parts, string(data))
	}

	if generateContextURL != "" {
		page, err := scraper.NewScraper().Fetch(generateContextURL)
		if err != nil {
			config.VerboseLog("context fetch failed for %s: %v", generateContextURL, err)
		} else {
			parts = append(parts, page.ContextText())
		}
	}

	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

// saveRunHistory persists the run when a database is configured; failures
// only warn
func saveRunHistory(envConfig *config.EnvConfig, request, context string, result *pipeline.Result) {
	dbConfig, err := envConfig.GetDatabaseConfig()
	if err != nil {
		config.DebugLog("history persistence skipped: %v", err)
		return
	}

	store := history.NewStore(dbConfig)
	defer store.Close()
	if err := store.Init(); err != nil {
		config.VerboseLog("history persistence unavailable: %v", err)
		return
	}

	status := "success"
	if len(result.Errors) > 0 {
		status = "failed"
	}
	record := &history.Record{
		UserRequest: request,
		Context:     context,
		FinalYAML:   result.YAML,
		ModelName:   generateModel,
		Status:      status,
		ErrorMsg:    strings.Join(result.Errors, "\n"),
	}
	if err := store.Save(record); err != nil {
		config.VerboseLog("failed to save history record: %v", err)
	}
}

func init() {
	generateCmd.Flags().StringVarP(&generateModel, "model", "m", "gpt-4o", "model to drive the pipeline")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "output file (default: stdout)")
	generateCmd.Flags().StringVar(&generateContextFile, "context-file", "", "file with extra reference context")
	generateCmd.Flags().StringVar(&generateContextURL, "context-url", "", "documentation URL to scrape for context")
	rootCmd.AddCommand(generateCmd)
}
