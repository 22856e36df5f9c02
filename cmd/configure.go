package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/difygen/difygen/utils/config"
)

var listFlag bool

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Configure provider settings",
	Long:  `Configure provider settings including provider, model name, and API key`,
	Run: func(cmd *cobra.Command, args []string) {
		if listFlag {
			listConfiguration()
			return
		}

		reader := bufio.NewReader(os.Stdin)
		configPath := config.GetEnvPath()

		envConfig, err := config.LoadEnvConfig(configPath)
		if err != nil {
			envConfig = &config.EnvConfig{Providers: make(map[string]*config.Provider)}
		}

		var providerName string
		for {
			fmt.Print("Enter provider (openai/google): ")
			providerName, _ = reader.ReadString('\n')
			providerName = strings.TrimSpace(providerName)
			if providerName == "openai" || providerName == "google" {
				break
			}
			fmt.Println("Invalid provider. Please enter 'openai' or 'google'")
		}

		existing, exists := envConfig.Providers[providerName]
		var apiKey string
		if exists && existing != nil {
			apiKey = existing.APIKey
			fmt.Print("Provider already configured. Replace API key? (y/N): ")
			answer, _ := reader.ReadString('\n')
			if strings.EqualFold(strings.TrimSpace(answer), "y") {
				apiKey = readAPIKey()
			}
		} else {
			apiKey = readAPIKey()
		}

		fmt.Print("Enter model name (e.g. gpt-4o or gemini-1.5-pro): ")
		modelName, _ := reader.ReadString('\n')
		modelName = strings.TrimSpace(modelName)

		provider := config.Provider{APIKey: apiKey}
		if exists && existing != nil {
			provider.Models = existing.Models
		}
		if modelName != "" {
			found := false
			for _, m := range provider.Models {
				if m.Name == modelName {
					found = true
					break
				}
			}
			if !found {
				provider.Models = append(provider.Models, config.Model{Name: modelName, Type: "external"})
			}
		}
		envConfig.AddProvider(providerName, provider)

		if err := config.SaveEnvConfig(configPath, envConfig); err != nil {
			fmt.Printf("Error saving configuration: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration saved to %s\n", configPath)
	},
}

// readAPIKey reads the key without echoing it to the terminal
func readAPIKey() string {
	fmt.Print("Enter API key: ")
	keyBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		// Not a terminal (e.g. piped input); fall back to a plain read
		reader := bufio.NewReader(os.Stdin)
		key, _ := reader.ReadString('\n')
		return strings.TrimSpace(key)
	}
	return strings.TrimSpace(string(keyBytes))
}

func listConfiguration() {
	envConfig, err := config.LoadEnvConfig(config.GetEnvPath())
	if err != nil {
		fmt.Printf("No configuration found: %v\n", err)
		return
	}

	fmt.Println("Configured providers:")
	for name, provider := range envConfig.Providers {
		if provider == nil {
			continue
		}
		fmt.Printf("- %s (API key: %s)\n", name, maskKey(provider.APIKey))
		for _, m := range provider.Models {
			fmt.Printf("  - %s\n", m.Name)
		}
	}

	if server := envConfig.GetServerConfig(); server != nil {
		fmt.Printf("Server: port %d\n", server.Port)
	}
	if db, err := envConfig.GetDatabaseConfig(); err == nil {
		fmt.Printf("History database: %s@%s/%s\n", db.User, db.Host, db.DBName)
	}
}

// maskKey hides all but the first and last 4 characters of an API key
func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

func init() {
	configureCmd.Flags().BoolVarP(&listFlag, "list", "l", false, "list current configuration")
	rootCmd.AddCommand(configureCmd)
}
