package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Model represents a single model configuration
type Model struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Provider represents a provider's configuration
type Provider struct {
	APIKey string  `yaml:"api_key"`
	Models []Model `yaml:"models"`
}

// DatabaseConfig holds connection settings for the history database
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// GetConnectionString builds a lib/pq connection string from the configuration
func (d *DatabaseConfig) GetConnectionString() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	port := d.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, port, d.User, d.Password, d.DBName, sslMode)
}

// EnvConfig represents the complete environment configuration
type EnvConfig struct {
	Providers map[string]*Provider `yaml:"providers"`
	Server    *ServerConfig        `yaml:"server,omitempty"`
	Database  *DatabaseConfig      `yaml:"database,omitempty"`
}

// GetEnvPath returns the environment file path from DIFYGEN_ENV or the default
func GetEnvPath() string {
	if envPath := os.Getenv("DIFYGEN_ENV"); envPath != "" {
		DebugLog("Using environment file from DIFYGEN_ENV: %s", envPath)
		return envPath
	}
	DebugLog("Using default environment file: .difygen.yaml")
	return ".difygen.yaml"
}

// LoadEnvConfig loads the environment configuration from the given path
func LoadEnvConfig(path string) (*EnvConfig, error) {
	DebugLog("Loading environment configuration from: %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading env file: %w", err)
	}

	var config EnvConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing env file: %w", err)
	}

	DebugLog("Successfully loaded environment configuration")
	return &config, nil
}

// SaveEnvConfig saves the environment configuration to the given path
func SaveEnvConfig(path string, config *EnvConfig) error {
	DebugLog("Saving environment configuration to: %s", path)

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("error marshaling env config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing env file: %w", err)
	}

	return nil
}

// GetProviderConfig retrieves configuration for a specific provider
func (c *EnvConfig) GetProviderConfig(providerName string) (*Provider, error) {
	provider, exists := c.Providers[providerName]
	if !exists {
		return nil, fmt.Errorf("provider %s not found in configuration", providerName)
	}
	if provider == nil {
		return nil, fmt.Errorf("provider %s configuration is nil", providerName)
	}
	return provider, nil
}

// AddProvider adds or updates a provider configuration
func (c *EnvConfig) AddProvider(name string, provider Provider) {
	if c.Providers == nil {
		c.Providers = make(map[string]*Provider)
	}
	providerCopy := provider
	c.Providers[name] = &providerCopy
}

// GetServerConfig returns the server configuration, or nil if not configured
func (c *EnvConfig) GetServerConfig() *ServerConfig {
	return c.Server
}

// GetDatabaseConfig returns the database configuration
func (c *EnvConfig) GetDatabaseConfig() (*DatabaseConfig, error) {
	if c.Database == nil {
		return nil, fmt.Errorf("database configuration not found")
	}
	return c.Database, nil
}
