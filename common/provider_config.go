package common

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ValidProviderTypes are the allowed types for provider definitions
var ValidProviderTypes = []string{"openai", "openai_compatible", "gemini"}

// ProviderConfig describes one upstream model service. Built-in providers are
// derived from environment variables; additional openai-compatible providers
// can be declared in config.yml.
type ProviderConfig struct {
	Name    string `koanf:"name"`
	Type    string `koanf:"type"`
	BaseURL string `koanf:"base_url"`
	Key     string `koanf:"key"`
	Model   string `koanf:"model"`
}

// Validate ensures the ProviderConfig is valid
func (p ProviderConfig) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Type == "" {
		return fmt.Errorf("type is required")
	}
	if !slices.Contains(ValidProviderTypes, p.Type) {
		return fmt.Errorf("invalid provider type: %s", p.Type)
	}
	if p.Type == "openai_compatible" && p.BaseURL == "" {
		return fmt.Errorf("base_url is required for openai_compatible providers")
	}
	if p.Model == "" {
		return fmt.Errorf("model is required")
	}
	return nil
}

// LocalConfig represents the local configuration file structure
type LocalConfig struct {
	Providers []ProviderConfig `koanf:"providers"`
}

// LoadLocalConfig reads config.yml from the chorus config home. A missing file
// is not an error: the built-in provider set still applies.
func LoadLocalConfig() (LocalConfig, error) {
	configHome, err := GetChorusConfigHome()
	if err != nil {
		return LocalConfig{}, err
	}
	return loadLocalConfigFromFile(filepath.Join(configHome, "config.yml"))
}

func loadLocalConfigFromFile(path string) (LocalConfig, error) {
	var config LocalConfig

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return config, fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	if err := k.Unmarshal("", &config); err != nil {
		return config, fmt.Errorf("failed to unmarshal config file %s: %w", path, err)
	}

	for _, p := range config.Providers {
		if err := p.Validate(); err != nil {
			return LocalConfig{}, fmt.Errorf("invalid provider %q in %s: %w", p.Name, path, err)
		}
	}

	return config, nil
}

// GetProviderConfigs returns the full ordered provider set: the four built-in
// providers first, then any custom providers from config.yml. The order is
// stable across calls; it determines ranking tie-breaks and the default
// single-mode provider.
func GetProviderConfigs() ([]ProviderConfig, error) {
	configs := []ProviderConfig{
		{
			Name:  "openai",
			Type:  "openai",
			Key:   os.Getenv("OPENAI_API_KEY"),
			Model: "gpt-4o-mini",
		},
		{
			Name:    "groq",
			Type:    "openai_compatible",
			BaseURL: "https://api.groq.com/openai/v1",
			Key:     os.Getenv("GROQ_API_KEY"),
			Model:   "llama-3.3-70b-versatile",
		},
		{
			Name:    "deepseek",
			Type:    "openai_compatible",
			BaseURL: "https://api.deepseek.com/v1",
			Key:     os.Getenv("DEEPSEEK_API_KEY"),
			Model:   "deepseek-chat",
		},
		{
			Name:  "gemini",
			Type:  "gemini",
			Key:   os.Getenv("GEMINI_API_KEY"),
			Model: "gemini-2.0-flash",
		},
	}

	localConfig, err := LoadLocalConfig()
	if err != nil {
		return nil, err
	}

	for _, custom := range localConfig.Providers {
		if slices.ContainsFunc(configs, func(c ProviderConfig) bool { return c.Name == custom.Name }) {
			return nil, fmt.Errorf("custom provider %q conflicts with a built-in provider", custom.Name)
		}
		configs = append(configs, custom)
	}

	return configs, nil
}
