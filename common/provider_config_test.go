package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLocalConfigMissingFile(t *testing.T) {
	config, err := loadLocalConfigFromFile(filepath.Join(t.TempDir(), "config.yml"))
	require.NoError(t, err)
	assert.Empty(t, config.Providers)
}

func TestLoadLocalConfigCustomProviders(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")
	content := `
providers:
  - name: local-llm
    type: openai_compatible
    base_url: http://localhost:11434/v1
    key: unused
    model: llama3
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	config, err := loadLocalConfigFromFile(configPath)
	require.NoError(t, err)
	require.Len(t, config.Providers, 1)
	assert.Equal(t, "local-llm", config.Providers[0].Name)
	assert.Equal(t, "openai_compatible", config.Providers[0].Type)
	assert.Equal(t, "http://localhost:11434/v1", config.Providers[0].BaseURL)
	assert.Equal(t, "llama3", config.Providers[0].Model)
}

func TestLoadLocalConfigInvalidProvider(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")
	content := `
providers:
  - name: broken
    type: openai_compatible
    model: some-model
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	_, err := loadLocalConfigFromFile(configPath)
	assert.ErrorContains(t, err, "base_url is required")
}

func TestProviderConfigValidate(t *testing.T) {
	valid := ProviderConfig{Name: "p", Type: "openai", Model: "m"}
	assert.NoError(t, valid.Validate())

	badType := ProviderConfig{Name: "p", Type: "mystery", Model: "m"}
	assert.ErrorContains(t, badType.Validate(), "invalid provider type")

	noModel := ProviderConfig{Name: "p", Type: "openai"}
	assert.ErrorContains(t, noModel.Validate(), "model is required")
}
