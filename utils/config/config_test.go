package config

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestConfig struct {
	Name  string `json:"name" mapstructure:"name"`
	Value int    `json:"value" mapstructure:"value"`
	Keep  string `json:"keep" mapstructure:"keep"`
}

func TestSetupConfig(t *testing.T) {
	tempFile, err := os.CreateTemp("", "testconfig*.json")
	require.NoError(t, err)
	defer os.Remove(tempFile.Name())

	validConfig := TestConfig{Name: "test", Value: 123}
	require.NoError(t, json.NewEncoder(tempFile).Encode(map[string]any{"name": validConfig.Name, "value": validConfig.Value}))
	require.NoError(t, tempFile.Close())

	config := TestConfig{Keep: "default"}
	err = setupConfig(tempFile.Name(), &config)
	require.NoError(t, err)

	assert.Equal(t, "test", config.Name)
	assert.Equal(t, 123, config.Value)
	assert.Equal(t, "default", config.Keep, "los campos ausentes conservan el valor precargado")
}

func TestSetupConfig_WithoutExtension(t *testing.T) {
	tempFile, err := os.CreateTemp("", "testconfig")
	require.NoError(t, err)
	defer os.Remove(tempFile.Name())

	_, err = tempFile.WriteString(`{"name": "sin-extension", "value": 7}`)
	require.NoError(t, err)
	require.NoError(t, tempFile.Close())

	var config TestConfig
	require.NoError(t, setupConfig(tempFile.Name(), &config))
	assert.Equal(t, TestConfig{Name: "sin-extension", Value: 7}, config)
}

func TestSetupConfig_ThrowError(t *testing.T) {
	err := setupConfig("nonexistent.json", &TestConfig{})
	assert.Error(t, err)
}

func TestInitConfig_Panics(t *testing.T) {
	assert.Panics(t, func() {
		InitConfig("nonexistent.json", &TestConfig{})
	})
}
