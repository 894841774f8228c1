package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type limitedConfig struct {
	Name  string `mapstructure:"name"`
	Value int    `mapstructure:"value"`
}

func (c *limitedConfig) Validate() error {
	if c.Value > 100 {
		return errors.New("value demasiado grande")
	}
	return nil
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestUpdateConfig(t *testing.T) {
	path := writeConfigFile(t, `{"name": "memoria", "value": 10}`)

	updated, err := UpdateConfig(path, map[string]string{"value": "42", "name": "swap"}, &limitedConfig{})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "value"}, updated)

	var reloaded limitedConfig
	require.NoError(t, setupConfig(path, &reloaded))
	assert.Equal(t, limitedConfig{Name: "swap", Value: 42}, reloaded)
}

func TestUpdateConfig_Rejected(t *testing.T) {
	test := []struct {
		name    string
		updates map[string]string
		wantErr error
	}{
		{name: "clave inexistente", updates: map[string]string{"otra": "1"}, wantErr: ErrUnknownKey},
		{name: "no valida", updates: map[string]string{"value": "1000"}},
	}

	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			original := `{"name": "memoria", "value": 10}`
			path := writeConfigFile(t, original)

			_, err := UpdateConfig(path, tt.updates, &limitedConfig{})
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, original, string(content), "el archivo no se modifica")
		})
	}
}
