package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/viper"
)

// ErrUnknownKey la clave no existe en el archivo de configuración
var ErrUnknownKey = errors.New("clave inexistente en la configuración")

// Validator es una configuración que sabe verificarse.
type Validator interface {
	Validate() error
}

// UpdateConfig reescribe en el archivo las claves indicadas. Solo se modifican claves que ya existen.
// Los valores se interpretan como JSON (números, booleanos) y si no parsean se guardan como string.
// Antes de escribir, el resultado se vuelca en target y se valida; si falla el archivo no se toca.
//
// Ejemplo:
//
//	updated, err := config.UpdateConfig("./configs/memoria.json", map[string]string{"threshold": "50"}, models.DefaultConfig())
func UpdateConfig(filePath string, updates map[string]string, target Validator) ([]string, error) {
	v := viper.New()
	v.SetConfigFile(filePath)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var updated []string
	for key, raw := range updates {
		if !v.IsSet(key) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}

		var value interface{}
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			// Si no es un JSON válido (ej. un path o una IP), usar el string directamente
			value = raw
		}
		v.Set(key, value)
		updated = append(updated, key)
	}
	slices.Sort(updated)

	if err := v.Unmarshal(target); err != nil {
		return nil, err
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}

	if err := v.WriteConfig(); err != nil {
		return nil, fmt.Errorf("error al escribir el archivo %s: %w", filePath, err)
	}
	return updated, nil
}
