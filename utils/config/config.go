package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// InitConfig lee el archivo de configuración y vuelca sus valores en config. En caso de error finaliza con panic.
// Los campos que no aparecen en el archivo conservan el valor que ya tenían, por lo que se pueden precargar defaults.
//
// Parámetros:
//   - filePath: ubicacion donde se encuentra el archivo de configuracion (json, yaml o toml según la extensión)
//   - config: puntero a la estructura destino, los campos se mapean con tags `mapstructure`
//
// Ejemplo:
//
//	type TestConfig struct {
//		Name  string `mapstructure:"name"`
//		Value int    `mapstructure:"value"`
//	}
//	func main() {
//		var testConfig TestConfig
//		config.InitConfig("./test.json", &testConfig)
//	}
func InitConfig(filePath string, config interface{}) {
	err := setupConfig(filePath, config)
	if err != nil {
		panic(fmt.Errorf("error al configurar el archivo %s: %w", filePath, err))
	}
}

func setupConfig(filePath string, config interface{}) error {
	v := viper.New()
	v.SetConfigFile(filePath)

	// Sin extensión viper no sabe cómo parsear, asumimos JSON como el resto de los módulos.
	if strings.TrimPrefix(filepath.Ext(filePath), ".") == "" {
		v.SetConfigType("json")
	}

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(config)
}
