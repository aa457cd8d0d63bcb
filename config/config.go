// Package config wires the defaults, environment and anigrab.toml into viper.
package config

import (
	"errors"
	"strings"

	"github.com/anigrab/anigrab/constant"
	"github.com/anigrab/anigrab/filesystem"
	"github.com/anigrab/anigrab/where"
	"github.com/spf13/viper"
)

// EnvKeyReplacer maps a key such as harvest.tabs to ANIGRAB_HARVEST_TABS.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup loads settings in order of precedence: environment, config file, defaults.
// A missing config file is not an error.
func Setup() error {
	viper.SetConfigName(constant.App)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.App)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}
