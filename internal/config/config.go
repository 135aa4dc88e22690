package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix  = "FLEET"
	configName = "fleet"
	configType = "toml"
)

type Config interface {
	EnvConfig
	SessionConfig
	RateLimitConfig
	CommandConfig
	SecurityConfig
	SSOConfig
	CorsConfig
}

type mainConfig struct {
	EnvVars
	Session
	RateLimit
	Commands
	Security
	SSO
	Cors
}

// Option adjusts the viper instance before the configuration is read.
type Option func(v *viper.Viper)

// WithConfigFile reads configuration from an explicit file instead of searching for fleet.toml.
func WithConfigFile(path string) Option {
	return func(v *viper.Viper) {
		if path != "" {
			v.SetConfigFile(path)
		}
	}
}

// WithOverride sets a value that takes precedence over files and the environment.
func WithOverride(key string, value any) Option {
	return func(v *viper.Viper) {
		v.Set(key, value)
	}
}

// New builds the configuration from defaults, an optional fleet.toml and FLEET_* environment variables.
func New(options ...Option) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(".")
	v.AddConfigPath(v.GetString(keyDataFolder))

	for _, opt := range options {
		opt(v)
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("[config New] read config file: %w", err)
		}
	}

	return FromViper(v), nil
}

// FromViper wraps an already populated viper instance.
func FromViper(v *viper.Viper) Config {
	return mainConfig{
		EnvVars:   EnvVars{v: v},
		Session:   Session{v: v},
		RateLimit: RateLimit{v: v},
		Commands:  Commands{v: v},
		Security:  Security{v: v},
		SSO:       SSO{v: v},
		Cors:      Cors{v: v},
	}
}

// Defaults returns a configuration holding only the built-in defaults.
func Defaults() Config {
	v := viper.New()
	setDefaults(v)
	return FromViper(v)
}
