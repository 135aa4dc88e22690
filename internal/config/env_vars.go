package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetSessionsFolder() string
	GetDatabasesFolder() string
	GetOperatorsFile() string
	GetLogLevel() string
	GetEnv() string
}

type EnvVars struct {
	v *viper.Viper
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.v.GetString(keyPort)
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.v.GetString(keyAppName)
}

func (e EnvVars) GetDataFolder() string {
	return e.v.GetString(keyDataFolder)
}

// GetSessionsFolder is where per-phone credentials live.
func (e EnvVars) GetSessionsFolder() string {
	return filepath.Join(e.GetDataFolder(), "sessions")
}

// GetDatabasesFolder is where per-bot chat stores live.
func (e EnvVars) GetDatabasesFolder() string {
	return filepath.Join(e.GetDataFolder(), "databases")
}

func (e EnvVars) GetOperatorsFile() string {
	return filepath.Join(e.GetDataFolder(), "operators.toml")
}

func (e EnvVars) GetLogLevel() string {
	return e.v.GetString(keyLogLevel)
}

func (e EnvVars) GetEnv() string {
	env := strings.ToUpper(e.v.GetString(keyEnv))
	if env == "" {
		return "DEV"
	}
	return env
}
