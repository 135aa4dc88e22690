package config

import "github.com/spf13/viper"

type CommandConfig interface {
	GetPrefixes() []string
	GetBotName() string
}

type Commands struct {
	v *viper.Viper
}

var _ CommandConfig = Commands{}

func (c Commands) GetPrefixes() []string {
	return c.v.GetStringSlice(keyPrefixes)
}

func (c Commands) GetBotName() string {
	return c.v.GetString(keyBotName)
}
