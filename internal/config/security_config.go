package config

import (
	"time"

	"github.com/spf13/viper"
)

type SecurityConfig interface {
	GetJWTSecret() string
	GetTokenExpiry() time.Duration
	GetOwnerUsername() string
	GetOwnerPassword() string
}

type Security struct {
	v *viper.Viper
}

var _ SecurityConfig = Security{}

func (s Security) GetJWTSecret() string {
	return s.v.GetString(keyJWTSecret)
}

func (s Security) GetTokenExpiry() time.Duration {
	return s.v.GetDuration(keyTokenExpiry)
}

// GetOwnerUsername is the operator that is always a developer.
func (s Security) GetOwnerUsername() string {
	return s.v.GetString(keyOwnerUsername)
}

func (s Security) GetOwnerPassword() string {
	return s.v.GetString(keyOwnerPassword)
}
