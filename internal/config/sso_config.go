package config

import "github.com/spf13/viper"

type SSOConfig interface {
	GetSSOIssuer() string
	GetSSOClientID() string
	GetSSOClientSecret() string
	GetSSORedirectURL() string
	SSOEnabled() bool
}

type SSO struct {
	v *viper.Viper
}

var _ SSOConfig = SSO{}

func (s SSO) GetSSOIssuer() string {
	return s.v.GetString(keySSOIssuer)
}

func (s SSO) GetSSOClientID() string {
	return s.v.GetString(keySSOClientID)
}

func (s SSO) GetSSOClientSecret() string {
	return s.v.GetString(keySSOClientSecret)
}

func (s SSO) GetSSORedirectURL() string {
	return s.v.GetString(keySSORedirectURL)
}

func (s SSO) SSOEnabled() bool {
	return s.GetSSOIssuer() != "" && s.GetSSOClientID() != ""
}
