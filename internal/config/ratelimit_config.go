package config

import (
	"time"

	"github.com/spf13/viper"
)

type RateLimitConfig interface {
	GetUserRateLimit() (int, time.Duration)
	GetGlobalRateLimit() (int, time.Duration)
	GetRateLimitRetention() time.Duration
}

type RateLimit struct {
	v *viper.Viper
}

var _ RateLimitConfig = RateLimit{}

func (r RateLimit) GetUserRateLimit() (int, time.Duration) {
	return r.v.GetInt(keyUserMax), r.v.GetDuration(keyUserWindow)
}

func (r RateLimit) GetGlobalRateLimit() (int, time.Duration) {
	return r.v.GetInt(keyGlobalMax), r.v.GetDuration(keyGlobalWindow)
}

func (r RateLimit) GetRateLimitRetention() time.Duration {
	return r.v.GetDuration(keyRetention)
}
