package config

import (
	"time"

	"github.com/spf13/viper"
)

type SessionConfig interface {
	GetPairingTimeout() time.Duration
	GetReconnectBaseDelay() time.Duration
	GetReconnectMaxDelay() time.Duration
	GetMaxReconnectAttempts() int
	GetSweepInterval() time.Duration
	GetAttemptStaleness() time.Duration
	GetPairingStaleness() time.Duration
	GetOnlineNotice() string
	GetRestoreConcurrency() int
}

type Session struct {
	v *viper.Viper
}

var _ SessionConfig = Session{}

func (s Session) GetPairingTimeout() time.Duration {
	return s.v.GetDuration(keyPairingTimeout)
}

func (s Session) GetReconnectBaseDelay() time.Duration {
	return s.v.GetDuration(keyReconnectBaseDelay)
}

// GetReconnectMaxDelay returns zero when delays are uncapped.
func (s Session) GetReconnectMaxDelay() time.Duration {
	return s.v.GetDuration(keyReconnectMaxDelay)
}

func (s Session) GetMaxReconnectAttempts() int {
	return s.v.GetInt(keyMaxReconnectAttempts)
}

func (s Session) GetSweepInterval() time.Duration {
	return s.v.GetDuration(keySweepInterval)
}

func (s Session) GetAttemptStaleness() time.Duration {
	return s.v.GetDuration(keyAttemptStaleness)
}

func (s Session) GetPairingStaleness() time.Duration {
	return s.v.GetDuration(keyPairingStaleness)
}

func (s Session) GetOnlineNotice() string {
	return s.v.GetString(keyOnlineNotice)
}

func (s Session) GetRestoreConcurrency() int {
	n := s.v.GetInt(keyRestoreConcurrency)
	if n < 1 {
		return 1
	}
	return n
}
