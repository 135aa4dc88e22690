package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	keyAppName    = "app.name"
	keyEnv        = "app.env"
	keyPort       = "server.port"
	keyDataFolder = "data.folder"
	keyLogLevel   = "log.level"

	keyPairingTimeout       = "session.pairing_timeout"
	keyReconnectBaseDelay   = "session.reconnect_base_delay"
	keyReconnectMaxDelay    = "session.reconnect_max_delay"
	keyMaxReconnectAttempts = "session.max_reconnect_attempts"
	keySweepInterval        = "session.sweep_interval"
	keyAttemptStaleness     = "session.attempt_staleness"
	keyPairingStaleness     = "session.pairing_staleness"
	keyOnlineNotice         = "session.online_notice"
	keyRestoreConcurrency   = "session.restore_concurrency"

	keyUserMax      = "ratelimit.user_max"
	keyUserWindow   = "ratelimit.user_window"
	keyGlobalMax    = "ratelimit.global_max"
	keyGlobalWindow = "ratelimit.global_window"
	keyRetention    = "ratelimit.retention"

	keyPrefixes = "commands.prefixes"
	keyBotName  = "bot.name"

	keyJWTSecret     = "security.jwt_secret"
	keyTokenExpiry   = "security.token_expiry"
	keyOwnerUsername = "security.owner_username"
	keyOwnerPassword = "security.owner_password"

	keySSOIssuer       = "sso.issuer"
	keySSOClientID     = "sso.client_id"
	keySSOClientSecret = "sso.client_secret"
	keySSORedirectURL  = "sso.redirect_url"

	keyAllowedOrigins = "cors.allowed_origins"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyAppName, "WA Fleet")
	v.SetDefault(keyEnv, "DEV")
	v.SetDefault(keyPort, "8080")
	v.SetDefault(keyDataFolder, "./data")
	v.SetDefault(keyLogLevel, "info")

	v.SetDefault(keyPairingTimeout, 30*time.Second)
	v.SetDefault(keyReconnectBaseDelay, 5*time.Second)
	v.SetDefault(keyReconnectMaxDelay, time.Duration(0))
	v.SetDefault(keyMaxReconnectAttempts, 5)
	v.SetDefault(keySweepInterval, 5*time.Minute)
	v.SetDefault(keyAttemptStaleness, time.Hour)
	v.SetDefault(keyPairingStaleness, time.Hour)
	v.SetDefault(keyOnlineNotice, "Bot online, ready for commands.")
	v.SetDefault(keyRestoreConcurrency, 4)

	v.SetDefault(keyUserMax, 10)
	v.SetDefault(keyUserWindow, time.Minute)
	v.SetDefault(keyGlobalMax, 100)
	v.SetDefault(keyGlobalWindow, time.Minute)
	v.SetDefault(keyRetention, 5*time.Minute)

	v.SetDefault(keyPrefixes, []string{"!", ".", "/", "#"})
	v.SetDefault(keyBotName, "WA Fleet")

	v.SetDefault(keyJWTSecret, "")
	v.SetDefault(keyTokenExpiry, 12*time.Hour)
	v.SetDefault(keyOwnerUsername, "owner")
	v.SetDefault(keyOwnerPassword, "")

	v.SetDefault(keySSOIssuer, "")
	v.SetDefault(keySSOClientID, "")
	v.SetDefault(keySSOClientSecret, "")
	v.SetDefault(keySSORedirectURL, "")

	v.SetDefault(keyAllowedOrigins, []string{})
}
