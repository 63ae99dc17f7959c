package config

const (
	defaultConfigPath        = "~/.config/bbprovider/config.toml"
	defaultSocketName        = "bb-auth.sock"
	defaultProviderName      = "provider-template"
	defaultProviderKind      = "custom"
	defaultProviderPriority  = 20
	defaultHeartbeatInterval = 2.0
	defaultReadTimeout       = 0.5
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	lockFilePrefix           = "bb-auth-provider-"
	minProviderPriority      = -1000
	maxProviderPriority      = 1000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Daemon: Daemon{
			SocketPath: DefaultSocketPath(),
		},
		Provider: Provider{
			Name:     defaultProviderName,
			Kind:     defaultProviderKind,
			Priority: defaultProviderPriority,
		},
		Heartbeat: Heartbeat{
			IntervalSeconds:    defaultHeartbeatInterval,
			ReadTimeoutSeconds: defaultReadTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// PriorityRange returns the inclusive bounds the daemon accepts for provider priority.
func PriorityRange() (int, int) {
	return minProviderPriority, maxProviderPriority
}
