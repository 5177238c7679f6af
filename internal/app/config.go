package app

import "time"

// Config holds runtime wiring options for building the subsystem.
type Config struct {
	// Home is the config/state directory, e.g. $HOME/.chatcrypt.
	Home string

	// DatabaseURL, when set, backs sessions and devices with postgres.
	// Empty means the in-memory store.
	DatabaseURL string

	// KDFIterations overrides the PBKDF2 iteration count for password
	// wrapping. Zero means the service default.
	KDFIterations int

	// SessionTTL overrides the key exchange session lifetime. Zero means
	// the service default.
	SessionTTL time.Duration

	// SweepInterval overrides how often the expiry sweeper runs. Zero means
	// the sweeper default.
	SweepInterval time.Duration
}
