package config

import "time"

// DaemonConfig holds the runner's process-level settings.
type DaemonConfig struct {
	// PID file location, guarding against two runners sharing a database
	PIDFile string `mapstructure:"pid_file"`

	// How long shutdown waits for the controller loop to stop
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required"`

	// How often the ledger is flushed to the database (0 disables)
	LedgerFlushInterval time.Duration `mapstructure:"ledger_flush_interval"`
}
