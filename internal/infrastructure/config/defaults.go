package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// World defaults
	if cfg.World.DtSeconds == 0 {
		cfg.World.DtSeconds = 60
	}
	if cfg.World.Seed == 0 {
		cfg.World.Seed = 1
	}
	if cfg.World.TickRate == 0 {
		cfg.World.TickRate = 10
	}
	if cfg.World.InitialFuelPrice == 0 {
		cfg.World.InitialFuelPrice = 1.5
	}
	if cfg.World.FuelPriceMin == 0 {
		cfg.World.FuelPriceMin = 0.8
	}
	if cfg.World.FuelPriceMax == 0 {
		cfg.World.FuelPriceMax = 3.0
	}
	if cfg.World.FuelPriceVolatility == 0 {
		cfg.World.FuelPriceVolatility = 0.10
	}

	// Transport defaults
	if cfg.Transport.Host == "" {
		cfg.Transport.Host = "localhost"
	}
	if cfg.Transport.Port == 0 {
		cfg.Transport.Port = 8765
	}
	if cfg.Transport.QueueCapacity == 0 {
		cfg.Transport.QueueCapacity = 1000
	}
	if cfg.Transport.ActionsPerSecond == 0 {
		cfg.Transport.ActionsPerSecond = 50
	}
	if cfg.Transport.ActionBurst == 0 {
		cfg.Transport.ActionBurst = 100
	}

	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "logisim"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "logisim"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "logisim.db"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 25
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Metrics defaults
	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = "localhost"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// Daemon defaults
	if cfg.Daemon.PIDFile == "" {
		cfg.Daemon.PIDFile = "/tmp/logisim-server.pid"
	}
	if cfg.Daemon.ShutdownTimeout == 0 {
		cfg.Daemon.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Daemon.LedgerFlushInterval == 0 {
		cfg.Daemon.LedgerFlushInterval = 30 * time.Second
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Logging.Rotation.MaxSize == 0 {
		cfg.Logging.Rotation.MaxSize = 100 // MB
	}
	if cfg.Logging.Rotation.MaxBackups == 0 {
		cfg.Logging.Rotation.MaxBackups = 3
	}
	if cfg.Logging.Rotation.MaxAge == 0 {
		cfg.Logging.Rotation.MaxAge = 28 // days
	}
}
