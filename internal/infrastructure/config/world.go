package config

// WorldConfig holds the simulation engine's tunables.
type WorldConfig struct {
	// Simulated seconds advanced per tick
	DtSeconds float64 `mapstructure:"dt_seconds" validate:"gt=0"`

	// Seed for the world-owned RNG; same seed, same run
	Seed int64 `mapstructure:"seed"`

	// Real-time ticks per second the controller paces against
	TickRate float64 `mapstructure:"tick_rate" validate:"gt=0"`

	// Fuel market parameters
	InitialFuelPrice    float64 `mapstructure:"initial_fuel_price" validate:"gt=0"`
	FuelPriceMin        float64 `mapstructure:"fuel_price_min" validate:"gt=0"`
	FuelPriceMax        float64 `mapstructure:"fuel_price_max" validate:"gt=0"`
	FuelPriceVolatility float64 `mapstructure:"fuel_price_volatility" validate:"gte=0,lte=1"`
}

// TransportConfig holds the WebSocket boundary's settings.
type TransportConfig struct {
	// Listen address
	Host string `mapstructure:"host" validate:"required"`
	Port int    `mapstructure:"port" validate:"min=1,max=65535"`

	// Bound on both the action and the signal queue
	QueueCapacity int `mapstructure:"queue_capacity" validate:"min=1"`

	// Per-connection inbound action throttle
	ActionsPerSecond float64 `mapstructure:"actions_per_second" validate:"gt=0"`
	ActionBurst      int     `mapstructure:"action_burst" validate:"min=1"`
}
