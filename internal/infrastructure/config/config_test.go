package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logisim-sim/logisim/internal/infrastructure/config"
)

func TestSetDefaults(t *testing.T) {
	cfg := &config.Config{}
	config.SetDefaults(cfg)

	assert.Equal(t, 60.0, cfg.World.DtSeconds)
	assert.Equal(t, 10.0, cfg.World.TickRate)
	assert.Equal(t, 0.10, cfg.World.FuelPriceVolatility)
	assert.Equal(t, "localhost", cfg.Transport.Host)
	assert.Equal(t, 8765, cfg.Transport.Port)
	assert.Equal(t, 1000, cfg.Transport.QueueCapacity)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestValidateConfig(t *testing.T) {
	cfg := &config.Config{}
	config.SetDefaults(cfg)
	require.NoError(t, config.ValidateConfig(cfg))

	cfg.World.DtSeconds = -1
	assert.Error(t, config.ValidateConfig(cfg))

	config.SetDefaults(cfg)
	cfg.World.DtSeconds = 60
	cfg.Transport.Port = 70000
	assert.Error(t, config.ValidateConfig(cfg))

	config.SetDefaults(cfg)
	cfg.Transport.Port = 8765
	cfg.Database.Type = "oracle"
	assert.Error(t, config.ValidateConfig(cfg))
}

func TestLoadConfigOrDefault_MissingFileFallsBack(t *testing.T) {
	cfg := config.LoadConfigOrDefault("/nonexistent/config.yaml")
	require.NotNil(t, cfg)
	assert.Equal(t, 60.0, cfg.World.DtSeconds)
}
