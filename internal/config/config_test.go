package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "APP_PORT", "SIM_TICK_HZ", "SIM_MAX_STEP_SECONDS", "MIGRATE_ON_START"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 60, cfg.TickHz)
	assert.Equal(t, 0.1, cfg.MaxStepSeconds)
	assert.False(t, cfg.MigrateOnStart)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SIM_TICK_HZ", "120")
	t.Setenv("SIM_MAX_STEP_SECONDS", "0.05")
	t.Setenv("MIGRATE_ON_START", "true")
	t.Setenv("SIM_MAX_SIMULATIONS", "lots")

	cfg := Load()
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 120, cfg.TickHz)
	assert.Equal(t, 0.05, cfg.MaxStepSeconds)
	assert.True(t, cfg.MigrateOnStart)
	assert.Equal(t, 200, cfg.MaxSimulations, "unparsable values fall back to the default")
}

func TestAllowedOriginsList(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	assert.Equal(t, []string{"https://lab.playmatatu.com", "https://playmatatu.com"}, Load().AllowedOrigins)

	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, Load().AllowedOrigins)

	t.Setenv("CORS_ALLOWED_ORIGINS", " , ")
	assert.Equal(t, []string{"https://lab.playmatatu.com", "https://playmatatu.com"}, Load().AllowedOrigins)
}
