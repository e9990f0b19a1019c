package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, "postgres", cfg.StoreBackend)
	assert.Equal(t, "deepseek-chat", cfg.LLMModel)
	assert.Equal(t, "env", cfg.SecretsBackend)
	assert.Equal(t, "OUTREACH_CREDENTIAL_KEY", cfg.CredentialKeyName)
	assert.Equal(t, 5, cfg.DispatchBatchSize)
	assert.Equal(t, 5, cfg.DispatchIntervalMinutes)
	assert.False(t, cfg.DispatchRetryFailed)
	assert.Equal(t, 15, cfg.WarmupIntervalMinutes)
	assert.Empty(t, cfg.WarmupRecipients)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DISPATCH_BATCH_SIZE", "10")
	t.Setenv("DISPATCH_RETRY_FAILED", "true")
	t.Setenv("WARMUP_RECIPIENTS", "a@example.com, b@example.com ,")
	t.Setenv("LLM_TEMPERATURE", "0.2")

	cfg := Load()

	assert.Equal(t, 10, cfg.DispatchBatchSize)
	assert.True(t, cfg.DispatchRetryFailed)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.WarmupRecipients)
	assert.InDelta(t, 0.2, cfg.LLMTemperature, 0.001)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("DISPATCH_BATCH_SIZE", "lots")
	t.Setenv("DISPATCH_RETRY_FAILED", "yep")

	cfg := Load()

	assert.Equal(t, 5, cfg.DispatchBatchSize)
	assert.False(t, cfg.DispatchRetryFailed)
}
