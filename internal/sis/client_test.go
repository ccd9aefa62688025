package sis_test

import (
	"context"
	"testing"

	"github.com/projecthub-edu/projecthub-api/internal/config"
	"github.com/projecthub-edu/projecthub-api/internal/sis"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewClient_DisabledConfig(t *testing.T) {
	logger := zap.NewNop()

	// Test with nil config
	client, err := sis.NewClient(nil, logger)
	assert.NoError(t, err)
	assert.Nil(t, client)

	// Test with disabled config
	cfg := &config.SISConfig{
		Enabled: false,
	}
	client, err = sis.NewClient(cfg, logger)
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewClient_MissingCredentials(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name string
		cfg  *config.SISConfig
	}{
		{
			name: "missing URL",
			cfg: &config.SISConfig{
				Enabled:  true,
				URL:      "",
				User:     "user",
				Password: "pass",
			},
		},
		{
			name: "missing user",
			cfg: &config.SISConfig{
				Enabled:  true,
				URL:      "host:1433/sisdb",
				User:     "",
				Password: "pass",
			},
		},
		{
			name: "missing password",
			cfg: &config.SISConfig{
				Enabled:  true,
				URL:      "host:1433/sisdb",
				User:     "user",
				Password: "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := sis.NewClient(tt.cfg, logger)
			assert.NoError(t, err, "incomplete config skips the connection, it is not an error")
			assert.Nil(t, client)
		})
	}
}

func TestClient_NilReceiverSafety(t *testing.T) {
	var client *sis.Client

	assert.False(t, client.IsEnabled())
	assert.NoError(t, client.Close())

	status := client.HealthCheck(context.Background())
	assert.Equal(t, "disabled", status.Status)

	_, err := client.FetchEnrollments(context.Background(), "M2-SOFT", "2025-2026")
	assert.Error(t, err)
}
