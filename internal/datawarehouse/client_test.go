package datawarehouse_test

import (
	"context"
	"testing"

	"github.com/motorserv/srf-api/internal/config"
	"github.com/motorserv/srf-api/internal/datawarehouse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewClient_DisabledConfig(t *testing.T) {
	logger := zap.NewNop()

	client, err := datawarehouse.NewClient(nil, logger)
	assert.NoError(t, err)
	assert.Nil(t, client)

	client, err = datawarehouse.NewClient(&config.DataWarehouseConfig{Enabled: false}, logger)
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewClient_MissingCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.DataWarehouseConfig
	}{
		{name: "missing URL", cfg: &config.DataWarehouseConfig{Enabled: true, User: "user", Password: "pass"}},
		{name: "missing user", cfg: &config.DataWarehouseConfig{Enabled: true, URL: "host:1433/erp", Password: "pass"}},
		{name: "missing password", cfg: &config.DataWarehouseConfig{Enabled: true, URL: "host:1433/erp", User: "user"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := datawarehouse.NewClient(tt.cfg, zap.NewNop())
			assert.NoError(t, err)
			assert.Nil(t, client)
		})
	}
}

func TestNewClient_RejectsUnsafeTableName(t *testing.T) {
	cfg := &config.DataWarehouseConfig{
		Enabled:       true,
		URL:           "host:1433/erp",
		User:          "user",
		Password:      "pass",
		CustomerTable: "dbo.Customers; DROP TABLE x",
	}
	client, err := datawarehouse.NewClient(cfg, zap.NewNop())
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestNilClient(t *testing.T) {
	var client *datawarehouse.Client

	assert.False(t, client.IsEnabled())
	assert.NoError(t, client.Close())
	assert.Equal(t, "disabled", client.HealthCheck(context.Background()).Status)

	_, err := client.FindCustomerByName(context.Background(), "ACME PUMPS")
	require.Error(t, err)
	_, err = client.FindCustomerByCode(context.Background(), "K77")
	require.Error(t, err)
}
