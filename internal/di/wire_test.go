package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/freightwatch/internal/config"
	"github.com/aristath/freightwatch/internal/domain"
	"github.com/aristath/freightwatch/internal/notify"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, marketplaceURL string) *config.Config {
	t.Helper()
	return &config.Config{
		MarketplaceURL: marketplaceURL,
		Operators: []domain.Operator{
			{Key: "alexander", Name: "Alexander", Token: "tok-a"},
			{Key: "igor", Name: "Igor", Token: "tok-i"},
		},
		RenewalInterval:       time.Hour,
		ResponsesInterval:     3 * time.Minute,
		ResponsesInitialDelay: 30 * time.Second,
		HTTPTimeout:           5 * time.Second,
		CleanupInterval:       24 * time.Hour,
		CityDirectoryRefresh:  true,
		DataDir:               t.TempDir(),
		LogLevel:              "info",
		Port:                  8001,
	}
}

func TestWire(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")

	container, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	assert.NotNil(t, container.ClientDataDB)
	assert.NotNil(t, container.ClientDataRepo)
	assert.NotNil(t, container.Marketplace)
	assert.NotNil(t, container.Cities)
	assert.NotNil(t, container.Events)
	assert.NotNil(t, container.Scheduler)
	assert.NotNil(t, container.CleanupJob)
	assert.NotNil(t, container.HealthJob)

	// No bot token: log notifier
	_, isLog := container.Notifier.(*notify.Log)
	assert.True(t, isLog)

	assert.Equal(t, []string{"alexander", "igor"}, container.Store.Keys())
	for _, key := range []string{"alexander", "igor"} {
		_, ok := container.Orchestrator.RenewalJob(key)
		assert.True(t, ok, key)
		_, ok = container.Orchestrator.ResponseWatchJob(key)
		assert.True(t, ok, key)
	}

	require.NoError(t, container.CleanupJob.Run(context.Background()))
	require.NoError(t, container.HealthJob.Run(context.Background()))
}

func TestWire_TelegramNotifier(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.TelegramBotToken = "123:abc"

	container, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	_, isTelegram := container.Notifier.(*notify.Telegram)
	assert.True(t, isTelegram)
}

func TestLoadCityDirectory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-a", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"CityId": 1, "CityName": "Moscow"}]`))
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	container, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	require.NoError(t, LoadCityDirectory(context.Background(), container, cfg))
	assert.Equal(t, 1, container.Cities.Len())

	// Second load is served from the cache
	server.Close()
	fresh, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer fresh.Close()

	require.NoError(t, LoadCityDirectory(context.Background(), fresh, cfg))
	assert.Equal(t, 1, fresh.Cities.Len())
}
