package di

import (
	"context"
	"fmt"

	"github.com/aristath/freightwatch/internal/clientdata"
	"github.com/aristath/freightwatch/internal/clients/ati"
	"github.com/aristath/freightwatch/internal/config"
	"github.com/aristath/freightwatch/internal/events"
	"github.com/aristath/freightwatch/internal/notify"
	"github.com/aristath/freightwatch/internal/state"
	"github.com/rs/zerolog"
)

// InitializeServices creates the clients, the notifier and the runtime state
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container.ClientDataDB == nil {
		return fmt.Errorf("client data database not initialized")
	}

	container.ClientDataRepo = clientdata.NewRepository(container.ClientDataDB.Conn())
	container.Events = events.NewManager(events.DefaultHistorySize, log)

	// The directory starts empty; routes show raw city ids until LoadCityDirectory runs
	container.Cities = ati.NewCityDirectory(container.ClientDataRepo, log)
	container.Marketplace = ati.NewClient(cfg.MarketplaceURL, cfg.HTTPTimeout, container.Cities, log)

	if cfg.TelegramBotToken != "" {
		telegram, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.HTTPTimeout, log)
		if err != nil {
			return fmt.Errorf("failed to create telegram notifier: %w", err)
		}
		container.Notifier = telegram
		log.Info().Msg("Telegram notifier enabled")
	} else {
		container.Notifier = notify.NewLog(log)
		log.Warn().Msg("TELEGRAM_BOT_TOKEN not set, notifications go to the log only")
	}

	container.Store = state.NewStore(cfg.OperatorKeys())
	return nil
}

// LoadCityDirectory fills the city directory from cache or the marketplace.
// The dictionary is shared, so the first operator's token is used to fetch it.
func LoadCityDirectory(ctx context.Context, container *Container, cfg *config.Config) error {
	if len(cfg.Operators) == 0 {
		return fmt.Errorf("no operators configured")
	}
	token := cfg.Operators[0].Token

	fetch := func(ctx context.Context) (map[string]string, error) {
		if !cfg.CityDirectoryRefresh {
			return nil, fmt.Errorf("city directory refresh disabled")
		}
		return container.Marketplace.FetchCities(ctx, token)
	}
	return container.Cities.Refresh(ctx, fetch)
}
