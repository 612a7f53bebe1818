package di

import (
	"fmt"

	"github.com/aristath/freightwatch/internal/clientdata"
	"github.com/aristath/freightwatch/internal/config"
	"github.com/aristath/freightwatch/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the scheduler, registers every operator's jobs and the
// cache maintenance jobs.
// Nothing runs until Scheduler.Start.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.Scheduler = scheduler.New(log)

	container.Orchestrator = scheduler.NewOrchestrator(
		container.Scheduler,
		container.Store,
		container.Marketplace,
		container.Notifier,
		container.Events,
		scheduler.Timing{
			RenewalInterval:       cfg.RenewalInterval,
			ResponsesInterval:     cfg.ResponsesInterval,
			ResponsesInitialDelay: cfg.ResponsesInitialDelay,
		},
		log,
	)
	if err := container.Orchestrator.Register(cfg.Operators); err != nil {
		return fmt.Errorf("failed to register operator jobs: %w", err)
	}

	maintenance := "@every " + cfg.CleanupInterval.String()

	container.CleanupJob = clientdata.NewCleanupJob(container.ClientDataRepo, log)
	if _, err := container.Scheduler.AddJob(maintenance, container.CleanupJob); err != nil {
		return fmt.Errorf("failed to register client data cleanup: %w", err)
	}

	container.HealthJob = scheduler.NewDatabaseHealthJob(log, container.ClientDataDB)
	if _, err := container.Scheduler.AddJob(maintenance, container.HealthJob); err != nil {
		return fmt.Errorf("failed to register database health check: %w", err)
	}

	log.Info().Int("operators", len(cfg.Operators)).Msg("Jobs registered")
	return nil
}
