// Package di provides dependency injection wiring and initialization.
//
// Container holds every long-lived component. It is built by Wire and handed to
// the HTTP server and main for startup and shutdown.
package di

import (
	"github.com/aristath/freightwatch/internal/clientdata"
	"github.com/aristath/freightwatch/internal/clients/ati"
	"github.com/aristath/freightwatch/internal/database"
	"github.com/aristath/freightwatch/internal/domain"
	"github.com/aristath/freightwatch/internal/events"
	"github.com/aristath/freightwatch/internal/scheduler"
	"github.com/aristath/freightwatch/internal/state"
)

// Container holds all dependencies for the application
type Container struct {
	// Databases
	ClientDataDB *database.DB // Marketplace dictionary cache

	// Repositories
	ClientDataRepo *clientdata.Repository

	// Clients
	Marketplace *ati.Client
	Cities      *ati.CityDirectory

	// Services
	Notifier domain.Notifier
	Events   *events.Manager
	Store    *state.Store

	// Scheduling
	Scheduler    *scheduler.Scheduler
	Orchestrator *scheduler.Orchestrator
	CleanupJob   *clientdata.CleanupJob
	HealthJob    *scheduler.DatabaseHealthJob
}

// Close releases the resources held by the container
func (c *Container) Close() error {
	if c.ClientDataDB != nil {
		return c.ClientDataDB.Close()
	}
	return nil
}
