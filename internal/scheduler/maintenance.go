// Package scheduler runs periodic database maintenance for the journal.
package scheduler

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/aristath/tradebook/internal/database"
	"github.com/aristath/tradebook/pkg/logger"
)

// maintenanceSchedule runs nightly, outside trading hours.
const maintenanceSchedule = "0 3 * * *"

// Maintenance keeps the journal database healthy with a nightly WAL
// checkpoint, plus an incremental vacuum where the profile allows it.
// Failures are logged, never fatal.
type Maintenance struct {
	cron *cron.Cron
	db   *database.DB
	log  zerolog.Logger
}

// NewMaintenance creates the maintenance scheduler
func NewMaintenance(db *database.DB, log zerolog.Logger) *Maintenance {
	return &Maintenance{
		cron: cron.New(),
		db:   db,
		log:  logger.ForComponent(log, "maintenance"),
	}
}

// Start schedules the nightly maintenance job and starts the cron loop
func (m *Maintenance) Start() error {
	if _, err := m.cron.AddFunc(maintenanceSchedule, m.run); err != nil {
		return err
	}
	m.cron.Start()
	m.log.Info().Str("schedule", maintenanceSchedule).Msg("Database maintenance scheduled")
	return nil
}

// Stop stops the cron loop; a running job finishes first
func (m *Maintenance) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
}

func (m *Maintenance) run() {
	m.log.Info().Msg("Running database maintenance")

	if err := m.db.WALCheckpoint("TRUNCATE"); err != nil {
		m.log.Error().Err(err).Msg("WAL checkpoint failed")
	}

	// The ledger profile runs with auto_vacuum off, so only standard-profile
	// databases have free pages to reclaim incrementally.
	if m.db.Profile() == database.ProfileStandard {
		if err := m.db.IncrementalVacuum(); err != nil {
			m.log.Error().Err(err).Msg("Incremental vacuum failed")
		}
	}

	m.log.Info().Msg("Database maintenance completed")
}
