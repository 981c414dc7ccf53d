// Package scheduler keeps the reference catalog snapshot fresh. It loads the
// catalog at startup, refreshes it at the configured times of day and warns
// when the snapshot goes stale.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/medhub/medhub-api/interfaces"
	"github.com/medhub/medhub-api/logging"
)

const (
	DefaultRefreshTimes = "06:00;18:00"
	StaleAfter          = 25 * time.Hour
	loadTimeout         = 2 * time.Minute
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler refreshes the catalog from the reference source
type Scheduler struct {
	catalog   interfaces.CatalogStore
	source    interfaces.ReferenceSource
	validator interfaces.InputValidator
	at        string

	scheduler     *gocron.Scheduler
	job           *gocron.Job
	staleInterval time.Duration
	stop          chan struct{}
	stopOnce      sync.Once
}

// NewScheduler creates a scheduler refreshing at the given "HH:MM;HH:MM" times
func NewScheduler(catalog interfaces.CatalogStore, source interfaces.ReferenceSource, validator interfaces.InputValidator, at string) *Scheduler {
	if at == "" {
		at = DefaultRefreshTimes
	}
	return &Scheduler{
		catalog:       catalog,
		source:        source,
		validator:     validator,
		at:            at,
		scheduler:     gocron.NewScheduler(time.Local),
		staleInterval: time.Hour,
		stop:          make(chan struct{}),
	}
}

// Start loads the catalog and schedules the refreshes. A failed initial load
// is logged but not fatal: lookups fall back to the live store until a
// refresh succeeds.
func (s *Scheduler) Start() error {
	if err := s.refresh(); err != nil {
		logging.Error("Failed to perform initial catalog load", "error", err)
	}

	job, err := s.scheduler.Every(1).Days().At(s.at).Do(func() {
		if err := s.refresh(); err != nil {
			logging.Error("Failed to refresh catalog", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule catalog refresh", "at", s.at, "error", err)
		return fmt.Errorf("failed to schedule catalog refresh: %w", err)
	}
	s.job = job

	s.scheduler.StartAsync()
	s.startStalenessMonitor()

	return nil
}

// Stop stops the scheduled refreshes and the staleness monitor
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.scheduler.Stop()
	})
}

// NextUpdate returns the next scheduled refresh, zero before Start
func (s *Scheduler) NextUpdate() time.Time {
	if s.job == nil {
		return time.Time{}
	}
	return s.job.NextRun()
}

// refresh replaces the snapshot with the current content of the source
func (s *Scheduler) refresh() error {
	if !s.catalog.BeginUpdate() {
		logging.Info("Catalog refresh already in progress, skipping...")
		return nil
	}
	defer s.catalog.EndUpdate()

	start := time.Now()
	logging.Info("Starting catalog refresh", "at", start.Format(time.RFC3339))

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	rows, err := s.source.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load reference catalog: %w", err)
	}

	if len(rows) == 0 && len(s.catalog.GetMedicines()) > 0 {
		// Keep serving the previous snapshot rather than an empty one
		logging.Warn("Reference source returned no rows, keeping previous snapshot",
			"previous_count", len(s.catalog.GetMedicines()))
		return nil
	}

	report := s.validator.ReportCatalogQuality(rows)
	logQualityReport(report)

	s.catalog.UpdateData(rows, report)

	logging.Info("Catalog refresh completed",
		"duration", time.Since(start).String(),
		"medicine_count", len(rows))
	return nil
}

func logQualityReport(report *interfaces.CatalogQualityReport) {
	if report == nil {
		return
	}
	if len(report.DuplicateNames) > 0 {
		logging.Warn("Duplicate reference names detected",
			"total", len(report.DuplicateNames),
			"names", report.DuplicateNames,
		)
	}
	if report.RowsWithoutClass > 0 {
		logging.Warn("Reference rows without therapeutic class",
			"count", report.RowsWithoutClass,
			"sample", report.RowsWithoutClassNames,
		)
	}
	if report.RowsWithoutGenericName > 0 {
		logging.Debug("Reference rows without generic name", "count", report.RowsWithoutGenericName)
	}
}

// startStalenessMonitor warns when the snapshot has not been refreshed for
// longer than StaleAfter
func (s *Scheduler) startStalenessMonitor() {
	go func() {
		ticker := time.NewTicker(s.staleInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.checkStaleness(time.Now())
			}
		}
	}()
}

// checkStaleness reports whether the snapshot is stale, logging a warning if so
func (s *Scheduler) checkStaleness(now time.Time) bool {
	last := s.catalog.GetLastUpdated()
	if last.IsZero() || now.Sub(last) > StaleAfter {
		logging.Warn("Reference catalog hasn't been updated in over 25 hours", "last_updated", last)
		return true
	}
	return false
}
