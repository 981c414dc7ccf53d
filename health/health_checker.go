// Package health reports the state of the reference catalog and its database.
package health

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/medhub/medhub-api/interfaces"
	"github.com/medhub/medhub-api/logging"
)

const pingTimeout = 2 * time.Second

// Compile-time check to ensure HealthCheckerImpl implements HealthChecker
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	catalog   interfaces.CatalogStore
	source    interfaces.ReferenceSource
	scheduler interfaces.Scheduler
	poolStats func() map[string]any
}

// NewHealthChecker creates a health checker. source and scheduler are nil
// when no database is configured; the interaction tables keep working
// without them.
func NewHealthChecker(catalog interfaces.CatalogStore, source interfaces.ReferenceSource, scheduler interfaces.Scheduler) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		catalog:   catalog,
		source:    source,
		scheduler: scheduler,
	}
}

// WithPoolStats adds connection pool statistics to the report
func (h *HealthCheckerImpl) WithPoolStats(stats func() map[string]any) *HealthCheckerImpl {
	h.poolStats = stats
	return h
}

// HealthCheck returns the status, the details served by /health and the HTTP
// status to answer with
func (h *HealthCheckerImpl) HealthCheck(ctx context.Context) (status string, details map[string]any, httpStatus int) {
	details = map[string]any{}
	if start := h.catalog.GetServerStartTime(); !start.IsZero() {
		details["uptime_seconds"] = int64(time.Since(start).Seconds())
	}

	if h.source == nil {
		details["database"] = "disabled"
		details["reference_fallback"] = "disabled"
		return "healthy", details, http.StatusOK
	}

	medicines := h.catalog.GetMedicines()
	lastUpdate := h.catalog.GetLastUpdated()
	isUpdating := h.catalog.IsUpdating()

	details["catalog_entries"] = len(medicines)
	details["is_updating"] = isUpdating
	if !lastUpdate.IsZero() {
		dataAge := time.Since(lastUpdate)
		details["last_update"] = lastUpdate.Format(time.RFC3339)
		details["data_age_hours"] = math.Round(dataAge.Hours()*10) / 10
	}
	if next := h.CalculateNextUpdate(); !next.IsZero() {
		details["next_update"] = next.Format(time.RFC3339)
	}
	if h.poolStats != nil {
		details["pool"] = h.poolStats()
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	dbErr := h.source.Ping(pingCtx)
	if dbErr != nil {
		logging.Warn("Health check database ping failed", "error", dbErr)
		details["database"] = "unreachable"
	} else {
		details["database"] = "ok"
	}

	dataAge := time.Since(lastUpdate)
	switch {
	case dbErr != nil:
		status, httpStatus = "unhealthy", http.StatusServiceUnavailable
	case len(medicines) == 0:
		// Lookups still reach the live store
		status, httpStatus = "degraded", http.StatusServiceUnavailable
	case dataAge > 48*time.Hour:
		status, httpStatus = "unhealthy", http.StatusServiceUnavailable
	case dataAge > 25*time.Hour:
		status, httpStatus = "degraded", http.StatusServiceUnavailable
	case isUpdating && dataAge > 6*time.Hour:
		status, httpStatus = "degraded", http.StatusServiceUnavailable
	default:
		status, httpStatus = "healthy", http.StatusOK
	}

	return status, details, httpStatus
}

// CalculateNextUpdate returns the next scheduled catalog refresh, zero when
// nothing is scheduled
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	if h.scheduler == nil {
		return time.Time{}
	}
	return h.scheduler.NextUpdate()
}
