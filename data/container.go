// Package data holds the in-memory snapshot of the medicines reference
// catalog. Snapshots are swapped atomically so readers never see a partial
// refresh.
package data

import (
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/medhub/medhub-api/entities"
	"github.com/medhub/medhub-api/interfaces"
	"github.com/medhub/medhub-api/logging"
	"github.com/medhub/medhub-api/metrics"
)

// Compile-time check to ensure CatalogContainer implements CatalogStore
var _ interfaces.CatalogStore = (*CatalogContainer)(nil)

// snapshot is replaced as a whole on every refresh
type snapshot struct {
	medicines []entities.ReferenceMedicine
	report    *interfaces.CatalogQualityReport
	updatedAt time.Time
}

// CatalogContainer implements interfaces.CatalogStore
type CatalogContainer struct {
	current         atomic.Pointer[snapshot]
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewCatalogContainer creates an empty container
func NewCatalogContainer() *CatalogContainer {
	cc := &CatalogContainer{}
	cc.current.Store(&snapshot{medicines: []entities.ReferenceMedicine{}})
	cc.serverStartTime.Store(time.Time{})
	return cc
}

// GetMedicines returns the snapshot rows ordered by name. Callers must not
// modify the returned slice.
func (cc *CatalogContainer) GetMedicines() []entities.ReferenceMedicine {
	return cc.current.Load().medicines
}

// GetReport returns the quality report of the current snapshot, nil before
// the first load
func (cc *CatalogContainer) GetReport() *interfaces.CatalogQualityReport {
	return cc.current.Load().report
}

// GetLastUpdated returns when the current snapshot was stored
func (cc *CatalogContainer) GetLastUpdated() time.Time {
	return cc.current.Load().updatedAt
}

// IsUpdating returns true if a refresh is in progress
func (cc *CatalogContainer) IsUpdating() bool {
	return cc.updating.Load()
}

func (cc *CatalogContainer) SetServerStartTime(startTime time.Time) {
	cc.serverStartTime.Store(startTime)
}

func (cc *CatalogContainer) GetServerStartTime() time.Time {
	if v, ok := cc.serverStartTime.Load().(time.Time); ok {
		return v
	}
	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateData swaps in a new snapshot. The rows are copied and sorted by
// name so that the first substring match is the one an
// `ORDER BY name LIMIT 1` query would return.
func (cc *CatalogContainer) UpdateData(medicines []entities.ReferenceMedicine, report *interfaces.CatalogQualityReport) {
	rows := slices.Clone(medicines)
	if rows == nil {
		rows = []entities.ReferenceMedicine{}
	}
	slices.SortStableFunc(rows, func(a, b entities.ReferenceMedicine) int {
		return strings.Compare(a.Name, b.Name)
	})

	cc.current.Store(&snapshot{
		medicines: rows,
		report:    report,
		updatedAt: time.Now(),
	})
	metrics.ReferenceCatalogEntries.Set(float64(len(rows)))
}

// BeginUpdate marks the start of a refresh.
// Returns false if another refresh is already running.
func (cc *CatalogContainer) BeginUpdate() bool {
	return cc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a refresh
func (cc *CatalogContainer) EndUpdate() {
	cc.updating.Store(false)
}
