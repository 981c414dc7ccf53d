package reference

import (
	"context"
	"strings"

	"github.com/medhub/medhub-api/entities"
	"github.com/medhub/medhub-api/interfaces"
)

// Compile-time check to ensure CachedLookup implements ReferenceLookup
var _ interfaces.ReferenceLookup = (*CachedLookup)(nil)

// CachedLookup answers from the catalog snapshot and only queries the live
// store while the snapshot has not been loaded yet
type CachedLookup struct {
	catalog interfaces.CatalogStore
	live    interfaces.ReferenceLookup
}

// NewCachedLookup creates a lookup over catalog. live may be nil.
func NewCachedLookup(catalog interfaces.CatalogStore, live interfaces.ReferenceLookup) *CachedLookup {
	return &CachedLookup{catalog: catalog, live: live}
}

func (c *CachedLookup) FindByName(ctx context.Context, name string) (*entities.ReferenceMedicine, error) {
	rows := c.catalog.GetMedicines()
	if len(rows) == 0 {
		if c.live == nil {
			return nil, ErrUnavailable
		}
		return c.live.FindByName(ctx, name)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	term := strings.ToLower(name)
	for i := range rows {
		if rows[i].MatchesName(term) {
			row := rows[i]
			return &row, nil
		}
	}
	return nil, nil
}
