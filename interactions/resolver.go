// Package interactions resolves pairwise drug interactions for a list of
// medicine names. Each pair goes through the static interaction table, the
// drug category rules and, when neither matches, the therapeutic classes of
// the external reference store.
package interactions

import (
	"context"
	"strings"
	"time"

	"github.com/medhub/medhub-api/entities"
	"github.com/medhub/medhub-api/interfaces"
	"github.com/medhub/medhub-api/logging"
	"github.com/medhub/medhub-api/metrics"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultLookupTimeout = 3 * time.Second
	maxParallelLookups   = 8
)

// Compile-time check to ensure Resolver implements InteractionChecker
var _ interfaces.InteractionChecker = (*Resolver)(nil)

// Resolver implements interfaces.InteractionChecker
type Resolver struct {
	validator     interfaces.InputValidator
	reference     interfaces.ReferenceLookup
	lookupTimeout time.Duration
}

// NewResolver creates a resolver. reference may be nil, in which case the
// therapeutic class fallback is skipped.
func NewResolver(validator interfaces.InputValidator, reference interfaces.ReferenceLookup, lookupTimeout time.Duration) *Resolver {
	if lookupTimeout <= 0 {
		lookupTimeout = DefaultLookupTimeout
	}
	return &Resolver{
		validator:     validator,
		reference:     reference,
		lookupTimeout: lookupTimeout,
	}
}

// Normalize trims and lower-cases every name
func Normalize(medicines []string) []string {
	names := make([]string, len(medicines))
	for i, m := range medicines {
		names[i] = strings.ToLower(strings.TrimSpace(m))
	}
	return names
}

// PairCount returns the number of unordered pairs for n medicines
func PairCount(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}

// pendingPair is a result still waiting for the reference fallback
type pendingPair struct {
	result int
	a, b   string
}

// Check validates the list and returns one result per unordered pair, in
// (0,1), (0,2), ..., (n-2,n-1) order. The only error it returns is a
// *validation.ValidationError; reference store failures degrade the affected
// pairs to a nil interaction.
func (r *Resolver) Check(ctx context.Context, medicines []string) ([]entities.InteractionResult, error) {
	if err := r.validator.ValidateMedicineList(medicines); err != nil {
		return nil, err
	}
	metrics.InteractionChecks.Inc()

	names := Normalize(medicines)
	results := make([]entities.InteractionResult, 0, PairCount(len(names)))
	var pending []pendingPair

	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			result := entities.InteractionResult{Drug1: medicines[i], Drug2: medicines[j]}

			if in := lookupStatic(names[i], names[j]); in != nil {
				result.Interaction = in
				metrics.InteractionVerdicts.WithLabelValues(metrics.StageStatic).Inc()
			} else if in := lookupCategory(names[i], names[j]); in != nil {
				result.Interaction = in
				metrics.InteractionVerdicts.WithLabelValues(metrics.StageCategory).Inc()
			} else {
				pending = append(pending, pendingPair{result: len(results), a: names[i], b: names[j]})
			}

			results = append(results, result)
		}
	}

	if len(pending) > 0 && r.reference != nil {
		rows := r.lookupReference(ctx, pending)
		for _, p := range pending {
			if in := lookupTherapeuticClass(rows[p.a], rows[p.b]); in != nil {
				results[p.result].Interaction = in
				metrics.InteractionVerdicts.WithLabelValues(metrics.StageReference).Inc()
				continue
			}
			metrics.InteractionVerdicts.WithLabelValues(metrics.StageNone).Inc()
		}
	} else {
		metrics.InteractionVerdicts.WithLabelValues(metrics.StageNone).Add(float64(len(pending)))
	}

	return results, nil
}

// lookupReference fetches the reference row of every distinct name used by a
// pending pair, concurrently and each under its own timeout. Names whose
// lookup failed or matched nothing map to nil.
func (r *Resolver) lookupReference(ctx context.Context, pending []pendingPair) map[string]*entities.ReferenceMedicine {
	var distinct []string
	seen := make(map[string]bool)
	for _, p := range pending {
		for _, name := range [2]string{p.a, p.b} {
			if !seen[name] {
				seen[name] = true
				distinct = append(distinct, name)
			}
		}
	}

	found := make([]*entities.ReferenceMedicine, len(distinct))

	var g errgroup.Group
	g.SetLimit(maxParallelLookups)
	for i, name := range distinct {
		g.Go(func() error {
			lookupCtx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
			defer cancel()

			row, err := r.reference.FindByName(lookupCtx, name)
			switch {
			case err != nil:
				metrics.ReferenceLookups.WithLabelValues("error").Inc()
				logging.Warn("Reference lookup failed, treating as no interaction", "medicine", name, "error", err)
			case row == nil:
				metrics.ReferenceLookups.WithLabelValues("not_found").Inc()
			default:
				metrics.ReferenceLookups.WithLabelValues("found").Inc()
				found[i] = row
			}
			// Failures never cancel the other lookups
			return nil
		})
	}
	_ = g.Wait()

	rows := make(map[string]*entities.ReferenceMedicine, len(distinct))
	for i, name := range distinct {
		rows[name] = found[i]
	}
	return rows
}
