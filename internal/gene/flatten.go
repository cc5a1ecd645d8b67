package gene

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrInconsistentIndex is returned when a record's grouping key is missing
// from the index built over the same records.
var ErrInconsistentIndex = errors.New("grouping index inconsistent with records")

// Flattener collapses same-ID, same-chromosome, same-strand, overlapping
// records from one data source into a single record spanning their union.
type Flattener struct {
	namespace   Namespace
	description string
	logger      *zap.Logger
}

// NewFlattener creates a flattener keyed by IDs in the given namespace.
// The description labels log output (e.g. the input file name).
func NewFlattener(ns Namespace, description string) *Flattener {
	return &Flattener{
		namespace:   ns,
		description: description,
		logger:      zap.NewNop(),
	}
}

// SetLogger sets the logger for progress messages.
func (f *Flattener) SetLogger(l *zap.Logger) {
	f.logger = l
}

// Flatten merges each cluster of overlapping records sharing an ID. A
// candidate is absorbed when it overlaps the flattened record as it has grown
// so far, so chains of pairwise overlaps collapse in one pass.
//
// Absorbed input records are marked Invalid; the returned records are new.
func (f *Flattener) Flatten(genes []*Record) ([]*Record, error) {
	return f.flatten(genes, false, 0, 0)
}

// FlattenWithin is like Flatten, but a candidate is absorbed when it overlaps
// the window [start, end] rather than the growing record.
func (f *Flattener) FlattenWithin(genes []*Record, start, end int64) ([]*Record, error) {
	return f.flatten(genes, true, start, end)
}

func (f *Flattener) flatten(genes []*Record, clamp bool, windowStart, windowEnd int64) ([]*Record, error) {
	genesByID := groupBy(genes, func(g *Record) string { return g.ID(f.namespace) })
	return f.flattenGroups(genes, genesByID, clamp, windowStart, windowEnd)
}

// flattenGroups flattens genes using a precomputed ID grouping. Every
// still-valid seed's ID must be a key of genesByID.
func (f *Flattener) flattenGroups(genes []*Record, genesByID map[string][]*Record, clamp bool, windowStart, windowEnd int64) ([]*Record, error) {
	var flattened []*Record
	for _, seed := range genes {
		if seed.Invalid {
			continue
		}

		id := seed.ID(f.namespace)
		group, ok := genesByID[id]
		if !ok {
			return nil, fmt.Errorf("flatten %s: %s ID %q: %w", f.description, f.namespace, id, ErrInconsistentIndex)
		}

		// The seed is represented by flat from here on, inside or outside
		// the window.
		flat := seed.Clone()
		seed.Invalid = true

		for _, candidate := range group {
			if candidate.Invalid || !flat.Compatible(candidate) {
				continue
			}

			overlaps := flat.Overlaps(candidate.Start, candidate.End)
			if clamp {
				overlaps = candidate.Overlaps(windowStart, windowEnd)
			}
			if !overlaps {
				continue
			}

			flat.absorb(candidate)
			candidate.Invalid = true
		}

		flattened = append(flattened, flat)
	}

	f.logger.Debug("flattened genes",
		zap.String("description", f.description),
		zap.Stringer("namespace", f.namespace),
		zap.Int("input", len(genes)),
		zap.Int("output", len(flattened)))

	return flattened, nil
}

// groupBy indexes records by key, preserving input order within each group.
func groupBy(genes []*Record, key func(*Record) string) map[string][]*Record {
	groups := make(map[string][]*Record)
	for _, g := range genes {
		k := key(g)
		groups[k] = append(groups[k], g)
	}
	return groups
}
