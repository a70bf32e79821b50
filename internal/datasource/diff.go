package datasource

import (
	"fmt"

	"github.com/Casys-AI/capgraph/pkg/model"
)

// SourceDiff represents differences between two data sources
type SourceDiff struct {
	// SourceA is the path of the first source
	SourceA string
	// SourceB is the path of the second source
	SourceB string
	// MissingInA contains node IDs present in B but not in A
	MissingInA []string
	// MissingInB contains node IDs present in A but not in B
	MissingInB []string
	// UsageMismatch contains nodes with different usage counts between sources
	UsageMismatch []UsageDifference
	// CountA is the number of nodes in source A
	CountA int
	// CountB is the number of nodes in source B
	CountB int
}

// UsageDifference represents a usage-count mismatch for a single node
type UsageDifference struct {
	ID     string  `json:"id"`
	UsageA float64 `json:"usage_a"`
	UsageB float64 `json:"usage_b"`
}

// HasInconsistencies returns true if there are any differences between sources
func (d SourceDiff) HasInconsistencies() bool {
	return len(d.MissingInA) > 0 || len(d.MissingInB) > 0 || len(d.UsageMismatch) > 0
}

// Summary returns a human-readable summary of the differences
func (d SourceDiff) Summary() string {
	if !d.HasInconsistencies() {
		return fmt.Sprintf("Sources match (%d nodes each)", d.CountA)
	}

	summary := fmt.Sprintf("Inconsistencies found between %s and %s:\n", d.SourceA, d.SourceB)

	if d.CountA != d.CountB {
		summary += fmt.Sprintf("  - Count mismatch: %d vs %d\n", d.CountA, d.CountB)
	}

	if len(d.MissingInA) > 0 {
		summary += fmt.Sprintf("  - %d nodes in %s but not %s\n", len(d.MissingInA), d.SourceB, d.SourceA)
		if len(d.MissingInA) <= 5 {
			for _, id := range d.MissingInA {
				summary += fmt.Sprintf("    - %s\n", id)
			}
		}
	}

	if len(d.MissingInB) > 0 {
		summary += fmt.Sprintf("  - %d nodes in %s but not %s\n", len(d.MissingInB), d.SourceA, d.SourceB)
		if len(d.MissingInB) <= 5 {
			for _, id := range d.MissingInB {
				summary += fmt.Sprintf("    - %s\n", id)
			}
		}
	}

	if len(d.UsageMismatch) > 0 {
		summary += fmt.Sprintf("  - %d nodes with different usage counts\n", len(d.UsageMismatch))
		if len(d.UsageMismatch) <= 5 {
			for _, m := range d.UsageMismatch {
				summary += fmt.Sprintf("    - %s: %.0f vs %.0f\n", m.ID, m.UsageA, m.UsageB)
			}
		}
	}

	return summary
}

// DiffOptions configures the diff operation
type DiffOptions struct {
	// MaxDifferences limits the number of differences tracked (0 = unlimited)
	MaxDifferences int
}

// DefaultDiffOptions returns sensible default diff options
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{
		MaxDifferences: 100,
	}
}

// DetectInconsistencies compares two snapshots and returns differences
func DetectInconsistencies(snapA, snapB *model.Snapshot, sourceA, sourceB string, opts DiffOptions) SourceDiff {
	diff := SourceDiff{
		SourceA: sourceA,
		SourceB: sourceB,
	}

	mapA := snapA.NodeByID()
	mapB := snapB.NodeByID()

	diff.CountA = len(mapA)
	diff.CountB = len(mapB)

	// Find nodes in A but not in B
	for id := range mapA {
		if _, exists := mapB[id]; !exists {
			if opts.MaxDifferences == 0 || len(diff.MissingInB) < opts.MaxDifferences {
				diff.MissingInB = append(diff.MissingInB, id)
			}
		}
	}

	// Find nodes in B but not in A, and usage mismatches
	for id, nodeB := range mapB {
		nodeA, exists := mapA[id]
		if !exists {
			if opts.MaxDifferences == 0 || len(diff.MissingInA) < opts.MaxDifferences {
				diff.MissingInA = append(diff.MissingInA, id)
			}
		} else if nodeA.UsageCount != nodeB.UsageCount {
			if opts.MaxDifferences == 0 || len(diff.UsageMismatch) < opts.MaxDifferences {
				diff.UsageMismatch = append(diff.UsageMismatch, UsageDifference{
					ID:     id,
					UsageA: nodeA.UsageCount,
					UsageB: nodeB.UsageCount,
				})
			}
		}
	}

	return diff
}

// CompareSources loads and compares two data sources
func CompareSources(sourceA, sourceB DataSource, opts DiffOptions) (*SourceDiff, error) {
	snapA, err := LoadFromSource(sourceA)
	if err != nil {
		return nil, fmt.Errorf("failed to load source A (%s): %w", sourceA.Path, err)
	}

	snapB, err := LoadFromSource(sourceB)
	if err != nil {
		return nil, fmt.Errorf("failed to load source B (%s): %w", sourceB.Path, err)
	}

	diff := DetectInconsistencies(snapA, snapB, sourceA.Path, sourceB.Path, opts)
	return &diff, nil
}

// CheckAllSourcesConsistent compares all valid sources pairwise and reports
// any inconsistencies
func CheckAllSourcesConsistent(sources []DataSource, opts DiffOptions) ([]SourceDiff, error) {
	var diffs []SourceDiff

	for i := 0; i < len(sources); i++ {
		if !sources[i].Valid {
			continue
		}
		for j := i + 1; j < len(sources); j++ {
			if !sources[j].Valid {
				continue
			}

			diff, err := CompareSources(sources[i], sources[j], opts)
			if err != nil {
				continue
			}

			if diff.HasInconsistencies() {
				diffs = append(diffs, *diff)
			}
		}
	}

	return diffs, nil
}
