// Package datasource provides multi-source data detection and selection for
// capgraph. It discovers, validates, and selects the freshest valid source
// from SQLite graph databases and JSON snapshot files.
package datasource

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SourceType identifies the type of data source
type SourceType string

const (
	// SourceTypeSQLite is a SQLite graph database (graph.db)
	SourceTypeSQLite SourceType = "sqlite"
	// SourceTypeJSON is a JSON snapshot file
	SourceTypeJSON SourceType = "json"
)

// Priority values for source types (higher = more authoritative)
const (
	PrioritySQLite = 100
	PriorityJSON   = 50
)

// DataSource represents a potential source of hypergraph data
type DataSource struct {
	// Type identifies the source type
	Type SourceType `json:"type"`
	// Path is the absolute path to the source file
	Path string `json:"path"`
	// Priority determines preference when timestamps are equal (higher = preferred)
	Priority int `json:"priority"`
	// ModTime is the last modification time of the source
	ModTime time.Time `json:"mod_time"`
	// Valid indicates whether the source passed validation
	Valid bool `json:"valid"`
	// ValidationError describes why validation failed (if Valid is false)
	ValidationError string `json:"validation_error,omitempty"`
	// NodeCount is the number of nodes in the source (set during validation)
	NodeCount int `json:"node_count"`
	// Size is the file size in bytes
	Size int64 `json:"size"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (%s, priority=%d, mod=%s, nodes=%d, %s)",
		s.Path, s.Type, s.Priority, s.ModTime.Format(time.RFC3339), s.NodeCount, status)
}

// DiscoveryOptions configures source discovery behavior
type DiscoveryOptions struct {
	// Dir is the directory to scan for sources (optional, uses cwd if empty)
	Dir string
	// ValidateAfterDiscovery runs validation on each discovered source
	ValidateAfterDiscovery bool
	// IncludeInvalid includes sources that failed validation in results
	IncludeInvalid bool
	// Verbose enables detailed logging during discovery
	Verbose bool
	// Logger receives log messages when Verbose is true
	Logger func(msg string)
}

// DiscoverSources finds all potential data sources in the given directory
func DiscoverSources(opts DiscoveryOptions) ([]DataSource, error) {
	if opts.Logger == nil {
		opts.Logger = func(string) {}
	}

	dir := opts.Dir
	if dir == "" {
		// Check CAPGRAPH_DIR environment variable
		if envDir := os.Getenv("CAPGRAPH_DIR"); envDir != "" {
			dir = envDir
		} else {
			var err error
			dir, err = os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("failed to get current directory: %w", err)
			}
		}
	}

	if opts.Verbose {
		opts.Logger(fmt.Sprintf("Discovering sources in: %s", dir))
	}

	var sources []DataSource

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()

		var srcType SourceType
		var priority int
		switch {
		case strings.HasSuffix(name, ".db") || strings.HasSuffix(name, ".sqlite"):
			srcType = SourceTypeSQLite
			priority = PrioritySQLite
		case strings.HasSuffix(name, ".json"):
			srcType = SourceTypeJSON
			priority = PriorityJSON
		default:
			continue
		}

		// Skip backups and temp artifacts
		if strings.Contains(name, ".backup") || strings.Contains(name, ".orig") ||
			strings.HasPrefix(name, ".") {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}

		path := filepath.Join(dir, name)
		sources = append(sources, DataSource{
			Type:     srcType,
			Path:     path,
			Priority: priority,
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		})

		if opts.Verbose {
			opts.Logger(fmt.Sprintf("Found %s: %s (mod=%s)", srcType, path, info.ModTime().Format(time.RFC3339)))
		}
	}

	// Validate sources if requested
	if opts.ValidateAfterDiscovery {
		for i := range sources {
			if err := ValidateSource(&sources[i]); err != nil && opts.Verbose {
				opts.Logger(fmt.Sprintf("Validation failed for %s: %v", sources[i].Path, err))
			}
		}
	}

	// Filter out invalid sources if not including them
	if opts.ValidateAfterDiscovery && !opts.IncludeInvalid {
		var validSources []DataSource
		for _, s := range sources {
			if s.Valid {
				validSources = append(validSources, s)
			}
		}
		sources = validSources
	}

	// Sort by mod time, then priority
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].Priority > sources[j].Priority
		}
		return sources[i].ModTime.After(sources[j].ModTime)
	})

	if opts.Verbose {
		opts.Logger(fmt.Sprintf("Discovered %d sources", len(sources)))
	}

	return sources, nil
}

// ValidateSource checks that a source can actually be loaded, recording the
// result on the source itself. A source with a structural contract violation
// (missing node id, unknown type) is marked invalid rather than failing the
// whole discovery.
func ValidateSource(source *DataSource) error {
	snap, err := LoadFromSource(*source)
	if err != nil {
		source.Valid = false
		source.ValidationError = err.Error()
		return err
	}
	source.Valid = true
	source.ValidationError = ""
	source.NodeCount = len(snap.Nodes)
	return nil
}

// SelectBestSource returns the preferred source from a discovered set:
// the freshest valid one, with priority breaking timestamp ties. The input
// is assumed to be sorted the way DiscoverSources sorts it.
func SelectBestSource(sources []DataSource) (DataSource, error) {
	for _, s := range sources {
		if s.Valid {
			return s, nil
		}
	}
	// Nothing validated; fall back to the freshest source of any state.
	if len(sources) > 0 {
		return sources[0], nil
	}
	return DataSource{}, fmt.Errorf("no sources available")
}
