package datasource

import (
	"fmt"
	"os"
	"strings"

	"github.com/Casys-AI/capgraph/pkg/debug"
	"github.com/Casys-AI/capgraph/pkg/metrics"
	"github.com/Casys-AI/capgraph/pkg/model"
)

// LoadSnapshot loads a hypergraph snapshot from a path. If the path is a
// file, it is loaded directly based on its extension. If the path is a
// directory, all sources in it are discovered, validated, and the freshest
// valid one is loaded. SQLite is preferred over JSON when both exist at
// comparable freshness.
func LoadSnapshot(path string) (*model.Snapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.IsDir() {
		return LoadFromSource(sourceForFile(path))
	}

	sources, err := DiscoverSources(DiscoveryOptions{
		Dir:                    path,
		ValidateAfterDiscovery: true,
		IncludeInvalid:         false,
		Verbose:                debug.Enabled(),
		Logger:                 func(msg string) { debug.Log("%s", msg) },
	})
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no valid sources discovered in %s", path)
	}

	best, err := SelectBestSource(sources)
	if err != nil {
		return nil, err
	}
	debug.Log("selected source: %s", best)

	return LoadFromSource(best)
}

// LoadFromSource loads a snapshot from a specific DataSource, dispatching to
// the appropriate reader based on source type.
func LoadFromSource(source DataSource) (*model.Snapshot, error) {
	switch source.Type {
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite source %s: %w", source.Path, err)
		}
		defer reader.Close()
		return reader.LoadSnapshot()

	case SourceTypeJSON:
		return loadJSONFile(source.Path)

	default:
		return nil, fmt.Errorf("unknown source type: %s", source.Type)
	}
}

// sourceForFile classifies a direct file path as a DataSource
func sourceForFile(path string) DataSource {
	src := DataSource{Path: path, Type: SourceTypeJSON, Priority: PriorityJSON}
	if strings.HasSuffix(path, ".db") || strings.HasSuffix(path, ".sqlite") {
		src.Type = SourceTypeSQLite
		src.Priority = PrioritySQLite
	}
	return src
}

// loadJSONFile reads and decodes a JSON snapshot file
func loadJSONFile(path string) (*model.Snapshot, error) {
	defer metrics.Timer(metrics.SnapshotDecode)()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	snap, err := model.DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return snap, nil
}
