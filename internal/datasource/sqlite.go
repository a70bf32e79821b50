package datasource

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Casys-AI/capgraph/pkg/metrics"
	"github.com/Casys-AI/capgraph/pkg/model"
)

// SQLiteReader provides read access to a capgraph SQLite database
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite database for reading
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}

	// Open in read-only mode with various pragmas for read performance
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000&_journal_mode=WAL", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Set pragmas for read performance
	pragmas := []string{
		"PRAGMA cache_size = -64000",   // 64MB cache
		"PRAGMA mmap_size = 268435456", // 256MB mmap
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		db.Exec(pragma) // best-effort
	}

	return &SQLiteReader{
		db:   db,
		path: source.Path,
	}, nil
}

// Close closes the database connection
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadSnapshot reads all nodes and edges from the database and runs them
// through the shared model validation path.
func (r *SQLiteReader) LoadSnapshot() (*model.Snapshot, error) {
	defer metrics.Timer(metrics.SQLiteLoad)()

	nodes, err := r.loadNodes()
	if err != nil {
		return nil, err
	}
	edges, err := r.loadEdges()
	if err != nil {
		return nil, err
	}
	return model.SnapshotFromRaw(nodes, edges)
}

// loadNodes reads all node rows into raw wire records
func (r *SQLiteReader) loadNodes() ([]model.RawNode, error) {
	query := `
		SELECT
			id, type, name, server, usage_count, success_rate,
			pagerank, description, last_used, community_id
		FROM nodes
		ORDER BY id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		// Try simpler query if some columns don't exist
		return r.loadNodesSimple()
	}
	defer rows.Close()

	var nodes []model.RawNode
	for rows.Next() {
		var rn model.RawNode
		var name, server, description, lastUsed sql.NullString
		var usageCount, successRate, pageRank sql.NullFloat64
		var communityID sql.NullInt64

		err := rows.Scan(
			&rn.ID, &rn.Type, &name, &server, &usageCount, &successRate,
			&pageRank, &description, &lastUsed, &communityID,
		)
		if err != nil {
			continue
		}

		if name.Valid {
			rn.Name = name.String
		}
		if server.Valid {
			rn.Server = server.String
		}
		if description.Valid {
			rn.Description = description.String
		}
		if usageCount.Valid {
			v := usageCount.Float64
			rn.UsageCount = &v
		}
		if successRate.Valid {
			v := successRate.Float64
			rn.SuccessRate = &v
		}
		if pageRank.Valid {
			v := pageRank.Float64
			rn.PageRank = &v
		}
		if lastUsed.Valid && lastUsed.String != "" {
			s := lastUsed.String
			rn.LastUsed = &s
		}
		if communityID.Valid {
			v := int(communityID.Int64)
			rn.CommunityID = &v
		}

		nodes = append(nodes, rn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}

	return nodes, nil
}

// loadNodesSimple is a fallback for databases with fewer columns
func (r *SQLiteReader) loadNodesSimple() ([]model.RawNode, error) {
	query := `SELECT id, type, name FROM nodes ORDER BY id`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var nodes []model.RawNode
	for rows.Next() {
		var rn model.RawNode
		var name sql.NullString
		if err := rows.Scan(&rn.ID, &rn.Type, &name); err != nil {
			continue
		}
		if name.Valid {
			rn.Name = name.String
		}
		nodes = append(nodes, rn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}

	return nodes, nil
}

// loadEdges reads all edge rows into raw wire records
func (r *SQLiteReader) loadEdges() ([]model.RawEdge, error) {
	query := `
		SELECT source, target, edge_type, weight, observed_count
		FROM edges
		ORDER BY source, target
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var edges []model.RawEdge
	for rows.Next() {
		var re model.RawEdge
		var edgeType sql.NullString
		var weight, observedCount sql.NullFloat64

		if err := rows.Scan(&re.Source, &re.Target, &edgeType, &weight, &observedCount); err != nil {
			continue
		}

		if edgeType.Valid {
			re.EdgeType = edgeType.String
		}
		if weight.Valid {
			v := weight.Float64
			re.Weight = &v
		}
		if observedCount.Valid {
			v := observedCount.Float64
			re.ObservedCount = &v
		}

		edges = append(edges, re)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating edges: %w", err)
	}

	return edges, nil
}

// CountNodes returns the number of nodes in the database
func (r *SQLiteReader) CountNodes() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GetLastModified returns the most recent last_used timestamp
func (r *SQLiteReader) GetLastModified() (time.Time, error) {
	var lastUsed sql.NullString
	err := r.db.QueryRow("SELECT MAX(last_used) FROM nodes").Scan(&lastUsed)
	if err != nil {
		return time.Time{}, err
	}
	if !lastUsed.Valid || lastUsed.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, lastUsed.String)
	if err != nil {
		return time.Time{}, nil
	}
	return t.UTC(), nil
}
