// Package neo4j implements pkg/graph's Driver on the official Neo4j Go
// driver.
package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"go.uber.org/zap"

	"github.com/RationallyPrime/found-family/pkg/graph"
)

// Config holds connection settings for the Neo4j driver.
type Config struct {
	// URI is the bolt/neo4j connection URI, e.g. "neo4j://localhost:7687".
	URI string

	// Username and Password authenticate against the database.
	Username string
	Password string

	// Database is the target database name. Empty uses the server default.
	Database string
}

// Driver wraps a Neo4j connection pool behind the graph.Driver boundary.
type Driver struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

// NewDriver connects to Neo4j and verifies connectivity before returning.
func NewDriver(ctx context.Context, c Config, logger *zap.Logger) (*Driver, error) {
	if c.URI == "" {
		return nil, fmt.Errorf("connection URI is required")
	}

	drv, err := neo4j.NewDriverWithContext(c.URI, neo4j.BasicAuth(c.Username, c.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("%w: creating driver: %v", graph.ErrConnection, err)
	}

	if err := drv.VerifyConnectivity(ctx); err != nil {
		_ = drv.Close(ctx)
		return nil, fmt.Errorf("%w: verifying connectivity: %v", graph.ErrConnection, err)
	}

	logger.Info("neo4j graph driver initialized",
		zap.String("uri", c.URI),
		zap.String("database", c.Database),
	)

	return &Driver{
		driver:   drv,
		database: c.Database,
		logger:   logger,
	}, nil
}

// Execute runs a read query and returns its rows.
func (d *Driver) Execute(ctx context.Context, text string, params map[string]any) ([]graph.Record, error) {
	return d.run(ctx, neo4j.AccessModeRead, text, params)
}

// ExecuteWrite runs a mutating query and returns any yielded rows.
func (d *Driver) ExecuteWrite(ctx context.Context, text string, params map[string]any) ([]graph.Record, error) {
	return d.run(ctx, neo4j.AccessModeWrite, text, params)
}

func (d *Driver) run(ctx context.Context, mode neo4j.AccessMode, text string, params map[string]any) ([]graph.Record, error) {
	session := d.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: d.database,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, text, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", graph.ErrQuery, err)
	}

	raw, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: collecting results: %v", graph.ErrQuery, err)
	}

	records := make([]graph.Record, 0, len(raw))
	for _, rec := range raw {
		records = append(records, flatten(rec.AsMap()))
	}

	d.logger.Debug("executed graph query",
		zap.Int("rows", len(records)),
	)

	return records, nil
}

// flatten converts driver node and relationship values to plain property
// maps so callers stay decoupled from dbtype.
func flatten(row map[string]any) graph.Record {
	out := make(graph.Record, len(row))
	for key, value := range row {
		switch v := value.(type) {
		case dbtype.Node:
			out[key] = v.Props
		case dbtype.Relationship:
			out[key] = v.Props
		default:
			out[key] = value
		}
	}
	return out
}

// FetchIndexDimensions probes the database for vector indexes and returns
// an immutable name to dimensionality snapshot.
func (d *Driver) FetchIndexDimensions(ctx context.Context) (graph.IndexDimensions, error) {
	records, err := d.Execute(ctx,
		"SHOW VECTOR INDEXES YIELD name, options RETURN name, options",
		nil,
	)
	if err != nil {
		return nil, err
	}

	meta := make(graph.IndexDimensions, len(records))
	for _, rec := range records {
		name, ok := rec["name"].(string)
		if !ok {
			continue
		}
		if dims, ok := indexDimensions(rec["options"]); ok {
			meta[name] = dims
		}
	}
	return meta, nil
}

func indexDimensions(options any) (uint, bool) {
	opts, ok := options.(map[string]any)
	if !ok {
		return 0, false
	}
	config, ok := opts["indexConfig"].(map[string]any)
	if !ok {
		return 0, false
	}
	switch dims := config["vector.dimensions"].(type) {
	case int64:
		return uint(dims), true
	case float64:
		return uint(dims), true
	default:
		return 0, false
	}
}

// EnsureVectorIndex creates the vector index if it does not exist. The
// identifiers and dimensionality come from configuration, never from
// request input.
func (d *Driver) EnsureVectorIndex(ctx context.Context, name, label, property string, dimensions uint) error {
	if dimensions == 0 {
		return fmt.Errorf("vector index dimensions cannot be 0, must be configured")
	}

	ddl := fmt.Sprintf(
		`CREATE VECTOR INDEX %s IF NOT EXISTS FOR (m:%s) ON (m.%s)
OPTIONS {indexConfig: {`+"`vector.dimensions`"+`: %d, `+"`vector.similarity_function`"+`: 'cosine'}}`,
		name, label, property, dimensions,
	)

	if _, err := d.ExecuteWrite(ctx, ddl, nil); err != nil {
		return fmt.Errorf("creating vector index %s: %w", name, err)
	}

	d.logger.Info("vector index ensured",
		zap.String("index", name),
		zap.Uint("dimensions", dimensions),
	)
	return nil
}

// Close releases the connection pool.
func (d *Driver) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}
