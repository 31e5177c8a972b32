// Package config holds the palace service configuration and its viper
// wiring. Values resolve with the precedence flag > environment > default.
package config

// Config is the fully-resolved palace configuration.
type Config struct {
	Debug bool

	API       APIConfig
	Graph     GraphConfig
	Embedding EmbeddingConfig
	Events    EventsConfig
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Listen string

	// MCPListen is the address the MCP server listens on.
	MCPListen string
}

// GraphConfig holds graph database connection settings.
type GraphConfig struct {
	URI      string
	Username string
	Password string
	Database string

	// VectorIndex is the name of the vector index used for semantic
	// recall. The index is created at startup when missing.
	VectorIndex string
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string
	Target     string
	Model      string
	Dimensions uint
}

// EventsConfig holds event stream settings. Publishing is disabled when
// no brokers are configured.
type EventsConfig struct {
	Brokers []string
	Topic   string
}
