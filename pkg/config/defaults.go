package config

const (
	defaultAPIListen = ":8080"
	defaultMCPListen = ":8081"

	defaultGraphURI      = "bolt://localhost:7687"
	defaultGraphUsername = "neo4j"
	defaultGraphDatabase = "neo4j"
	defaultVectorIndex   = "memory_embeddings"

	defaultEmbeddingTarget     = "https://api.voyageai.com/v1"
	defaultEmbeddingModel      = "voyage-3"
	defaultEmbeddingDimensions = 1024

	defaultEventsTopic = "palace.turns"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Listen:    defaultAPIListen,
			MCPListen: defaultMCPListen,
		},
		Graph: GraphConfig{
			URI:         defaultGraphURI,
			Username:    defaultGraphUsername,
			Database:    defaultGraphDatabase,
			VectorIndex: defaultVectorIndex,
		},
		Embedding: EmbeddingConfig{
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Events: EventsConfig{
			Topic: defaultEventsTopic,
		},
	}
}
