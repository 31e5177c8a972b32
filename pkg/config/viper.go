package config

import (
	"strings"

	"github.com/spf13/viper"
)

// InitViper creates and returns a configured *viper.Viper with defaults
// registered and environment variables bound under the PALACE_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (PALACE_GRAPH_URI, PALACE_API_LISTEN, etc.)
//  3. Defaults from NewDefaultConfig()
func InitViper() *viper.Viper {
	v := viper.New()

	setViperDefaults(v)

	v.SetEnvPrefix("PALACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Resolve reads the fully-resolved Config out of viper.
func Resolve(v *viper.Viper) *Config {
	return &Config{
		Debug: v.GetBool("debug"),
		API: APIConfig{
			Listen:    v.GetString("api.listen"),
			MCPListen: v.GetString("api.mcp_listen"),
		},
		Graph: GraphConfig{
			URI:         v.GetString("graph.uri"),
			Username:    v.GetString("graph.username"),
			Password:    v.GetString("graph.password"),
			Database:    v.GetString("graph.database"),
			VectorIndex: v.GetString("graph.vector_index"),
		},
		Embedding: EmbeddingConfig{
			APIKey:     v.GetString("embedding.api_key"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
		},
		Events: EventsConfig{
			Brokers: v.GetStringSlice("events.brokers"),
			Topic:   v.GetString("events.topic"),
		},
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source
// of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("debug", d.Debug)

	// API
	v.SetDefault("api.listen", d.API.Listen)
	v.SetDefault("api.mcp_listen", d.API.MCPListen)

	// Graph
	v.SetDefault("graph.uri", d.Graph.URI)
	v.SetDefault("graph.username", d.Graph.Username)
	v.SetDefault("graph.password", d.Graph.Password)
	v.SetDefault("graph.database", d.Graph.Database)
	v.SetDefault("graph.vector_index", d.Graph.VectorIndex)

	// Embedding
	v.SetDefault("embedding.api_key", d.Embedding.APIKey)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	// Events
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}
