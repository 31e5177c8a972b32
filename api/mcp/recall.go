package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/RationallyPrime/found-family/pkg/memory"
	"github.com/RationallyPrime/found-family/pkg/utils"
)

var (
	recallToolName    = "memory_recall"
	recallDescription = "Recall stored conversational memories. Combines a declarative filter (field or field__operator keys, $and/$or groups) with an optional semantic query. Returns the most relevant memories, deterministically ordered."
)

const previewLen = 120

// RecallInput represents the input arguments for the memory_recall tool.
type RecallInput struct {
	Query             string         `json:"query,omitempty" jsonschema:"free text to recall semantically similar memories for"`
	Filter            map[string]any `json:"filter,omitempty" jsonschema:"structural filter over memory fields, e.g. {\"conversation_id\": \"...\", \"salience__gte\": 0.5}"`
	TopK              int            `json:"top_k,omitempty" jsonschema:"number of results to return (default: 5)"`
	Threshold         float32        `json:"threshold,omitempty" jsonschema:"minimum similarity score to keep (default: 0)"`
	OrderBySimilarity bool           `json:"order_by_similarity,omitempty" jsonschema:"order by similarity score instead of recency"`
}

// RecalledMemory is one memory in the tool output, with a short preview in
// place of the full content when the content is long.
type RecalledMemory struct {
	ID             string  `json:"id"`
	Speaker        string  `json:"speaker"`
	ConversationID string  `json:"conversation_id"`
	Preview        string  `json:"preview"`
	Salience       float64 `json:"salience"`
	Similarity     float32 `json:"similarity,omitempty"`
	Timestamp      string  `json:"timestamp"`
}

// RecallOutput represents the output of the memory_recall tool.
type RecallOutput struct {
	Memories []RecalledMemory `json:"memories"`
	Count    int              `json:"count"`
}

// handleRecall processes a recall request.
func (s *Server) handleRecall(ctx context.Context, _ *mcp.CallToolRequest, input RecallInput) (*mcp.CallToolResult, RecallOutput, error) {
	logger := s.config.Logger

	topK := input.TopK
	if topK <= 0 {
		topK = 5
	}

	logger.Debug("MCP recall request",
		zap.String("query", input.Query),
		zap.Int("topK", topK),
	)

	result, err := s.config.Memories.Recall(ctx, memory.RecallOptions{
		Filter:            input.Filter,
		Query:             input.Query,
		Threshold:         input.Threshold,
		UseIndex:          true,
		OrderBySimilarity: input.OrderBySimilarity,
		Limit:             topK,
	})
	if err != nil {
		logger.Error("recall failed", zap.Error(err))
		return toolError(fmt.Sprintf("Recall failed: %v", err)), RecallOutput{}, nil
	}

	recalled := make([]RecalledMemory, 0, len(result.Memories))
	for _, m := range result.Memories {
		recalled = append(recalled, RecalledMemory{
			ID:             m.ID.String(),
			Speaker:        string(m.Speaker),
			ConversationID: m.ConversationID,
			Preview:        utils.Truncate(m.Content, previewLen),
			Salience:       m.Salience,
			Similarity:     m.Similarity,
			Timestamp:      m.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	output := RecallOutput{
		Memories: recalled,
		Count:    len(recalled),
	}

	// Serialize the structured output as JSON for the text field
	// Per MCP spec: tools returning structured content should also return
	// serialized JSON in a TextContent block for backwards compatibility
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal recall output", zap.Error(err))
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err)), RecallOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
