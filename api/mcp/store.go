package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/RationallyPrime/found-family/pkg/memory"
)

var (
	storeToolName    = "memory_store"
	storeDescription = "Store one conversational turn in the memory graph: what the friend said and what the assistant replied. Both utterances are embedded for later semantic recall."
)

// StoreInput represents the input arguments for the memory_store tool.
type StoreInput struct {
	ConversationID string   `json:"conversation_id,omitempty" jsonschema:"conversation this turn belongs to; generated when omitted"`
	Friend         string   `json:"friend" jsonschema:"what the friend said"`
	Assistant      string   `json:"assistant" jsonschema:"what the assistant replied"`
	Salience       float64  `json:"salience,omitempty" jsonschema:"how important this turn is, 0 to 1"`
	Tags           []string `json:"tags,omitempty" jsonschema:"free-form tags for structural filtering"`
}

// StoreOutput represents the output of the memory_store tool.
type StoreOutput struct {
	TurnID         string `json:"turn_id"`
	ConversationID string `json:"conversation_id"`
}

// handleStoreTurn processes a store request via MCP.
func (s *Server) handleStoreTurn(ctx context.Context, _ *mcp.CallToolRequest, input StoreInput) (*mcp.CallToolResult, StoreOutput, error) {
	turn, err := s.config.Memories.StoreTurn(ctx, memory.StoreTurnInput{
		ConversationID:   input.ConversationID,
		FriendContent:    input.Friend,
		AssistantContent: input.Assistant,
		Salience:         input.Salience,
		Tags:             input.Tags,
	})
	if err != nil {
		return toolError(fmt.Sprintf("Store failed: %v", err)), StoreOutput{}, nil
	}

	output := StoreOutput{
		TurnID:         turn.ID.String(),
		ConversationID: turn.ConversationID,
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return toolError(fmt.Sprintf("Failed to serialize result: %v", err)), StoreOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
