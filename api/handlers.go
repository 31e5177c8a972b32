package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RationallyPrime/found-family/pkg/cypher"
	"github.com/RationallyPrime/found-family/pkg/memory"
)

// ErrorResponse is the JSON body returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StoreTurnRequest is the body of POST /v1/turns.
type StoreTurnRequest struct {
	ConversationID string   `json:"conversation_id,omitempty"`
	Friend         string   `json:"friend"`
	Assistant      string   `json:"assistant"`
	Salience       float64  `json:"salience,omitempty"`
	TopicID        *int64   `json:"topic_id,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

// RecallRequest is the body of POST /v1/recall.
type RecallRequest struct {
	Filter            map[string]any `json:"filter,omitempty"`
	Query             string         `json:"query,omitempty"`
	Vector            []float32      `json:"vector,omitempty"`
	K                 int            `json:"k,omitempty"`
	Threshold         float32        `json:"threshold,omitempty"`
	UseIndex          *bool          `json:"use_index,omitempty"`
	OrderBySimilarity bool           `json:"order_by_similarity,omitempty"`
	Skip              int            `json:"skip,omitempty"`
	Limit             int            `json:"limit,omitempty"`
	After             string         `json:"after,omitempty"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleStoreTurn persists one conversational exchange.
func (s *Server) handleStoreTurn(c *fiber.Ctx) error {
	var req StoreTurnRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	turn, err := s.memories.StoreTurn(c.Context(), memory.StoreTurnInput{
		ConversationID:   req.ConversationID,
		FriendContent:    req.Friend,
		AssistantContent: req.Assistant,
		Salience:         req.Salience,
		TopicID:          req.TopicID,
		Tags:             req.Tags,
	})
	if err != nil {
		if errors.Is(err, memory.ErrEmptyContent) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		s.logger.Error("failed to store turn", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to store turn"})
	}

	return c.Status(fiber.StatusCreated).JSON(turn)
}

// handleRecall retrieves memories by filter and optional semantic query.
func (s *Server) handleRecall(c *fiber.Ctx) error {
	var req RecallRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	// The index is preferred unless the caller opts out.
	useIndex := true
	if req.UseIndex != nil {
		useIndex = *req.UseIndex
	}

	result, err := s.memories.Recall(c.Context(), memory.RecallOptions{
		Filter:            req.Filter,
		Query:             req.Query,
		Vector:            req.Vector,
		K:                 req.K,
		Threshold:         req.Threshold,
		UseIndex:          useIndex,
		OrderBySimilarity: req.OrderBySimilarity,
		Skip:              req.Skip,
		Limit:             req.Limit,
		After:             req.After,
	})
	if err != nil {
		if isBadRecallRequest(err) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		s.logger.Error("recall failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "recall failed"})
	}

	return c.JSON(result)
}

// handleForget removes a memory by id.
func (s *Server) handleForget(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid memory id"})
	}

	if err := s.memories.Forget(c.Context(), id); err != nil {
		s.logger.Error("failed to forget memory", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to forget memory"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// isBadRecallRequest reports whether the recall failure was caused by the
// caller's input rather than by the backend.
func isBadRecallRequest(err error) bool {
	var unsupportedOp *cypher.UnsupportedOperatorError
	var invalidShape *cypher.InvalidShapeError
	var dimMismatch *cypher.DimensionMismatchError

	return errors.Is(err, memory.ErrBadCursor) ||
		errors.Is(err, cypher.ErrInvalidPagination) ||
		errors.As(err, &unsupportedOp) ||
		errors.As(err, &invalidShape) ||
		errors.As(err, &dimMismatch)
}
