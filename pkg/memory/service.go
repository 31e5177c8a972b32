package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RationallyPrime/found-family/pkg/cypher"
	"github.com/RationallyPrime/found-family/pkg/embeddings"
	"github.com/RationallyPrime/found-family/pkg/eventstream"
	"github.com/RationallyPrime/found-family/pkg/graph"
)

// Config holds the graph names the service operates over. Everything the
// query engine needs, including index dimensionality, is passed in here as
// a value; the service reads no ambient state.
type Config struct {
	// IndexName is the vector index queried for semantic recall.
	// Defaults to "memory_embeddings".
	IndexName string

	// VectorProperty is the node property holding stored vectors.
	// Defaults to "embedding".
	VectorProperty string

	// Alias is the node variable used in generated queries.
	// Defaults to "m".
	Alias string

	// IndexMeta is the snapshot of known vector indexes, fetched from
	// the driver at startup.
	IndexMeta graph.IndexDimensions
}

func (c Config) withDefaults() Config {
	if c.IndexName == "" {
		c.IndexName = "memory_embeddings"
	}
	if c.VectorProperty == "" {
		c.VectorProperty = "embedding"
	}
	if c.Alias == "" {
		c.Alias = "m"
	}
	return c
}

// Service persists and recalls conversational memory. Each operation
// constructs its own query builder, uses it once, and discards it.
type Service struct {
	cfg      Config
	graph    graph.Driver
	embedder embeddings.Embedder
	events   eventstream.Publisher
	logger   *zap.Logger
}

// NewService wires the memory service from its collaborators.
func NewService(cfg Config, g graph.Driver, embedder embeddings.Embedder, events eventstream.Publisher, logger *zap.Logger) *Service {
	return &Service{
		cfg:      cfg.withDefaults(),
		graph:    g,
		embedder: embedder,
		events:   events,
		logger:   logger,
	}
}

func (s *Service) planner() cypher.Planner {
	return cypher.Planner{
		IndexName:      s.cfg.IndexName,
		Label:          LabelMemory,
		VectorProperty: s.cfg.VectorProperty,
		Meta:           s.cfg.IndexMeta,
	}
}

// StoreTurnInput describes one conversational exchange to persist.
type StoreTurnInput struct {
	ConversationID   string
	FriendContent    string
	AssistantContent string
	Salience         float64
	TopicID          *int64
	Tags             []string
}

// StoreTurn embeds both utterances and writes them as graph nodes linked
// by a FOLLOWED_BY edge, all in one query. The stored-turn event is
// published best-effort: a failing event stream never fails the write.
func (s *Service) StoreTurn(ctx context.Context, in StoreTurnInput) (*Turn, error) {
	if in.FriendContent == "" || in.AssistantContent == "" {
		return nil, ErrEmptyContent
	}
	if in.ConversationID == "" {
		in.ConversationID = uuid.NewString()
	}

	friendVec, err := s.embedder.Embed(ctx, in.FriendContent)
	if err != nil {
		return nil, fmt.Errorf("embedding friend utterance: %w", err)
	}
	assistantVec, err := s.embedder.Embed(ctx, in.AssistantContent)
	if err != nil {
		return nil, fmt.Errorf("embedding assistant utterance: %w", err)
	}

	now := time.Now().UTC()
	turn := &Turn{
		ID:             uuid.New(),
		ConversationID: in.ConversationID,
		Friend: Memory{
			ID:             uuid.New(),
			Content:        in.FriendContent,
			Speaker:        SpeakerFriend,
			ConversationID: in.ConversationID,
			TopicID:        in.TopicID,
			Salience:       in.Salience,
			Tags:           in.Tags,
			Timestamp:      now,
		},
		Assistant: Memory{
			ID:             uuid.New(),
			Content:        in.AssistantContent,
			Speaker:        SpeakerAssistant,
			ConversationID: in.ConversationID,
			TopicID:        in.TopicID,
			Salience:       in.Salience,
			Tags:           in.Tags,
			Timestamp:      now,
		},
	}

	b := cypher.NewBuilder()
	b.Create(s.utterancePattern(b, "f", LabelFriend, turn.Friend, friendVec))
	b.Create(s.utterancePattern(b, "a", LabelAssistant, turn.Assistant, assistantVec))
	b.Create(fmt.Sprintf("(f)-[:%s {turn_id: $%s}]->(a)", RelFollowedBy, b.BindParam(turn.ID.String())))

	text, params, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("building turn query: %w", err)
	}

	if _, err := s.graph.ExecuteWrite(ctx, text, params); err != nil {
		return nil, fmt.Errorf("storing turn: %w", err)
	}

	s.logger.Debug("stored conversation turn",
		zap.String("turn_id", turn.ID.String()),
		zap.String("conversation_id", turn.ConversationID),
	)

	s.publishStored(ctx, turn)
	return turn, nil
}

// utterancePattern renders one CREATE node pattern with every property
// value bound through the builder's bag. Timestamps are stored as
// fixed-width TimeLayout strings: lexical order equals chronological
// order, so cursor bounds and ORDER BY compare against the same
// representation.
func (s *Service) utterancePattern(b *cypher.Builder, variable, label string, m Memory, vec []float32) string {
	pattern := fmt.Sprintf(
		"(%s:%s:%s {id: $%s, content: $%s, speaker: $%s, conversation_id: $%s, salience: $%s, %s: $%s, timestamp: $%s",
		variable, LabelMemory, label,
		b.BindParam(m.ID.String()),
		b.BindParam(m.Content),
		b.BindParam(string(m.Speaker)),
		b.BindParam(m.ConversationID),
		b.BindParam(m.Salience),
		s.cfg.VectorProperty,
		b.BindParam(vec),
		b.BindParam(m.Timestamp.Format(TimeLayout)),
	)
	if m.TopicID != nil {
		pattern += fmt.Sprintf(", topic_id: $%s", b.BindParam(*m.TopicID))
	}
	if len(m.Tags) > 0 {
		pattern += fmt.Sprintf(", tags: $%s", b.BindParam(m.Tags))
	}
	return pattern + "})"
}

func (s *Service) publishStored(ctx context.Context, turn *Turn) {
	event := &eventstream.TurnStoredEvent{
		SchemaVersion:  eventstream.SchemaVersionV1,
		EventType:      eventstream.EventTypeTurnStored,
		EventID:        uuid.NewString(),
		EmittedAt:      time.Now().UTC(),
		ConversationID: turn.ConversationID,
		TurnID:         turn.ID.String(),
		MemoryIDs:      []string{turn.Friend.ID.String(), turn.Assistant.ID.String()},
		Salience:       turn.Friend.Salience,
	}
	if err := s.events.PublishTurnStored(ctx, event); err != nil {
		s.logger.Warn("failed to publish turn event",
			zap.String("turn_id", turn.ID.String()),
			zap.Error(err),
		)
	}
}

// RecallOptions selects which memories to recall and how.
type RecallOptions struct {
	// Filter is a declarative filter expression: field or
	// field__operator keys, $and / $or groups.
	Filter map[string]any

	// Query, when set, is embedded and recalled by similarity.
	// Vector takes precedence if both are set.
	Query  string
	Vector []float32

	// K is the candidate count requested from the index; the planner
	// widens it relative to Limit. Threshold drops weak matches.
	K         int
	Threshold float32

	// UseIndex allows the vector index; the planner falls back to the
	// exact in-query similarity when the index is absent.
	UseIndex bool

	// OrderBySimilarity sorts matches by score instead of recency.
	OrderBySimilarity bool

	Skip  int
	Limit int

	// After is an opaque cursor from a previous page's NextCursor.
	After string
}

// RecallResult carries one page of recalled memories.
type RecallResult struct {
	Memories   []Memory `json:"memories"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

// Recall retrieves memories matching the filter, semantically ranked when
// a query vector is present. Results are always deterministically ordered.
func (s *Service) Recall(ctx context.Context, opts RecallOptions) (*RecallResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	filter := make(map[string]any, len(opts.Filter)+1)
	for k, v := range opts.Filter {
		filter[k] = v
	}
	if opts.After != "" {
		cur, err := DecodeCursor(opts.After)
		if err != nil {
			return nil, err
		}
		filter["timestamp__lt"] = cur.Timestamp.Format(TimeLayout)
	}

	b := cypher.NewBuilder()
	pred, err := cypher.CompileFilter(filter, b.Params())
	if err != nil {
		return nil, fmt.Errorf("compiling recall filter: %w", err)
	}

	alias := s.cfg.Alias
	vector := opts.Vector
	if vector == nil && opts.Query != "" {
		vector, err = s.embedder.Embed(ctx, opts.Query)
		if err != nil {
			return nil, fmt.Errorf("embedding recall query: %w", err)
		}
	}

	if vector != nil {
		req := cypher.SimilarityRequest{
			Vector:            vector,
			K:                 opts.K,
			Threshold:         opts.Threshold,
			UseIndex:          opts.UseIndex,
			OrderBySimilarity: opts.OrderBySimilarity,
		}
		s.planner().Plan(b, req, pred, alias, limit)
	} else {
		b.Match(fmt.Sprintf("(%s:%s)", alias, LabelMemory))
		b.Where(pred, alias)
		b.Return(alias)
		b.OrderBy(alias+".timestamp DESC", alias+".id ASC")
	}

	text, params, err := cypher.Paginate(b, cypher.PageRequest{Skip: opts.Skip, Limit: limit}).Build()
	if err != nil {
		return nil, fmt.Errorf("building recall query: %w", err)
	}

	records, err := s.graph.Execute(ctx, text, params)
	if err != nil {
		return nil, fmt.Errorf("recalling memories: %w", err)
	}

	memories := make([]Memory, 0, len(records))
	for _, rec := range records {
		m, ok := decodeMemory(rec, alias)
		if !ok {
			s.logger.Warn("skipping undecodable recall row")
			continue
		}
		memories = append(memories, m)
	}

	result := &RecallResult{Memories: memories}
	if len(memories) == limit && !opts.OrderBySimilarity {
		last := memories[len(memories)-1]
		result.NextCursor = Cursor{Timestamp: last.Timestamp}.Encode()
	}

	s.logger.Debug("recalled memories",
		zap.Int("count", len(memories)),
		zap.Bool("semantic", vector != nil),
	)
	return result, nil
}

// Forget removes a memory node and its relationships.
func (s *Service) Forget(ctx context.Context, id uuid.UUID) error {
	b := cypher.NewBuilder()
	b.Match(fmt.Sprintf("(%s:%s {id: $%s})", s.cfg.Alias, LabelMemory, b.BindParam(id.String())))
	b.DetachDelete(s.cfg.Alias)

	text, params, err := b.Build()
	if err != nil {
		return fmt.Errorf("building forget query: %w", err)
	}
	if _, err := s.graph.ExecuteWrite(ctx, text, params); err != nil {
		return fmt.Errorf("forgetting memory: %w", err)
	}

	s.logger.Debug("forgot memory", zap.String("id", id.String()))
	return nil
}

// decodeMemory converts an opaque result row into a Memory. Rows carry the
// node's property map under the query alias and, for semantic recall, a
// similarity column.
func decodeMemory(rec graph.Record, alias string) (Memory, bool) {
	props, ok := rec[alias].(map[string]any)
	if !ok {
		return Memory{}, false
	}

	var m Memory
	if raw, ok := props["id"].(string); ok {
		if id, err := uuid.Parse(raw); err == nil {
			m.ID = id
		}
	}
	m.Content, _ = props["content"].(string)
	if speaker, ok := props["speaker"].(string); ok {
		m.Speaker = Speaker(speaker)
	}
	m.ConversationID, _ = props["conversation_id"].(string)
	m.Salience = toFloat64(props["salience"])

	if topic, ok := toInt64(props["topic_id"]); ok {
		m.TopicID = &topic
	}
	if tags, ok := props["tags"].([]any); ok {
		for _, tag := range tags {
			if t, ok := tag.(string); ok {
				m.Tags = append(m.Tags, t)
			}
		}
	}
	m.Timestamp = toTime(props["timestamp"])

	if score, ok := rec["similarity"]; ok {
		m.Similarity = float32(toFloat64(score))
	}
	return m, true
}

func toFloat64(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int64:
		return float64(x)
	case int:
		return float64(x)
	default:
		return 0
	}
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func toTime(v any) time.Time {
	switch x := v.(type) {
	case time.Time:
		return x
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, x); err == nil {
			return ts
		}
	}
	return time.Time{}
}
