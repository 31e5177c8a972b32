// Package memory is the domain layer of the memory graph: conversational
// turns stored as utterance nodes linked by FOLLOWED_BY edges, recalled by
// structural filters and semantic similarity.
package memory

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Node labels and relationship types in the memory graph.
const (
	LabelMemory    = "Memory"
	LabelFriend    = "FriendUtterance"
	LabelAssistant = "AssistantUtterance"

	RelFollowedBy = "FOLLOWED_BY"
)

// Speaker identifies which side of a conversation produced an utterance.
type Speaker string

const (
	SpeakerFriend    Speaker = "friend"
	SpeakerAssistant Speaker = "assistant"
)

// Memory is one stored utterance node.
type Memory struct {
	ID             uuid.UUID `json:"id"`
	Content        string    `json:"content"`
	Speaker        Speaker   `json:"speaker"`
	ConversationID string    `json:"conversation_id"`
	TopicID        *int64    `json:"topic_id,omitempty"`
	Salience       float64   `json:"salience"`
	Tags           []string  `json:"tags,omitempty"`
	Timestamp      time.Time `json:"timestamp"`

	// Similarity is populated on semantic recall, zero otherwise.
	Similarity float32 `json:"similarity,omitempty"`
}

// Turn is one persisted conversational exchange: a friend utterance
// followed by the assistant's reply.
type Turn struct {
	ID             uuid.UUID `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Friend         Memory    `json:"friend"`
	Assistant      Memory    `json:"assistant"`
}

// TimeLayout is the fixed-width timestamp representation stored on nodes
// and embedded in cursors. Unlike RFC3339Nano it never trims fractional
// zeros, so lexical order equals chronological order and string-compared
// bounds behave.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Cursor marks a recall position by the last-seen ordering key, so paging
// stays stable under concurrent writes where offsets would drift.
type Cursor struct {
	Timestamp time.Time
}

// Encode renders the cursor as an opaque token.
func (c Cursor) Encode() string {
	return base64.RawURLEncoding.EncodeToString([]byte(c.Timestamp.UTC().Format(TimeLayout)))
}

// DecodeCursor parses a token produced by Encode.
func DecodeCursor(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrBadCursor, err)
	}
	ts, err := time.Parse(TimeLayout, string(raw))
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrBadCursor, err)
	}
	return Cursor{Timestamp: ts}, nil
}
