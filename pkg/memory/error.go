package memory

import "errors"

var (
	// ErrEmptyContent is returned when a turn is stored with a blank
	// utterance.
	ErrEmptyContent = errors.New("utterance content is empty")

	// ErrBadCursor is returned when a recall cursor cannot be decoded.
	ErrBadCursor = errors.New("malformed recall cursor")
)
