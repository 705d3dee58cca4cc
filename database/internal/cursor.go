// Package internal holds helpers shared by the history backends.
package internal

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/sagarc03/zipstream"
)

// Cursor is the position after the last record of a page: its finish time
// and job id.
type Cursor struct {
	FinishedAt time.Time
	ID         string
}

// EncodeCursor encodes cursor data to a base64 string for pagination.
func EncodeCursor(finishedAt time.Time, id string) string {
	data := finishedAt.UTC().Format(time.RFC3339Nano) + "|" + id
	return base64.URLEncoding.EncodeToString([]byte(data))
}

// DecodeCursor decodes a pagination cursor string back to cursor data.
// An empty cursor decodes to the zero Cursor. Malformed cursors return an
// error wrapping zipstream.ErrInvalidInput.
func DecodeCursor(cursor string) (Cursor, error) {
	if cursor == "" {
		return Cursor{}, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid encoding: %w", zipstream.ErrInvalidInput)
	}

	timestamp, id, ok := strings.Cut(string(decoded), "|")
	if !ok {
		return Cursor{}, fmt.Errorf("decode cursor: invalid format: %w", zipstream.ErrInvalidInput)
	}

	if id == "" {
		return Cursor{}, fmt.Errorf("decode cursor: empty id: %w", zipstream.ErrInvalidInput)
	}

	finishedAt, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid timestamp: %w", zipstream.ErrInvalidInput)
	}

	return Cursor{FinishedAt: finishedAt, ID: id}, nil
}
