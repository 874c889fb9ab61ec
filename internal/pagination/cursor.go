package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"

	"github.com/chattyapp/chatty/internal/model"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// EncodeCursor turns a message ID into an opaque cursor: base64 over the
// decimal form of the ID. Decode is exact; no lexicographic ordering of the
// encoded form is assumed anywhere.
func EncodeCursor(id int64) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

// DecodeCursor reverses EncodeCursor.
func DecodeCursor(cursor string) (int64, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0, ErrInvalidCursor
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, ErrInvalidCursor
	}
	return id, nil
}

// Edge pairs a message with the cursor addressing its position.
type Edge struct {
	Cursor string         `json:"cursor"`
	Node   *model.Message `json:"node"`
}

type PageInfo struct {
	HasNextPage     bool `json:"has_next_page"`
	HasPreviousPage bool `json:"has_previous_page"`
}

type Connection struct {
	Edges    []Edge   `json:"edges"`
	PageInfo PageInfo `json:"page_info"`
}

// NewConnection builds edges for rows already ordered newest-first.
func NewConnection(messages []*model.Message, pageInfo PageInfo) *Connection {
	edges := make([]Edge, 0, len(messages))
	for _, m := range messages {
		edges = append(edges, Edge{Cursor: EncodeCursor(m.ID), Node: m})
	}
	return &Connection{Edges: edges, PageInfo: pageInfo}
}
