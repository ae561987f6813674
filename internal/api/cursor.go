// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package api

import (
	"encoding/base64"
	"fmt"

	"github.com/goccy/go-json"
)

// recCursor marks a position in the (score DESC, id ASC) recommendation
// ordering. The listing endpoint returns it opaque; clients echo it back
// verbatim to fetch the next page.
type recCursor struct {
	Score float64 `json:"score"`
	ID    int64   `json:"id"`
}

// encodeCursor encodes a cursor to a base64 string for API transport.
func encodeCursor(cursor *recCursor) string {
	data, err := json.Marshal(cursor)
	if err != nil {
		// Should never happen with a simple struct, but return empty if it does
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

// decodeCursor decodes a base64 cursor string back to a recCursor.
func decodeCursor(encoded string) (*recCursor, error) {
	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}

	var cursor recCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("invalid cursor JSON: %w", err)
	}

	return &cursor, nil
}
