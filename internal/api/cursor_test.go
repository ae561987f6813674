// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package api

import (
	"strings"
	"testing"
)

func TestCursorRoundTrip(t *testing.T) {
	cases := []recCursor{
		{Score: 0.98, ID: 1},
		{Score: 0.05, ID: 9223372036854775807},
		{Score: 0.6512345678901234, ID: 42},
		{Score: 0, ID: 0},
	}

	for _, want := range cases {
		encoded := encodeCursor(&want)
		if encoded == "" {
			t.Fatalf("encodeCursor(%+v) returned empty string", want)
		}

		got, err := decodeCursor(encoded)
		if err != nil {
			t.Fatalf("decodeCursor(%q) error: %v", encoded, err)
		}
		if got.Score != want.Score || got.ID != want.ID {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
		}
	}
}

func TestDecodeCursorRejectsBadBase64(t *testing.T) {
	if _, err := decodeCursor("not-base64!!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}

func TestDecodeCursorRejectsBadJSON(t *testing.T) {
	// Valid base64 of a non-JSON payload.
	if _, err := decodeCursor("bm90IGpzb24="); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestCursorIsOpaqueURLSafe(t *testing.T) {
	encoded := encodeCursor(&recCursor{Score: 0.787, ID: 12345})
	if strings.ContainsAny(encoded, "+/ ") {
		t.Errorf("cursor %q is not URL-safe", encoded)
	}
}
