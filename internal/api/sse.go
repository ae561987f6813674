// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package api

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/curatus/internal/engine"
	"github.com/tomtom215/curatus/internal/logging"
	"github.com/tomtom215/curatus/internal/metrics"
)

// streamEvents writes progress events to the client as server-sent
// events until the channel closes or the client disconnects. The final
// event always carries progress 100, so clients can treat the stream as
// complete without waiting for EOF.
func (h *Handler) streamEvents(w http.ResponseWriter, r *http.Request, events <-chan engine.ProgressEvent) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, r, http.StatusInternalServerError, codeInternal, "streaming unsupported", ErrStreamingUnsupported)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	metrics.SSEStreamsActive.Inc()
	defer metrics.SSEStreamsActive.Dec()

	for {
		select {
		case <-r.Context().Done():
			// Client went away; the generation drains on its own context.
			return
		case ev, open := <-events:
			if !open {
				return
			}
			if err := writeSSE(w, ev); err != nil {
				logging.Ctx(r.Context()).Debug().Err(err).Msg("SSE write failed, closing stream")
				return
			}
			flusher.Flush()
		}
	}
}

// writeSSE frames one event in SSE wire format.
func writeSSE(w http.ResponseWriter, ev engine.ProgressEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal progress event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write progress event: %w", err)
	}
	return nil
}
