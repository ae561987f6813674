// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/curatus/internal/logging"
)

// Service is the process-wide embedding service. It offloads model calls
// to a small worker pool so the caller's goroutine is only ever suspended,
// never running inference. The pool is started lazily on first use
// (single-shot), so construction is free; inference cost is paid on the
// first encode.
//
// Safe for concurrent use.
type Service struct {
	client  ModelClient
	cache   *VectorCache // may be nil
	dim     int
	workers int
	logger  zerolog.Logger

	startOnce sync.Once
	jobs      chan embedJob
}

// embedJob is a unit of work for the pool.
type embedJob struct {
	ctx    context.Context
	texts  []string
	result chan embedResult
}

// embedResult carries the pool's answer.
type embedResult struct {
	vectors [][]float32
	err     error
}

// ServiceConfig configures the embedding service.
type ServiceConfig struct {
	// Dimension is the expected vector dimension (384 for MiniLM-class models).
	Dimension int
	// Workers is the pool size. Embedding is CPU-bound on the inference
	// side; two workers keep the orchestrator responsive without
	// saturating a local model.
	Workers int
}

// NewService creates an embedding service. cache may be nil to disable
// the persistent vector cache.
func NewService(client ModelClient, cache *VectorCache, cfg ServiceConfig) *Service {
	if cfg.Dimension <= 0 {
		cfg.Dimension = 384
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	return &Service{
		client:  client,
		cache:   cache,
		dim:     cfg.Dimension,
		workers: cfg.Workers,
		logger:  logging.With().Str("component", "embedding").Logger(),
	}
}

// Dimension returns the vector dimension this service produces.
func (s *Service) Dimension() int {
	return s.dim
}

// start launches the worker pool. Called exactly once, lazily.
func (s *Service) start() {
	s.jobs = make(chan embedJob)
	for i := 0; i < s.workers; i++ {
		go s.worker()
	}
	s.logger.Debug().Int("workers", s.workers).Msg("embedding worker pool started")
}

// worker serves embed jobs for the lifetime of the process.
func (s *Service) worker() {
	for job := range s.jobs {
		vectors, err := s.client.Embed(job.ctx, job.texts)
		job.result <- embedResult{vectors: vectors, err: err}
	}
}

// submit hands texts to the pool and waits for the answer.
func (s *Service) submit(ctx context.Context, texts []string) ([][]float32, error) {
	s.startOnce.Do(s.start)

	job := embedJob{ctx: ctx, texts: texts, result: make(chan embedResult, 1)}
	select {
	case s.jobs <- job:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-job.result:
		return res.vectors, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Encode produces the normalized vector for a single text.
// EncodeBatch must be preferred whenever two or more texts are available.
func (s *Service) Encode(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EncodeBatch produces normalized vectors for texts, preserving order.
// Cached vectors are served without a model call; only the misses are
// embedded, in a single batched request.
func (s *Service) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	missIdx := make([]int, 0, len(texts))
	missTexts := make([]string, 0, len(texts))

	if s.cache != nil {
		for i, text := range texts {
			if vec, ok := s.cache.Get(text); ok && len(vec) == s.dim {
				out[i] = vec
				continue
			}
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, text)
		}
	} else {
		for i, text := range texts {
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, text)
		}
	}

	if len(missTexts) > 0 {
		vectors, err := s.submit(ctx, missTexts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed %d texts: %w", len(missTexts), err)
		}
		for j, vec := range vectors {
			if len(vec) != s.dim {
				return nil, fmt.Errorf("%w: model returned %d, expected %d",
					ErrInvalidDimension, len(vec), s.dim)
			}
			normalized := Normalize(vec)
			out[missIdx[j]] = normalized
			if s.cache != nil {
				if err := s.cache.Put(missTexts[j], normalized); err != nil {
					s.logger.Warn().Err(err).Msg("failed to persist vector to cache")
				}
			}
		}
	}

	return out, nil
}
