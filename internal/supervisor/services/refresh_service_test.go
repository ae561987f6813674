// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/curatus/internal/engine"
)

type fakeRefresher struct {
	mu      sync.Mutex
	calls   []int64
	failFor map[int64]error
}

func (f *fakeRefresher) Generate(ctx context.Context, userID int64, force bool) (map[engine.MediaType][]engine.Recommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userID)
	if err := f.failFor[userID]; err != nil {
		return nil, err
	}
	return map[engine.MediaType][]engine.Recommendation{}, nil
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeUserLister struct {
	ids []int64
	err error
}

func (f *fakeUserLister) UserIDs(ctx context.Context) ([]int64, error) {
	return f.ids, f.err
}

func TestRefreshServiceSweepsAllUsers(t *testing.T) {
	refresher := &fakeRefresher{}
	svc := NewRefreshService(refresher, &fakeUserLister{ids: []int64{1, 2, 3}},
		RefreshServiceConfig{Interval: 10 * time.Millisecond}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for refresher.callCount() < 3 {
		select {
		case <-deadline:
			t.Fatal("sweep never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestRefreshServiceContinuesPastUserFailure(t *testing.T) {
	refresher := &fakeRefresher{failFor: map[int64]error{2: errors.New("adapter down")}}
	svc := NewRefreshService(refresher, &fakeUserLister{ids: []int64{1, 2, 3}},
		RefreshServiceConfig{Interval: time.Hour}, zerolog.Nop())

	svc.sweep(context.Background())

	if refresher.callCount() != 3 {
		t.Errorf("calls = %d, want 3 (failure must not stop the sweep)", refresher.callCount())
	}
}

func TestRefreshServiceSkipsSweepWhenListingFails(t *testing.T) {
	refresher := &fakeRefresher{}
	svc := NewRefreshService(refresher, &fakeUserLister{err: errors.New("db down")},
		RefreshServiceConfig{Interval: time.Hour}, zerolog.Nop())

	svc.sweep(context.Background())

	if refresher.callCount() != 0 {
		t.Errorf("calls = %d, want 0", refresher.callCount())
	}
}

func TestRefreshServiceStopsOnCancel(t *testing.T) {
	svc := NewRefreshService(&fakeRefresher{}, &fakeUserLister{},
		RefreshServiceConfig{Interval: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestRefreshServiceDefaults(t *testing.T) {
	svc := NewRefreshService(&fakeRefresher{}, &fakeUserLister{}, RefreshServiceConfig{}, zerolog.Nop())
	if svc.config.Interval <= 0 || svc.config.PerUserTimeout <= 0 {
		t.Errorf("defaults not applied: %+v", svc.config)
	}
	if svc.String() != "refresh-service" {
		t.Errorf("String() = %q", svc.String())
	}
}
