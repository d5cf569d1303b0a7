package pdfprint

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// SurfaceManager hands out the print surface for an id and guarantees that at
// most one surface per id is live. A new Acquire for an id destroys whatever
// a previous, possibly abandoned, session left behind instead of waiting
// for it.
type SurfaceManager struct {
	host   SurfaceHost
	logger *zap.Logger

	mu     sync.Mutex
	active map[string]Surface
}

// NewSurfaceManager returns a manager over host.
func NewSurfaceManager(host SurfaceHost, logger *zap.Logger) *SurfaceManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SurfaceManager{
		host:   host,
		logger: logger,
		active: make(map[string]Surface),
	}
}

// Acquire reclaims id and creates a fresh surface for it.
func (m *SurfaceManager) Acquire(ctx context.Context, id string) (Surface, error) {
	if id == "" {
		return nil, ErrEmptySurfaceID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if stale, ok := m.active[id]; ok {
		delete(m.active, id)
		m.logger.Debug("reclaiming stale print surface", zap.String("surface", id))
		if err := m.host.Teardown(ctx, stale); err != nil {
			m.logger.Warn("stale surface teardown failed", zap.String("surface", id), zap.Error(err))
		}
	}
	if err := m.host.DestroyIfExists(ctx, id); err != nil {
		return nil, fmt.Errorf("%w: removing stale surface %q: %v", ErrSurfaceUnavailable, id, err)
	}

	s, err := m.host.Create(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSurfaceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSurfaceUnavailable, err)
	}
	m.active[id] = s
	return s, nil
}

// Release tears s down. The id stays reserved for a newer surface if s was
// already superseded.
func (m *SurfaceManager) Release(ctx context.Context, s Surface) error {
	if s == nil {
		return nil
	}

	m.mu.Lock()
	current, ok := m.active[s.ID()]
	owned := ok && current == s
	if owned {
		delete(m.active, s.ID())
	}
	m.mu.Unlock()

	if !owned {
		// Superseded surfaces were torn down by the Acquire that reclaimed them.
		return nil
	}
	return m.host.Teardown(ctx, s)
}

// Active reports whether id currently has a live surface.
func (m *SurfaceManager) Active(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.active[id]
	return ok
}

// Close tears down every surface still held.
func (m *SurfaceManager) Close(ctx context.Context) error {
	m.mu.Lock()
	surfaces := make([]Surface, 0, len(m.active))
	for id, s := range m.active {
		surfaces = append(surfaces, s)
		delete(m.active, id)
	}
	m.mu.Unlock()

	var errs []error
	for _, s := range surfaces {
		if err := m.host.Teardown(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
