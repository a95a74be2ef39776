package service

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"vocabsync/internal/cache"
	"vocabsync/internal/repository"
)

// RemoteFactory builds a remote backend scoped to an identity
type RemoteFactory func(identity string) (repository.Backend, error)

// Selector holds the one piece of process-wide mutable state in the
// core: which backend is active. An empty identity selects the local
// backend; anything else selects a remote backend scoped to it.
//
// Every identity change clears the cache before the new backend
// becomes visible, so a reader can never pair a stale cached snapshot
// with the new identity's backend.
type Selector struct {
	mu        sync.RWMutex
	cache     *cache.Manager
	local     repository.Backend
	newRemote RemoteFactory
	active    repository.Backend
	identity  string
	logger    *zap.Logger
}

// NewSelector creates a selector. The local backend doubles as the
// default before any Initialize call.
func NewSelector(local repository.Backend, newRemote RemoteFactory, c *cache.Manager, logger *zap.Logger) *Selector {
	return &Selector{
		cache:     c,
		local:     local,
		newRemote: newRemote,
		logger:    logger,
	}
}

// Initialize activates the backend for the given identity. The empty
// string means anonymous (local backend). Re-initializing with the
// same identity is permitted and harmless.
func (s *Selector) Initialize(identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Clear before the switch is observable, not after
	s.cache.Clear()

	if identity == "" {
		s.active = s.local
		s.identity = ""
		s.logger.Info("Activated local backend")
		return nil
	}

	if s.newRemote == nil {
		s.active = s.local
		s.identity = ""
		return fmt.Errorf("no remote backend configured for identity %q", identity)
	}

	backend, err := s.newRemote(identity)
	if err != nil {
		s.active = s.local
		s.identity = ""
		return fmt.Errorf("failed to activate remote backend: %w", err)
	}

	s.active = backend
	s.identity = identity
	s.logger.Info("Activated remote backend", zap.String("identity", identity))
	return nil
}

// ActiveBackend returns the current backend, lazily defaulting to the
// local one if Initialize was never called
func (s *Selector) ActiveBackend() repository.Backend {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.active == nil {
		return s.local
	}
	return s.active
}

// IsUsingRemote reports whether the active backend is identity-scoped
func (s *Selector) IsUsingRemote() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.identity != ""
}

// Identity returns the current identity, empty for anonymous
func (s *Selector) Identity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.identity
}
