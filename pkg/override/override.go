// Package override keeps runtime response overrides registered by test
// code. Overrides are consulted before definition files.
package override

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/getmockd/msm/pkg/definition"
	"github.com/getmockd/msm/pkg/logging"
)

// ErrUsage is returned by Off when exactly one of method and path is given.
var ErrUsage = errors.New("override: method and path must both be given or both be empty")

// Override is a registered definition and whether it is consumed by the
// first request that reads it.
type Override struct {
	Definition definition.Definition
	Once       bool
}

// KeyFunc maps a method and request URL to the key overrides are stored
// under.
type KeyFunc func(method, url string) (string, error)

// Store is an in-memory set of overrides keyed by composed path. It is
// safe for concurrent use.
type Store struct {
	key    KeyFunc
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]Override
}

// NewStore creates a Store that derives keys with key.
func NewStore(key KeyFunc, logger *slog.Logger) *Store {
	return &Store{
		key:     key,
		logger:  logging.OrNop(logger),
		entries: make(map[string]Override),
	}
}

// On registers def for every request to method and url until removed.
func (s *Store) On(method, url string, def any) error {
	return s.register(method, url, def, false)
}

// Once registers def for the next request to method and url only.
func (s *Store) Once(method, url string, def any) error {
	return s.register(method, url, def, true)
}

func (s *Store) register(method, url string, def any, once bool) error {
	key, err := s.key(method, url)
	if err != nil {
		return fmt.Errorf("override %s %s: %w", method, url, err)
	}

	d, err := definition.From(def)
	if err != nil {
		s.logger.Warn("rejected override", "method", method, "url", url, "error", err)
		return fmt.Errorf("override %s %s: %w", method, url, err)
	}

	s.mu.Lock()
	s.entries[key] = Override{Definition: d, Once: once}
	s.mu.Unlock()

	s.logger.Debug("registered override", "key", key, "once", once, "kind", d.Kind())
	return nil
}

// Off removes the override for method and url. With both empty it removes
// every override. Giving only one of them returns ErrUsage.
func (s *Store) Off(method, url string) error {
	switch {
	case method == "" && url == "":
		s.mu.Lock()
		clear(s.entries)
		s.mu.Unlock()
		s.logger.Debug("cleared all overrides")
		return nil
	case method == "" || url == "":
		return ErrUsage
	}

	key, err := s.key(method, url)
	if err != nil {
		return fmt.Errorf("override %s %s: %w", method, url, err)
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()

	s.logger.Debug("removed override", "key", key)
	return nil
}

// Lookup returns the definition registered under key. A once override is
// removed in the same critical section that reads it, so concurrent
// lookups cannot both consume it. Empty entries are discarded with a
// warning.
func (s *Store) Lookup(key string) (definition.Definition, bool) {
	s.mu.Lock()
	o, ok := s.entries[key]
	if ok && (o.Once || o.Definition.IsZero()) {
		delete(s.entries, key)
	}
	s.mu.Unlock()

	if !ok {
		return definition.Definition{}, false
	}
	if o.Definition.IsZero() {
		s.logger.Warn("discarded malformed override", "key", key)
		return definition.Definition{}, false
	}
	if o.Once {
		s.logger.Debug("consumed once override", "key", key)
	}
	return o.Definition, true
}

// Len returns the number of active overrides.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Keys returns the keys of the active overrides, in no particular order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}
