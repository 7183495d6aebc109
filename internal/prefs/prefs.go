// Package prefs persists small client preferences: the last searched
// location and the debug-logging toggle. All reads and writes are best
// effort; failures are logged as warnings and never reach the user.
package prefs

import (
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const (
	KeyLastLocation = "last_location"
	KeyDebugLogging = "debug_logging"
)

// KV is the subset of the key-value store prefs needs.
type KV interface {
	Get(key string) (string, bool, error)
	Put(key, value string) error
}

// Store wraps a KV with best-effort semantics. A Store with a nil KV is
// valid and behaves as if nothing was ever saved.
type Store struct {
	kv  KV
	log zerolog.Logger

	wg sync.WaitGroup

	mu      sync.Mutex
	seq     uint64
	written uint64
}

// New creates a Store.
func New(kv KV, log zerolog.Logger) *Store {
	return &Store{kv: kv, log: log}
}

// SaveLastLocation records displayName in the background. Later saves win
// over earlier ones even if their writes finish out of order.
func (s *Store) SaveLastLocation(displayName string) {
	name := strings.TrimSpace(displayName)
	if s.kv == nil || name == "" {
		return
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.mu.Lock()
		defer s.mu.Unlock()
		if seq < s.written {
			return
		}
		if err := s.kv.Put(KeyLastLocation, name); err != nil {
			s.log.Warn().Err(err).Str("location", name).Msg("failed to save last location")
			return
		}
		s.written = seq
	}()
}

// LastLocation returns the saved display name, or "" if none or on error.
func (s *Store) LastLocation() string {
	if s.kv == nil {
		return ""
	}
	v, _, err := s.kv.Get(KeyLastLocation)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read last location")
		return ""
	}
	return v
}

// DebugLogging reports whether verbose logging was switched on.
func (s *Store) DebugLogging() bool {
	if s.kv == nil {
		return false
	}
	v, _, err := s.kv.Get(KeyDebugLogging)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read debug flag")
		return false
	}
	on, _ := strconv.ParseBool(v)
	return on
}

// SetDebugLogging stores the debug toggle. Unlike SaveLastLocation this is an
// explicit user action, so the error is returned.
func (s *Store) SetDebugLogging(on bool) error {
	if s.kv == nil {
		return nil
	}
	return s.kv.Put(KeyDebugLogging, strconv.FormatBool(on))
}

// Wait blocks until pending background writes have finished.
func (s *Store) Wait() {
	s.wg.Wait()
}

// Close drains pending writes. The underlying KV is owned by the caller.
func (s *Store) Close() {
	s.Wait()
}
