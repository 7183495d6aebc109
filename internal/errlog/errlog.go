// Package errlog records classified weather errors: every record goes to the
// structured logger immediately and to a bounded, most-recent-first list in the
// key-value store in the background.
package errlog

import (
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-client/internal/weather"
)

const (
	// StoreKey is where the persisted record list lives.
	StoreKey = "error_log"

	// MaxRecords bounds the persisted list.
	MaxRecords = 20

	queueSize = 64
)

// Record is one logged error.
type Record struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Context   string    `json:"context"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Cause     string    `json:"cause,omitempty"`
	Stack     string    `json:"stack,omitempty"`
	Status    int       `json:"status,omitempty"`
}

// RecordStore is the persistence the logger needs.
type RecordStore interface {
	Get(key string) (string, bool, error)
	Update(key string, fn func(old []byte) ([]byte, error)) error
	Delete(key string) error
}

// Logger implements weather.ErrorReporter.
type Logger struct {
	log   zerolog.Logger
	store RecordStore
	debug func() bool
	now   func() time.Time

	queue     chan Record
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Logger.
type Option func(*Logger)

// WithDebug makes the logger attach goroutine stacks while enabled returns true.
func WithDebug(enabled func() bool) Option {
	return func(l *Logger) { l.debug = enabled }
}

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

// New creates a Logger. store may be nil, in which case records are only
// written to log.
func New(log zerolog.Logger, store RecordStore, opts ...Option) *Logger {
	l := &Logger{
		log:   log,
		store: store,
		debug: func() bool { return false },
		now:   time.Now,
		queue: make(chan Record, queueSize),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	go l.run()
	return l
}

// Report logs a classified error. It never blocks and never panics: when the
// persistence queue is full the record is only written to the logger.
func (l *Logger) Report(label string, res *weather.ErrorResult) {
	if res == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.log.Warn().Interface("panic", r).Msg("error log: report failed")
		}
	}()

	rec := Record{
		ID:        uuid.NewString(),
		Timestamp: l.now().UTC(),
		Context:   label,
		Kind:      string(res.Kind),
		Message:   res.Message,
		Status:    res.Status,
	}
	if res.Err != nil {
		rec.Cause = res.Err.Error()
	}
	if l.debug() {
		rec.Stack = string(debug.Stack())
	}

	ev := l.log.Error().
		Str("context", rec.Context).
		Str("kind", rec.Kind).
		Bool("retryable", res.Retryable).
		Str("cause", rec.Cause)
	if rec.Status != 0 {
		ev = ev.Int("status", rec.Status)
	}
	ev.Msg(rec.Message)

	if l.store == nil {
		return
	}
	select {
	case l.queue <- rec:
	default:
		l.log.Warn().Str("id", rec.ID).Msg("error log: queue full, record not persisted")
	}
}

// Records returns the persisted records, most recent first. A corrupted
// list reads as empty.
func (l *Logger) Records() ([]Record, error) {
	if l.store == nil {
		return nil, nil
	}
	raw, found, err := l.store.Get(StoreKey)
	if err != nil || !found {
		return nil, err
	}
	return decode([]byte(raw)), nil
}

// Clear removes all persisted records.
func (l *Logger) Clear() error {
	if l.store == nil {
		return nil
	}
	return l.store.Delete(StoreKey)
}

// Close stops accepting records and waits until queued ones are persisted.
func (l *Logger) Close() {
	l.closeOnce.Do(func() {
		close(l.queue)
	})
	<-l.done
}

func (l *Logger) run() {
	defer close(l.done)
	for rec := range l.queue {
		if err := l.persist(rec); err != nil {
			l.log.Warn().Err(err).Str("id", rec.ID).Msg("error log: failed to persist record")
		}
	}
}

func (l *Logger) persist(rec Record) error {
	return l.store.Update(StoreKey, func(old []byte) ([]byte, error) {
		records := append([]Record{rec}, decode(old)...)
		if len(records) > MaxRecords {
			records = records[:MaxRecords]
		}
		data, err := json.Marshal(records)
		if err != nil {
			return nil, fmt.Errorf("encoding error log: %w", err)
		}
		return data, nil
	})
}

func decode(data []byte) []Record {
	if len(data) == 0 {
		return nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil
	}
	return records
}
