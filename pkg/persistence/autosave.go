package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
	"github.com/dd0wney/cluso-lessongraph/pkg/logging"
	"github.com/dd0wney/cluso-lessongraph/pkg/metrics"
)

// DefaultDebounce is the quiet period before a requested save is written
const DefaultDebounce = 500 * time.Millisecond

// Saver is the write side of the adapter
type Saver interface {
	Save(ctx context.Context, p *graph.LearningPath) bool
}

type pendingSave struct {
	path  *graph.LearningPath
	seq   uint64
	timer *time.Timer
}

// ownerWriter serializes the writes of one owner. written is the sequence of
// the newest request already written or cancelled; older requests that reach
// the writer afterwards are skipped.
type ownerWriter struct {
	mu      sync.Mutex
	written uint64
}

// AutoSaver coalesces save requests per owner: a save is written once no
// new request for that owner arrived for the debounce delay, and it writes
// the most recently requested state.
type AutoSaver struct {
	saver       Saver
	delay       time.Duration
	saveTimeout time.Duration
	logger      logging.Logger
	metrics     *metrics.Registry

	mu       sync.Mutex
	seq      uint64
	pending  map[string]*pendingSave
	writers  map[string]*ownerWriter
	closed   bool
	inflight sync.WaitGroup
}

// AutoSaverOption configures an AutoSaver
type AutoSaverOption func(*AutoSaver)

// WithDebounce sets the quiet period
func WithDebounce(d time.Duration) AutoSaverOption {
	return func(s *AutoSaver) { s.delay = d }
}

// WithSaveTimeout bounds each background save
func WithSaveTimeout(d time.Duration) AutoSaverOption {
	return func(s *AutoSaver) { s.saveTimeout = d }
}

// WithAutoSaveLogger sets the autosaver's logger
func WithAutoSaveLogger(l logging.Logger) AutoSaverOption {
	return func(s *AutoSaver) { s.logger = l }
}

// WithAutoSaveMetrics sets the registry autosave metrics are recorded in
func WithAutoSaveMetrics(m *metrics.Registry) AutoSaverOption {
	return func(s *AutoSaver) { s.metrics = m }
}

// NewAutoSaver creates an autosaver writing through saver
func NewAutoSaver(saver Saver, opts ...AutoSaverOption) *AutoSaver {
	s := &AutoSaver{
		saver:       saver,
		delay:       DefaultDebounce,
		saveTimeout: 5 * time.Second,
		logger:      logging.NewNopLogger(),
		pending:     make(map[string]*pendingSave),
		writers:     make(map[string]*ownerWriter),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logging.Component("autosave"))
	return s
}

// Request schedules a save of p, replacing any pending save for the same
// owner and restarting its delay. Requests after Close are dropped.
func (s *AutoSaver) Request(p *graph.LearningPath) {
	if p == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.logger.Warn("save requested after close", logging.OwnerID(p.OwnerID))
		return
	}

	if prev, ok := s.pending[p.OwnerID]; ok {
		prev.timer.Stop()
		if s.metrics != nil {
			s.metrics.AutosaveCoalescedTotal.Inc()
		}
	}

	s.seq++
	entry := &pendingSave{path: p, seq: s.seq}
	entry.timer = time.AfterFunc(s.delay, func() { s.fire(p.OwnerID, entry) })
	s.pending[p.OwnerID] = entry
	s.updatePending()
}

// Pending reports whether a save for ownerID is waiting to fire
func (s *AutoSaver) Pending(ownerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[ownerID]
	return ok
}

// Cancel drops a pending save without writing it. It returns once any save
// of ownerID already being written has finished, and no request made before
// the call is written afterwards.
func (s *AutoSaver) Cancel(ownerID string) {
	s.mu.Lock()
	if entry, ok := s.pending[ownerID]; ok {
		entry.timer.Stop()
		delete(s.pending, ownerID)
		s.updatePending()
	}
	s.seq++
	cutoff := s.seq
	w := s.writer(ownerID)
	s.mu.Unlock()

	w.mu.Lock()
	w.written = max(w.written, cutoff)
	w.mu.Unlock()
}

// writer returns the owner's writer; callers hold mu
func (s *AutoSaver) writer(ownerID string) *ownerWriter {
	w, ok := s.writers[ownerID]
	if !ok {
		w = &ownerWriter{}
		s.writers[ownerID] = w
	}
	return w
}

// write saves entry unless a newer request for its owner was already
// written or cancelled. It reports false only when the save failed.
func (s *AutoSaver) write(ctx context.Context, entry *pendingSave) bool {
	s.mu.Lock()
	w := s.writer(entry.path.OwnerID)
	s.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()
	if entry.seq <= w.written {
		s.logger.Debug("stale save skipped", logging.OwnerID(entry.path.OwnerID))
		return true
	}
	w.written = entry.seq
	return s.saver.Save(ctx, entry.path)
}

func (s *AutoSaver) fire(ownerID string, entry *pendingSave) {
	s.mu.Lock()
	if s.closed || s.pending[ownerID] != entry {
		s.mu.Unlock()
		return
	}
	delete(s.pending, ownerID)
	s.updatePending()
	s.inflight.Add(1)
	s.mu.Unlock()

	defer s.inflight.Done()
	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()
	if !s.write(ctx, entry) {
		s.logger.Warn("debounced save failed", logging.OwnerID(ownerID))
	}
}

// Flush writes every pending save now, in owner order
func (s *AutoSaver) Flush(ctx context.Context) {
	s.mu.Lock()
	entries := s.takeAll()
	s.mu.Unlock()

	s.saveAll(ctx, entries)
}

// Close flushes pending saves, waits for background saves to finish and
// rejects further requests.
func (s *AutoSaver) Close(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	entries := s.takeAll()
	s.mu.Unlock()

	s.saveAll(ctx, entries)
	s.inflight.Wait()
}

// takeAll stops and removes every pending entry; callers hold mu
func (s *AutoSaver) takeAll() []*pendingSave {
	owners := make([]string, 0, len(s.pending))
	for id := range s.pending {
		owners = append(owners, id)
	}
	sort.Strings(owners)

	entries := make([]*pendingSave, 0, len(owners))
	for _, id := range owners {
		entry := s.pending[id]
		entry.timer.Stop()
		entries = append(entries, entry)
		delete(s.pending, id)
	}
	s.updatePending()
	return entries
}

func (s *AutoSaver) saveAll(ctx context.Context, entries []*pendingSave) {
	for _, entry := range entries {
		if !s.write(ctx, entry) {
			s.logger.Warn("flushed save failed", logging.OwnerID(entry.path.OwnerID))
		}
	}
}

// updatePending publishes the pending gauge; callers hold mu
func (s *AutoSaver) updatePending() {
	if s.metrics != nil {
		s.metrics.AutosavePending.Set(float64(len(s.pending)))
	}
}
