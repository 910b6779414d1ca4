// Package persistence stores learning paths in a kvstore.Store, one JSON
// record per owner plus an index record listing every known owner.
//
// Storage is best effort. Failures are logged and counted but never
// returned to editing code, and the AutoSaver writes only after a quiet
// period: a crash inside that window loses the edits made during it.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
	"github.com/dd0wney/cluso-lessongraph/pkg/kvstore"
	"github.com/dd0wney/cluso-lessongraph/pkg/logging"
	"github.com/dd0wney/cluso-lessongraph/pkg/metrics"
)

// Key layout
const (
	PathKeyPrefix = "lessongraph:path:"
	IndexKey      = "lessongraph:index"
)

// PathKey returns the record key of an owner's path
func PathKey(ownerID string) string {
	return PathKeyPrefix + ownerID
}

// Status labels
const (
	statusOK      = "ok"
	statusError   = "error"
	statusMissing = "missing"
	statusCorrupt = "corrupt"
)

// Adapter serializes paths to and from a store
type Adapter struct {
	store   kvstore.Store
	logger  logging.Logger
	metrics *metrics.Registry

	// indexMu serializes read-modify-write cycles on the index record
	indexMu sync.Mutex
}

// Option configures an Adapter
type Option func(*Adapter)

// WithLogger sets the adapter's logger
func WithLogger(l logging.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// WithMetrics sets the registry persistence metrics are recorded in
func WithMetrics(m *metrics.Registry) Option {
	return func(a *Adapter) { a.metrics = m }
}

// NewAdapter creates an adapter over store
func NewAdapter(store kvstore.Store, opts ...Option) *Adapter {
	a := &Adapter{store: store, logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(logging.Component("persistence"))
	return a
}

func (a *Adapter) record(op, status string, start time.Time) {
	if a.metrics != nil {
		a.metrics.RecordPersistence(op, status, time.Since(start))
	}
}

// fail logs a persistence error with its owner context
func (a *Adapter) fail(op, ownerID string, cause error) {
	err := graph.NewError(op).Owner(ownerID).Path().Cause(cause).Persistence()
	a.logger.Error("persistence operation failed", logging.OwnerID(ownerID), logging.Error(err))
}

// Save writes the path record and adds the owner to the index. It reports
// whether both writes succeeded.
func (a *Adapter) Save(ctx context.Context, p *graph.LearningPath) bool {
	start := time.Now()
	if p == nil {
		return false
	}

	data, err := json.Marshal(p)
	if err != nil {
		a.fail("Save", p.OwnerID, fmt.Errorf("marshal path: %w", err))
		a.record("save", statusError, start)
		return false
	}
	if err := a.store.Set(ctx, PathKey(p.OwnerID), data); err != nil {
		a.fail("Save", p.OwnerID, err)
		a.record("save", statusError, start)
		return false
	}
	if err := a.updateIndex(ctx, func(ids map[string]struct{}) { ids[p.OwnerID] = struct{}{} }); err != nil {
		a.fail("Save", p.OwnerID, fmt.Errorf("update index: %w", err))
		a.record("save", statusError, start)
		return false
	}

	if a.metrics != nil {
		a.metrics.PersistenceBytes.Observe(float64(len(data)))
	}
	a.record("save", statusOK, start)
	a.logger.Debug("path saved", logging.OwnerID(p.OwnerID), logging.Int("bytes", len(data)))
	return true
}

// Load reads an owner's path. It returns nil when the record is missing,
// unreadable or fails structural validation.
func (a *Adapter) Load(ctx context.Context, ownerID string) *graph.LearningPath {
	start := time.Now()

	data, ok, err := a.store.Get(ctx, PathKey(ownerID))
	if err != nil {
		a.fail("Load", ownerID, err)
		a.record("load", statusError, start)
		return nil
	}
	if !ok {
		a.record("load", statusMissing, start)
		return nil
	}

	p, err := decodePath(ownerID, data)
	if err != nil {
		a.fail("Load", ownerID, err)
		a.record("load", statusCorrupt, start)
		return nil
	}
	a.record("load", statusOK, start)
	return p
}

func decodePath(ownerID string, data []byte) (*graph.LearningPath, error) {
	var p graph.LearningPath
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("corrupt record: %w", err)
	}
	if p.OwnerID != ownerID {
		return nil, fmt.Errorf("corrupt record: owner %q stored under %q", p.OwnerID, ownerID)
	}
	if vs := graph.ValidateGraph(p.Nodes, p.Edges); graph.HasErrors(vs) {
		return nil, fmt.Errorf("corrupt record: %s", graph.Errors(vs)[0].Message)
	}
	if p.Nodes == nil {
		p.Nodes = []graph.ActivityNode{}
	}
	if p.Edges == nil {
		p.Edges = []graph.Edge{}
	}
	p.RecomputeProgress()
	return &p, nil
}

// LoadAll reads every indexed path. Unreadable records are skipped. When
// the index itself is missing or corrupt the path keys are scanned instead.
func (a *Adapter) LoadAll(ctx context.Context) map[string]*graph.LearningPath {
	start := time.Now()

	ids, err := a.readIndex(ctx)
	if err != nil {
		a.logger.Warn("index unreadable, scanning path keys", logging.Error(err))
		ids, err = a.scanOwners(ctx)
		if err != nil {
			a.fail("LoadAll", "", err)
			a.record("load_all", statusError, start)
			return map[string]*graph.LearningPath{}
		}
	}

	out := make(map[string]*graph.LearningPath, len(ids))
	for _, id := range ids {
		if p := a.Load(ctx, id); p != nil {
			out[id] = p
		}
	}
	a.record("load_all", statusOK, start)
	a.logger.Debug("paths loaded", logging.Count(len(out)))
	return out
}

// Owners returns the indexed owner ids in sorted order
func (a *Adapter) Owners(ctx context.Context) []string {
	ids, err := a.readIndex(ctx)
	if err != nil {
		a.fail("Owners", "", err)
		return nil
	}
	return ids
}

// Remove deletes an owner's record and index entry
func (a *Adapter) Remove(ctx context.Context, ownerID string) bool {
	start := time.Now()

	if err := a.store.Delete(ctx, PathKey(ownerID)); err != nil {
		a.fail("Remove", ownerID, err)
		a.record("remove", statusError, start)
		return false
	}
	if err := a.updateIndex(ctx, func(ids map[string]struct{}) { delete(ids, ownerID) }); err != nil {
		a.fail("Remove", ownerID, fmt.Errorf("update index: %w", err))
		a.record("remove", statusError, start)
		return false
	}
	a.record("remove", statusOK, start)
	return true
}

// ClearAll deletes every path record and the index
func (a *Adapter) ClearAll(ctx context.Context) bool {
	start := time.Now()

	keys, err := a.store.Keys(ctx, PathKeyPrefix)
	if err != nil {
		a.fail("ClearAll", "", err)
		a.record("clear_all", statusError, start)
		return false
	}

	a.indexMu.Lock()
	defer a.indexMu.Unlock()

	var errs []error
	for _, k := range append(keys, IndexKey) {
		if err := a.store.Delete(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		a.fail("ClearAll", "", err)
		a.record("clear_all", statusError, start)
		return false
	}
	a.record("clear_all", statusOK, start)
	a.logger.Info("all paths cleared", logging.Count(len(keys)))
	return true
}

func (a *Adapter) readIndex(ctx context.Context) ([]string, error) {
	data, ok, err := a.store.Get(ctx, IndexKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return a.scanOwners(ctx)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("corrupt index: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (a *Adapter) scanOwners(ctx context.Context) ([]string, error) {
	keys, err := a.store.Keys(ctx, PathKeyPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, PathKeyPrefix))
	}
	return ids, nil
}

func (a *Adapter) updateIndex(ctx context.Context, mutate func(ids map[string]struct{})) error {
	a.indexMu.Lock()
	defer a.indexMu.Unlock()

	current, err := a.readIndex(ctx)
	if err != nil {
		// Rebuild from the records rather than fail every later save.
		if current, err = a.scanOwners(ctx); err != nil {
			return err
		}
	}

	set := make(map[string]struct{}, len(current)+1)
	for _, id := range current {
		set[id] = struct{}{}
	}
	mutate(set)

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, IndexKey, data)
}
