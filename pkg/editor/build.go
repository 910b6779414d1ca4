package editor

import (
	"context"
	"fmt"

	"github.com/dd0wney/cluso-lessongraph/pkg/config"
	"github.com/dd0wney/cluso-lessongraph/pkg/kvstore"
	"github.com/dd0wney/cluso-lessongraph/pkg/layout"
	"github.com/dd0wney/cluso-lessongraph/pkg/logging"
	"github.com/dd0wney/cluso-lessongraph/pkg/metrics"
	"github.com/dd0wney/cluso-lessongraph/pkg/persistence"
	"github.com/dd0wney/cluso-lessongraph/pkg/recommend"
)

// Runtime is a workspace wired from configuration, with the store it
// persists to
type Runtime struct {
	Workspace *Workspace
	Store     kvstore.Store
	Adapter   *persistence.Adapter
}

// Build opens the configured store and wires a workspace over it. Stored
// paths are not loaded; call Hydrate or Open.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger, reg *metrics.Registry) (*Runtime, error) {
	store, err := kvstore.Open(ctx, cfg.Storage.Options())
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Backend, err)
	}
	logger.Info("storage opened", logging.Backend(cfg.Storage.Backend))

	adapter := persistence.NewAdapter(store,
		persistence.WithLogger(logger), persistence.WithMetrics(reg))
	autosave := persistence.NewAutoSaver(adapter,
		persistence.WithDebounce(cfg.Autosave.Debounce),
		persistence.WithSaveTimeout(cfg.Autosave.SaveTimeout),
		persistence.WithAutoSaveLogger(logger),
		persistence.WithAutoSaveMetrics(reg))
	engine := layout.NewEngine(cfg.Layout, layout.WithLogger(logger), layout.WithMetrics(reg))
	generator := recommend.NewGenerator(recommend.NewRuleAnalyzer(),
		recommend.WithLogger(logger), recommend.WithMetrics(reg))

	ws := New(
		WithHistoryCapacity(cfg.History.Capacity),
		WithAdapter(adapter),
		WithAutoSaver(autosave),
		WithLayoutEngine(engine),
		WithGenerator(generator),
		WithLogger(logger),
		WithMetrics(reg),
	)
	return &Runtime{Workspace: ws, Store: store, Adapter: adapter}, nil
}

// Close flushes the workspace and closes the store
func (r *Runtime) Close(ctx context.Context) error {
	r.Workspace.Close(ctx)
	return r.Store.Close()
}
