package runstore

import (
	"context"
	"fmt"

	"github.com/matzehuels/stepflow/pkg/config"
	"github.com/matzehuels/stepflow/pkg/observability"
)

// Open builds the backend selected by cfg, wrapped with [Observed]. The
// "none" backend returns a nil Store.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case config.StoreNone, "":
		return nil, nil
	case config.StoreMemory:
		s = NewMemoryStore()
	case config.StoreFile:
		s, err = NewFileStore(cfg.Dir)
	case config.StoreMongo:
		s, err = NewMongoStore(ctx, MongoOptions{URI: cfg.MongoURI, Database: cfg.Database, Collection: cfg.Collection})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	return Observed(s, cfg.Backend), nil
}

type observed struct {
	Store
	backend string
}

// Observed reports every Save on s to the registered store hooks.
func Observed(s Store, backend string) Store {
	return &observed{Store: s, backend: backend}
}

func (o *observed) Save(ctx context.Context, run *Run) error {
	err := o.Store.Save(ctx, run)
	id := ""
	if run != nil {
		id = run.ID
	}
	observability.Store().OnRunSaved(ctx, o.backend, id, err)
	return err
}
