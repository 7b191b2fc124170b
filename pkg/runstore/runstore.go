// Package runstore keeps a history of finished planning runs.
//
// Backends implement [Store]:
//   - [MemoryStore]: process lifetime only, for tests and short-lived servers
//   - [FileStore]: one JSON file per run, for the CLI
//   - [MongoStore]: shared history for server deployments
//
// Runs are identified by a random UUID assigned on [NewRun].
package runstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperr "github.com/matzehuels/stepflow/pkg/errors"
	"github.com/matzehuels/stepflow/pkg/simulate"
)

// Kinds of run.
const (
	KindOrder    = "order"
	KindSimulate = "simulate"
	KindPlan     = "plan"
)

// DefaultLimit caps List when the caller passes a non-positive limit.
const DefaultLimit = 20

// Run is one recorded planning request and its outcome.
type Run struct {
	ID        string    `json:"id" bson:"_id"`
	Kind      string    `json:"kind" bson:"kind"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	// GraphHash identifies the input graph; see cache.Keyer.
	GraphHash string `json:"graph_hash" bson:"graph_hash"`
	Tasks     int    `json:"tasks" bson:"tasks"`
	Edges     int    `json:"edges" bson:"edges"`

	Order  []string         `json:"order,omitempty" bson:"order,omitempty"`
	Stages [][]string       `json:"stages,omitempty" bson:"stages,omitempty"`
	Result *simulate.Result `json:"result,omitempty" bson:"result,omitempty"`
	Cached bool             `json:"cached" bson:"cached"`
}

// NewRun creates a run with a fresh ID and the current time.
func NewRun(kind string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
}

// Store is the interface for run history backends. Implementations are safe
// for concurrent use.
type Store interface {
	// Save records a run, replacing any run with the same ID.
	Save(ctx context.Context, run *Run) error
	// Get returns the run with the given ID, or a NOT_FOUND error.
	Get(ctx context.Context, id string) (*Run, error)
	// List returns up to limit runs, newest first.
	List(ctx context.Context, limit int) ([]*Run, error)
	// Close releases backend resources.
	Close() error
}

func notFound(id string) error {
	return apperr.New(apperr.ErrCodeNotFound, "run %q not found", id)
}

func validate(run *Run) error {
	if run == nil || run.ID == "" {
		return apperr.New(apperr.ErrCodeInvalidInput, "run must have an ID")
	}
	if _, err := uuid.Parse(run.ID); err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidInput, err, "run ID %q", run.ID)
	}
	return nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
