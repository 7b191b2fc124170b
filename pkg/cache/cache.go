// Package cache stores encoded plan results keyed by the graph and settings
// that produced them.
//
// All backends implement [Cache]:
//
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: JSON entries under a directory, for the CLI
//   - [MemoryCache]: in-process, size bounded (ristretto), for the server
//   - [RedisCache]: shared across server instances
//
// Keys come from a [Keyer]. [Observed] wraps any backend so hits, misses and
// writes are reported to the observability cache hooks.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/matzehuels/stepflow/pkg/dag"
)

// Cache is a byte-oriented key/value store with optional expiry.
// Implementations are safe for concurrent use.
type Cache interface {
	// Get returns the stored value and true, or false on a miss. Expired
	// entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// GraphHash identifies a graph by its tasks and edges.
	GraphHash(g *dag.DAG) string
	// PlanKey identifies one computation over a graph.
	PlanKey(graphHash string, opts PlanKeyOpts) string
}

// PlanKeyOpts are the settings that change a plan's outcome.
type PlanKeyOpts struct {
	// Kind distinguishes "order", "simulate" and "plan" results.
	Kind    string
	Workers int
	// Durations holds the resolved duration of every task.
	Durations map[string]int
}

// DefaultKeyer hashes JSON encodings of its inputs. Map keys encode in
// sorted order, so equal inputs always give equal keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) GraphHash(g *dag.DAG) string {
	data, _ := json.Marshal(struct {
		Nodes []string
		Edges []dag.Edge
	}{g.Nodes(), g.Edges()})
	return Hash(data)
}

func (DefaultKeyer) PlanKey(graphHash string, opts PlanKeyOpts) string {
	return hashKey("plan", graphHash, opts.Kind, opts.Workers, opts.Durations)
}

// keyType returns the prefix of a key produced by a Keyer, used to label
// hook events.
func keyType(key string) string {
	if prefix, _, ok := strings.Cut(key, ":"); ok {
		return prefix
	}
	return "other"
}
