package softdelete

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go-soft-delete/internal/access"
	"go-soft-delete/internal/model"
)

// DecorationState records that one collection has been decorated at one
// layer.
type DecorationState struct {
	Layer         string    `json:"layer"`
	CollectionUID string    `json:"collection"`
	DecoratedAt   time.Time `json:"decoratedAt"`
}

type stateKey struct {
	layer string
	uid   string
}

type decoration struct {
	state    DecorationState
	original *access.Operations
}

// Guard installs the soft-delete wrappers at most once per collection and
// layer, and keeps the undecorated primitives for restore and purge.
//
// The first layer passed to NewGuard is the primary layer: its captured
// primitives are the ones handed out by Original.
type Guard struct {
	policy *Policy
	layers []access.Layer

	mu          sync.Mutex
	decorations map[stateKey]*decoration
}

func NewGuard(policy *Policy, layers ...access.Layer) *Guard {
	return &Guard{
		policy:      policy,
		layers:      layers,
		decorations: make(map[stateKey]*decoration),
	}
}

func (g *Guard) Policy() *Policy { return g.policy }

// DecorateAll decorates every soft-delete enabled collection and returns the
// number of layer/collection pairs newly decorated.
func (g *Guard) DecorateAll() (int, error) {
	total := 0
	for _, c := range g.policy.registry.EnabledCollections() {
		n, err := g.Decorate(c.UID)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// Decorate wraps a collection's primitives on every layer that has not been
// decorated yet. Collections without soft-delete metadata pass through
// untouched and report zero.
func (g *Guard) Decorate(uid string) (int, error) {
	col, ok := g.policy.Enabled(uid)
	if !ok {
		return 0, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	n := 0
	for _, layer := range g.layers {
		key := stateKey{layer: layer.Name(), uid: uid}
		if _, done := g.decorations[key]; done {
			continue
		}

		current, ok := layer.Operations(uid)
		if !ok {
			return n, fmt.Errorf("%w: %s has no operations at %s layer", model.ErrCollectionNotFound, uid, layer.Name())
		}
		original := current.Clone()
		layer.Install(uid, g.wrap(col, original))

		g.decorations[key] = &decoration{
			state:    DecorationState{Layer: layer.Name(), CollectionUID: uid, DecoratedAt: time.Now().UTC()},
			original: original,
		}
		n++
		slog.Debug("soft delete decoration installed", "layer", layer.Name(), "collection", uid)
	}
	return n, nil
}

func (g *Guard) Decorated(layer, uid string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.decorations[stateKey{layer: layer, uid: uid}]
	return ok
}

func (g *Guard) States() []DecorationState {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]DecorationState, 0, len(g.decorations))
	for _, d := range g.decorations {
		out = append(out, d.state)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CollectionUID != out[j].CollectionUID {
			return out[i].CollectionUID < out[j].CollectionUID
		}
		return out[i].Layer < out[j].Layer
	})
	return out
}

// Original returns the undecorated primitives of the primary layer.
func (g *Guard) Original(uid string) (*access.Operations, error) {
	if _, ok := g.policy.registry.Get(uid); !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrCollectionNotFound, uid)
	}
	if _, ok := g.policy.Enabled(uid); !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrSoftDeleteDisabled, uid)
	}
	if len(g.layers) == 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrNotDecorated, uid)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	d, ok := g.decorations[stateKey{layer: g.layers[0].Name(), uid: uid}]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrNotDecorated, uid)
	}
	return d.original, nil
}

// Verify checks that every enabled collection is decorated on every layer.
func (g *Guard) Verify() error {
	var errs []error
	for _, c := range g.policy.registry.EnabledCollections() {
		for _, layer := range g.layers {
			if !g.Decorated(layer.Name(), c.UID) {
				errs = append(errs, fmt.Errorf("%w: %s at %s layer", model.ErrNotDecorated, c.UID, layer.Name()))
			}
		}
	}
	return errors.Join(errs...)
}

func (g *Guard) wrap(col *model.Collection, original *access.Operations) *access.Operations {
	ops := original.Clone()
	g.rewriteReads(col, original, ops)
	g.hideFromWrites(original, ops)
	g.interceptDeletes(col, original, ops)
	return ops
}
