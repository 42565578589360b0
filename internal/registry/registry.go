// Package registry holds the collection schemas known to the process and
// annotates the eligible ones with soft-delete metadata.
package registry

import (
	"fmt"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"go-soft-delete/internal/model"
)

type Registry struct {
	mu          sync.RWMutex
	collections map[string]*model.Collection
	order       []string
	allow       map[string]struct{}
	optOut      map[string]struct{}
}

func New() *Registry {
	return &Registry{
		collections: make(map[string]*model.Collection),
		optOut:      make(map[string]struct{}),
	}
}

// Register adds a collection schema. The registry keeps its own copy.
func (r *Registry) Register(c model.Collection) error {
	if c.UID == "" {
		return fmt.Errorf("%w: collection uid is required", model.ErrInvalidInput)
	}
	if c.Kind == "" {
		c.Kind = model.KindCollection
	}
	switch c.Kind {
	case model.KindCollection, model.KindSingleton, model.KindComponent:
	default:
		return fmt.Errorf("%w: collection %s has unknown kind %q", model.ErrInvalidInput, c.UID, c.Kind)
	}

	attrs := make(map[string]model.Attribute, len(c.Attributes)+len(model.MetadataFields))
	for name, attr := range c.Attributes {
		attrs[name] = attr
	}
	c.Attributes = attrs
	if c.DisplayName == "" {
		c.DisplayName = c.UID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.collections[c.UID]; exists {
		return fmt.Errorf("%w: collection %s registered twice", model.ErrInvalidInput, c.UID)
	}
	r.collections[c.UID] = &c
	r.order = append(r.order, c.UID)
	return nil
}

// OptOut excludes a collection from soft delete regardless of the allow-list.
func (r *Registry) OptOut(uid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.optOut[uid] = struct{}{}
}

// Allow restricts soft delete to the given collections. An empty list
// enables every eligible collection.
func (r *Registry) Allow(uids []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(uids) == 0 {
		r.allow = nil
		return
	}
	r.allow = make(map[string]struct{}, len(uids))
	for _, uid := range uids {
		r.allow[uid] = struct{}{}
	}
}

func (r *Registry) Get(uid string) (*model.Collection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collections[uid]
	return c, ok
}

// All returns every registered collection in registration order.
func (r *Registry) All() []*model.Collection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Collection, 0, len(r.order))
	for _, uid := range r.order {
		out = append(out, r.collections[uid])
	}
	return out
}

// Eligible reports whether a collection should carry soft-delete metadata.
func (r *Registry) Eligible(uid string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.eligibleLocked(uid)
}

func (r *Registry) eligibleLocked(uid string) bool {
	c, ok := r.collections[uid]
	if !ok || c.Kind == model.KindComponent {
		return false
	}
	if _, out := r.optOut[uid]; out {
		return false
	}
	if r.allow != nil {
		if _, in := r.allow[uid]; !in {
			return false
		}
	}
	return true
}

// Enabled returns the collection when it is annotated with soft-delete
// metadata and not excluded by configuration.
func (r *Registry) Enabled(uid string) (*model.Collection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collections[uid]
	if !ok || !r.eligibleLocked(uid) || !HasSoftDelete(c) {
		return nil, false
	}
	return c, true
}

// EnabledCollections lists every soft-delete enabled collection in
// registration order.
func (r *Registry) EnabledCollections() []*model.Collection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Collection, 0, len(r.order))
	for _, uid := range r.order {
		c := r.collections[uid]
		if r.eligibleLocked(uid) && HasSoftDelete(c) {
			out = append(out, c)
		}
	}
	return out
}

// Annotate adds the soft-delete fields to every eligible collection and
// returns the uids that carry them afterwards. Calling it again is a no-op.
func (r *Registry) Annotate() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	annotated := make([]string, 0, len(r.order))
	for _, uid := range r.order {
		if !r.eligibleLocked(uid) {
			continue
		}
		Annotate(r.collections[uid])
		annotated = append(annotated, uid)
	}
	return annotated
}

type fileSchema struct {
	Collections []collectionSchema `yaml:"collections"`
	Enabled     []string           `yaml:"enabled"`
}

type collectionSchema struct {
	UID         string                     `yaml:"uid"`
	Kind        model.Kind                 `yaml:"kind"`
	DisplayName string                     `yaml:"displayName"`
	SoftDelete  *bool                      `yaml:"softDelete"`
	Attributes  map[string]model.Attribute `yaml:"attributes"`
}

// Parse reads a YAML collections document.
func Parse(data []byte) (*Registry, error) {
	var doc fileSchema
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse collections: %w", err)
	}

	r := New()
	for _, c := range doc.Collections {
		col := model.Collection{
			UID:         c.UID,
			Kind:        c.Kind,
			DisplayName: c.DisplayName,
			Attributes:  make(map[string]model.Attribute, len(c.Attributes)),
		}
		for name, attr := range c.Attributes {
			if !slices.Contains(model.MetadataFields, name) {
				attr.Configurable, attr.Visible, attr.Writable = true, true, true
			}
			col.Attributes[name] = attr
		}
		if err := r.Register(col); err != nil {
			return nil, err
		}
		if c.SoftDelete != nil && !*c.SoftDelete {
			r.OptOut(c.UID)
		}
	}
	r.Allow(doc.Enabled)
	return r, nil
}

// LoadFile reads and parses a YAML collections file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read collections file: %w", err)
	}
	return Parse(data)
}
