package model

// Kind is the shape of a collection.
type Kind string

const (
	KindCollection Kind = "collection"
	KindSingleton  Kind = "singleton"
	KindComponent  Kind = "component"
)

// Attribute describes a single field of a collection schema.
type Attribute struct {
	Type         string `json:"type" yaml:"type"`
	Configurable bool   `json:"configurable" yaml:"configurable"`
	Visible      bool   `json:"visible" yaml:"visible"`
	Private      bool   `json:"private" yaml:"private"`
	Writable     bool   `json:"writable" yaml:"writable"`
}

// Collection is a named schema with an attribute set.
type Collection struct {
	UID         string               `json:"uid" yaml:"uid"`
	Kind        Kind                 `json:"kind" yaml:"kind"`
	DisplayName string               `json:"displayName" yaml:"displayName"`
	Attributes  map[string]Attribute `json:"attributes" yaml:"attributes"`
}

func (c *Collection) HasAttribute(name string) bool {
	if c == nil || c.Attributes == nil {
		return false
	}
	_, ok := c.Attributes[name]
	return ok
}

// CollectionSummary is the listing view of a soft-delete enabled collection.
type CollectionSummary struct {
	UID         string `json:"uid"`
	Kind        Kind   `json:"kind"`
	DisplayName string `json:"displayName"`
}
