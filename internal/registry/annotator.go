package registry

import "go-soft-delete/internal/model"

// metadataAttributes are hidden from schema editing and API output, but the
// soft-delete layer itself writes them.
func metadataAttributes() map[string]model.Attribute {
	hidden := func(typ string) model.Attribute {
		return model.Attribute{Type: typ, Configurable: false, Visible: false, Private: true, Writable: true}
	}
	return map[string]model.Attribute{
		model.FieldDeletedAt:          hidden("datetime"),
		model.FieldDeletedByActorID:   hidden("string"),
		model.FieldDeletedByActorKind: hidden("enumeration"),
	}
}

// Annotate adds the soft-delete fields to a single collection. Components
// and nil schemas are left alone. It reports whether anything was added.
func Annotate(c *model.Collection) bool {
	if c == nil || c.Kind == model.KindComponent {
		return false
	}
	if c.Attributes == nil {
		c.Attributes = make(map[string]model.Attribute, len(model.MetadataFields))
	}

	changed := false
	for name, attr := range metadataAttributes() {
		if _, exists := c.Attributes[name]; exists {
			continue
		}
		c.Attributes[name] = attr
		changed = true
	}
	return changed
}

// HasSoftDelete reports whether a collection carries all soft-delete fields.
func HasSoftDelete(c *model.Collection) bool {
	if c == nil {
		return false
	}
	for _, name := range model.MetadataFields {
		if !c.HasAttribute(name) {
			return false
		}
	}
	return true
}
