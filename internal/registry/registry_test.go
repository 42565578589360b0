package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-soft-delete/internal/model"
)

const collectionsYAML = `
collections:
  - uid: api::article.article
    displayName: Article
    attributes:
      title: {type: string}
  - uid: api::homepage.homepage
    kind: singleton
    attributes:
      heading: {type: string}
  - uid: shared.seo
    kind: component
    attributes:
      metaTitle: {type: string}
  - uid: api::log.log
    softDelete: false
    attributes:
      message: {type: text}
`

func TestAnnotate_AddsMetadataFields(t *testing.T) {
	t.Parallel()

	c := &model.Collection{UID: "api::article.article", Kind: model.KindCollection,
		Attributes: map[string]model.Attribute{"title": {Type: "string"}}}

	require.True(t, Annotate(c))
	assert.True(t, HasSoftDelete(c))

	attr := c.Attributes[model.FieldDeletedAt]
	assert.Equal(t, "datetime", attr.Type)
	assert.False(t, attr.Configurable)
	assert.False(t, attr.Visible)
	assert.True(t, attr.Private)
	assert.True(t, attr.Writable)
	assert.Equal(t, "string", c.Attributes[model.FieldDeletedByActorID].Type)
	assert.Equal(t, "enumeration", c.Attributes[model.FieldDeletedByActorKind].Type)
	assert.True(t, c.Attributes[model.FieldDeletedByActorKind].Private)
	assert.Equal(t, "string", c.Attributes["title"].Type)
}

func TestAnnotate_Idempotent(t *testing.T) {
	t.Parallel()

	c := &model.Collection{UID: "api::article.article", Kind: model.KindCollection}
	require.True(t, Annotate(c))
	before := len(c.Attributes)

	assert.False(t, Annotate(c))
	assert.Len(t, c.Attributes, before)
}

func TestAnnotate_SkipsComponentsAndNil(t *testing.T) {
	t.Parallel()

	assert.False(t, Annotate(nil))

	comp := &model.Collection{UID: "shared.seo", Kind: model.KindComponent}
	assert.False(t, Annotate(comp))
	assert.False(t, HasSoftDelete(comp))
}

func TestRegistry_ParseAndAnnotate(t *testing.T) {
	t.Parallel()

	reg, err := Parse([]byte(collectionsYAML))
	require.NoError(t, err)
	require.Len(t, reg.All(), 4)

	annotated := reg.Annotate()
	assert.Equal(t, []string{"api::article.article", "api::homepage.homepage"}, annotated)

	_, ok := reg.Enabled("api::article.article")
	assert.True(t, ok)
	_, ok = reg.Enabled("shared.seo")
	assert.False(t, ok)
	_, ok = reg.Enabled("api::log.log")
	assert.False(t, ok, "opted-out collection must not be enabled")

	home, ok := reg.Get("api::homepage.homepage")
	require.True(t, ok)
	assert.Equal(t, model.KindSingleton, home.Kind)
	assert.Equal(t, "api::homepage.homepage", home.DisplayName)

	// second pass changes nothing
	assert.Equal(t, annotated, reg.Annotate())
	assert.Len(t, reg.EnabledCollections(), 2)
}

func TestRegistry_AllowList(t *testing.T) {
	t.Parallel()

	reg, err := Parse([]byte(collectionsYAML))
	require.NoError(t, err)

	reg.Allow([]string{"api::homepage.homepage"})
	assert.Equal(t, []string{"api::homepage.homepage"}, reg.Annotate())

	article, _ := reg.Get("api::article.article")
	assert.False(t, HasSoftDelete(article))
}

func TestRegistry_RejectsDuplicatesAndBadKinds(t *testing.T) {
	t.Parallel()

	reg := New()
	require.NoError(t, reg.Register(model.Collection{UID: "a"}))
	assert.ErrorIs(t, reg.Register(model.Collection{UID: "a"}), model.ErrInvalidInput)
	assert.ErrorIs(t, reg.Register(model.Collection{UID: "b", Kind: "table"}), model.ErrInvalidInput)
	assert.ErrorIs(t, reg.Register(model.Collection{}), model.ErrInvalidInput)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "collections.yaml")
	require.NoError(t, os.WriteFile(path, []byte(collectionsYAML), 0o644))

	reg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, reg.All(), 4)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
