package pipeline

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.trai.ch/zerr"

	"go.brick.build/brick/internal/adapters/logger"
	"go.brick.build/brick/internal/core/domain"
	"go.brick.build/brick/internal/core/ports/mocks"
)

// memStore is an in-memory TagStore.
type memStore map[string]string

func (m memStore) GetHash(tag string) (string, bool, error) {
	h, ok := m[tag]
	return h, ok, nil
}

func (m memStore) SaveBuild(tag, hash string) error {
	m[tag] = hash
	return nil
}

func newTestCache(t *testing.T, engine *mocks.MockImageEngine, store memStore) *cache {
	t.Helper()
	log := logger.New()
	log.SetOutput(io.Discard)
	return &cache{engine: engine, store: store, logger: log}
}

func desiredTags() []domain.ImageReference {
	return domain.StageTags("svc", domain.StageBuild, "feature")
}

func TestCacheResolveEmptyKeyBuilds(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockImageEngine(ctrl)
	c := newTestCache(t, engine, memStore{})

	dec, err := c.resolve(context.Background(), desiredTags(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionBuild, dec.Kind)
}

func TestCacheResolveSkip(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockImageEngine(ctrl)
	engine.EXPECT().
		ImagesWithLabel(gomock.Any(), LabelKey, "sha256:k").
		Return(desiredTags(), nil)
	c := newTestCache(t, engine, memStore{})

	dec, err := c.resolve(context.Background(), desiredTags(), "sha256:k")
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionSkip, dec.Kind)
	assert.Equal(t, domain.ImageReference{Repository: "svc_build", Tag: "feature"}, dec.Tag)
}

func TestCacheResolvePromote(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockImageEngine(ctrl)
	labeled := []domain.ImageReference{
		{Repository: "svc_build", Tag: "latest"},
		{Repository: "svc_build", Tag: "other-branch"},
	}
	engine.EXPECT().
		ImagesWithLabel(gomock.Any(), LabelKey, "sha256:k").
		Return(labeled, nil)
	c := newTestCache(t, engine, memStore{})

	dec, err := c.resolve(context.Background(), desiredTags(), "sha256:k")
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionPromote, dec.Kind)
	assert.Equal(t, domain.ImageReference{Repository: "svc_build", Tag: "latest"}, dec.From)
}

// Promotion only draws from a desired repository's latest image. Images
// from other repositories or without the latest tag never qualify.
func TestCachePromoteSourceRequiresRepositoryLatest(t *testing.T) {
	from, ok := promoteSource([]domain.ImageReference{
		{Repository: "unrelated", Tag: "latest"},
		{Repository: "svc_build", Tag: "other-branch"},
		{Repository: "svc_build", Tag: "latest"},
	}, desiredTags())
	require.True(t, ok)
	assert.Equal(t, domain.ImageReference{Repository: "svc_build", Tag: "latest"}, from)

	_, ok = promoteSource([]domain.ImageReference{
		{Repository: "unrelated", Tag: "latest"},
		{Repository: "svc_build", Tag: "other-branch"},
	}, desiredTags())
	assert.False(t, ok)
}

func TestCacheResolveBuildsWhenOnlyForeignImagesLabeled(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockImageEngine(ctrl)
	engine.EXPECT().
		ImagesWithLabel(gomock.Any(), LabelKey, "sha256:k").
		Return([]domain.ImageReference{{Repository: "unrelated", Tag: "latest"}}, nil)
	c := newTestCache(t, engine, memStore{})

	dec, err := c.resolve(context.Background(), desiredTags(), "sha256:k")
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionBuild, dec.Kind)
}

func TestCacheResolveBuildWhenNoMatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockImageEngine(ctrl)
	engine.EXPECT().
		ImagesWithLabel(gomock.Any(), LabelKey, "sha256:k").
		Return(nil, nil)
	c := newTestCache(t, engine, memStore{})

	dec, err := c.resolve(context.Background(), desiredTags(), "sha256:k")
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionBuild, dec.Kind)
}

func TestCacheResolveStoreFallbackSkip(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockImageEngine(ctrl)
	engine.EXPECT().
		ImagesWithLabel(gomock.Any(), LabelKey, "sha256:k").
		Return(nil, zerr.New("label queries unsupported"))
	engine.EXPECT().
		ImageExists(gomock.Any(), domain.ImageReference{Repository: "svc_build", Tag: "feature"}).
		Return(true, nil)
	store := memStore{"svc_build:feature": "sha256:k"}
	c := newTestCache(t, engine, store)

	dec, err := c.resolve(context.Background(), desiredTags(), "sha256:k")
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionSkip, dec.Kind)
}

func TestCacheResolveStoreFallbackStaleHashBuilds(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockImageEngine(ctrl)
	engine.EXPECT().
		ImagesWithLabel(gomock.Any(), LabelKey, "sha256:new").
		Return(nil, zerr.New("label queries unsupported"))
	store := memStore{"svc_build:feature": "sha256:old"}
	c := newTestCache(t, engine, store)

	dec, err := c.resolve(context.Background(), desiredTags(), "sha256:new")
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionBuild, dec.Kind)
}

func TestCacheResolveStoreFallbackMissingImageBuilds(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockImageEngine(ctrl)
	engine.EXPECT().
		ImagesWithLabel(gomock.Any(), LabelKey, "sha256:k").
		Return(nil, zerr.New("label queries unsupported"))
	engine.EXPECT().
		ImageExists(gomock.Any(), gomock.Any()).
		Return(false, nil)
	store := memStore{"svc_build:feature": "sha256:k"}
	c := newTestCache(t, engine, store)

	dec, err := c.resolve(context.Background(), desiredTags(), "sha256:k")
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionBuild, dec.Kind)
}

func TestCacheRecordTagsAndPersists(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockImageEngine(ctrl)
	tags := desiredTags()
	engine.EXPECT().
		Tag(gomock.Any(), "sha256:img", tags).
		Return(nil)
	store := memStore{}
	c := newTestCache(t, engine, store)

	require.NoError(t, c.record(context.Background(), "sha256:img", tags, "sha256:k"))

	assert.Equal(t, "sha256:k", store["svc_build:latest"])
	assert.Equal(t, "sha256:k", store["svc_build:feature"])
}

func TestCachePromoteRetags(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockImageEngine(ctrl)
	tags := desiredTags()
	from := domain.ImageReference{Repository: "svc_build", Tag: "other"}
	engine.EXPECT().
		Tag(gomock.Any(), "svc_build:other", tags).
		Return(nil)
	store := memStore{}
	c := newTestCache(t, engine, store)

	require.NoError(t, c.promote(context.Background(), from, tags, "sha256:k"))
	assert.Equal(t, "sha256:k", store["svc_build:feature"])
}
