package pipeline

import (
	"context"
	"fmt"

	"go.brick.build/brick/internal/core/domain"
	"go.brick.build/brick/internal/core/ports"
)

// LabelKey is the image label carrying the dependency hash a stage
// image was built from. Presence of this label with a matching value is
// the cache's source of truth.
const LabelKey = "build.brick.dependency-hash"

// cache resolves dependency hashes against the engine's image metadata
// and decides whether a stage must run.
type cache struct {
	engine ports.ImageEngine
	store  ports.TagStore
	logger ports.Logger
}

// resolve decides how to satisfy desired tags for a cache key. An empty
// key disables caching and always builds.
func (c *cache) resolve(ctx context.Context, tags []domain.ImageReference, key string) (domain.Decision, error) {
	if key == "" {
		return domain.Decision{Kind: domain.DecisionBuild}, nil
	}

	labeled, err := c.engine.ImagesWithLabel(ctx, LabelKey, key)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Decision{}, err
		}
		// The engine cannot answer label queries here. Fall back on the
		// file-backed tag store.
		c.logger.Debug(fmt.Sprintf("label query failed, falling back to tag store: %v", err))
		return c.resolveFromStore(ctx, tags, key)
	}

	carrying := make(map[domain.ImageReference]bool, len(labeled))
	for _, ref := range labeled {
		carrying[ref] = true
	}

	satisfied := true
	for _, ref := range tags {
		if !carrying[ref] {
			satisfied = false
			break
		}
	}
	if satisfied {
		return domain.Decision{Kind: domain.DecisionSkip, Tag: domain.MostSpecific(tags)}, nil
	}

	if from, ok := promoteSource(labeled, tags); ok {
		// Another branch already built this exact content under the same
		// repository. Re-tag instead of rebuilding.
		return domain.Decision{Kind: domain.DecisionPromote, From: from, Tag: domain.MostSpecific(tags)}, nil
	}

	return domain.Decision{Kind: domain.DecisionBuild}, nil
}

// promoteSource picks the labeled image to promote from: it must share
// a desired repository and carry the latest tag, so promotion stays
// within one tag family and never resurrects a superseded image.
func promoteSource(labeled, desired []domain.ImageReference) (domain.ImageReference, bool) {
	repos := make(map[string]bool, len(desired))
	for _, ref := range desired {
		repos[ref.Repository] = true
	}
	for _, ref := range labeled {
		if repos[ref.Repository] && ref.Tag == domain.LatestTag {
			return ref, true
		}
	}
	return domain.ImageReference{}, false
}

// resolveFromStore answers from the tag-to-hash file when label queries
// are unavailable. The store cannot distinguish promote candidates, so
// anything other than an exact hit builds.
func (c *cache) resolveFromStore(ctx context.Context, tags []domain.ImageReference, key string) (domain.Decision, error) {
	tag := domain.MostSpecific(tags)
	stored, ok, err := c.store.GetHash(tag.String())
	if err != nil || !ok || stored != key {
		return domain.Decision{Kind: domain.DecisionBuild}, nil
	}
	exists, err := c.engine.ImageExists(ctx, tag)
	if err != nil || !exists {
		return domain.Decision{Kind: domain.DecisionBuild}, nil
	}
	return domain.Decision{Kind: domain.DecisionSkip, Tag: tag}, nil
}

// record applies every desired tag to a freshly built image and mirrors
// the hash into the tag store. Store failures are logged, not fatal:
// the label written at build time already committed the cache entry.
func (c *cache) record(ctx context.Context, imageID string, tags []domain.ImageReference, key string) error {
	if err := c.engine.Tag(ctx, imageID, tags); err != nil {
		return err
	}
	c.persist(tags, key)
	return nil
}

// promote re-tags an existing image and mirrors the hash.
func (c *cache) promote(ctx context.Context, from domain.ImageReference, tags []domain.ImageReference, key string) error {
	if err := c.engine.Tag(ctx, from.String(), tags); err != nil {
		return err
	}
	c.persist(tags, key)
	return nil
}

func (c *cache) persist(tags []domain.ImageReference, key string) {
	if key == "" {
		return
	}
	for _, tag := range tags {
		if err := c.store.SaveBuild(tag.String(), key); err != nil {
			c.logger.Warn(fmt.Sprintf("could not persist cache record for %s: %v", tag, err))
			return
		}
	}
}
