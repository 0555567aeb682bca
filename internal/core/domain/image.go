package domain

import (
	"strings"
	"time"

	"go.trai.ch/zerr"
)

// ImageReference is a (repository, tag) pair.
type ImageReference struct {
	Repository string
	Tag        string
}

// String renders the reference as repository:tag.
func (r ImageReference) String() string {
	return r.Repository + ":" + r.Tag
}

// ParseImageReference splits a repository:tag string. A missing tag
// defaults to "latest".
func ParseImageReference(s string) (ImageReference, error) {
	if s == "" {
		return ImageReference{}, zerr.New("empty image reference")
	}
	repo, tag, ok := strings.Cut(s, ":")
	if !ok {
		tag = LatestTag
	}
	if repo == "" {
		return ImageReference{}, zerr.With(zerr.New("image reference has no repository"), "reference", s)
	}
	return ImageReference{Repository: repo, Tag: tag}, nil
}

// LatestTag is the unqualified tag shared by every branch's most recent
// image of a repository.
const LatestTag = "latest"

// StageRepository returns the image repository for a (target, stage) pair.
func StageRepository(name string, stage StageName) string {
	return name + "_" + string(stage)
}

// StageTags returns the two tag families for a (target, stage) pair.
// The branch tag is last: call sites prefer the most specific tag.
func StageTags(name string, stage StageName, branch string) []ImageReference {
	return RepositoryTags(StageRepository(name, stage), branch)
}

// RepositoryTags returns the latest and branch tags for a repository,
// branch last.
func RepositoryTags(repository, branch string) []ImageReference {
	return []ImageReference{
		{Repository: repository, Tag: LatestTag},
		{Repository: repository, Tag: branch},
	}
}

// MostSpecific returns the preferred tag out of a desired-tag list.
func MostSpecific(tags []ImageReference) ImageReference {
	if len(tags) == 0 {
		return ImageReference{}
	}
	return tags[len(tags)-1]
}

// ImageSummary describes an image known to the engine, as reported by
// list operations.
type ImageSummary struct {
	ID          string
	Tags        []string
	Size        int64
	LastTagTime time.Time
}
