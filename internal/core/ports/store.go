package ports

// TagStore is the file-backed fallback cache mapping an image tag to
// the dependency hash it was last built from. It is only consulted when
// the engine cannot answer label queries; the label-based design is
// preferred.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type TagStore interface {
	// GetHash returns the recorded dependency hash for a tag, or false
	// when the tag has no record.
	GetHash(tag string) (string, bool, error)

	// SaveBuild records the dependency hash a tag was built from.
	SaveBuild(tag, dependencyHash string) error
}
