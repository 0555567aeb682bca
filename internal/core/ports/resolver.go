package ports

// InputResolver expands declared input patterns into concrete files.
//
//go:generate go run go.uber.org/mock/mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type InputResolver interface {
	// ResolveInputs brace-expands then glob-expands each pattern
	// relative to root/target. Results are workspace-relative, sorted
	// and deduplicated. A pattern matching nothing is
	// domain.ErrNoMatch naming the pattern and target.
	ResolveInputs(root, target string, patterns []string) ([]string, error)

	// ExpandBraces performs bash-style brace expansion on a single
	// pattern without touching the filesystem.
	ExpandBraces(pattern string) []string
}
