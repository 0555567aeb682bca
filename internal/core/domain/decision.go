package domain

// DecisionKind enumerates the outcomes of a cache resolution.
type DecisionKind int

const (
	// DecisionBuild means the caller must invoke the engine to build fresh.
	DecisionBuild DecisionKind = iota
	// DecisionSkip means every desired tag already carries the cache key.
	DecisionSkip
	// DecisionPromote means an existing image with the same cache key can
	// be re-tagged instead of rebuilt.
	DecisionPromote
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionSkip:
		return "skip"
	case DecisionPromote:
		return "promote"
	default:
		return "build"
	}
}

// Decision is the result of resolving a cache key against the engine's
// image metadata.
type Decision struct {
	Kind DecisionKind
	// Tag is the most specific desired tag (Skip).
	Tag ImageReference
	// From is the image to re-tag (Promote).
	From ImageReference
}
