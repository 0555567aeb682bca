package pipeline

import (
	"fmt"
	"strings"
	"time"

	"go.brick.build/brick/internal/core/domain"
)

// StageResult describes one completed stage invocation.
type StageResult struct {
	Target string
	Stage  domain.StageName
	// Image is the reference or id the next stage builds on. Empty for
	// absent stages.
	Image    string
	Decision domain.DecisionKind
	// CacheKey is the dependency hash the stage image carries. It is
	// branch-independent, so dependent stages mix it into their own
	// keys instead of a tag name.
	CacheKey string
	// Skipped is set when the manifest omits the stage entirely.
	Skipped  bool
	Duration time.Duration
}

func (r *StageResult) outcome() string {
	if r.Skipped {
		return "absent"
	}
	return r.Decision.String()
}

// Report accumulates per-stage timings over one invocation.
type Report struct {
	results []*StageResult
}

func (r *Report) add(res *StageResult) {
	r.results = append(r.results, res)
}

// Results returns the recorded stage results in execution order.
func (r *Report) Results() []*StageResult {
	return r.results
}

// String renders the timing table, one line per executed stage.
func (r *Report) String() string {
	var b strings.Builder
	for _, res := range r.results {
		if res.Skipped {
			continue
		}
		fmt.Fprintf(&b, "%-40s %-8s %-8s %s\n",
			res.Target, res.Stage, res.outcome(), res.Duration.Round(time.Millisecond))
	}
	return b.String()
}
