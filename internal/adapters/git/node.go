package git

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the graft node id for branch detection.
const NodeID graft.ID = "adapter.git"

func init() {
	graft.Register(graft.Node[Info]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (Info, error) {
			info, err := Detect(ctx, ".")
			if err != nil {
				// Outside a repository every build is branch-local.
				return Info{Branch: "local", MainBranch: "main"}, nil
			}
			return info, nil
		},
	})
}
