package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"go.brick.build/brick/internal/core/ports"
)

// NodeID is the graft node id for the fallback tag store.
const NodeID graft.ID = "adapter.cas"

func init() {
	graft.Register(graft.Node[ports.TagStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.TagStore, error) {
			path, err := DefaultPath()
			if err != nil {
				return nil, err
			}
			return NewStore(path), nil
		},
	})
}
