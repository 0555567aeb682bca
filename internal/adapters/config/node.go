package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.brick.build/brick/internal/core/ports"
)

// NodeID is the graft node id for the manifest loader.
const NodeID graft.ID = "adapter.config"

func init() {
	graft.Register(graft.Node[ports.ConfigLoader]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ConfigLoader, error) {
			return NewLoader(), nil
		},
	})
}
