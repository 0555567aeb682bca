package docker

import (
	"context"

	"github.com/grindlemire/graft"
	"go.brick.build/brick/internal/adapters/logger" //nolint:depguard // wired in adapter node
	"go.brick.build/brick/internal/core/ports"
)

// NodeID is the graft node id for the docker engine.
const NodeID graft.ID = "adapter.docker"

func init() {
	graft.Register(graft.Node[ports.ImageEngine]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.ImageEngine, error) {
			log, err := graft.Dep[*logger.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewEngine(log), nil
		},
	})
}
