package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.brick.build/brick/internal/core/ports"
)

// NodeID is the graft node id for the telemetry recorder.
const NodeID graft.ID = "adapter.telemetry"

func init() {
	graft.Register(graft.Node[ports.Telemetry]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Telemetry, error) {
			return New(), nil
		},
	})
}
