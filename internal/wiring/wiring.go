// Package wiring registers all graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.brick.build/brick/internal/adapters/cas"
	_ "go.brick.build/brick/internal/adapters/config"
	_ "go.brick.build/brick/internal/adapters/docker"
	_ "go.brick.build/brick/internal/adapters/fs"
	_ "go.brick.build/brick/internal/adapters/git"
	_ "go.brick.build/brick/internal/adapters/logger"
	_ "go.brick.build/brick/internal/adapters/telemetry"
	// Register app nodes.
	_ "go.brick.build/brick/internal/app"
)
