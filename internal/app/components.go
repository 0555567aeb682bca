package app

import (
	"go.brick.build/brick/internal/core/ports"
)

// Components are the initialized application pieces the CLI layer may
// touch.
type Components struct {
	App       *App
	Logger    ports.Logger
	Telemetry ports.Telemetry
	// SetVerbose toggles debug logging at runtime.
	SetVerbose func(on bool)
}
