package app

import (
	"context"

	"github.com/grindlemire/graft"

	"go.brick.build/brick/internal/adapters/cas"       //nolint:depguard // wired in app layer
	"go.brick.build/brick/internal/adapters/config"    //nolint:depguard // wired in app layer
	"go.brick.build/brick/internal/adapters/docker"    //nolint:depguard // wired in app layer
	"go.brick.build/brick/internal/adapters/fs"        //nolint:depguard // wired in app layer
	"go.brick.build/brick/internal/adapters/git"       //nolint:depguard // wired in app layer
	"go.brick.build/brick/internal/adapters/logger"    //nolint:depguard // wired in app layer
	"go.brick.build/brick/internal/adapters/telemetry" //nolint:depguard // wired in app layer
	"go.brick.build/brick/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the components graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			fs.WalkerNodeID,
			fs.ResolverNodeID,
			fs.HasherNodeID,
			docker.NodeID,
			cas.NodeID,
			logger.NodeID,
			telemetry.NodeID,
			git.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			telemetry.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[*logger.Logger](ctx)
			if err != nil {
				return nil, err
			}
			tel, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: a, Logger: log, Telemetry: tel, SetVerbose: log.SetVerbose}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	walker, err := graft.Dep[*fs.Walker](ctx)
	if err != nil {
		return nil, err
	}
	resolver, err := graft.Dep[ports.InputResolver](ctx)
	if err != nil {
		return nil, err
	}
	hasher, err := graft.Dep[ports.Hasher](ctx)
	if err != nil {
		return nil, err
	}
	engine, err := graft.Dep[ports.ImageEngine](ctx)
	if err != nil {
		return nil, err
	}
	store, err := graft.Dep[ports.TagStore](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[*logger.Logger](ctx)
	if err != nil {
		return nil, err
	}
	tel, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}
	info, err := graft.Dep[git.Info](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, resolver, hasher, engine, store, walker, log, tel, info), nil
}
