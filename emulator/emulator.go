// Package emulator declares the contract between the lab runner and a
// network emulator.
package emulator

import (
	"context"
	"os/exec"

	"github.com/yanet-platform/netlab/topology"
)

// Env executes commands inside a single emulated node.
type Env interface {
	// Node returns the node the environment belongs to.
	Node() string
	// Command returns a command that runs inside the node.
	Command(ctx context.Context, name string, args ...string) *exec.Cmd
}

// Hooks are invoked by the emulator for every router node.
type Hooks interface {
	// Start is called once the node's interfaces are up.
	Start(ctx context.Context, node topology.Node, env Env) error
	// Stop is called before the node is torn down.
	Stop(ctx context.Context, node topology.Node) error
}

// Emulator materializes a topology.
//
// Build consumes a finished topology, Start brings every node up and calls
// the start hook of every router, Wait blocks for as long as the lab runs and
// Stop tears everything down. Stop must be safe to call after a failed Build
// or Start.
type Emulator interface {
	Build(ctx context.Context, topo *topology.Topology, hooks Hooks) error
	Start(ctx context.Context) error
	Wait(ctx context.Context) error
	Stop(ctx context.Context) error
}
