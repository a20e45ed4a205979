package lab

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/yanet-platform/netlab/emulator"
	"github.com/yanet-platform/netlab/topology"
)

// Handle identifies the daemons started for a router. It is opaque to the
// hooks.
type Handle = any

// Daemons starts and stops the routing-daemon suite of a router.
type Daemons interface {
	// Start launches the daemons inside env, reading their configuration
	// from configDir.
	Start(ctx context.Context, env emulator.Env, node topology.Node, configDir string) (Handle, error)
	// Stop terminates the daemons started with the given handle.
	Stop(ctx context.Context, handle Handle) error
}

// HooksConfig configures the router start hook.
type HooksConfig struct {
	// Sysctls are applied inside every router before the daemons start.
	Sysctls map[string]string `yaml:"sysctls"`
}

func DefaultHooksConfig() HooksConfig {
	return HooksConfig{
		Sysctls: map[string]string{
			"net.ipv4.ip_forward": "1",
		},
	}
}

// RouterHooks turns an emulated node into a router: it enables forwarding
// and runs the routing daemons against the node's configuration directory.
type RouterHooks struct {
	sysctls []string
	daemons Daemons
	mu      sync.Mutex
	handles map[string]Handle
	log     *zap.SugaredLogger
}

// NewRouterHooks creates router hooks.
func NewRouterHooks(cfg HooksConfig, daemons Daemons, options ...Option) *RouterHooks {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	sysctls := make([]string, 0, len(cfg.Sysctls))
	for _, key := range slices.Sorted(maps.Keys(cfg.Sysctls)) {
		sysctls = append(sysctls, key+"="+cfg.Sysctls[key])
	}

	return &RouterHooks{
		sysctls: sysctls,
		daemons: daemons,
		handles: map[string]Handle{},
		log:     opts.Log,
	}
}

// Start implements emulator.Hooks.
func (m *RouterHooks) Start(ctx context.Context, node topology.Node, env emulator.Env) error {
	if !node.IsRouter() {
		return nil
	}

	for _, sysctl := range m.sysctls {
		out, err := env.Command(ctx, "sysctl", "-w", sysctl).CombinedOutput()
		if err != nil {
			return fmt.Errorf("failed to set %s on %s: %w: %s", sysctl, node.Name, err, strings.TrimSpace(string(out)))
		}
	}

	handle, err := m.daemons.Start(ctx, env, node, node.ConfigDir)
	if err != nil {
		return fmt.Errorf("failed to start daemons on %s: %w", node.Name, err)
	}

	m.mu.Lock()
	m.handles[node.Name] = handle
	m.mu.Unlock()

	m.log.Infow("started router", zap.String("node", node.Name), zap.String("config_dir", node.ConfigDir))
	return nil
}

// Stop implements emulator.Hooks. Stopping a router that was never started
// is a no-op.
func (m *RouterHooks) Stop(ctx context.Context, node topology.Node) error {
	m.mu.Lock()
	handle, ok := m.handles[node.Name]
	delete(m.handles, node.Name)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	if err := m.daemons.Stop(ctx, handle); err != nil {
		return fmt.Errorf("failed to stop daemons on %s: %w", node.Name, err)
	}

	m.log.Infow("stopped router", zap.String("node", node.Name))
	return nil
}
