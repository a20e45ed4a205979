// Package netns emulates a topology with Linux network namespaces: one
// namespace per node, a bridge inside every switch namespace and a veth
// pair per link.
package netns

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/vishvananda/netlink"
	vns "github.com/vishvananda/netns"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/yanet-platform/netlab/common/go/xnetip"
	"github.com/yanet-platform/netlab/emulator"
	"github.com/yanet-platform/netlab/topology"
)

type options struct {
	Log *zap.SugaredLogger
}

func newOptions() *options {
	return &options{
		Log: zap.NewNop().Sugar(),
	}
}

// Option is a function that configures the emulator.
type Option func(*options)

// WithLog sets the logger.
func WithLog(log *zap.SugaredLogger) Option {
	return func(o *options) {
		o.Log = log
	}
}

type namespace struct {
	name string
	ns   vns.NsHandle
	nl   *netlink.Handle
}

// Emulator is a network namespace emulator.
type Emulator struct {
	cfg   *Config
	log   *zap.SugaredLogger
	mu    sync.Mutex
	plan  *Plan
	hooks emulator.Hooks
	// nodes holds the created namespaces in creation order.
	nodes   []*namespace
	byName  map[string]*namespace
	started []topology.Node
}

// New creates a network namespace emulator.
func New(cfg *Config, options ...Option) *Emulator {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	return &Emulator{
		cfg:    cfg,
		log:    opts.Log,
		byName: map[string]*namespace{},
	}
}

// Build creates the namespaces, bridges and veth pairs of the topology.
func (m *Emulator) Build(ctx context.Context, topo *topology.Topology, hooks emulator.Hooks) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if unix.Geteuid() != 0 {
		return fmt.Errorf("network namespaces require root privileges")
	}

	plan, err := NewPlan(topo)
	if err != nil {
		return fmt.Errorf("failed to assign interfaces: %w", err)
	}
	m.plan = plan
	m.hooks = hooks

	startedAt := time.Now()
	for _, node := range plan.Nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.createNamespace(node.Node); err != nil {
			return err
		}
	}

	for idx, link := range plan.Links {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.wire(idx, link); err != nil {
			return fmt.Errorf("failed to wire %s: %w", link.Link, err)
		}
	}

	for _, node := range plan.Nodes {
		if node.Node.Kind != topology.KindClient {
			continue
		}
		if err := m.configureClient(node); err != nil {
			return fmt.Errorf("failed to configure %s: %w", node.Node.Name, err)
		}
	}

	m.log.Infow("built network",
		zap.Int("namespaces", len(m.nodes)),
		zap.Int("links", len(plan.Links)),
		zap.Duration("took", time.Since(startedAt)),
	)
	return nil
}

func (m *Emulator) createNamespace(node topology.Node) error {
	name := m.cfg.Namespace(node.Name)

	// NewNamed moves the calling thread into the new namespace.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	origin, err := vns.Get()
	if err != nil {
		return fmt.Errorf("failed to get current namespace: %w", err)
	}
	defer origin.Close()

	if m.cfg.ReplaceStale {
		if err := vns.DeleteNamed(name); err == nil {
			m.log.Warnw("removed stale namespace", zap.String("namespace", name))
		}
	}

	handle, err := vns.NewNamed(name)
	if setErr := vns.Set(origin); setErr != nil {
		return fmt.Errorf("failed to restore namespace: %w", setErr)
	}
	if err != nil {
		return fmt.Errorf("failed to create namespace %s: %w", name, err)
	}

	nl, err := netlink.NewHandleAt(handle)
	if err != nil {
		handle.Close()
		return multierr.Append(
			fmt.Errorf("failed to open netlink in %s: %w", name, err),
			vns.DeleteNamed(name),
		)
	}

	ns := &namespace{name: name, ns: handle, nl: nl}
	m.nodes = append(m.nodes, ns)
	m.byName[node.Name] = ns

	if err := setUp(nl, "lo"); err != nil {
		return fmt.Errorf("failed to bring loopback up in %s: %w", name, err)
	}
	if node.Kind == topology.KindSwitch {
		bridge := &netlink.Bridge{LinkAttrs: netlink.LinkAttrs{Name: Bridge}}
		if err := nl.LinkAdd(bridge); err != nil {
			return fmt.Errorf("failed to create bridge in %s: %w", name, err)
		}
		if err := setUp(nl, Bridge); err != nil {
			return fmt.Errorf("failed to bring bridge up in %s: %w", name, err)
		}
	}

	m.log.Debugw("created namespace", zap.String("node", node.Name), zap.String("namespace", name))
	return nil
}

func (m *Emulator) wire(idx int, plan LinkPlan) error {
	tmpA, tmpB := tempNames(idx)
	veth := &netlink.Veth{
		LinkAttrs: netlink.LinkAttrs{Name: tmpA, MTU: m.cfg.MTU},
		PeerName:  tmpB,
	}
	if err := netlink.LinkAdd(veth); err != nil {
		return fmt.Errorf("failed to create veth pair: %w", err)
	}

	sides := []struct {
		tmp   string
		node  string
		iface string
	}{
		{tmp: tmpA, node: plan.Link.A.Node, iface: plan.IfA},
		{tmp: tmpB, node: plan.Link.B.Node, iface: plan.IfB},
	}
	for _, side := range sides {
		if err := m.attach(side.tmp, side.node, side.iface); err != nil {
			return err
		}
	}

	m.log.Debugw("wired link",
		zap.String("a", plan.Link.A.Node+":"+plan.IfA),
		zap.String("b", plan.Link.B.Node+":"+plan.IfB),
	)
	return nil
}

func (m *Emulator) attach(tmp string, node string, iface string) error {
	ns, ok := m.byName[node]
	if !ok {
		return fmt.Errorf("no namespace for %s", node)
	}

	link, err := netlink.LinkByName(tmp)
	if err != nil {
		return fmt.Errorf("failed to find %s: %w", tmp, err)
	}
	if err := netlink.LinkSetNsFd(link, int(ns.ns)); err != nil {
		return fmt.Errorf("failed to move %s into %s: %w", tmp, ns.name, err)
	}

	link, err = ns.nl.LinkByName(tmp)
	if err != nil {
		return fmt.Errorf("failed to find %s in %s: %w", tmp, ns.name, err)
	}
	if err := ns.nl.LinkSetName(link, iface); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", tmp, iface, err)
	}

	if bridge, err := ns.nl.LinkByName(Bridge); err == nil {
		if err := ns.nl.LinkSetMaster(link, bridge); err != nil {
			return fmt.Errorf("failed to attach %s to the bridge: %w", iface, err)
		}
	}

	return setUp(ns.nl, iface)
}

func (m *Emulator) configureClient(plan NodePlan) error {
	node := plan.Node
	if !node.Address.IsValid() {
		return nil
	}
	if len(plan.Interfaces) == 0 {
		return fmt.Errorf("client has an address but no links")
	}

	ns := m.byName[node.Name]
	link, err := ns.nl.LinkByName(plan.Interfaces[0])
	if err != nil {
		return err
	}
	if err := ns.nl.AddrAdd(link, &netlink.Addr{IPNet: xnetip.IPNet(node.Address)}); err != nil {
		return fmt.Errorf("failed to add address %s: %w", node.Address, err)
	}

	if node.Gateway.IsValid() {
		route := &netlink.Route{
			LinkIndex: link.Attrs().Index,
			Gw:        xnetip.IP(node.Gateway),
		}
		if err := ns.nl.RouteAdd(route); err != nil {
			return fmt.Errorf("failed to add default route via %s: %w", node.Gateway, err)
		}
	}
	return nil
}

func setUp(nl *netlink.Handle, name string) error {
	link, err := nl.LinkByName(name)
	if err != nil {
		return err
	}
	return nl.LinkSetUp(link)
}

// Start calls the start hook of every router in declaration order.
func (m *Emulator) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.plan == nil {
		return fmt.Errorf("network is not built")
	}

	for _, node := range m.plan.Nodes {
		if !node.Node.IsRouter() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		// Stop must undo a partially successful start hook as well.
		m.started = append(m.started, node.Node)
		if err := m.hooks.Start(ctx, node.Node, m.Env(node.Node.Name)); err != nil {
			return err
		}
	}
	return nil
}

// Wait blocks until the context is canceled. The network has no way to
// finish on its own.
func (m *Emulator) Wait(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// Stop calls the stop hook of every started router and removes every
// namespace, in reverse order.
func (m *Emulator) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs error
	for _, node := range slices.Backward(m.started) {
		errs = multierr.Append(errs, m.hooks.Stop(ctx, node))
	}
	m.started = nil

	for _, ns := range slices.Backward(m.nodes) {
		ns.nl.Delete()
		if err := ns.ns.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to close %s: %w", ns.name, err))
		}
		if err := vns.DeleteNamed(ns.name); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to delete %s: %w", ns.name, err))
		}
	}
	m.nodes = nil
	m.byName = map[string]*namespace{}

	// Veth pairs not yet moved into a namespace stay in the root one.
	if m.plan != nil {
		for idx := range m.plan.Links {
			tmpA, _ := tempNames(idx)
			link, err := netlink.LinkByName(tmpA)
			if err != nil {
				var notFound netlink.LinkNotFoundError
				if !errors.As(err, &notFound) {
					errs = multierr.Append(errs, err)
				}
				continue
			}
			errs = multierr.Append(errs, netlink.LinkDel(link))
		}
	}
	m.plan = nil

	return errs
}

// Env returns the execution environment of a node.
func (m *Emulator) Env(node string) emulator.Env {
	return NewEnv(m.cfg, node)
}

type nodeEnv struct {
	node string
	ns   string
	ip   string
}

// NewEnv returns an environment running commands inside the namespace of
// the named node with "ip netns exec".
func NewEnv(cfg *Config, node string) emulator.Env {
	return nodeEnv{
		node: node,
		ns:   cfg.Namespace(node),
		ip:   cfg.IPCommand,
	}
}

func (m nodeEnv) Node() string {
	return m.node
}

func (m nodeEnv) Command(ctx context.Context, name string, args ...string) *exec.Cmd {
	argv := append([]string{"netns", "exec", m.ns, name}, args...)
	return exec.CommandContext(ctx, m.ip, argv...)
}
