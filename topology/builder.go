package topology

import (
	"fmt"
	"net/netip"
)

// Builder declares a topology node by node.
//
// The first failure is sticky: later calls become no-ops and Topology
// reports it, so that declarations read as a flat list.
type Builder struct {
	topo  *Topology
	paths PathTemplate
	err   error
}

// NewBuilder starts a topology whose routers get their configuration
// directories from the given path template.
func NewBuilder(name string, paths PathTemplate) *Builder {
	b := &Builder{
		topo:  New(name),
		paths: paths,
	}
	if err := paths.Validate(); err != nil {
		b.err = fmt.Errorf("%w: %v", ErrInvalidNode, err)
	}
	return b
}

// Client declares an end host. Address and gateway may be empty.
func (m *Builder) Client(name string, address string, gateway string) *Builder {
	if m.err != nil {
		return m
	}

	node := Node{Name: name, Kind: KindClient}
	if address != "" {
		prefix, err := netip.ParsePrefix(address)
		if err != nil {
			m.err = fmt.Errorf("%w: client %q: %v", ErrInvalidNode, name, err)
			return m
		}
		node.Address = prefix
	}
	if gateway != "" {
		addr, err := netip.ParseAddr(gateway)
		if err != nil {
			m.err = fmt.Errorf("%w: client %q: %v", ErrInvalidNode, name, err)
			return m
		}
		node.Gateway = addr
	}

	m.err = m.topo.AddNode(node)
	return m
}

// Switch declares an L2 switch.
func (m *Builder) Switch(name string) *Builder {
	if m.err != nil {
		return m
	}
	m.err = m.topo.AddNode(Node{Name: name, Kind: KindSwitch})
	return m
}

// Router declares a router bound to its configuration directory.
func (m *Builder) Router(name string) *Builder {
	if m.err != nil {
		return m
	}
	m.err = m.topo.AddNode(Node{
		Name:      name,
		Kind:      KindRouter,
		ConfigDir: m.paths.Resolve(name),
	})
	return m
}

// Link declares a link between two endpoints.
func (m *Builder) Link(a Endpoint, b Endpoint) *Builder {
	if m.err != nil {
		return m
	}
	m.err = m.topo.AddLink(a, b)
	return m
}

// Topology returns the built topology or the first construction error.
func (m *Builder) Topology() (*Topology, error) {
	if m.err != nil {
		return nil, &Error{Topology: m.topo.Name(), Err: m.err}
	}
	return m.topo, nil
}
