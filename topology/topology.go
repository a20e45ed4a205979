package topology

import (
	"fmt"
	"strings"
	"unicode"
)

// maxInterfaceName is the Linux interface name limit (IFNAMSIZ - 1).
const maxInterfaceName = 15

// Topology is a validated set of nodes and links.
//
// Nodes and links keep their declaration order, which is the order the
// emulator builds them in.
type Topology struct {
	name   string
	nodes  []Node
	index  map[string]int
	links  []Link
	ifaces map[string]map[string]struct{}
}

// New creates an empty topology.
func New(name string) *Topology {
	return &Topology{
		name:   name,
		index:  map[string]int{},
		ifaces: map[string]map[string]struct{}{},
	}
}

// Name returns the topology name.
func (m *Topology) Name() string {
	return m.name
}

// AddNode declares a node.
func (m *Topology) AddNode(node Node) error {
	if err := validateNodeName(node.Name); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidNode, err)
	}
	if !node.Kind.Valid() {
		return fmt.Errorf("%w: %q has unknown kind %s", ErrInvalidNode, node.Name, node.Kind)
	}
	if _, ok := m.index[node.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, node.Name)
	}

	switch {
	case node.IsRouter() && node.ConfigDir == "":
		return fmt.Errorf("%w: router %q has no configuration directory", ErrInvalidNode, node.Name)
	case !node.IsRouter() && node.ConfigDir != "":
		return fmt.Errorf("%w: %s %q cannot have a configuration directory", ErrInvalidNode, node.Kind, node.Name)
	}
	if node.Kind != KindClient && (node.Address.IsValid() || node.Gateway.IsValid()) {
		return fmt.Errorf("%w: only clients carry addresses, %q is a %s", ErrInvalidNode, node.Name, node.Kind)
	}
	if node.Gateway.IsValid() && node.Address.IsValid() && !node.Address.Masked().Contains(node.Gateway) {
		return fmt.Errorf("%w: gateway %s of %q is outside %s", ErrInvalidNode, node.Gateway, node.Name, node.Address)
	}

	m.index[node.Name] = len(m.nodes)
	m.nodes = append(m.nodes, node)
	m.ifaces[node.Name] = map[string]struct{}{}
	return nil
}

// AddLink declares a link between two declared nodes.
func (m *Topology) AddLink(a Endpoint, b Endpoint) error {
	if a.Node == b.Node {
		return fmt.Errorf("%w: %s loops back to itself", ErrInvalidLink, Link{A: a, B: b})
	}
	for _, ep := range []Endpoint{a, b} {
		if err := m.checkEndpoint(ep); err != nil {
			return err
		}
	}
	for _, ep := range []Endpoint{a, b} {
		if ep.Interface != "" {
			m.ifaces[ep.Node][ep.Interface] = struct{}{}
		}
	}
	m.links = append(m.links, Link{A: a, B: b})
	return nil
}

func (m *Topology) checkEndpoint(ep Endpoint) error {
	idx, ok := m.index[ep.Node]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, ep.Node)
	}
	if ep.Interface == "" {
		return nil
	}

	node := m.nodes[idx]
	if node.Kind == KindSwitch {
		return fmt.Errorf(
			"%w: switch %q interface names are derived by the emulator, got %q",
			ErrInvalidInterface, node.Name, ep.Interface,
		)
	}
	if err := validateInterfaceName(ep.Interface); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidInterface, ep, err)
	}
	if _, ok := m.ifaces[ep.Node][ep.Interface]; ok {
		return fmt.Errorf("%w: %s is already in use", ErrInvalidInterface, ep)
	}
	return nil
}

// Node returns the named node.
func (m *Topology) Node(name string) (Node, bool) {
	idx, ok := m.index[name]
	if !ok {
		return Node{}, false
	}
	return m.nodes[idx], true
}

// Nodes returns all nodes in declaration order.
func (m *Topology) Nodes() []Node {
	out := make([]Node, len(m.nodes))
	copy(out, m.nodes)
	return out
}

// NodesOf returns the nodes of the given kind in declaration order.
func (m *Topology) NodesOf(kind Kind) []Node {
	out := []Node{}
	for _, node := range m.nodes {
		if node.Kind == kind {
			out = append(out, node)
		}
	}
	return out
}

// Routers returns the router nodes in declaration order.
func (m *Topology) Routers() []Node {
	return m.NodesOf(KindRouter)
}

// Links returns all links in declaration order.
func (m *Topology) Links() []Link {
	out := make([]Link, len(m.links))
	copy(out, m.links)
	return out
}

// LinksOf returns the links touching the named node.
func (m *Topology) LinksOf(name string) []Link {
	out := []Link{}
	for _, link := range m.links {
		if link.Has(name) {
			out = append(out, link)
		}
	}
	return out
}

func validateNodeName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("empty node name")
	case name == "." || name == "..":
		return fmt.Errorf("node name %q is reserved", name)
	case strings.ContainsAny(name, `/\`+"\x00"):
		return fmt.Errorf("node name %q contains a path separator", name)
	case strings.ContainsFunc(name, unicode.IsSpace):
		return fmt.Errorf("node name %q contains whitespace", name)
	}
	return nil
}

func validateInterfaceName(name string) error {
	switch {
	case len(name) > maxInterfaceName:
		return fmt.Errorf("name is longer than %d bytes", maxInterfaceName)
	case name == "." || name == "..":
		return fmt.Errorf("name is reserved")
	case strings.ContainsAny(name, "/:\x00"):
		return fmt.Errorf("name contains a forbidden character")
	case strings.ContainsFunc(name, unicode.IsSpace):
		return fmt.Errorf("name contains whitespace")
	}
	return nil
}
