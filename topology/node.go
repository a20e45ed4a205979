package topology

import (
	"fmt"
	"net/netip"
	"path/filepath"
	"strings"
)

// Kind is the kind of a lab node.
type Kind uint8

const (
	// KindClient is an end host attached to an area switch.
	KindClient Kind = iota + 1
	// KindSwitch is an L2 switch joining a client with its gateway router.
	KindSwitch
	// KindRouter is a router running the routing-daemon suite.
	KindRouter
)

func (m Kind) String() string {
	switch m {
	case KindClient:
		return "client"
	case KindSwitch:
		return "switch"
	case KindRouter:
		return "router"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(m))
	}
}

// Valid reports whether the kind is one of the declared kinds.
func (m Kind) Valid() bool {
	return m >= KindClient && m <= KindRouter
}

// NameToken is substituted with the node name when a PathTemplate is
// resolved.
const NameToken = "%name%"

// PathTemplate is a filesystem path containing NameToken, for example
// "config_ospf_lab/%name%".
type PathTemplate string

// NewPathTemplate returns the template placing every node directory right
// under the given base directory.
func NewPathTemplate(baseDir string) PathTemplate {
	return PathTemplate(filepath.Join(baseDir, NameToken))
}

// Resolve returns the path bound to the named node.
func (m PathTemplate) Resolve(name string) string {
	return filepath.Clean(strings.ReplaceAll(string(m), NameToken, name))
}

// Base returns the top-level directory holding every node directory.
func (m PathTemplate) Base() string {
	return m.Resolve("")
}

// Validate checks that the template is usable.
func (m PathTemplate) Validate() error {
	if strings.TrimSpace(string(m)) == "" {
		return fmt.Errorf("path template is empty")
	}
	if !strings.Contains(string(m), NameToken) {
		return fmt.Errorf("path template %q does not contain %s", string(m), NameToken)
	}
	return nil
}

// Node is a build-time descriptor of a lab node.
type Node struct {
	// Name is unique across the topology.
	Name string
	// Kind is the node kind.
	Kind Kind
	// ConfigDir is the private configuration directory of a router, empty
	// for other kinds.
	ConfigDir string
	// Address is the client interface address, zero if unset.
	Address netip.Prefix
	// Gateway is the client default route next hop, zero if unset.
	Gateway netip.Addr
}

// IsRouter reports whether the node is a router.
func (m Node) IsRouter() bool {
	return m.Kind == KindRouter
}

// Endpoint is one side of a link.
type Endpoint struct {
	// Node is the node name.
	Node string
	// Interface is the local interface name. Empty means the emulator
	// derives it.
	Interface string
}

// At returns an endpoint on the named node with an explicit interface.
func At(node string, iface string) Endpoint {
	return Endpoint{Node: node, Interface: iface}
}

// On returns an endpoint on the named node with an emulator-derived
// interface name.
func On(node string) Endpoint {
	return Endpoint{Node: node}
}

func (m Endpoint) String() string {
	if m.Interface == "" {
		return m.Node
	}
	return m.Node + ":" + m.Interface
}

// Link is an unordered pair of endpoints.
type Link struct {
	A Endpoint
	B Endpoint
}

func (m Link) String() string {
	return m.A.String() + " -- " + m.B.String()
}

// Has reports whether the link touches the named node.
func (m Link) Has(node string) bool {
	return m.A.Node == node || m.B.Node == node
}

// Peer returns the endpoint on the other side of the named node.
func (m Link) Peer(node string) (Endpoint, bool) {
	switch node {
	case m.A.Node:
		return m.B, true
	case m.B.Node:
		return m.A, true
	default:
		return Endpoint{}, false
	}
}
