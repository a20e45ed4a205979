package netns

import (
	"fmt"

	"github.com/yanet-platform/netlab/topology"
)

// Bridge is the bridge device every switch namespace carries.
const Bridge = "br0"

// LinkPlan is a link with the final interface names of both sides.
type LinkPlan struct {
	Link topology.Link
	IfA  string
	IfB  string
}

// NodePlan is a node with its interfaces in link order.
type NodePlan struct {
	Node       topology.Node
	Interfaces []string
}

// Plan is the interface assignment of a whole topology.
type Plan struct {
	Nodes []NodePlan
	Links []LinkPlan
}

// NewPlan assigns a name to every endpoint that has none.
//
// Switch ports are numbered eth1, eth2 and so on in link order. Other nodes
// get the lowest free ethN, starting from eth0, skipping names declared
// explicitly anywhere in the topology.
func NewPlan(topo *topology.Topology) (*Plan, error) {
	used := map[string]map[string]struct{}{}
	for _, node := range topo.Nodes() {
		used[node.Name] = map[string]struct{}{}
	}
	for _, link := range topo.Links() {
		for _, ep := range []topology.Endpoint{link.A, link.B} {
			if ep.Interface != "" {
				used[ep.Node][ep.Interface] = struct{}{}
			}
		}
	}

	kinds := map[string]topology.Kind{}
	for _, node := range topo.Nodes() {
		kinds[node.Name] = node.Kind
	}

	ports := map[string]int{}
	next := map[string]int{}
	assign := func(ep topology.Endpoint) (string, error) {
		if ep.Interface != "" {
			return ep.Interface, nil
		}
		if kinds[ep.Node] == topology.KindSwitch {
			ports[ep.Node]++
			return fmt.Sprintf("eth%d", ports[ep.Node]), nil
		}
		for idx := next[ep.Node]; idx < 1<<16; idx++ {
			name := fmt.Sprintf("eth%d", idx)
			if _, ok := used[ep.Node][name]; ok {
				continue
			}
			used[ep.Node][name] = struct{}{}
			next[ep.Node] = idx + 1
			return name, nil
		}
		return "", fmt.Errorf("no free interface name on %s", ep.Node)
	}

	plan := &Plan{}
	ifaces := map[string][]string{}
	for _, link := range topo.Links() {
		ifA, err := assign(link.A)
		if err != nil {
			return nil, err
		}
		ifB, err := assign(link.B)
		if err != nil {
			return nil, err
		}
		ifaces[link.A.Node] = append(ifaces[link.A.Node], ifA)
		ifaces[link.B.Node] = append(ifaces[link.B.Node], ifB)
		plan.Links = append(plan.Links, LinkPlan{Link: link, IfA: ifA, IfB: ifB})
	}

	for _, node := range topo.Nodes() {
		plan.Nodes = append(plan.Nodes, NodePlan{Node: node, Interfaces: ifaces[node.Name]})
	}
	return plan, nil
}

// tempNames returns the root namespace names of the idx-th veth pair.
func tempNames(idx int) (string, string) {
	return fmt.Sprintf("nlab%da", idx), fmt.Sprintf("nlab%db", idx)
}
