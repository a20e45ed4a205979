package topology

import (
	"fmt"
)

// RoutersPerArea is the number of routers in every area.
const RoutersPerArea = 4

// PosEdge is the area position of the router facing the first backbone
// link.
const PosEdge = 1

// areaEdges is the router mesh every area must declare: the complete graph
// on four routers minus the 2-3 edge, so that every router pair keeps two
// independent paths.
var areaEdges = [][2]int{
	{2, 4},
	{2, 1},
	{4, 1},
	{4, 3},
	{3, 1},
}

// RouterName returns the name of the router at the given area position.
func RouterName(area int, pos int) string {
	return fmt.Sprintf("R%d%d", area, pos)
}

// ClientName returns the name of the area client.
func ClientName(area int) string {
	return fmt.Sprintf("C%d%d", area, area)
}

// SwitchName returns the name of the area switch.
func SwitchName(area int) string {
	return fmt.Sprintf("S%d%d", area, area)
}

// RouterLink is an intra-area link between two router positions.
type RouterLink struct {
	A   int
	IfA string
	B   int
	IfB string
}

// AreaSpec declares one area: a client behind a switch attached to a gateway
// router, and four meshed routers.
type AreaSpec struct {
	// ID is the area number used in node names.
	ID int
	// Address and Gateway configure the client, both optional.
	Address string
	Gateway string
	// ClientInterface is the client side of the switch-client link.
	ClientInterface string
	// GatewayRouter is the position of the router attached to the switch.
	GatewayRouter int
	// GatewayInterface is the router side of the switch-router link.
	GatewayInterface string
	// Links is the router mesh with interface names on both sides.
	Links []RouterLink
}

// BackboneLink joins routers of two different areas.
type BackboneLink struct {
	AreaA int
	PosA  int
	IfA   string
	AreaB int
	PosB  int
	IfB   string
}

// LabSpec declares a multi-area lab.
type LabSpec struct {
	Name     string
	Areas    []AreaSpec
	Backbone []BackboneLink
}

// Validate checks the structural rules that node and link validation cannot
// see: the router mesh shape, positions and area references.
func (m *LabSpec) Validate() error {
	areas := map[int]struct{}{}
	for _, area := range m.Areas {
		if area.ID <= 0 || area.ID > 9 {
			return fmt.Errorf("%w: area id %d is out of range 1..9", ErrInvalidLink, area.ID)
		}
		if _, ok := areas[area.ID]; ok {
			return fmt.Errorf("%w: area %d is declared twice", ErrDuplicateNode, area.ID)
		}
		areas[area.ID] = struct{}{}

		if !validPosition(area.GatewayRouter) {
			return fmt.Errorf("%w: area %d gateway position %d", ErrInvalidLink, area.ID, area.GatewayRouter)
		}
		if err := validateMesh(area.Links); err != nil {
			return fmt.Errorf("%w: area %d: %v", ErrInvalidLink, area.ID, err)
		}
	}

	for _, link := range m.Backbone {
		if _, ok := areas[link.AreaA]; !ok {
			return fmt.Errorf("%w: backbone references undeclared area %d", ErrUnknownNode, link.AreaA)
		}
		if _, ok := areas[link.AreaB]; !ok {
			return fmt.Errorf("%w: backbone references undeclared area %d", ErrUnknownNode, link.AreaB)
		}
		if link.AreaA == link.AreaB {
			return fmt.Errorf("%w: backbone link inside area %d", ErrInvalidLink, link.AreaA)
		}
		if !validPosition(link.PosA) || !validPosition(link.PosB) {
			return fmt.Errorf("%w: backbone position out of range", ErrInvalidLink)
		}
	}
	return nil
}

func validPosition(pos int) bool {
	return pos >= 1 && pos <= RoutersPerArea
}

func validateMesh(links []RouterLink) error {
	want := map[[2]int]bool{}
	for _, edge := range areaEdges {
		want[normalizeEdge(edge[0], edge[1])] = false
	}

	for _, link := range links {
		edge := normalizeEdge(link.A, link.B)
		seen, ok := want[edge]
		if !ok {
			return fmt.Errorf("unexpected router link %d-%d", link.A, link.B)
		}
		if seen {
			return fmt.Errorf("router link %d-%d is declared twice", link.A, link.B)
		}
		if link.IfA == "" || link.IfB == "" {
			return fmt.Errorf("router link %d-%d must name both interfaces", link.A, link.B)
		}
		want[edge] = true
	}

	for edge, seen := range want {
		if !seen {
			return fmt.Errorf("missing router link %d-%d", edge[0], edge[1])
		}
	}
	return nil
}

func normalizeEdge(a int, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// BuildLab builds the topology declared by a LabSpec.
//
// Per area the order is client, switch, routers by position, then the
// switch links and the router mesh; backbone links come last.
func BuildLab(spec LabSpec, paths PathTemplate) (*Topology, error) {
	if err := spec.Validate(); err != nil {
		return nil, &Error{Topology: spec.Name, Err: err}
	}

	b := NewBuilder(spec.Name, paths)
	for _, area := range spec.Areas {
		client := ClientName(area.ID)
		sw := SwitchName(area.ID)

		b.Client(client, area.Address, area.Gateway)
		b.Switch(sw)
		for pos := 1; pos <= RoutersPerArea; pos++ {
			b.Router(RouterName(area.ID, pos))
		}

		b.Link(On(sw), At(RouterName(area.ID, area.GatewayRouter), area.GatewayInterface))
		b.Link(On(sw), At(client, area.ClientInterface))

		for _, link := range area.Links {
			b.Link(
				At(RouterName(area.ID, link.A), link.IfA),
				At(RouterName(area.ID, link.B), link.IfB),
			)
		}
	}

	for _, link := range spec.Backbone {
		b.Link(
			At(RouterName(link.AreaA, link.PosA), link.IfA),
			At(RouterName(link.AreaB, link.PosB), link.IfB),
		)
	}

	return b.Topology()
}
