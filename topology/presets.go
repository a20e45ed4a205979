package topology

import (
	"fmt"
	"sort"
)

// Preset is a named, ready-made topology.
type Preset struct {
	// Name is used to select the preset on the command line.
	Name string
	// Description is a one-line human readable summary.
	Description string
	// Build builds the topology binding routers to the given path template.
	Build func(paths PathTemplate) (*Topology, error)
}

var presets = map[string]Preset{
	"ospf": {
		Name:        "ospf",
		Description: "three OSPF areas of four routers joined by a backbone ring",
		Build: func(paths PathTemplate) (*Topology, error) {
			return BuildLab(OSPFLab(), paths)
		},
	},
	"static": {
		Name:        "static",
		Description: "two routers with one host each, for static routing",
		Build:       StaticLab,
	},
}

// DefaultPreset is the preset used when none is selected.
const DefaultPreset = "ospf"

// LookupPreset returns the preset with the given name.
func LookupPreset(name string) (Preset, error) {
	preset, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown topology %q, expected one of %v", name, PresetNames())
	}
	return preset, nil
}

// PresetNames returns the sorted preset names.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OSPFLab returns the three-area OSPF lab.
//
// Interface names are referenced by the routers' FRR configuration and must
// not change.
func OSPFLab() LabSpec {
	return LabSpec{
		Name: "ospf",
		Areas: []AreaSpec{
			{
				ID:               1,
				Address:          "172.16.1.2/24",
				Gateway:          "172.16.1.1",
				ClientInterface:  "eth1",
				GatewayRouter:    2,
				GatewayInterface: "eth2",
				Links: []RouterLink{
					{A: 2, IfA: "eth0", B: 4, IfB: "eth0"},
					{A: 2, IfA: "eth1", B: 1, IfB: "eth1"},
					{A: 4, IfA: "eth3", B: 1, IfB: "eth3"},
					{A: 4, IfA: "eth1", B: 3, IfB: "eth1"},
					{A: 3, IfA: "eth0", B: 1, IfB: "eth0"},
				},
			},
			{
				ID:               2,
				Address:          "172.17.1.2/24",
				Gateway:          "172.17.1.1",
				ClientInterface:  "eth1",
				GatewayRouter:    1,
				GatewayInterface: "eth2",
				Links: []RouterLink{
					{A: 2, IfA: "eth1", B: 1, IfB: "eth1"},
					{A: 2, IfA: "eth0", B: 4, IfB: "eth0"},
					{A: 4, IfA: "eth3", B: 1, IfB: "eth3"},
					{A: 4, IfA: "eth1", B: 3, IfB: "eth1"},
					{A: 3, IfA: "eth0", B: 1, IfB: "eth0"},
				},
			},
			{
				ID:               3,
				Address:          "172.18.1.2/24",
				Gateway:          "172.18.1.1",
				ClientInterface:  "eth1",
				GatewayRouter:    3,
				GatewayInterface: "eth2",
				Links: []RouterLink{
					{A: 2, IfA: "eth0", B: 1, IfB: "eth0"},
					{A: 2, IfA: "eth1", B: 4, IfB: "eth1"},
					{A: 4, IfA: "eth3", B: 1, IfB: "eth3"},
					{A: 4, IfA: "eth0", B: 3, IfB: "eth0"},
					{A: 3, IfA: "eth1", B: 1, IfB: "eth1"},
				},
			},
		},
		Backbone: []BackboneLink{
			{AreaA: 1, PosA: PosEdge, IfA: "eth2", AreaB: 3, PosB: PosEdge, IfB: "eth2"},
			{AreaA: 3, PosA: 4, IfA: "eth2", AreaB: 2, PosB: 3, IfB: "eth2"},
			{AreaA: 1, PosA: 4, IfA: "eth2", AreaB: 2, PosB: 2, IfB: "eth2"},
		},
	}
}

// StaticLab builds the two-router lab: h1 - r1 - r2 - h2.
//
// Interface names are left to the emulator.
func StaticLab(paths PathTemplate) (*Topology, error) {
	return NewBuilder("static", paths).
		Router("r1").
		Router("r2").
		Client("h1", "192.168.1.2/24", "192.168.1.1").
		Client("h2", "192.168.2.2/24", "192.168.2.1").
		Link(On("h1"), On("r1")).
		Link(On("h2"), On("r2")).
		Link(On("r1"), On("r2")).
		Topology()
}
