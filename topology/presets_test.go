package topology

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func buildOSPF(t *testing.T) *Topology {
	t.Helper()

	topo, err := BuildLab(OSPFLab(), NewPathTemplate("config_ospf_lab"))
	require.NoError(t, err)
	return topo
}

func TestOSPFLabNodes(t *testing.T) {
	topo := buildOSPF(t)

	require.Len(t, topo.Nodes(), 18)
	require.Len(t, topo.NodesOf(KindClient), 3)
	require.Len(t, topo.NodesOf(KindSwitch), 3)
	require.Len(t, topo.Routers(), 12)

	names := []string{}
	for _, node := range topo.Nodes() {
		names = append(names, node.Name)
	}
	expected := []string{
		"C11", "S11", "R11", "R12", "R13", "R14",
		"C22", "S22", "R21", "R22", "R23", "R24",
		"C33", "S33", "R31", "R32", "R33", "R34",
	}
	if diff := cmp.Diff(expected, names); diff != "" {
		t.Fatalf("unexpected node order (-want +got):\n%s", diff)
	}

	for _, router := range topo.Routers() {
		require.Equal(t, "config_ospf_lab/"+router.Name, router.ConfigDir)
	}

	c22, ok := topo.Node("C22")
	require.True(t, ok)
	require.Equal(t, "172.17.1.2/24", c22.Address.String())
	require.Equal(t, "172.17.1.1", c22.Gateway.String())
}

// The routers' FRR configuration references these interfaces, so the
// wiring must stay exactly as declared.
func TestOSPFLabInterfacesAreStable(t *testing.T) {
	topo := buildOSPF(t)

	links := []string{}
	for _, link := range topo.Links() {
		links = append(links, link.String())
	}

	expected := []string{
		"S11 -- R12:eth2",
		"S11 -- C11:eth1",
		"R12:eth0 -- R14:eth0",
		"R12:eth1 -- R11:eth1",
		"R14:eth3 -- R11:eth3",
		"R14:eth1 -- R13:eth1",
		"R13:eth0 -- R11:eth0",
		"S22 -- R21:eth2",
		"S22 -- C22:eth1",
		"R22:eth1 -- R21:eth1",
		"R22:eth0 -- R24:eth0",
		"R24:eth3 -- R21:eth3",
		"R24:eth1 -- R23:eth1",
		"R23:eth0 -- R21:eth0",
		"S33 -- R33:eth2",
		"S33 -- C33:eth1",
		"R32:eth0 -- R31:eth0",
		"R32:eth1 -- R34:eth1",
		"R34:eth3 -- R31:eth3",
		"R34:eth0 -- R33:eth0",
		"R33:eth1 -- R31:eth1",
		"R11:eth2 -- R31:eth2",
		"R34:eth2 -- R23:eth2",
		"R14:eth2 -- R22:eth2",
	}
	if diff := cmp.Diff(expected, links); diff != "" {
		t.Fatalf("unexpected links (-want +got):\n%s", diff)
	}

	// Rebuilding yields the same wiring.
	again := buildOSPF(t)
	require.Equal(t, topo.Links(), again.Links())
}

func TestOSPFLabConnectivity(t *testing.T) {
	topo := buildOSPF(t)
	graph := topo.Graph()

	require.True(t, graph.Connected())

	backbone := map[string]struct{}{}
	for _, link := range OSPFLab().Backbone {
		backbone[RouterName(link.AreaA, link.PosA)] = struct{}{}
		backbone[RouterName(link.AreaB, link.PosB)] = struct{}{}
	}

	for _, area := range OSPFLab().Areas {
		routers := []string{}
		for pos := 1; pos <= RoutersPerArea; pos++ {
			routers = append(routers, RouterName(area.ID, pos))
		}

		mesh := graph.Induced(routers...)
		require.Equal(t, 5, mesh.EdgeCount(), "area %d", area.ID)
		require.True(t, mesh.Connected(), "area %d", area.ID)
		require.NotContains(t, mesh.Neighbors(RouterName(area.ID, 2)), RouterName(area.ID, 3))

		attached := []string{}
		for _, name := range routers {
			if _, ok := backbone[name]; ok {
				attached = append(attached, name)
			}
		}
		require.Len(t, attached, 2, "area %d", area.ID)
		require.GreaterOrEqual(t, mesh.DisjointPaths(attached[0], attached[1]), 2, "area %d", area.ID)
	}
}

func TestLabSpecValidation(t *testing.T) {
	paths := NewPathTemplate("lab")

	missing := OSPFLab()
	missing.Areas[0].Links = missing.Areas[0].Links[:4]
	_, err := BuildLab(missing, paths)
	require.ErrorIs(t, err, ErrInvalidLink)

	extra := OSPFLab()
	extra.Areas[1].Links = append(extra.Areas[1].Links, RouterLink{A: 2, IfA: "eth5", B: 3, IfB: "eth5"})
	_, err = BuildLab(extra, paths)
	require.ErrorIs(t, err, ErrInvalidLink)

	unnamed := OSPFLab()
	unnamed.Areas[2].Links[0].IfB = ""
	_, err = BuildLab(unnamed, paths)
	require.ErrorIs(t, err, ErrInvalidLink)

	duplicate := OSPFLab()
	duplicate.Areas[1].ID = 1
	_, err = BuildLab(duplicate, paths)
	require.ErrorIs(t, err, ErrDuplicateNode)

	dangling := OSPFLab()
	dangling.Backbone[0].AreaB = 7
	_, err = BuildLab(dangling, paths)
	require.ErrorIs(t, err, ErrUnknownNode)

	clash := OSPFLab()
	clash.Backbone[2].IfA = "eth3"
	_, err = BuildLab(clash, paths)
	require.ErrorIs(t, err, ErrInvalidInterface)
}

func TestStaticLab(t *testing.T) {
	topo, err := StaticLab(NewPathTemplate("/srv/frr"))
	require.NoError(t, err)

	require.Len(t, topo.Routers(), 2)
	require.Len(t, topo.Links(), 3)
	require.True(t, topo.Graph().Connected())

	r1, ok := topo.Node("r1")
	require.True(t, ok)
	require.Equal(t, "/srv/frr/r1", r1.ConfigDir)
}

func TestLookupPreset(t *testing.T) {
	require.Equal(t, []string{"ospf", "static"}, PresetNames())

	preset, err := LookupPreset(DefaultPreset)
	require.NoError(t, err)
	topo, err := preset.Build(NewPathTemplate("lab"))
	require.NoError(t, err)
	require.Equal(t, "ospf", topo.Name())

	_, err = LookupPreset("bgp")
	require.Error(t, err)
}
