package netns

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/yanet-platform/netlab/topology"
)

func TestPlanStaticLab(t *testing.T) {
	topo, err := topology.StaticLab(topology.NewPathTemplate("lab"))
	require.NoError(t, err)

	plan, err := NewPlan(topo)
	require.NoError(t, err)

	got := []string{}
	for _, link := range plan.Links {
		got = append(got, link.Link.A.Node+":"+link.IfA+" -- "+link.Link.B.Node+":"+link.IfB)
	}
	require.Equal(t, []string{
		"h1:eth0 -- r1:eth0",
		"h2:eth0 -- r2:eth0",
		"r1:eth1 -- r2:eth1",
	}, got)
}

func TestPlanOSPFLab(t *testing.T) {
	topo, err := topology.BuildLab(topology.OSPFLab(), topology.NewPathTemplate("lab"))
	require.NoError(t, err)

	plan, err := NewPlan(topo)
	require.NoError(t, err)
	require.Len(t, plan.Links, len(topo.Links()))

	// Explicit names are kept, switch ports are numbered.
	first := plan.Links[0]
	require.Equal(t, "S11", first.Link.A.Node)
	require.Equal(t, "eth1", first.IfA)
	require.Equal(t, "eth2", first.IfB)

	second := plan.Links[1]
	require.Equal(t, "eth2", second.IfA)
	require.Equal(t, "eth1", second.IfB)

	for _, node := range plan.Nodes {
		seen := map[string]struct{}{}
		for _, iface := range node.Interfaces {
			_, dup := seen[iface]
			require.False(t, dup, "%s has %s twice", node.Node.Name, iface)
			seen[iface] = struct{}{}
		}
	}
}

func TestPlanSkipsExplicitNames(t *testing.T) {
	topo, err := topology.NewBuilder("mixed", topology.NewPathTemplate("lab")).
		Router("a").
		Router("b").
		Router("c").
		Link(topology.On("a"), topology.On("b")).
		Link(topology.At("a", "eth1"), topology.At("c", "eth0")).
		Link(topology.On("a"), topology.On("c")).
		Topology()
	require.NoError(t, err)

	plan, err := NewPlan(topo)
	require.NoError(t, err)

	require.Equal(t, "eth0", plan.Links[0].IfA)
	require.Equal(t, "eth0", plan.Links[0].IfB)
	require.Equal(t, "eth2", plan.Links[2].IfA)
	require.Equal(t, "eth1", plan.Links[2].IfB)
	require.Equal(t, []string{"eth0", "eth1", "eth2"}, plan.Nodes[0].Interfaces)
}

func TestTempNamesFitInterfaceLimit(t *testing.T) {
	a, b := tempNames(99999)
	require.LessOrEqual(t, len(a), 15)
	require.LessOrEqual(t, len(b), 15)
	require.NotEqual(t, a, b)
}

func TestEnvCommand(t *testing.T) {
	env := NewEnv(DefaultConfig(), "R11")
	require.Equal(t, "R11", env.Node())

	cmd := env.Command(context.Background(), "sysctl", "-w", "net.ipv4.ip_forward=1")
	require.Equal(t, []string{"ip", "netns", "exec", "netlab-R11", "sysctl", "-w", "net.ipv4.ip_forward=1"}, cmd.Args)
}

func TestConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, yaml.Unmarshal([]byte("prefix: lab1-\nmtu: 1400\n"), cfg))
	require.Equal(t, "lab1-R11", cfg.Namespace("R11"))
	require.Equal(t, 1400, cfg.MTU)
	require.True(t, cfg.ReplaceStale)

	for _, c := range []string{`prefix: "a/b"`, `ip_command: ""`, `mtu: -1`} {
		require.Error(t, yaml.Unmarshal([]byte(c), DefaultConfig()), c)
	}
}

func TestStopWithoutBuild(t *testing.T) {
	emu := New(DefaultConfig())
	require.NoError(t, emu.Stop(context.Background()))
	require.Error(t, emu.Start(context.Background()))
}
