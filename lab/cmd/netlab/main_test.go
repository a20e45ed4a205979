package main

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/yanet-platform/netlab/topology"
)

func TestDirValue(t *testing.T) {
	cases := []struct {
		args     []string
		expected string
		err      string
	}{
		{args: []string{}, expected: "config_ospf_lab"},
		{args: []string{"-c", "/tmp/config_ospf_lab"}, expected: "/tmp/config_ospf_lab"},
		{args: []string{"--config-dir=lab"}, expected: "lab"},
		{args: []string{"-c", ""}, err: "directory cannot be an empty string"},
		{args: []string{"--config-dir", "   "}, err: "directory cannot be only whitespace"},
	}

	for idx, c := range cases {
		t.Run(fmt.Sprintf("case #%d", idx), func(t *testing.T) {
			value := dirValue("config_ospf_lab")
			flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
			flags.SetOutput(&bytes.Buffer{})
			flags.VarP(&value, "config-dir", "c", "")

			err := flags.Parse(c.args)
			if c.err != "" {
				require.ErrorContains(t, err, c.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, c.expected, value.String())
		})
	}
}

func TestLoadConfigFlags(t *testing.T) {
	require.NoError(t, rootCmd.ParseFlags([]string{
		"-c", "/tmp/static_lab",
		"-t", "static",
		"--template-dir", "/etc/netlab/router",
		"-g",
		"-v",
	}))

	cfg, err := loadConfig(rootCmd)
	require.NoError(t, err)
	require.Equal(t, "/tmp/static_lab", cfg.Lab.ConfigDir)
	require.Equal(t, "static", cfg.Lab.Topology)
	require.Equal(t, "/etc/netlab/router", cfg.Provision.TemplateDir)
	require.True(t, cfg.Lab.GenerateConfig)
	require.Equal(t, zapcore.DebugLevel, cfg.Logging.Level)
}

func TestCheckConnectivity(t *testing.T) {
	topo, err := topology.BuildLab(topology.OSPFLab(), topology.NewPathTemplate("lab"))
	require.NoError(t, err)

	report := checkConnectivity(topo)
	require.True(t, report.Connected)
	require.Equal(t, 18, report.Nodes)
	require.Equal(t, 24, report.Links)
	require.Equal(t, 2, report.MinPaths)
	require.NotEmpty(t, report.Weakest)

	out := &bytes.Buffer{}
	require.NoError(t, checkTopology(out, topo))
	require.Contains(t, out.String(), "router connectivity: 2\n")
}

func TestCheckDisconnected(t *testing.T) {
	topo, err := topology.NewBuilder("split", topology.NewPathTemplate("lab")).
		Router("a").
		Router("b").
		Topology()
	require.NoError(t, err)

	report := checkConnectivity(topo)
	require.False(t, report.Connected)
	require.Zero(t, report.MinPaths)
	require.Error(t, checkTopology(&bytes.Buffer{}, topo))
}

func TestExportTopology(t *testing.T) {
	topo, err := topology.StaticLab(topology.NewPathTemplate("lab"))
	require.NoError(t, err)

	out := &bytes.Buffer{}
	require.NoError(t, exportTopology(out, topo))

	doc := topology.Document{}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &doc))
	require.Equal(t, topo.Document(), doc)
	require.Contains(t, out.String(), "{node: h1}")
}

func TestShowTopology(t *testing.T) {
	topo, err := topology.StaticLab(topology.NewPathTemplate("lab"))
	require.NoError(t, err)

	out := &bytes.Buffer{}
	require.NoError(t, showTopology(out, topo))
	require.Contains(t, out.String(), "192.168.1.2/24")
	require.Contains(t, out.String(), "lab/r1")
}
