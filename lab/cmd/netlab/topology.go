package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yanet-platform/netlab/topology"
)

var topologyCmd = &cobra.Command{
	Use:   "topology",
	Short: "Inspect topology presets",
}

var topologyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the nodes and links of the selected topology",
	Args:  cobra.NoArgs,
	Run: func(c *cobra.Command, args []string) {
		if err := runTopology(c, showTopology); err != nil {
			fmt.Printf("ERROR: %v\n", err)
			os.Exit(1)
		}
	},
}

var topologyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the selected topology as YAML",
	Args:  cobra.NoArgs,
	Run: func(c *cobra.Command, args []string) {
		if err := runTopology(c, exportTopology); err != nil {
			fmt.Printf("ERROR: %v\n", err)
			os.Exit(1)
		}
	},
}

var topologyCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the connectivity of the selected topology",
	Long: `Check that every node is reachable and report the router connectivity:
the smallest number of independent paths between any two routers.`,
	Args: cobra.NoArgs,
	Run: func(c *cobra.Command, args []string) {
		if err := runTopology(c, checkTopology); err != nil {
			fmt.Printf("ERROR: %v\n", err)
			os.Exit(1)
		}
	},
}

var topologyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the topology presets",
	Args:  cobra.NoArgs,
	Run: func(c *cobra.Command, args []string) {
		listPresets(os.Stdout)
	},
}

func init() {
	topologyCmd.AddCommand(topologyShowCmd, topologyExportCmd, topologyCheckCmd, topologyListCmd)
	rootCmd.AddCommand(topologyCmd)
}

func runTopology(c *cobra.Command, fn func(io.Writer, *topology.Topology) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	preset, err := topology.LookupPreset(cfg.Lab.Topology)
	if err != nil {
		return err
	}
	topo, err := preset.Build(topology.NewPathTemplate(cfg.Lab.ConfigDir))
	if err != nil {
		return err
	}
	return fn(os.Stdout, topo)
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(header)
	return table
}

func showTopology(w io.Writer, topo *topology.Topology) error {
	nodes := newTable(w, "NODE", "KIND", "CONFIG DIR", "ADDRESS", "GATEWAY")
	for _, node := range topo.Document().Nodes {
		nodes.Append([]string{node.Name, node.Kind, node.ConfigDir, node.Address, node.Gateway})
	}
	nodes.Render()

	fmt.Fprintln(w)

	links := newTable(w, "A", "B")
	for _, link := range topo.Links() {
		links.Append([]string{link.A.String(), link.B.String()})
	}
	links.Render()
	return nil
}

func exportTopology(w io.Writer, topo *topology.Topology) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(topo.Document()); err != nil {
		return fmt.Errorf("failed to encode topology: %w", err)
	}
	return enc.Close()
}

// Report is the connectivity summary of a topology.
type Report struct {
	Nodes     int
	Links     int
	Connected bool
	// MinPaths is the smallest number of vertex-disjoint paths between any
	// two routers over router-to-router links, with the pairs reaching it.
	MinPaths int
	Weakest  [][2]string
}

func checkConnectivity(topo *topology.Topology) Report {
	graph := topo.Graph()
	report := Report{
		Nodes:     len(topo.Nodes()),
		Links:     len(topo.Links()),
		Connected: graph.Connected(),
		MinPaths:  -1,
	}

	names := []string{}
	for _, router := range topo.Routers() {
		names = append(names, router.Name)
	}
	routers := graph.Induced(names...)
	for i := range names {
		for j := i + 1; j < len(names); j++ {
			paths := routers.DisjointPaths(names[i], names[j])
			switch {
			case report.MinPaths == -1 || paths < report.MinPaths:
				report.MinPaths = paths
				report.Weakest = [][2]string{{names[i], names[j]}}
			case paths == report.MinPaths:
				report.Weakest = append(report.Weakest, [2]string{names[i], names[j]})
			}
		}
	}
	if report.MinPaths == -1 {
		report.MinPaths = 0
	}
	return report
}

func checkTopology(w io.Writer, topo *topology.Topology) error {
	report := checkConnectivity(topo)

	fmt.Fprintf(w, "topology %s: %d nodes, %d links\n", topo.Name(), report.Nodes, report.Links)
	fmt.Fprintf(w, "connected: %t\n", report.Connected)
	fmt.Fprintf(w, "router connectivity: %d\n", report.MinPaths)

	weakest := make([]string, 0, len(report.Weakest))
	for _, pair := range report.Weakest {
		weakest = append(weakest, pair[0]+"-"+pair[1])
	}
	if len(weakest) > 0 {
		fmt.Fprintf(w, "weakest router pairs: %s\n", strings.Join(weakest, " "))
	}

	if !report.Connected {
		return fmt.Errorf("topology %s is not connected", topo.Name())
	}
	return nil
}

func listPresets(w io.Writer) {
	table := newTable(w, "NAME", "DESCRIPTION")
	for _, name := range topology.PresetNames() {
		preset, _ := topology.LookupPreset(name)
		table.Append([]string{preset.Name, preset.Description})
	}
	table.Render()
}
