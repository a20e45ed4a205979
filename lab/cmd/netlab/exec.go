package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yanet-platform/netlab/emulator/netns"
	"github.com/yanet-platform/netlab/topology"
)

var execCmd = &cobra.Command{
	Use:   "exec NODE -- COMMAND [ARGS...]",
	Short: "Run a command inside a node of the running lab",
	Example: `  netlab exec R11 -- vtysh -c "show ip ospf neighbor"
  netlab exec C11 -- ping -c 3 172.18.1.2`,
	Args: cobra.MinimumNArgs(2),
	Run: func(c *cobra.Command, args []string) {
		if err := runExec(c, args[0], args[1:]); err != nil {
			fmt.Printf("ERROR: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
}

func runExec(c *cobra.Command, node string, argv []string) error {
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
	if _, ok := topo.Node(node); !ok {
		return fmt.Errorf("topology %s has no node %q", topo.Name(), node)
	}

	proc := netns.NewEnv(cfg.Emulator, node).Command(context.Background(), argv[0], argv[1:]...)
	proc.Stdin = os.Stdin
	proc.Stdout = os.Stdout
	proc.Stderr = os.Stderr
	if err := proc.Run(); err != nil {
		return fmt.Errorf("failed to run %s on %s: %w", argv[0], node, err)
	}
	return nil
}
