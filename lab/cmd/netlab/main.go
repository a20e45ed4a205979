package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/yanet-platform/netlab/common/go/logging"
	"github.com/yanet-platform/netlab/common/go/xcmd"
	"github.com/yanet-platform/netlab/emulator/netns"
	"github.com/yanet-platform/netlab/frr"
	"github.com/yanet-platform/netlab/lab"
)

var rootCmd = &cobra.Command{
	Use:   "netlab",
	Short: "Emulated multi-area OSPF network lab",
	Long: `Build an emulated network of hosts, switches and FRR routers in Linux
network namespaces, provisioning every router configuration directory from
templates on the first run.`,
	Args: cobra.NoArgs,
	Run: func(c *cobra.Command, args []string) {
		if err := run(c); err != nil {
			if errors.Is(err, xcmd.Interrupted{}) {
				return
			}

			fmt.Printf("ERROR: %v\n", err)
			os.Exit(1)
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cobra.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.AbsPaths(); err != nil {
		return err
	}

	log, _, err := logging.Init(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer log.Sync()

	runner, err := lab.NewRunner(cfg, osfs.New("/"), lab.WithLog(log))
	if err != nil {
		return fmt.Errorf("failed to create lab runner: %w", err)
	}

	supervisor, err := frr.NewSupervisor(cfg.Daemons, frr.WithLog(log))
	if err != nil {
		return fmt.Errorf("failed to create daemon supervisor: %w", err)
	}
	hooks := lab.NewRouterHooks(cfg.Hooks, supervisor, lab.WithLog(log))
	emu := netns.New(cfg.Emulator, netns.WithLog(log))

	return runner.Run(context.Background(), emu, hooks)
}
