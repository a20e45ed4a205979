package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/yanet-platform/netlab/common/go/logging"
	"github.com/yanet-platform/netlab/lab"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Provision router configuration directories without starting the lab",
	Long: `Write a fresh copy of the router templates into the configuration
directory of every router, overwriting same-named files.`,
	Args: cobra.NoArgs,
	Run: func(c *cobra.Command, args []string) {
		if err := runProvision(c); err != nil {
			fmt.Printf("ERROR: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(provisionCmd)
}

func runProvision(c *cobra.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Lab.GenerateConfig = true
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

	topo, err := runner.Prepare(context.Background())
	if err != nil {
		return err
	}

	for _, router := range topo.Routers() {
		fmt.Println(router.ConfigDir)
	}
	return nil
}
