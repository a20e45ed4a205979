package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"

	"github.com/yanet-platform/netlab/lab"
)

// dirValue implements pflag.Value for the configuration base directory,
// rejecting blank values at parse time.
type dirValue string

var _ pflag.Value = (*dirValue)(nil)

func (m *dirValue) String() string {
	return string(*m)
}

func (m *dirValue) Set(value string) error {
	if err := lab.ValidateConfigDir(value); err != nil {
		return err
	}
	*m = dirValue(value)
	return nil
}

func (m *dirValue) Type() string {
	return "dir"
}

// Cmd is the command line arguments shared by every command.
type Cmd struct {
	// ConfigPath is the optional path to the YAML configuration file.
	ConfigPath string
	// ConfigDir is the base directory of the router configuration.
	ConfigDir dirValue
	// Topology is the topology preset name.
	Topology string
	// TemplateDir is the router template directory.
	TemplateDir string
	// GenerateConfig forces provisioning.
	GenerateConfig bool
	// Verbose enables debug logging.
	Verbose bool
}

var cmd = Cmd{
	ConfigDir: lab.DefaultConfigDir,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cmd.ConfigPath, "config", "", "Path to the YAML configuration file")
	flags.VarP(&cmd.ConfigDir, "config-dir", "c", "Directory to use for saving the router configurations\n"+
		"Example: \"sudo netlab -c /tmp/config_ospf_lab\"")
	flags.StringVarP(&cmd.Topology, "topology", "t", "", "Topology preset, one of ospf or static (default ospf)")
	flags.StringVar(&cmd.TemplateDir, "template-dir", "", "Router configuration template directory (default Template/router)")
	flags.BoolVarP(&cmd.Verbose, "verbose", "v", false, "Print detailed logs during network creation and stop")

	rootCmd.Flags().BoolVarP(&cmd.GenerateConfig, "generate-config", "g", false, "Generate router config files.\n"+
		"This will overwrite existing files")
}

// loadConfig builds the configuration from the optional file and the
// command line, flags taking precedence.
func loadConfig(c *cobra.Command) (*lab.Config, error) {
	cfg := lab.DefaultConfig()
	if cmd.ConfigPath != "" {
		var err error
		if cfg, err = lab.LoadConfig(cmd.ConfigPath); err != nil {
			return nil, err
		}
	}

	flags := c.Flags()
	if flags.Changed("config-dir") {
		cfg.Lab.ConfigDir = string(cmd.ConfigDir)
	}
	if flags.Changed("topology") {
		cfg.Lab.Topology = cmd.Topology
	}
	if flags.Changed("template-dir") {
		cfg.Provision.TemplateDir = cmd.TemplateDir
	}
	if cmd.GenerateConfig {
		cfg.Lab.GenerateConfig = true
	}
	if cmd.Verbose {
		cfg.Logging.Level = zapcore.DebugLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
