package lab

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yanet-platform/netlab/common/go/logging"
	"github.com/yanet-platform/netlab/emulator/netns"
	"github.com/yanet-platform/netlab/frr"
	"github.com/yanet-platform/netlab/provision"
	"github.com/yanet-platform/netlab/topology"
)

// DefaultConfigDir is the base directory of the provisioned router
// configuration.
const DefaultConfigDir = "config_ospf_lab"

type Config config
type config struct {
	// Logging configuration.
	Logging logging.Config `yaml:"logging"`
	// Lab selects the topology and where its configuration lives.
	Lab RunConfig `yaml:"lab"`
	// Provision configures the template store and the provisioner.
	Provision *provision.Config `yaml:"provision"`
	// Hooks configures the router start hook.
	Hooks HooksConfig `yaml:"hooks"`
	// Emulator configures the network namespace emulator.
	Emulator *netns.Config `yaml:"emulator"`
	// Daemons configures the routing-daemon supervisor.
	Daemons *frr.Config `yaml:"daemons"`
}

// RunConfig describes a single lab run.
type RunConfig struct {
	// Topology is the name of the topology preset.
	Topology string `yaml:"topology"`
	// ConfigDir is the base directory holding one directory per router.
	ConfigDir string `yaml:"config_dir"`
	// GenerateConfig forces provisioning even if ConfigDir exists.
	GenerateConfig bool `yaml:"generate_config"`
}

func DefaultConfig() *Config {
	return &Config{
		Logging: logging.DefaultConfig(),
		Lab: RunConfig{
			Topology:  topology.DefaultPreset,
			ConfigDir: DefaultConfigDir,
		},
		Provision: provision.DefaultConfig(),
		Hooks:     DefaultHooksConfig(),
		Emulator:  netns.DefaultConfig(),
		Daemons:   frr.DefaultConfig(),
	}
}

// LoadConfig loads the configuration from the given path.
func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("failed to deserialize config: %w", err)
	}

	return cfg, nil
}

// UnmarshalYAML serves as a proxy for validation.
func (m *Config) UnmarshalYAML(value *yaml.Node) error {
	if err := value.Decode((*config)(m)); err != nil {
		return err
	}
	return m.Validate()
}

// Validate validates the lab configuration.
func (m *Config) Validate() error {
	if err := m.Logging.Validate(); err != nil {
		return err
	}
	if err := m.Lab.Validate(); err != nil {
		return err
	}
	if m.Provision == nil {
		return fmt.Errorf("provisioning is not configured")
	}
	if err := m.Provision.Validate(); err != nil {
		return err
	}
	if m.Emulator == nil {
		return fmt.Errorf("emulator is not configured")
	}
	if err := m.Emulator.Validate(); err != nil {
		return err
	}
	if m.Daemons == nil {
		return fmt.Errorf("daemons are not configured")
	}
	return m.Daemons.Validate()
}

// Validate validates the run configuration.
func (m *RunConfig) Validate() error {
	if err := ValidateConfigDir(m.ConfigDir); err != nil {
		return err
	}
	if _, err := topology.LookupPreset(m.Topology); err != nil {
		return err
	}
	return nil
}

// ValidateConfigDir checks the configuration base directory.
func ValidateConfigDir(dir string) error {
	switch {
	case dir == "":
		return fmt.Errorf("directory cannot be an empty string")
	case strings.TrimSpace(dir) == "":
		return fmt.Errorf("directory cannot be only whitespace")
	case strings.Contains(dir, topology.NameToken):
		return fmt.Errorf("directory %q cannot contain the %s token", dir, topology.NameToken)
	}
	return nil
}

// AbsPaths makes every filesystem path of the configuration absolute
// relative to the working directory, so the paths resolve the same way on a
// root-bound filesystem and inside the node namespaces.
func (m *Config) AbsPaths() error {
	dir, err := filepath.Abs(m.Lab.ConfigDir)
	if err != nil {
		return fmt.Errorf("failed to resolve config directory: %w", err)
	}
	m.Lab.ConfigDir = dir

	if m.Provision != nil {
		dir, err := filepath.Abs(m.Provision.TemplateDir)
		if err != nil {
			return fmt.Errorf("failed to resolve template directory: %w", err)
		}
		m.Provision.TemplateDir = dir
	}

	if m.Daemons != nil {
		for _, path := range []*topology.PathTemplate{&m.Daemons.RunDir, &m.Daemons.LogDir} {
			dir, err := filepath.Abs(string(*path))
			if err != nil {
				return fmt.Errorf("failed to resolve daemon directory: %w", err)
			}
			*path = topology.PathTemplate(dir)
		}
	}
	return nil
}
