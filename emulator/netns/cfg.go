package netns

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config config
type config struct {
	// Prefix is prepended to node names to form namespace names.
	Prefix string `yaml:"prefix"`
	// IPCommand is the iproute2 binary used to run commands inside
	// namespaces.
	IPCommand string `yaml:"ip_command"`
	// MTU of every veth pair, 0 keeps the kernel default.
	MTU int `yaml:"mtu"`
	// ReplaceStale removes namespaces left over by a previous run instead
	// of failing.
	ReplaceStale bool `yaml:"replace_stale"`
}

func DefaultConfig() *Config {
	return &Config{
		Prefix:       "netlab-",
		IPCommand:    "ip",
		ReplaceStale: true,
	}
}

// UnmarshalYAML serves as a proxy for validation.
func (m *Config) UnmarshalYAML(value *yaml.Node) error {
	if err := value.Decode((*config)(m)); err != nil {
		return err
	}
	return m.Validate()
}

// Validate validates the emulator configuration.
func (m *Config) Validate() error {
	if strings.ContainsAny(m.Prefix, "/ \t\n\x00") {
		return fmt.Errorf("namespace prefix %q contains forbidden characters", m.Prefix)
	}
	if strings.TrimSpace(m.IPCommand) == "" {
		return fmt.Errorf("ip command cannot be empty")
	}
	if m.MTU < 0 {
		return fmt.Errorf("mtu must not be negative")
	}
	return nil
}

// Namespace returns the namespace name of a node.
func (m *Config) Namespace(node string) string {
	return m.Prefix + node
}
