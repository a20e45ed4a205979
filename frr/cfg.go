package frr

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yanet-platform/netlab/topology"
)

// Tokens expanded in daemon arguments.
const (
	TokenConfig = "{config}"
	TokenRun    = "{run}"
	TokenLog    = "{log}"
	TokenName   = "{name}"
)

type Config config
type config struct {
	// BinDir is the directory holding the daemon binaries.
	BinDir string `yaml:"bin_dir"`
	// RunDir is the per-router directory for pid files and sockets. It
	// must contain the %name% token.
	RunDir topology.PathTemplate `yaml:"run_dir"`
	// LogDir is the per-router directory receiving daemon output. It must
	// contain the %name% token.
	LogDir topology.PathTemplate `yaml:"log_dir"`
	// Daemons are started in order and stopped in reverse order.
	Daemons []DaemonConfig `yaml:"daemons"`
	// Reload is an optional command run inside the router once every
	// daemon is started, for example frr-reload.py.
	Reload []string `yaml:"reload"`
	// StopTimeout is how long a daemon may take to exit after SIGTERM
	// before it is killed.
	StopTimeout time.Duration `yaml:"stop_timeout"`
}

// DaemonConfig describes a single routing daemon.
type DaemonConfig struct {
	// Name is the binary name inside BinDir.
	Name string `yaml:"name"`
	// Args may reference {config}, {run}, {log} and {name}.
	Args []string `yaml:"args"`
}

func daemonArgs(name string, extra ...string) []string {
	args := []string{"-A", "127.0.0.1"}
	args = append(args, extra...)
	return append(args,
		"-f", TokenConfig+"/frr.conf",
		"-i", TokenRun+"/"+name+".pid",
		"-z", TokenRun+"/zserv.api",
		"--vty_socket", TokenRun,
	)
}

func DefaultConfig() *Config {
	return &Config{
		BinDir: "/usr/lib/frr",
		RunDir: "/var/run/netlab/" + topology.NameToken,
		LogDir: "/var/log/netlab/" + topology.NameToken,
		Daemons: []DaemonConfig{
			{Name: "zebra", Args: daemonArgs("zebra", "-s", "90000000")},
			{Name: "staticd", Args: daemonArgs("staticd")},
			{Name: "ospfd", Args: daemonArgs("ospfd")},
			{Name: "bgpd", Args: daemonArgs("bgpd")},
		},
		StopTimeout: 5 * time.Second,
	}
}

// UnmarshalYAML serves as a proxy for validation.
func (m *Config) UnmarshalYAML(value *yaml.Node) error {
	if err := value.Decode((*config)(m)); err != nil {
		return err
	}
	return m.Validate()
}

// Validate validates the daemon supervisor configuration.
func (m *Config) Validate() error {
	if strings.TrimSpace(m.BinDir) == "" {
		return fmt.Errorf("daemon binary directory cannot be empty")
	}
	if err := m.RunDir.Validate(); err != nil {
		return fmt.Errorf("invalid run directory: %w", err)
	}
	if err := m.LogDir.Validate(); err != nil {
		return fmt.Errorf("invalid log directory: %w", err)
	}
	if len(m.Daemons) == 0 {
		return fmt.Errorf("at least one daemon must be configured")
	}

	seen := map[string]struct{}{}
	for _, daemon := range m.Daemons {
		if daemon.Name == "" || strings.ContainsRune(daemon.Name, '/') {
			return fmt.Errorf("invalid daemon name %q", daemon.Name)
		}
		if _, ok := seen[daemon.Name]; ok {
			return fmt.Errorf("daemon %q is configured twice", daemon.Name)
		}
		seen[daemon.Name] = struct{}{}
	}
	if m.StopTimeout <= 0 {
		return fmt.Errorf("stop timeout must be positive")
	}
	return nil
}
