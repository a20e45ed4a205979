package provision

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/c2h5oh/datasize"
	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

type Config config
type config struct {
	// TemplateDir is the directory holding the router configuration
	// templates.
	TemplateDir string `yaml:"template_dir"`
	// Placeholder is the hostname every template carries in its
	// "hostname <placeholder>" line.
	Placeholder string `yaml:"placeholder"`
	// HostnameFiles are glob patterns selecting the templates that get their
	// hostname line rewritten. Every pattern must match at least one
	// template.
	HostnameFiles []string `yaml:"hostname_files"`
	// MaxTemplateSize limits the size of a single template file.
	MaxTemplateSize datasize.ByteSize `yaml:"max_template_size"`
	// Parallelism is the number of routers provisioned concurrently.
	Parallelism int `yaml:"parallelism"`
}

func DefaultConfig() *Config {
	return &Config{
		TemplateDir:     "Template/router",
		Placeholder:     "dummy",
		HostnameFiles:   []string{"frr.conf", "vtysh.conf"},
		MaxTemplateSize: datasize.MB,
		Parallelism:     1,
	}
}

// UnmarshalYAML serves as a proxy for validation.
func (m *Config) UnmarshalYAML(value *yaml.Node) error {
	if err := value.Decode((*config)(m)); err != nil {
		return err
	}
	return m.Validate()
}

// Validate validates the provisioning configuration.
func (m *Config) Validate() error {
	if strings.TrimSpace(m.TemplateDir) == "" {
		return fmt.Errorf("template directory cannot be empty")
	}
	if m.Placeholder == "" || strings.ContainsFunc(m.Placeholder, unicode.IsSpace) {
		return fmt.Errorf("placeholder hostname %q must be a single non-empty word", m.Placeholder)
	}
	if _, err := m.hostnameMatchers(); err != nil {
		return err
	}
	if m.MaxTemplateSize == 0 {
		return fmt.Errorf("max template size must be positive")
	}
	if m.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1, got %d", m.Parallelism)
	}
	return nil
}

type hostnameMatcher struct {
	pattern string
	glob    glob.Glob
}

func (m *Config) hostnameMatchers() ([]hostnameMatcher, error) {
	out := make([]hostnameMatcher, 0, len(m.HostnameFiles))
	for _, pattern := range m.HostnameFiles {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile hostname file pattern %q: %w", pattern, err)
		}
		out = append(out, hostnameMatcher{pattern: pattern, glob: g})
	}
	return out, nil
}
