package provision

import (
	"cmp"
	"fmt"
	"os"
	"path"
	"slices"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"go.uber.org/zap"
)

// TemplateFile is a regular file of the template directory.
type TemplateFile struct {
	// Name is the file name inside the template directory.
	Name string
	// Mode is the permission bits copied to provisioned files.
	Mode os.FileMode
	// Data is the file content.
	Data []byte
	// Hostname marks files whose hostname line is rewritten per router.
	Hostname bool
}

// RenderedFile is a template file personalized for a router.
type RenderedFile struct {
	Name string
	Mode os.FileMode
	Data []byte
	// Replaced is the number of rewritten hostname lines.
	Replaced int
}

// TemplateSet is the template directory loaded into memory once per run.
//
// It is read-only after loading and safe for concurrent use.
type TemplateSet struct {
	dir         string
	placeholder string
	files       []TemplateFile
}

// LoadTemplates reads every file of the configured template directory.
//
// The directory must be flat and non-empty, and every hostname file pattern
// must select at least one template.
func LoadTemplates(fs billy.Filesystem, cfg *Config, options ...Option) (*TemplateSet, error) {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}
	log := opts.Log

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid provisioning config: %w", err)
	}
	matchers, err := cfg.hostnameMatchers()
	if err != nil {
		return nil, err
	}

	dir := cfg.TemplateDir
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return nil, &Error{Path: dir, Err: fmt.Errorf("failed to read template directory: %w", err)}
	}

	matched := make([]bool, len(matchers))
	files := make([]TemplateFile, 0, len(entries))
	limit := cfg.MaxTemplateSize.Bytes()
	for _, entry := range entries {
		filePath := path.Join(dir, entry.Name())

		info := entry
		if !info.Mode().IsRegular() && !info.IsDir() {
			// Follow symlinks.
			if info, err = fs.Stat(filePath); err != nil {
				return nil, &Error{Path: filePath, Err: err}
			}
		}
		if info.IsDir() {
			return nil, &Error{Path: filePath, Err: fmt.Errorf("nested directories are not supported")}
		}
		if !info.Mode().IsRegular() {
			return nil, &Error{Path: filePath, Err: fmt.Errorf("not a regular file: %s", info.Mode())}
		}
		if uint64(info.Size()) > limit {
			return nil, &Error{
				Path: filePath,
				Err:  fmt.Errorf("template is %d bytes, larger than the %s limit", info.Size(), cfg.MaxTemplateSize.HR()),
			}
		}

		data, err := util.ReadFile(fs, filePath)
		if err != nil {
			return nil, &Error{Path: filePath, Err: fmt.Errorf("failed to read template: %w", err)}
		}

		file := TemplateFile{
			Name: entry.Name(),
			Mode: info.Mode().Perm(),
			Data: data,
		}
		for idx, matcher := range matchers {
			if matcher.glob.Match(file.Name) {
				matched[idx] = true
				file.Hostname = true
			}
		}
		files = append(files, file)
	}

	if len(files) == 0 {
		return nil, &Error{Path: dir, Err: fmt.Errorf("template directory is empty")}
	}
	for idx, ok := range matched {
		if !ok {
			return nil, &Error{
				Path: dir,
				Err:  fmt.Errorf("hostname file pattern %q matches no template", matchers[idx].pattern),
			}
		}
	}

	slices.SortFunc(files, func(a, b TemplateFile) int {
		return cmp.Compare(a.Name, b.Name)
	})

	for _, file := range files {
		if file.Hostname && !containsPlaceholder(file.Data, cfg.Placeholder) {
			log.Warnw("hostname template has no placeholder line",
				zap.String("file", file.Name),
				zap.String("placeholder", hostnameKeyword+cfg.Placeholder),
			)
		}
	}
	log.Debugw("loaded templates", zap.String("dir", dir), zap.Int("count", len(files)))

	return &TemplateSet{
		dir:         dir,
		placeholder: cfg.Placeholder,
		files:       files,
	}, nil
}

// Dir returns the template directory.
func (m *TemplateSet) Dir() string {
	return m.dir
}

// Placeholder returns the hostname shared by all templates.
func (m *TemplateSet) Placeholder() string {
	return m.placeholder
}

// Files returns the templates sorted by name.
func (m *TemplateSet) Files() []TemplateFile {
	return slices.Clone(m.files)
}

// Render returns every template personalized for the given hostname.
func (m *TemplateSet) Render(hostname string) []RenderedFile {
	out := make([]RenderedFile, 0, len(m.files))
	for _, file := range m.files {
		rendered := RenderedFile{
			Name: file.Name,
			Mode: file.Mode,
			Data: file.Data,
		}
		if file.Hostname {
			rendered.Data, rendered.Replaced = ReplaceHostname(file.Data, m.placeholder, hostname)
		}
		out = append(out, rendered)
	}
	return out
}

func containsPlaceholder(data []byte, placeholder string) bool {
	_, count := ReplaceHostname(data, placeholder, placeholder)
	return count > 0
}
