package provision

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanet-platform/netlab/topology"
)

const dirMode = 0o755

type options struct {
	Log         *zap.SugaredLogger
	Parallelism int
}

func newOptions() *options {
	return &options{
		Log:         zap.NewNop().Sugar(),
		Parallelism: 1,
	}
}

// Option is a function that configures provisioning.
type Option func(*options)

// WithLog sets the logger.
func WithLog(log *zap.SugaredLogger) Option {
	return func(o *options) {
		o.Log = log
	}
}

// WithParallelism sets the number of routers provisioned concurrently.
// Values below 1 are ignored.
func WithParallelism(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.Parallelism = n
		}
	}
}

// Provisioner materializes per-router configuration directories from a
// template set.
type Provisioner struct {
	fs          billy.Filesystem
	templates   *TemplateSet
	paths       topology.PathTemplate
	parallelism int
	log         *zap.SugaredLogger
}

// NewProvisioner creates a provisioner writing router directories resolved
// from the given path template.
func NewProvisioner(
	fs billy.Filesystem,
	templates *TemplateSet,
	paths topology.PathTemplate,
	options ...Option,
) (*Provisioner, error) {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	if err := paths.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create provisioner: %w", err)
	}

	return &Provisioner{
		fs:          fs,
		templates:   templates,
		paths:       paths,
		parallelism: opts.Parallelism,
		log:         opts.Log,
	}, nil
}

// Provision writes a fresh copy of every template into the router's
// directory, rewriting the hostname line to the router name.
//
// Same-named files are overwritten; files not present in the template set
// are left alone.
func (m *Provisioner) Provision(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateName(name); err != nil {
		return err
	}

	dir := m.paths.Resolve(name)
	if err := m.fs.MkdirAll(dir, dirMode); err != nil {
		return &Error{Node: name, Path: dir, Err: fmt.Errorf("failed to create directory: %w", err)}
	}

	for _, file := range m.templates.Render(name) {
		filePath := filepath.Join(dir, file.Name)
		if err := util.WriteFile(m.fs, filePath, file.Data, file.Mode); err != nil {
			return &Error{Node: name, Path: filePath, Err: fmt.Errorf("failed to write file: %w", err)}
		}
		// WriteFile applies the mode on creation only.
		if ch, ok := m.fs.(billy.Change); ok {
			if err := ch.Chmod(filePath, file.Mode); err != nil {
				return &Error{Node: name, Path: filePath, Err: fmt.Errorf("failed to set mode: %w", err)}
			}
		}
		if file.Replaced > 0 {
			m.log.Debugw("rewrote hostname",
				zap.String("node", name),
				zap.String("file", file.Name),
				zap.Int("lines", file.Replaced),
			)
		}
	}

	m.log.Debugw("provisioned router", zap.String("node", name), zap.String("dir", dir))
	return nil
}

// ProvisionAll provisions every named router.
//
// The first failure cancels routers not yet started and is returned.
func (m *Provisioner) ProvisionAll(ctx context.Context, names []string) error {
	startedAt := time.Now()

	wg, ctx := errgroup.WithContext(ctx)
	wg.SetLimit(m.parallelism)
	for _, name := range names {
		wg.Go(func() error {
			return m.Provision(ctx, name)
		})
	}
	if err := wg.Wait(); err != nil {
		return err
	}

	m.log.Infow("provisioned routers",
		zap.Int("count", len(names)),
		zap.String("base", m.paths.Base()),
		zap.Duration("took", time.Since(startedAt)),
	)
	return nil
}

func validateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q is reserved", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`+"\x00"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case strings.ContainsFunc(name, unicode.IsSpace):
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidName, name)
	}
	return nil
}
